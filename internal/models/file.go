package models

// StorageType identifies which backend holds a file's bytes.
type StorageType string

const (
	// StorageLocal stores bytes on the local filesystem under the upload dir.
	StorageLocal StorageType = "local"
	// StorageOSS stores bytes in an S3-compatible object store.
	StorageOSS StorageType = "oss"
)

// FileRecord is the durable index entry for one stored artifact.
// All fields except DownloadCount are immutable after creation.
type FileRecord struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Size          int64       `json:"size"`
	Type          string      `json:"type"`
	Hash          string      `json:"hash"`
	UploadDate    int64       `json:"uploadDate"` // epoch milliseconds
	Code          string      `json:"code"`
	Data          string      `json:"data"` // resolved access URL
	StorageType   StorageType `json:"storageType"`
	StoragePath   string      `json:"storagePath"`
	DownloadCount int64       `json:"downloadCount"`
	ExpireDate    *int64      `json:"expireDate,omitempty"` // epoch ms, nil = never expires
}

// Expired reports whether the record's expiry deadline has passed.
func (f *FileRecord) Expired(nowMillis int64) bool {
	return f.ExpireDate != nil && *f.ExpireDate <= nowMillis
}

// UploadResponse is the JSON response returned after a successful upload
type UploadResponse struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	URL        string `json:"url"`
	Size       int64  `json:"size"`
	Hash       string `json:"hash"`
	ExpireDate *int64 `json:"expireDate,omitempty"`
}

// ErrorResponse is the JSON error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// HealthResponse is the JSON response for the health check endpoint
type HealthResponse struct {
	Status           string `json:"status"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	TotalFiles       int    `json:"total_files"`
	StorageUsedBytes int64  `json:"storage_used_bytes"`
}
