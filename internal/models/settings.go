package models

// OSSConfig holds credentials and location for the object-storage backend.
type OSSConfig struct {
	Endpoint        string `json:"endpoint"`
	Bucket          string `json:"bucket"`
	Region          string `json:"region"`
	AccessKeyID     string `json:"accessKeyId"`
	AccessKeySecret string `json:"accessKeySecret"`
}

// AppSettings is the process-wide configuration document. It is loaded from
// the settings store on each read with defaults merged in for missing fields.
type AppSettings struct {
	StorageLimitMB    float64     `json:"storageLimitMB"` // fractional MB values are valid (e.g. 1.5)
	MaxFileSizeMB     float64     `json:"maxFileSizeMB"`
	DefaultExpireDays int         `json:"defaultExpireDays"` // 0 = never expires
	StorageType       StorageType `json:"storageType"`
	OSSConfig         OSSConfig   `json:"ossConfig"`
}

// DefaultSettings returns the settings used before an admin has saved any.
func DefaultSettings() AppSettings {
	return AppSettings{
		StorageLimitMB:    100,
		MaxFileSizeMB:     100,
		DefaultExpireDays: 7,
		StorageType:       StorageLocal,
	}
}

// SettingsPatch is a partial settings update. Nil fields retain the previous
// value; this defines exactly which fields are patchable.
type SettingsPatch struct {
	StorageLimitMB    *float64     `json:"storageLimitMB,omitempty"`
	MaxFileSizeMB     *float64     `json:"maxFileSizeMB,omitempty"`
	DefaultExpireDays *int         `json:"defaultExpireDays,omitempty"`
	StorageType       *StorageType `json:"storageType,omitempty"`
	OSSConfig         *OSSConfig   `json:"ossConfig,omitempty"`
}

// MergeSettings applies a patch to existing settings and returns the result.
func MergeSettings(old AppSettings, patch SettingsPatch) AppSettings {
	merged := old
	if patch.StorageLimitMB != nil {
		merged.StorageLimitMB = *patch.StorageLimitMB
	}
	if patch.MaxFileSizeMB != nil {
		merged.MaxFileSizeMB = *patch.MaxFileSizeMB
	}
	if patch.DefaultExpireDays != nil {
		merged.DefaultExpireDays = *patch.DefaultExpireDays
	}
	if patch.StorageType != nil {
		merged.StorageType = *patch.StorageType
	}
	if patch.OSSConfig != nil {
		merged.OSSConfig = *patch.OSSConfig
	}
	return merged
}

// Redacted returns a copy safe to expose to unauthenticated clients.
func (s AppSettings) Redacted() AppSettings {
	out := s
	out.OSSConfig.AccessKeyID = ""
	out.OSSConfig.AccessKeySecret = ""
	return out
}
