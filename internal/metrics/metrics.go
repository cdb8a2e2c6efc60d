// Package metrics exposes Prometheus instrumentation for the server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counter metrics (monotonically increasing)
var (
	// UploadsTotal counts file uploads by status (success, deduped, failure)
	UploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airlift_uploads_total",
			Help: "Total number of file uploads",
		},
		[]string{"status"},
	)

	// DownloadsTotal counts claim-code downloads by status (success, not_found, expired, failure)
	DownloadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airlift_downloads_total",
			Help: "Total number of file downloads",
		},
		[]string{"status"},
	)

	// ReaperDeletedTotal counts records removed by the expiry reaper
	ReaperDeletedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "airlift_reaper_deleted_total",
			Help: "Total number of expired files removed by the reaper",
		},
	)

	// HTTPRequestsTotal counts HTTP requests by method, path, and status code
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "airlift_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
)

// Histogram metrics (distributions)
var (
	// HTTPRequestDuration tracks HTTP request latency by method and path
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "airlift_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"method", "path"},
	)

	// UploadSizeBytes tracks distribution of uploaded file sizes
	UploadSizeBytes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name: "airlift_upload_size_bytes",
			Help: "Distribution of uploaded file sizes in bytes",
			Buckets: []float64{
				1024,       // 1 KB
				10240,      // 10 KB
				102400,     // 100 KB
				1048576,    // 1 MB
				10485760,   // 10 MB
				104857600,  // 100 MB
				1073741824, // 1 GB
			},
		},
	)
)
