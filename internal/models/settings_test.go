package models

import "testing"

func int64Ptr(v int64) *int64       { return &v }
func intPtr(v int) *int             { return &v }
func float64Ptr(v float64) *float64 { return &v }

func TestMergeSettings(t *testing.T) {
	base := AppSettings{
		StorageLimitMB:    100,
		MaxFileSizeMB:     50,
		DefaultExpireDays: 7,
		StorageType:       StorageLocal,
		OSSConfig:         OSSConfig{Endpoint: "https://oss.example.com", Bucket: "files"},
	}

	t.Run("empty patch keeps everything", func(t *testing.T) {
		got := MergeSettings(base, SettingsPatch{})
		if got != base {
			t.Errorf("empty patch changed settings: %+v", got)
		}
	})

	t.Run("partial patch updates only named fields", func(t *testing.T) {
		got := MergeSettings(base, SettingsPatch{
			MaxFileSizeMB: float64Ptr(200),
		})
		if got.MaxFileSizeMB != 200 {
			t.Errorf("MaxFileSizeMB = %g, want 200", got.MaxFileSizeMB)
		}
		if got.StorageLimitMB != base.StorageLimitMB || got.DefaultExpireDays != base.DefaultExpireDays {
			t.Errorf("untouched fields changed: %+v", got)
		}
	})

	t.Run("explicit zero is applied", func(t *testing.T) {
		got := MergeSettings(base, SettingsPatch{DefaultExpireDays: intPtr(0)})
		if got.DefaultExpireDays != 0 {
			t.Errorf("DefaultExpireDays = %d, want 0 (never expire)", got.DefaultExpireDays)
		}
	})

	t.Run("oss config replaced wholesale", func(t *testing.T) {
		newType := StorageOSS
		got := MergeSettings(base, SettingsPatch{
			StorageType: &newType,
			OSSConfig:   &OSSConfig{Endpoint: "https://other.example.com", Bucket: "b2"},
		})
		if got.StorageType != StorageOSS {
			t.Errorf("StorageType = %q, want oss", got.StorageType)
		}
		if got.OSSConfig.Endpoint != "https://other.example.com" || got.OSSConfig.Bucket != "b2" {
			t.Errorf("OSSConfig not replaced: %+v", got.OSSConfig)
		}
	})
}

func TestRedacted(t *testing.T) {
	s := AppSettings{
		StorageType: StorageOSS,
		OSSConfig: OSSConfig{
			Endpoint:        "https://oss.example.com",
			Bucket:          "files",
			AccessKeyID:     "AKID",
			AccessKeySecret: "secret",
		},
	}

	got := s.Redacted()
	if got.OSSConfig.AccessKeyID != "" || got.OSSConfig.AccessKeySecret != "" {
		t.Errorf("credentials not redacted: %+v", got.OSSConfig)
	}
	if got.OSSConfig.Endpoint != s.OSSConfig.Endpoint || got.OSSConfig.Bucket != s.OSSConfig.Bucket {
		t.Errorf("non-secret fields changed: %+v", got.OSSConfig)
	}
	if s.OSSConfig.AccessKeySecret != "secret" {
		t.Error("Redacted mutated the original")
	}
}

func TestFileRecordExpired(t *testing.T) {
	now := int64(1_700_000_000_000)

	tests := []struct {
		name   string
		expire *int64
		want   bool
	}{
		{"nil never expires", nil, false},
		{"future deadline", int64Ptr(now + 1), false},
		{"exactly now is expired", int64Ptr(now), true},
		{"past deadline", int64Ptr(now - 1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := FileRecord{ExpireDate: tt.expire}
			if got := f.Expired(now); got != tt.want {
				t.Errorf("Expired = %v, want %v", got, tt.want)
			}
		})
	}
}
