package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "WORKER_COUNT", "MAX_UPLOAD_BYTES", "LINK_CHECK", "JOB_TTL"} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.Port != "8091" {
		t.Errorf("expected default port 8091, got %q", cfg.Port)
	}
	if cfg.WorkerCount != 4 {
		t.Errorf("expected 4 workers, got %d", cfg.WorkerCount)
	}
	if cfg.MaxUploadBytes != 10485760 {
		t.Errorf("expected 10MB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.LinkCheck {
		t.Error("expected link checking off by default")
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected 1h job TTL, got %v", cfg.JobTTL)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("LESSONLINT_API_KEY", "secret")
	t.Setenv("WORKER_COUNT", "2")
	t.Setenv("LINK_CHECK", "true")
	t.Setenv("LINK_CHECK_TIMEOUT", "3s")
	t.Setenv("DB_PATH", "/tmp/test.db")

	cfg := Load()
	if cfg.Port != "9000" || cfg.APIKey != "secret" || cfg.WorkerCount != 2 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !cfg.LinkCheck || cfg.LinkCheckTimeout != 3*time.Second {
		t.Errorf("unexpected link-check config: %+v", cfg)
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("unexpected db path: %q", cfg.DBPath)
	}
}

func TestLoadIgnoresInvalidValues(t *testing.T) {
	t.Setenv("WORKER_COUNT", "not-a-number")
	t.Setenv("JOB_TTL", "soon")
	cfg := Load()
	if cfg.WorkerCount != 4 {
		t.Errorf("expected fallback worker count, got %d", cfg.WorkerCount)
	}
	if cfg.JobTTL != time.Hour {
		t.Errorf("expected fallback job TTL, got %v", cfg.JobTTL)
	}
}

func TestValidate(t *testing.T) {
	cfg := Config{DBPath: "x.db"}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without api key")
	}
	cfg.APIKey = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	cfg.DBPath = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error without db path")
	}
}
