package config

import (
	"testing"
	"time"
)

func TestLoad_ExtractionDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	e := cfg.Extraction
	if e.BatchSize != 10 {
		t.Errorf("BatchSize = %d, want 10", e.BatchSize)
	}
	if e.MaxErrorPercentage != 10 {
		t.Errorf("MaxErrorPercentage = %v, want 10", e.MaxErrorPercentage)
	}
	if e.TextThreshold != 50 {
		t.Errorf("TextThreshold = %d, want 50", e.TextThreshold)
	}
	if len(e.Languages) != 1 || e.Languages[0] != "eng" {
		t.Errorf("Languages = %v, want [eng]", e.Languages)
	}
	if e.RenderScale != 4 {
		t.Errorf("RenderScale = %d, want 4", e.RenderScale)
	}
	if cfg.Queue.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.Queue.MaxRetries)
	}
	if cfg.Queue.RetryBaseDelay != 60*time.Second {
		t.Errorf("RetryBaseDelay = %v, want 60s", cfg.Queue.RetryBaseDelay)
	}
}

func TestLoad_ExtractionOverrides(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	t.Setenv("MAX_ERROR_PERCENTAGE", "25.5")
	t.Setenv("OCR_TEXT_THRESHOLD", "80")
	t.Setenv("OCR_LANGUAGES", "deu, eng ,fra")
	t.Setenv("MAX_RETRIES", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Extraction.BatchSize != 0 {
		t.Errorf("BatchSize = %d, want 0 (single-transaction mode)", cfg.Extraction.BatchSize)
	}
	if cfg.Extraction.MaxErrorPercentage != 25.5 {
		t.Errorf("MaxErrorPercentage = %v, want 25.5", cfg.Extraction.MaxErrorPercentage)
	}
	if cfg.Extraction.TextThreshold != 80 {
		t.Errorf("TextThreshold = %d, want 80", cfg.Extraction.TextThreshold)
	}
	want := []string{"deu", "eng", "fra"}
	if len(cfg.Extraction.Languages) != len(want) {
		t.Fatalf("Languages = %v, want %v", cfg.Extraction.Languages, want)
	}
	for i := range want {
		if cfg.Extraction.Languages[i] != want[i] {
			t.Fatalf("Languages = %v, want %v", cfg.Extraction.Languages, want)
		}
	}
	if cfg.Queue.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want 5", cfg.Queue.MaxRetries)
	}
}

func TestLoad_RetryBaseDelayForms(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"30", 30 * time.Second}, // plain seconds
		{"90s", 90 * time.Second},
		{"2m", 2 * time.Minute},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("RETRY_BASE_DELAY", tt.value)
			cfg, err := Load()
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if cfg.Queue.RetryBaseDelay != tt.want {
				t.Errorf("RetryBaseDelay = %v, want %v", cfg.Queue.RetryBaseDelay, tt.want)
			}
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("BATCH_SIZE", "ten")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-numeric BATCH_SIZE")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name: "valid",
			mutate: func(c *Config) {
				c.Database.URL = "postgres://localhost/mail"
				c.Auth.APIKey = "sekret"
			},
		},
		{
			name: "zero error tolerance is legal",
			mutate: func(c *Config) {
				c.Database.URL = "postgres://localhost/mail"
				c.Auth.APIKey = "sekret"
				c.Extraction.MaxErrorPercentage = 0
			},
		},
		{
			name:    "missing database URL",
			mutate:  func(c *Config) { c.Auth.APIKey = "sekret" },
			wantErr: true,
		},
		{
			name: "no auth credential",
			mutate: func(c *Config) {
				c.Database.URL = "postgres://localhost/mail"
			},
			wantErr: true,
		},
		{
			name: "negative batch size",
			mutate: func(c *Config) {
				c.Database.URL = "postgres://localhost/mail"
				c.Auth.APIKey = "sekret"
				c.Extraction.BatchSize = -1
			},
			wantErr: true,
		},
		{
			name: "error percentage out of range",
			mutate: func(c *Config) {
				c.Database.URL = "postgres://localhost/mail"
				c.Auth.APIKey = "sekret"
				c.Extraction.MaxErrorPercentage = 150
			},
			wantErr: true,
		},
		{
			name: "supabase backend requires URL",
			mutate: func(c *Config) {
				c.Database.URL = "postgres://localhost/mail"
				c.Auth.APIKey = "sekret"
				c.Storage.Backend = "supabase"
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load()
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
