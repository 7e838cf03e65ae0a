package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// writeTempConfig writes YAML content to a temp file and returns its path
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write temp config: %v", err)
	}
	return path
}

const validClientYAML = `
greenhouse:
  id: greenhouse-01
  location: test bench
source:
  mode: simulate
server:
  url: ws://localhost:8081/sensor-stream
  auth_token: secret-token
`

func TestLoadConfig(t *testing.T) {
	path := writeTempConfig(t, validClientYAML)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Greenhouse.ID != "greenhouse-01" {
		t.Errorf("greenhouse ID = %s", cfg.Greenhouse.ID)
	}
	// Defaults applied
	if cfg.Greenhouse.Crop != "saffron" {
		t.Errorf("crop default = %s, want saffron", cfg.Greenhouse.Crop)
	}
	if cfg.Source.ReadInterval != 30*time.Second {
		t.Errorf("read interval default = %v", cfg.Source.ReadInterval)
	}
	if cfg.Buffer.Size != 1000 || !cfg.Buffer.DropOldest {
		t.Errorf("buffer defaults = %+v", cfg.Buffer)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	if _, err := LoadConfig("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "missing greenhouse id",
			mutate:  func(c *Config) { c.Greenhouse.ID = "" },
			wantErr: "greenhouse ID",
		},
		{
			name:    "csv mode without path",
			mutate:  func(c *Config) { c.Source.Mode = "csv"; c.Source.CSVPath = "" },
			wantErr: "csv_path",
		},
		{
			name:    "unknown source mode",
			mutate:  func(c *Config) { c.Source.Mode = "modbus" },
			wantErr: "source mode",
		},
		{
			name:    "bad server url scheme",
			mutate:  func(c *Config) { c.Server.URL = "http://localhost:8081" },
			wantErr: "ws://",
		},
		{
			name:    "missing auth token",
			mutate:  func(c *Config) { c.Server.AuthToken = "" },
			wantErr: "auth token",
		},
		{
			name:    "read interval too small",
			mutate:  func(c *Config) { c.Source.ReadInterval = 100 * time.Millisecond },
			wantErr: "read interval",
		},
		{
			name:    "buffer too small",
			mutate:  func(c *Config) { c.Buffer.Size = 5 },
			wantErr: "buffer size",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.Greenhouse.ID = "greenhouse-01"
			cfg.Server.URL = "ws://localhost:8081/sensor-stream"
			cfg.Server.AuthToken = "secret"
			cfg.ApplyDefaults()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_OverrideFromEnv(t *testing.T) {
	t.Setenv("GREENHOUSE_ID", "env-greenhouse")
	t.Setenv("SERVER_AUTH_TOKEN", "env-token")

	path := writeTempConfig(t, validClientYAML)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Greenhouse.ID != "env-greenhouse" {
		t.Errorf("greenhouse ID = %s, want env override", cfg.Greenhouse.ID)
	}
	if cfg.Server.AuthToken != "env-token" {
		t.Errorf("auth token = %s, want env override", cfg.Server.AuthToken)
	}
}

func TestConfig_StringMasksToken(t *testing.T) {
	cfg := &Config{}
	cfg.Server.AuthToken = "super-secret-token"

	s := cfg.String()
	if strings.Contains(s, "super-secret-token") {
		t.Error("String() leaks the auth token")
	}
	if !strings.Contains(s, "supe****") {
		t.Errorf("String() = %q, want masked token prefix", s)
	}
}

const validServerYAML = `
server:
  auth_token: secret-token
database:
  enabled: true
thresholds:
  ph:
    min: 5.5
    max: 8.0
`

func TestLoadAppConfig(t *testing.T) {
	path := writeTempConfig(t, validServerYAML)

	cfg, err := LoadAppConfig(path)
	if err != nil {
		t.Fatalf("LoadAppConfig failed: %v", err)
	}

	if cfg.Server.Port != 8081 {
		t.Errorf("port default = %d", cfg.Server.Port)
	}
	if cfg.Database.RetentionDays != 30 {
		t.Errorf("retention default = %d", cfg.Database.RetentionDays)
	}
	// Configured pH variant bound survives, other thresholds defaulted
	if cfg.Thresholds.PH.Min != 5.5 {
		t.Errorf("pH min = %v, want configured 5.5", cfg.Thresholds.PH.Min)
	}
	if cfg.Thresholds.Nitrogen.Min != 20 {
		t.Errorf("nitrogen min = %v, want default 20", cfg.Thresholds.Nitrogen.Min)
	}
}

func TestLoadAppConfig_RejectsInvertedThreshold(t *testing.T) {
	path := writeTempConfig(t, `
server:
  auth_token: secret-token
thresholds:
  soil_humidity:
    min: 60
    max: 40
`)

	_, err := LoadAppConfig(path)
	if err == nil {
		t.Fatal("expected error for inverted threshold range")
	}
	if !strings.Contains(err.Error(), "soil_humidity") {
		t.Errorf("error = %q, want it to name soil_humidity", err)
	}
}

func TestAppConfig_Validate(t *testing.T) {
	base := func() *AppConfig {
		cfg := &AppConfig{}
		cfg.Server.AuthToken = "secret"
		cfg.ApplyDefaults()
		return cfg
	}

	cfg := base()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cfg = base()
	cfg.Server.Port = 70000
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for out-of-range port")
	}

	cfg = base()
	cfg.Server.AuthToken = ""
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing token")
	}

	cfg = base()
	cfg.Database.Enabled = true
	cfg.Database.RetentionDays = -1
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for negative retention")
	}
}
