package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/veriscan/veriscan/internal/reference"
)

func writeConfigFile(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		file    string
		wantErr bool
	}{
		{
			name: "valid yaml config",
			file: "config.yaml",
			content: []byte(`
scan:
  workers: 50
  timeout: 2s
reference:
  timing: polite
logging:
  level: debug
  format: json
`),
			wantErr: false,
		},
		{
			name: "valid json config",
			file: "config.json",
			content: []byte(`{
				"scan": {"workers": 4, "timeout": "500ms"},
				"logging": {"level": "warn", "format": "text"}
			}`),
			wantErr: false,
		},
		{
			name: "invalid yaml syntax",
			file: "config.yaml",
			content: []byte(`
scan: [
`),
			wantErr: true,
		},
		{
			name: "invalid worker count",
			file: "config.yaml",
			content: []byte(`
scan:
  workers: 0
`),
			wantErr: true,
		},
		{
			name: "invalid reference timing",
			file: "config.yaml",
			content: []byte(`
reference:
  timing: ludicrous
`),
			wantErr: true,
		},
		{
			name: "invalid log level",
			file: "config.yaml",
			content: []byte(`
logging:
  level: loud
`),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.file, tt.content)

			cfg, err := Load(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && cfg == nil {
				t.Fatal("Load() returned nil config without error")
			}
		})
	}
}

func TestLoadValues(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", []byte(`
scan:
  workers: 50
  timeout: 2s
reference:
  timing: aggressive
status:
  enabled: true
  addr: "127.0.0.1:9191"
`))

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Scan.Workers != 50 {
		t.Errorf("Scan.Workers = %d, want 50", cfg.Scan.Workers)
	}
	if cfg.Scan.Timeout != 2*time.Second {
		t.Errorf("Scan.Timeout = %v, want 2s", cfg.Scan.Timeout)
	}
	if cfg.Reference.Timing != reference.TimingAggressive {
		t.Errorf("Reference.Timing = %q, want aggressive", cfg.Reference.Timing)
	}
	if !cfg.IsStatusEnabled() {
		t.Error("IsStatusEnabled() = false, want true")
	}
	if cfg.GetStatusAddress() != "127.0.0.1:9191" {
		t.Errorf("GetStatusAddress() = %q", cfg.GetStatusAddress())
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfigFile(t, "config.yaml", []byte(`
scan:
  workers: 7
`))

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Scan.Workers != 7 {
		t.Errorf("Scan.Workers = %d, want 7", cfg.Scan.Workers)
	}
	if cfg.Scan.Timeout != time.Second {
		t.Errorf("Scan.Timeout = %v, want default 1s", cfg.Scan.Timeout)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want default info", cfg.Logging.Level)
	}
	if cfg.GetLogOutput() != "stderr" {
		t.Errorf("GetLogOutput() = %q, want stderr", cfg.GetLogOutput())
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load() on missing file should return defaults, got error: %v", err)
	}
	if cfg.Scan.Workers != 100 {
		t.Errorf("missing file should yield defaults, Scan.Workers = %d", cfg.Scan.Workers)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg.Scan.Timeout != time.Second {
		t.Errorf("empty path should yield defaults, Scan.Timeout = %v", cfg.Scan.Timeout)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Scan.Workers != 100 {
		t.Errorf("default workers = %d, want 100", cfg.Scan.Workers)
	}
	if cfg.Scan.Timeout != time.Second {
		t.Errorf("default timeout = %v, want 1s", cfg.Scan.Timeout)
	}
	if cfg.Status.Enabled {
		t.Error("status server should default to disabled")
	}
	if cfg.Watch.Schedule == "" {
		t.Error("watch schedule should have a default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate, got: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "zero workers",
			mutate: func(c *Config) { c.Scan.Workers = 0 },
		},
		{
			name:   "zero timeout",
			mutate: func(c *Config) { c.Scan.Timeout = 0 },
		},
		{
			name:   "bad reference timing",
			mutate: func(c *Config) { c.Reference.Timing = "insane" },
		},
		{
			name:   "negative resolve timeout",
			mutate: func(c *Config) { c.Resolve.Timeout = -time.Second },
		},
		{
			name: "status enabled without address",
			mutate: func(c *Config) {
				c.Status.Enabled = true
				c.Status.Addr = ""
			},
		},
		{
			name: "status address without port",
			mutate: func(c *Config) {
				c.Status.Enabled = true
				c.Status.Addr = "127.0.0.1"
			},
		},
		{
			name:   "empty watch schedule",
			mutate: func(c *Config) { c.Watch.Schedule = "" },
		},
		{
			name:   "bad log level",
			mutate: func(c *Config) { c.Logging.Level = "loud" },
		},
		{
			name:   "bad log format",
			mutate: func(c *Config) { c.Logging.Format = "xml" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should have failed")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Scan.Workers = 42
	cfg.Reference.Timing = reference.TimingPolite

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() after Save() error = %v", err)
	}
	if loaded.Scan.Workers != 42 {
		t.Errorf("round-trip workers = %d, want 42", loaded.Scan.Workers)
	}
	if loaded.Reference.Timing != reference.TimingPolite {
		t.Errorf("round-trip timing = %q, want polite", loaded.Reference.Timing)
	}
}
