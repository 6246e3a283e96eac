package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func load(t *testing.T, path string) (*Config, error) {
	t.Helper()
	v := viper.New()
	Setup(v, path)
	return Load(v)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Logging.Level", cfg.Logging.Level, "info"},
		{"Logging.Format", cfg.Logging.Format, "text"},
		{"Reverse.FromYear", cfg.Reverse.FromYear, 1920},
		{"Reverse.ToYear", cfg.Reverse.ToYear, 2040},
		{"Location.Longitude", cfg.Location.Longitude, 120.0},
		{"Location.UseTrueSolarTime", cfg.Location.UseTrueSolarTime, false},
		{"Jobs.Workers", cfg.Jobs.Workers, 2},
		{"Jobs.RetentionDays", cfg.Jobs.RetentionDays, 30},
		{"Output.Format", cfg.Output.Format, "human"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig().Validate() = %v", err)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := load(t, filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Reverse.FromYear != 1920 || cfg.Server.Addr != "127.0.0.1:8088" {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	content := `
[logging]
level = "debug"

[reverse]
fromYear = 1950
toYear = 2000

[location]
city = "北京"
useTrueSolarTime = true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := load(t, path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Reverse.FromYear != 1950 || cfg.Reverse.ToYear != 2000 {
		t.Errorf("Reverse = %+v, want 1950-2000", cfg.Reverse)
	}
	if cfg.Location.City != "北京" || !cfg.Location.UseTrueSolarTime {
		t.Errorf("Location = %+v", cfg.Location)
	}
	if cfg.Jobs.Workers != 2 {
		t.Errorf("Jobs.Workers = %d, want default 2", cfg.Jobs.Workers)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BAZI_LOGGING_LEVEL", "warn")
	t.Setenv("BAZI_JOBS_WORKERS", "5")

	cfg, err := load(t, filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("Logging.Level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Jobs.Workers != 5 {
		t.Errorf("Jobs.Workers = %d, want 5", cfg.Jobs.Workers)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte("[reverse]\nfromYear = 2050\ntoYear = 2000\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := load(t, path); err == nil {
		t.Error("Load() with fromYear > toYear should fail")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"range order", func(c *Config) { c.Reverse.FromYear = 2041 }, "reverse.fromYear"},
		{"range bounds", func(c *Config) { c.Reverse.FromYear = 1800 }, "reverse"},
		{"longitude", func(c *Config) { c.Location.Longitude = 200 }, "location.longitude"},
		{"workers", func(c *Config) { c.Jobs.Workers = 0 }, "jobs.workers"},
		{"queue", func(c *Config) { c.Jobs.QueueSize = 0 }, "jobs.queueSize"},
		{"retention", func(c *Config) { c.Jobs.RetentionDays = -1 }, "jobs.retentionDays"},
		{"output", func(c *Config) { c.Output.Format = "csv" }, "output.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			ce, ok := err.(*ConfigError)
			if !ok {
				t.Fatalf("Validate() = %v, want *ConfigError", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %q, want %q", ce.Field, tt.field)
			}
		})
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", FileName)
	if err := WriteDefault(path, false); err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if err := WriteDefault(path, false); err == nil {
		t.Error("WriteDefault() over an existing file without force should fail")
	}
	if err := WriteDefault(path, true); err != nil {
		t.Errorf("WriteDefault(force) error = %v", err)
	}

	cfg, err := load(t, path)
	if err != nil {
		t.Fatalf("Load(written) error = %v", err)
	}
	if cfg.Reverse.ToYear != 2040 || cfg.Output.Format != "human" {
		t.Errorf("reloaded config = %+v, want defaults", cfg)
	}
}

func TestResolveDataDir(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.DataDir = "/tmp/bazi-data"
	got, err := cfg.ResolveDataDir()
	if err != nil || got != "/tmp/bazi-data" {
		t.Errorf("ResolveDataDir() = %q, %v", got, err)
	}

	t.Setenv("HOME", "/home/tester")
	cfg.Storage.DataDir = ""
	got, err = cfg.ResolveDataDir()
	if err != nil || got != filepath.Join("/home/tester", ".bazi") {
		t.Errorf("ResolveDataDir() = %q, %v", got, err)
	}
}
