package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// FileName is the config file looked up in the working directory and then
// the home directory.
const FileName = ".bazi.toml"

// EnvPrefix prefixes environment overrides, e.g. BAZI_LOGGING_LEVEL.
const EnvPrefix = "BAZI"

// Config represents the complete bazi configuration
type Config struct {
	Logging  LoggingConfig  `json:"logging" toml:"logging" mapstructure:"logging"`
	Storage  StorageConfig  `json:"storage" toml:"storage" mapstructure:"storage"`
	Reverse  ReverseConfig  `json:"reverse" toml:"reverse" mapstructure:"reverse"`
	Location LocationConfig `json:"location" toml:"location" mapstructure:"location"`
	Server   ServerConfig   `json:"server" toml:"server" mapstructure:"server"`
	Jobs     JobsConfig     `json:"jobs" toml:"jobs" mapstructure:"jobs"`
	Output   OutputConfig   `json:"output" toml:"output" mapstructure:"output"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `json:"level" toml:"level" mapstructure:"level"`
	Format string `json:"format" toml:"format" mapstructure:"format"`
	// File, when set, receives a copy of every log line.
	File       string `json:"file" toml:"file" mapstructure:"file"`
	MaxSize    string `json:"maxSize" toml:"maxSize" mapstructure:"maxSize"`
	MaxBackups int    `json:"maxBackups" toml:"maxBackups" mapstructure:"maxBackups"`
}

// StorageConfig locates the sqlite database.
type StorageConfig struct {
	// DataDir defaults to ~/.bazi when empty.
	DataDir string `json:"dataDir" toml:"dataDir" mapstructure:"dataDir"`
}

// ReverseConfig is the default year range of reverse searches.
type ReverseConfig struct {
	FromYear int `json:"fromYear" toml:"fromYear" mapstructure:"fromYear"`
	ToYear   int `json:"toYear" toml:"toYear" mapstructure:"toYear"`
}

// LocationConfig is the default birth place used for true solar time.
type LocationConfig struct {
	City             string  `json:"city" toml:"city" mapstructure:"city"`
	Longitude        float64 `json:"longitude" toml:"longitude" mapstructure:"longitude"`
	UseTrueSolarTime bool    `json:"useTrueSolarTime" toml:"useTrueSolarTime" mapstructure:"useTrueSolarTime"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Addr string `json:"addr" toml:"addr" mapstructure:"addr"`
}

// JobsConfig sizes the background job runner.
type JobsConfig struct {
	Workers   int `json:"workers" toml:"workers" mapstructure:"workers"`
	QueueSize int `json:"queueSize" toml:"queueSize" mapstructure:"queueSize"`
	// RetentionDays drops finished jobs after this many days; 0 keeps them.
	RetentionDays int `json:"retentionDays" toml:"retentionDays" mapstructure:"retentionDays"`
}

// OutputConfig sets the default CLI output format.
type OutputConfig struct {
	Format string `json:"format" toml:"format" mapstructure:"format"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSize:    "10MB",
			MaxBackups: 3,
		},
		Reverse: ReverseConfig{
			FromYear: 1920,
			ToYear:   2040,
		},
		Location: LocationConfig{
			Longitude: 120,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8088",
		},
		Jobs: JobsConfig{
			Workers:       2,
			QueueSize:     32,
			RetentionDays: 30,
		},
		Output: OutputConfig{
			Format: "human",
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.maxSize", d.Logging.MaxSize)
	v.SetDefault("logging.maxBackups", d.Logging.MaxBackups)
	v.SetDefault("storage.dataDir", d.Storage.DataDir)
	v.SetDefault("reverse.fromYear", d.Reverse.FromYear)
	v.SetDefault("reverse.toYear", d.Reverse.ToYear)
	v.SetDefault("location.city", d.Location.City)
	v.SetDefault("location.longitude", d.Location.Longitude)
	v.SetDefault("location.useTrueSolarTime", d.Location.UseTrueSolarTime)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("jobs.workers", d.Jobs.Workers)
	v.SetDefault("jobs.queueSize", d.Jobs.QueueSize)
	v.SetDefault("jobs.retentionDays", d.Jobs.RetentionDays)
	v.SetDefault("output.format", d.Output.Format)
}

// Setup prepares v to read FileName (or path, when non-empty) and BAZI_*
// environment variables. It does not read anything yet.
func Setup(v *viper.Viper, path string) {
	setDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, ".toml"))
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads the configuration prepared by Setup. A missing config file is
// not an error: defaults, env and bound flags still apply.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Watch re-reads the config file whenever it changes and hands the new
// configuration to onChange. Invalid edits are reported through onError and
// leave the previous configuration in effect.
func Watch(v *viper.Viper, onChange func(*Config), onError func(error)) {
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		cfg, err := decode(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// WriteDefault writes the default configuration as TOML. An existing file
// is only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	data, err := toml.Marshal(DefaultConfig())
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// ResolveDataDir returns DataDir, falling back to ~/.bazi.
func (c *Config) ResolveDataDir() (string, error) {
	if c.Storage.DataDir != "" {
		return c.Storage.DataDir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".bazi"), nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be text or json"}
	}
	if c.Reverse.FromYear > c.Reverse.ToYear {
		return &ConfigError{Field: "reverse.fromYear", Message: "must not be after reverse.toYear"}
	}
	if c.Reverse.FromYear < 1900 || c.Reverse.ToYear > 2099 {
		return &ConfigError{Field: "reverse", Message: "years must lie within 1900-2099"}
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return &ConfigError{Field: "location.longitude", Message: "must lie within -180..180"}
	}
	if c.Jobs.Workers < 1 {
		return &ConfigError{Field: "jobs.workers", Message: "must be at least 1"}
	}
	if c.Jobs.QueueSize < 1 {
		return &ConfigError{Field: "jobs.queueSize", Message: "must be at least 1"}
	}
	if c.Jobs.RetentionDays < 0 {
		return &ConfigError{Field: "jobs.retentionDays", Message: "must not be negative"}
	}
	switch c.Output.Format {
	case "human", "json", "yaml":
	default:
		return &ConfigError{Field: "output.format", Message: "must be human, json or yaml"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
