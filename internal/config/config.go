package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure.
// It is read-only after Load() returns and safe for concurrent reads.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	AI       AIConfig       `yaml:"ai"`
	Auth     AuthConfig     `yaml:"auth"`
	OKR      OKRConfig      `yaml:"okr"`
	Worker   WorkerConfig   `yaml:"worker"`
	Backup   BackupConfig   `yaml:"backup"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeout     Duration `yaml:"read_timeout"`
	WriteTimeout    Duration `yaml:"write_timeout"`
	ShutdownTimeout Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains database settings.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// AIConfig contains drafting model settings. An empty APIKey disables drafting.
type AIConfig struct {
	APIKey            string  `yaml:"-"` // env-only, never in YAML
	Model             string  `yaml:"model"`
	MaxTokens         int     `yaml:"max_tokens"`
	CacheSize         int     `yaml:"cache_size"`
	RequestsPerMinute float64 `yaml:"requests_per_minute"`
	Burst             int     `yaml:"burst"`
}

// AuthConfig contains authentication settings.
type AuthConfig struct {
	APIKey  string `yaml:"-"` // env-only, never in YAML
	DevMode bool   `yaml:"-"`
}

// OKRConfig contains OKR policy settings.
type OKRConfig struct {
	MinObjectives int `yaml:"min_objectives"`
}

// WorkerConfig contains background worker settings. A zero interval disables the worker.
type WorkerConfig struct {
	BackupInterval Duration `yaml:"backup_interval"`
}

// BackupConfig contains S3-compatible backup settings. An empty Bucket disables uploads.
type BackupConfig struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Duration is a wrapper around time.Duration that supports YAML string parsing.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler for Duration.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Load loads configuration with precedence: defaults → YAML file → env vars.
func Load() (*Config, error) {
	cfg := newDefaults()

	configPath := getEnv("OKRPULSE_CONFIG_PATH", "config/okrpulse.yaml")

	// Missing file is not an error.
	if err := loadYAMLFile(cfg, configPath); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific path, which must exist.
func LoadFromFile(path string) (*Config, error) {
	cfg := newDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDatabaseConfig resolves only the database section, for CLI commands
// that open the store without running the server. Secrets are not required.
func LoadDatabaseConfig() (DatabaseConfig, error) {
	cfg := newDefaults()
	if err := loadYAMLFile(cfg, getEnv("OKRPULSE_CONFIG_PATH", "config/okrpulse.yaml")); err != nil {
		return DatabaseConfig{}, err
	}
	envString("OKRPULSE_DB_PATH", &cfg.Database.Path)
	return cfg.Database, nil
}

func newDefaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     Duration(30 * time.Second),
			WriteTimeout:    Duration(60 * time.Second),
			ShutdownTimeout: Duration(15 * time.Second),
		},
		Database: DatabaseConfig{
			Path: "data/okrpulse.db",
		},
		AI: AIConfig{
			Model:             "gpt-4o-mini",
			MaxTokens:         800,
			CacheSize:         256,
			RequestsPerMinute: 20,
			Burst:             5,
		},
		OKR: OKRConfig{
			MinObjectives: 3,
		},
		Worker: WorkerConfig{
			BackupInterval: Duration(6 * time.Hour),
		},
		Backup: BackupConfig{
			Prefix: "backups",
			Region: "us-east-1",
			UseSSL: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the config.
// Only non-empty, parseable env vars override config values.
func applyEnvOverrides(cfg *Config) {
	envInt("OKRPULSE_PORT", &cfg.Server.Port)
	envDuration("OKRPULSE_READ_TIMEOUT", &cfg.Server.ReadTimeout)
	envDuration("OKRPULSE_WRITE_TIMEOUT", &cfg.Server.WriteTimeout)
	envDuration("OKRPULSE_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	envString("OKRPULSE_DB_PATH", &cfg.Database.Path)

	// OPENAI_API_KEY is industry convention
	envString("OPENAI_API_KEY", &cfg.AI.APIKey)
	envString("OKRPULSE_AI_MODEL", &cfg.AI.Model)
	envInt("OKRPULSE_AI_MAX_TOKENS", &cfg.AI.MaxTokens)
	if v := os.Getenv("OKRPULSE_AI_REQUESTS_PER_MINUTE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.AI.RequestsPerMinute = f
		}
	}
	envInt("OKRPULSE_AI_BURST", &cfg.AI.Burst)

	envString("OKRPULSE_API_KEY", &cfg.Auth.APIKey)
	cfg.Auth.DevMode = os.Getenv("OKRPULSE_DEV_MODE") == "true"

	envInt("OKRPULSE_MIN_OBJECTIVES", &cfg.OKR.MinObjectives)

	envDuration("OKRPULSE_BACKUP_INTERVAL", &cfg.Worker.BackupInterval)

	envString("OKRPULSE_BACKUP_BUCKET", &cfg.Backup.Bucket)
	envString("OKRPULSE_BACKUP_ENDPOINT", &cfg.Backup.Endpoint)
	envString("OKRPULSE_BACKUP_REGION", &cfg.Backup.Region)
	if v := os.Getenv("OKRPULSE_BACKUP_USE_SSL"); v != "" {
		cfg.Backup.UseSSL = v == "true" || v == "1"
	}
	envString("OKRPULSE_BACKUP_ACCESS_KEY", &cfg.Backup.AccessKey)
	envString("OKRPULSE_BACKUP_SECRET_KEY", &cfg.Backup.SecretKey)

	envString("OKRPULSE_LOG_LEVEL", &cfg.Log.Level)
	envString("OKRPULSE_LOG_FORMAT", &cfg.Log.Format)
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envDuration(key string, dst *Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = Duration(d)
		}
	}
}

// validate checks that required configuration values are set.
// In dev mode (OKRPULSE_DEV_MODE=true), API key validation is skipped.
func (c *Config) validate() error {
	if c.OKR.MinObjectives < 1 {
		return errors.New("okr.min_objectives must be at least 1")
	}
	if c.Worker.BackupInterval < 0 {
		return errors.New("worker.backup_interval must not be negative")
	}
	if c.AI.RequestsPerMinute <= 0 || c.AI.Burst < 1 {
		return errors.New("ai.requests_per_minute and ai.burst must be positive")
	}

	if c.Auth.DevMode {
		return nil
	}
	if c.Auth.APIKey == "" {
		return errors.New("OKRPULSE_API_KEY is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
