package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/joseph-ayodele/bnpl-tracker/constants"
)

// ConfigFileEnv names the optional YAML file read before env overrides.
const ConfigFileEnv = "BNPL_CONFIG_FILE"

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Queue      QueueConfig      `yaml:"queue"`
	Ingest     IngestConfig     `yaml:"ingest"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string        `yaml:"dsn"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
	HTTPAddr string `yaml:"http_addr"`
}

// ExtractionConfig tunes the extraction engine.
type ExtractionConfig struct {
	Workers       int    `yaml:"workers"`
	PreviewLength int    `yaml:"preview_length"`
	DefaultMode   string `yaml:"default_mode"`
	MaxInputBytes int    `yaml:"max_input_bytes"`
	Timezone      string `yaml:"timezone"`
}

// QueueConfig sizes the async batch queue.
type QueueConfig struct {
	Workers int           `yaml:"workers"`
	Size    int           `yaml:"size"`
	Timeout time.Duration `yaml:"timeout"`
}

// IngestConfig controls the optional inbox directory watched by the daemon.
type IngestConfig struct {
	WatchDir    string        `yaml:"watch_dir"`
	Debounce    time.Duration `yaml:"debounce"`
	InitialScan bool          `yaml:"initial_scan"`
}

// LoggingConfig selects level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             "file:bnpl.db",
			MaxConns:        20,
			MinConns:        5,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			GRPCAddr: ":8080",
			HTTPAddr: ":8081",
		},
		Extraction: ExtractionConfig{
			Workers:       4,
			PreviewLength: 120,
			DefaultMode:   string(constants.ModeScored),
			MaxInputBytes: 1 << 20,
			Timezone:      "UTC",
		},
		Queue: QueueConfig{
			Workers: 2,
			Size:    64,
			Timeout: 30 * time.Second,
		},
		Ingest: IngestConfig{
			Debounce:    500 * time.Millisecond,
			InitialScan: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file named
// by BNPL_CONFIG_FILE (if set), then environment variables.
func LoadConfig() (*Config, error) {
	cfg := defaultConfig()
	if path := os.Getenv(ConfigFileEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewAppError(CodeConfig, "read config file", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return NewAppError(CodeConfig, fmt.Sprintf("parse config file %s", path), err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)
	c.Database.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", c.Database.StatementTimeout)

	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.HTTPAddr = getEnv("HTTP_ADDR", c.Server.HTTPAddr)

	c.Extraction.Workers = getEnvAsInt("EXTRACT_WORKERS", c.Extraction.Workers)
	c.Extraction.PreviewLength = getEnvAsInt("EXTRACT_PREVIEW_LENGTH", c.Extraction.PreviewLength)
	c.Extraction.DefaultMode = getEnv("EXTRACT_DEFAULT_MODE", c.Extraction.DefaultMode)
	c.Extraction.MaxInputBytes = getEnvAsInt("EXTRACT_MAX_INPUT_BYTES", c.Extraction.MaxInputBytes)
	c.Extraction.Timezone = getEnv("EXTRACT_TIMEZONE", c.Extraction.Timezone)

	c.Queue.Workers = getEnvAsInt("QUEUE_WORKERS", c.Queue.Workers)
	c.Queue.Size = getEnvAsInt("QUEUE_SIZE", c.Queue.Size)
	c.Queue.Timeout = getEnvAsDuration("QUEUE_TIMEOUT", c.Queue.Timeout)

	c.Ingest.WatchDir = getEnv("INGEST_WATCH_DIR", c.Ingest.WatchDir)
	c.Ingest.Debounce = getEnvAsDuration("INGEST_DEBOUNCE", c.Ingest.Debounce)
	c.Ingest.InitialScan = getEnvAsBool("INGEST_INITIAL_SCAN", c.Ingest.InitialScan)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LOG_FORMAT", c.Logging.Format)
}

// Location resolves Extraction.Timezone, falling back to UTC.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Extraction.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator().
		Field("database.dsn", c.Database.DSN, Required).
		Field("extraction.default_mode", c.Extraction.DefaultMode, OneOf(constants.Modes...)).
		Field("logging.level", strings.ToLower(c.Logging.Level), OneOf("debug", "info", "warn", "error")).
		Field("logging.format", strings.ToLower(c.Logging.Format), OneOf("text", "json"))
	if c.Server.GRPCAddr == "" && c.Server.HTTPAddr == "" {
		v.errors = append(v.errors, ValidationError{Field: "server", Message: "needs a gRPC or HTTP address"})
	}
	if c.Extraction.Workers < 1 {
		v.errors = append(v.errors, ValidationError{Field: "extraction.workers", Value: c.Extraction.Workers, Message: "must be at least 1"})
	}
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
