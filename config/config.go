package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "config.yaml"

// Config holds every runtime setting of the server
type Config struct {
	Port string `yaml:"port"`

	Redis RedisConfig `yaml:"redis"`

	OCR OCRConfig `yaml:"ocr"`

	// RecordPattern replaces the built-in record pattern when set
	RecordPattern string `yaml:"record_pattern"`
	MaxUploadMB   int64  `yaml:"max_upload_mb"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	GinMode   string `yaml:"gin_mode"`
}

// RedisConfig configures the stored report backend. An empty Addr disables it.
type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	ReportTTL time.Duration `yaml:"report_ttl"`
}

type OCRConfig struct {
	Languages []string `yaml:"languages"`
	DPI       float64  `yaml:"dpi"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Port: "8080",
		Redis: RedisConfig{
			ReportTTL: 24 * time.Hour,
		},
		OCR: OCRConfig{
			Languages: []string{"eng"},
			DPI:       300,
		},
		MaxUploadMB: 20,
		LogLevel:    "info",
		LogFormat:   "json",
		GinMode:     "release",
	}
}

// Load builds the configuration from defaults, an optional YAML file
// (CONFIG_FILE, or config.yaml when present), a .env file and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Default()

	path, explicit := os.LookupEnv("CONFIG_FILE")
	if !explicit {
		path = defaultConfigFile
	}
	if err := cfg.loadFile(path, explicit); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Port, "PORT")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.RecordPattern, "RECORD_PATTERN")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")
	setString(&c.GinMode, "GIN_MODE")

	if v := os.Getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB %q: %w", v, err)
		}
		c.Redis.DB = db
	}
	if v := os.Getenv("REPORT_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid REPORT_TTL %q: %w", v, err)
		}
		c.Redis.ReportTTL = ttl
	}
	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		mb, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid MAX_UPLOAD_MB %q: %w", v, err)
		}
		c.MaxUploadMB = mb
	}
	if v := os.Getenv("OCR_LANGUAGES"); v != "" {
		c.OCR.Languages = splitList(v)
	}
	if v := os.Getenv("OCR_DPI"); v != "" {
		dpi, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid OCR_DPI %q: %w", v, err)
		}
		c.OCR.DPI = dpi
	}
	return nil
}

// Validate reports the first setting that cannot be used
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("port cannot be empty")
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d MB", c.MaxUploadMB)
	}
	if c.Redis.ReportTTL <= 0 {
		return fmt.Errorf("report TTL must be positive, got %s", c.Redis.ReportTTL)
	}
	if c.OCR.DPI <= 0 {
		return fmt.Errorf("OCR DPI must be positive, got %v", c.OCR.DPI)
	}
	if len(c.OCR.Languages) == 0 {
		return errors.New("at least one OCR language is required")
	}
	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("gin mode must be debug, release or test, got %q", c.GinMode)
	}
	return nil
}

// Addr is the listen address for the HTTP server
func (c *Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

// MaxUploadBytes is MaxUploadMB in bytes
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
