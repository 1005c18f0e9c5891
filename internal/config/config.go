// Package config loads the Shop-Mate configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Storage drivers.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Default configuration values.
const (
	DefaultDriver      = DriverSQLite
	DefaultDBPath      = "shopmate.sqlite3"
	DefaultRedisAddr   = "localhost:6379"
	DefaultRedisPrefix = "shopmate:"
	DefaultMediaDir    = "media"
	DefaultAddr        = ":8080"
	DefaultUsername    = "Owner"
)

// Validation errors.
var (
	ErrInvalidDriver    = errors.New("storage driver must be one of: sqlite, redis, memory")
	ErrMissingDBPath    = errors.New("sqlite storage requires a database path")
	ErrMissingRedisAddr = errors.New("redis storage requires an address")
	ErrInvalidRedisDB   = errors.New("redis database must not be negative")
	ErrMissingMediaDir  = errors.New("media directory must be set")
	ErrMissingAddr      = errors.New("listen address must be set")
	ErrMissingUsername  = errors.New("account username must be set")
)

// Config holds the application configuration.
type Config struct {
	Storage struct {
		Driver      string `yaml:"driver"`
		Path        string `yaml:"path"`
		RedisAddr   string `yaml:"redis_addr"`
		RedisDB     int    `yaml:"redis_db"`
		RedisPrefix string `yaml:"redis_prefix"`
	} `yaml:"storage"`
	Media struct {
		Dir string `yaml:"dir"`
	} `yaml:"media"`
	Server struct {
		Addr        string   `yaml:"addr"`
		CORSOrigins []string `yaml:"cors_origins"`
	} `yaml:"server"`
	Account struct {
		Username string `yaml:"username"`
	} `yaml:"account"`
	Log struct {
		Path string `yaml:"path"`
	} `yaml:"log"`
	Share struct {
		// PDFFont is a TrueType file used for shared PDFs, for scripts the
		// built-in font lacks.
		PDFFont string `yaml:"pdf_font"`
	} `yaml:"share"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.Storage.Driver = DefaultDriver
	cfg.Storage.Path = DefaultDBPath
	cfg.Storage.RedisAddr = DefaultRedisAddr
	cfg.Storage.RedisPrefix = DefaultRedisPrefix
	cfg.Media.Dir = DefaultMediaDir
	cfg.Server.Addr = DefaultAddr
	cfg.Account.Username = DefaultUsername
	return cfg
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := Parse(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML data into cfg. Keys absent from data keep their value.
func Parse(data []byte, cfg *Config) error {
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite:
		if c.Storage.Path == "" {
			return ErrMissingDBPath
		}
	case DriverRedis:
		if c.Storage.RedisAddr == "" {
			return ErrMissingRedisAddr
		}
		if c.Storage.RedisDB < 0 {
			return ErrInvalidRedisDB
		}
	case DriverMemory:
	default:
		return ErrInvalidDriver
	}

	if c.Media.Dir == "" {
		return ErrMissingMediaDir
	}
	if c.Server.Addr == "" {
		return ErrMissingAddr
	}
	if strings.TrimSpace(c.Account.Username) == "" {
		return ErrMissingUsername
	}
	return nil
}
