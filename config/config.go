/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package config loads store configuration from YAML, .env files and the
// environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	emerrors "github.com/suparena/entitymapper/errors"
)

// Supported backend names.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ENTITYMAPPER_"

var knownBackends = map[string]bool{
	BackendMemory:   true,
	BackendSQLite:   true,
	BackendDynamoDB: true,
}

// Config selects and parameterizes a store backend.
type Config struct {
	// Backend is one of memory, sqlite or dynamodb.
	// Default: "sqlite"
	Backend  string         `yaml:"backend"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
	SQLite   SQLiteConfig   `yaml:"sqlite"`
	// Redis enables the document cache when Addr is set.
	Redis RedisConfig `yaml:"redis"`
	// LogLevel is a charmbracelet/log level name.
	// Default: "info"
	LogLevel string `yaml:"log_level"`
}

// DynamoDBConfig configures the DynamoDB store.
type DynamoDBConfig struct {
	Region    string `yaml:"region"`
	Table     string `yaml:"table"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	// PageSize is the Limit of each Query request.
	// Default: 100
	PageSize int32 `yaml:"page_size"`
	// MaxRetries bounds retries of throttled queries.
	// Default: 3
	MaxRetries int `yaml:"max_retries"`
}

// SQLiteConfig configures the SQLite store.
type SQLiteConfig struct {
	// Path of the database file, or ":memory:".
	// Default: "entitymapper.db"
	Path string `yaml:"path"`
}

// RedisConfig configures the document cache.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Enabled reports whether a cache should be used.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// DefaultConfig returns a local SQLite configuration.
func DefaultConfig() Config {
	return Config{
		Backend: BackendSQLite,
		DynamoDB: DynamoDBConfig{
			Region:     "us-east-1",
			PageSize:   100,
			MaxRetries: 3,
		},
		SQLite:   SQLiteConfig{Path: "entitymapper.db"},
		Redis:    RedisConfig{TTL: time.Hour},
		LogLevel: "info",
	}
}

// Load reads the YAML file at path on top of DefaultConfig, then applies
// .env and environment overrides. An empty path skips the file.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	// a missing .env file is not an error
	_ = godotenv.Load()

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides fields from environment variables. The AWS_* names match
// the ones used by the DynamoDB integration tests.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(target *string, names ...string) {
		for _, name := range names {
			if v, ok := lookup(name); ok && v != "" {
				*target = v
				return
			}
		}
	}
	integer := func(target *int, name string) error {
		if v, ok := lookup(name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return emerrors.NewValidationError(name, "not an integer")
			}
			*target = n
		}
		return nil
	}

	str(&c.Backend, EnvPrefix+"BACKEND")
	str(&c.LogLevel, EnvPrefix+"LOG_LEVEL")
	str(&c.SQLite.Path, EnvPrefix+"SQLITE_PATH")

	str(&c.DynamoDB.Region, EnvPrefix+"DYNAMODB_REGION", "AWS_REGION")
	str(&c.DynamoDB.Table, EnvPrefix+"DYNAMODB_TABLE", "AWS_DDB_TABLE")
	str(&c.DynamoDB.Endpoint, EnvPrefix+"DYNAMODB_ENDPOINT", "AWS_DDB_ENDPOINT")
	str(&c.DynamoDB.AccessKey, "AWS_ACCESS_KEY")
	str(&c.DynamoDB.SecretKey, "AWS_SECRET_KEY")
	if err := integer(&c.DynamoDB.MaxRetries, EnvPrefix+"DYNAMODB_MAX_RETRIES"); err != nil {
		return err
	}

	str(&c.Redis.Addr, EnvPrefix+"REDIS_ADDR")
	str(&c.Redis.Password, EnvPrefix+"REDIS_PASSWORD")
	if err := integer(&c.Redis.DB, EnvPrefix+"REDIS_DB"); err != nil {
		return err
	}
	if v, ok := lookup(EnvPrefix + "REDIS_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return emerrors.NewValidationError(EnvPrefix+"REDIS_TTL", "not a duration")
		}
		c.Redis.TTL = d
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Backend == "" {
		return emerrors.NewValidationError("backend", "must not be empty")
	}
	if !knownBackends[c.Backend] {
		return emerrors.NewValidationError("backend", fmt.Sprintf("unknown backend %q", c.Backend))
	}
	switch c.Backend {
	case BackendSQLite:
		if c.SQLite.Path == "" {
			return emerrors.NewValidationError("sqlite.path", "must not be empty")
		}
	case BackendDynamoDB:
		if c.DynamoDB.Table == "" {
			return emerrors.NewValidationError("dynamodb.table", "must not be empty")
		}
		if c.DynamoDB.Region == "" {
			return emerrors.NewValidationError("dynamodb.region", "must not be empty")
		}
		if c.DynamoDB.MaxRetries < 0 {
			return emerrors.NewValidationError("dynamodb.max_retries", "must not be negative")
		}
		if c.DynamoDB.PageSize < 0 {
			return emerrors.NewValidationError("dynamodb.page_size", "must not be negative")
		}
	}
	if c.Redis.DB < 0 {
		return emerrors.NewValidationError("redis.db", "must not be negative")
	}
	return nil
}
