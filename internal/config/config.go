// Package config defines the configuration structures of the neighbor-feature
// pipeline.  No I/O lives in this file, only plain data types and validation.
package config

import (
	"fmt"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// PipelineConfig holds the inputs, outputs and tunables of a feature run.
// Locations accept a local path or an "s3://bucket/key" URI served by the
// configured object store.
type PipelineConfig struct {
	PairIndex       string        `mapstructure:"pair_index"`
	Structures      string        `mapstructure:"structures"`
	Output          string        `mapstructure:"output"`
	Summary         string        `mapstructure:"summary"`
	Extension       string        `mapstructure:"extension"`
	Workers         int           `mapstructure:"workers"`
	Neighbors       int           `mapstructure:"neighbors"`
	Mode            string        `mapstructure:"mode"` // "mass-weighted" | "unscaled"
	Delimiter       string        `mapstructure:"delimiter"`
	RequireTarget   bool          `mapstructure:"require_target"`
	StrictAtomCount bool          `mapstructure:"strict_atom_count"`
	FailOnErrors    bool          `mapstructure:"fail_on_errors"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// RedisConfig holds Redis connection parameters for the result cache.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// CacheConfig controls the per-structure result cache.
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	KeyPrefix string        `mapstructure:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl"`
	// TTLJitter spreads entry expiries by ±TTLJitter×TTL.  Zero selects the
	// default; a negative value disables the spread.
	TTLJitter float64     `mapstructure:"ttl_jitter"`
	Redis     RedisConfig `mapstructure:"redis"`
}

// MinIOConfig holds MinIO / S3-compatible object-storage parameters.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Region    string `mapstructure:"region"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// KafkaConfig holds progress-event publishing parameters.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchSize    int           `mapstructure:"batch_size"`
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	RequiredAcks int           `mapstructure:"required_acks"`
}

// MetricsConfig controls Prometheus instrumentation.
type MetricsConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Namespace   string `mapstructure:"namespace"`
	PushGateway string `mapstructure:"push_gateway"`
	JobName     string `mapstructure:"job_name"`
}

// WatchConfig holds the long-running watch mode parameters.
type WatchConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
	HTTPAddr string        `mapstructure:"http_addr"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `mapstructure:"format"` // "json" | "console"
	Output string `mapstructure:"output"` // "stdout" | "stderr" | file path
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Cache    CacheConfig    `mapstructure:"cache"`
	MinIO    MinIOConfig    `mapstructure:"minio"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Log      LogConfig      `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.  Input
// and output locations are not required here because the CLI may still supply
// them; see ValidateRun.
func (c *Config) Validate() error {
	// Pipeline
	if c.Pipeline.Workers < 1 {
		return fmt.Errorf("config: pipeline.workers must be ≥ 1, got %d", c.Pipeline.Workers)
	}
	if c.Pipeline.Neighbors < 1 {
		return fmt.Errorf("config: pipeline.neighbors must be ≥ 1, got %d", c.Pipeline.Neighbors)
	}
	switch strings.ToLower(c.Pipeline.Mode) {
	case "mass-weighted", "weighted", "unscaled", "legacy":
	default:
		return fmt.Errorf("config: pipeline.mode %q is invalid; expected mass-weighted|unscaled", c.Pipeline.Mode)
	}
	if len([]rune(c.Pipeline.Delimiter)) != 1 {
		return fmt.Errorf("config: pipeline.delimiter must be a single character, got %q", c.Pipeline.Delimiter)
	}
	if c.Pipeline.Timeout < 0 {
		return fmt.Errorf("config: pipeline.timeout must be ≥ 0, got %s", c.Pipeline.Timeout)
	}

	// Cache
	if c.Cache.Enabled && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("config: cache.redis.addr is required when the cache is enabled")
	}
	if c.Cache.TTLJitter >= 1 {
		return fmt.Errorf("config: cache.ttl_jitter must be < 1, got %g", c.Cache.TTLJitter)
	}
	if c.Cache.Redis.DB < 0 {
		return fmt.Errorf("config: cache.redis.db must be ≥ 0, got %d", c.Cache.Redis.DB)
	}

	// Kafka
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("config: kafka.topic is required when kafka is enabled")
		}
	}

	// Object storage
	if c.usesObjectStore() && c.MinIO.Endpoint == "" {
		return fmt.Errorf("config: minio.endpoint is required for s3:// locations")
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

// ValidateRun checks the settings a batch run cannot start without.
func (c *Config) ValidateRun() error {
	if c.Pipeline.PairIndex == "" {
		return fmt.Errorf("config: pipeline.pair_index is required")
	}
	if c.Pipeline.Structures == "" {
		return fmt.Errorf("config: pipeline.structures is required")
	}
	if c.Pipeline.Output == "" {
		return fmt.Errorf("config: pipeline.output is required")
	}
	return c.Validate()
}

func (c *Config) usesObjectStore() bool {
	for _, loc := range []string{c.Pipeline.PairIndex, c.Pipeline.Structures, c.Pipeline.Output, c.Pipeline.Summary} {
		if strings.HasPrefix(loc, "s3://") {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
