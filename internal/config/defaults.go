// Package config provides configuration loading, defaults, and validation for
// the neighbor-feature pipeline.
package config

import (
	"runtime"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultNeighbors = 10
	DefaultMode      = "mass-weighted"
	DefaultExtension = ".xyz"
	DefaultDelimiter = ","

	DefaultCacheKeyPrefix = "nbfeat"
	DefaultCacheTTL       = 7 * 24 * time.Hour
	DefaultCacheTTLJitter = 0.1
	DefaultRedisAddr      = "localhost:6379"

	DefaultKafkaBroker       = "localhost:9092"
	DefaultKafkaTopic        = "nbfeat.progress"
	DefaultKafkaBatchSize    = 100
	DefaultKafkaBatchTimeout = 100 * time.Millisecond
	DefaultKafkaWriteTimeout = 10 * time.Second

	DefaultMetricsNamespace = "nbfeat"
	DefaultMetricsJobName   = "nbfeat"

	DefaultWatchDebounce = 2 * time.Second
	DefaultWatchHTTPAddr = ":9464"

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogOutput = "stderr"
)

// DefaultWorkers returns the worker count used when none is configured.
func DefaultWorkers() int {
	return runtime.NumCPU()
}

// ApplyDefaults fills every zero-value field in cfg with the default.  Fields
// already set by the caller are left unchanged so explicit configuration
// always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	if cfg.Pipeline.Workers == 0 {
		cfg.Pipeline.Workers = DefaultWorkers()
	}
	if cfg.Pipeline.Neighbors == 0 {
		cfg.Pipeline.Neighbors = DefaultNeighbors
	}
	if cfg.Pipeline.Mode == "" {
		cfg.Pipeline.Mode = DefaultMode
	}
	if cfg.Pipeline.Extension == "" {
		cfg.Pipeline.Extension = DefaultExtension
	}
	if cfg.Pipeline.Delimiter == "" {
		cfg.Pipeline.Delimiter = DefaultDelimiter
	}

	// ── Cache ─────────────────────────────────────────────────────────────────
	if cfg.Cache.KeyPrefix == "" {
		cfg.Cache.KeyPrefix = DefaultCacheKeyPrefix
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.TTLJitter == 0 {
		cfg.Cache.TTLJitter = DefaultCacheTTLJitter
	}
	if cfg.Cache.Redis.Addr == "" {
		cfg.Cache.Redis.Addr = DefaultRedisAddr
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = DefaultKafkaTopic
	}
	if cfg.Kafka.BatchSize == 0 {
		cfg.Kafka.BatchSize = DefaultKafkaBatchSize
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = DefaultKafkaBatchTimeout
	}
	if cfg.Kafka.WriteTimeout == 0 {
		cfg.Kafka.WriteTimeout = DefaultKafkaWriteTimeout
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.JobName == "" {
		cfg.Metrics.JobName = DefaultMetricsJobName
	}

	// ── Watch ─────────────────────────────────────────────────────────────────
	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = DefaultWatchDebounce
	}
	if cfg.Watch.HTTPAddr == "" {
		cfg.Watch.HTTPAddr = DefaultWatchHTTPAddr
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = DefaultLogOutput
	}
}

// Default returns a Config with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

//Personal.AI order the ending
