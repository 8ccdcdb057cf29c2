package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix of every setting.
const envPrefix = "NBFEAT"

// envKeys lists the keys bound explicitly so that environment variables are
// honoured even when no config file mentions the key.  viper's AutomaticEnv
// only consults the environment for keys it already knows about during
// Unmarshal.
var envKeys = []string{
	"pipeline.pair_index", "pipeline.structures", "pipeline.output", "pipeline.summary",
	"pipeline.extension", "pipeline.workers", "pipeline.neighbors", "pipeline.mode",
	"pipeline.delimiter", "pipeline.require_target", "pipeline.strict_atom_count",
	"pipeline.fail_on_errors", "pipeline.timeout",
	"cache.enabled", "cache.key_prefix", "cache.ttl", "cache.ttl_jitter",
	"cache.redis.addr", "cache.redis.password", "cache.redis.db", "cache.redis.pool_size",
	"minio.endpoint", "minio.access_key", "minio.secret_key", "minio.region", "minio.use_ssl",
	"kafka.enabled", "kafka.brokers", "kafka.topic",
	"metrics.enabled", "metrics.namespace", "metrics.push_gateway", "metrics.job_name",
	"watch.debounce", "watch.http_addr",
	"log.level", "log.format", "log.output",
}

// newViper builds a Viper instance with YAML file type, the NBFEAT_ env
// prefix, and a key replacer mapping "." to "_" so that "cache.redis.addr"
// resolves to NBFEAT_CACHE_REDIS_ADDR.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}
	return v
}

// Load reads the YAML file at configPath, merges NBFEAT_* environment
// overrides, applies defaults and validates the result.  An empty configPath
// loads from the environment only.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return LoadFromEnv()
	}
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config from NBFEAT_* environment variables and
// defaults, with no config file.
//
//	NBFEAT_<SECTION>_<FIELD>   e.g.  NBFEAT_PIPELINE_WORKERS, NBFEAT_KAFKA_TOPIC
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch re-reads configPath whenever it changes and passes the new Config to
// onChange.  A change that fails to parse or validate is reported to onError
// (when non-nil) and onChange is not called.  Watch does not block.
func Watch(configPath string, onChange func(*Config), onError func(error)) error {
	v := newViper()
	v.SetConfigFile(configPath)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("config: reload after %s: %w", e.Op, err))
			}
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
	return nil
}

// MustLoad wraps Load and panics on any error.  Only main packages call it.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}

//Personal.AI order the ending
