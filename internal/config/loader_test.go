package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
pipeline:
  pair_index: "data/train.csv"
  structures: "data/structures"
  output: "out/features.csv"
  summary: "out/summary.yaml"
  workers: 8
  neighbors: 10
  mode: "mass-weighted"
  timeout: 30m
cache:
  enabled: true
  ttl: 24h
  redis:
    addr: "redis:6379"
    db: 2
minio:
  endpoint: "minio:9000"
  access_key: "key"
  secret_key: "secret"
kafka:
  enabled: true
  brokers: ["kafka-0:9092", "kafka-1:9092"]
  topic: "features.progress"
metrics:
  enabled: true
  push_gateway: "http://pushgateway:9091"
log:
  level: "debug"
  format: "console"
`

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func setEnvVars(t *testing.T, vars map[string]string) {
	t.Helper()
	for k, v := range vars {
		t.Setenv(k, v)
	}
}

func TestLoad_FromFile_ValidConfig(t *testing.T) {
	cfg, err := Load(createTempConfigFile(t, validConfigYAML))
	require.NoError(t, err)

	assert.Equal(t, "data/train.csv", cfg.Pipeline.PairIndex)
	assert.Equal(t, 8, cfg.Pipeline.Workers)
	assert.Equal(t, 30*time.Minute, cfg.Pipeline.Timeout)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL)
	assert.Equal(t, 2, cfg.Cache.Redis.DB)
	assert.Equal(t, []string{"kafka-0:9092", "kafka-1:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "console", cfg.Log.Format)

	// Defaults fill what the file leaves out.
	assert.Equal(t, DefaultExtension, cfg.Pipeline.Extension)
	assert.Equal(t, DefaultCacheKeyPrefix, cfg.Cache.KeyPrefix)
	assert.Equal(t, DefaultMetricsNamespace, cfg.Metrics.Namespace)
}

func TestLoad_FromFile_FileNotFound(t *testing.T) {
	_, err := Load("non_existent_config.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_FromFile_InvalidYAML(t *testing.T) {
	_, err := Load(createTempConfigFile(t, "pipeline: ["))
	assert.Error(t, err)
}

func TestLoad_FromFile_ValidationFailure(t *testing.T) {
	_, err := Load(createTempConfigFile(t, "pipeline:\n  workers: -2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline.workers")
}

func TestLoad_EnvOverride(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	setEnvVars(t, map[string]string{
		"NBFEAT_PIPELINE_WORKERS":  "3",
		"NBFEAT_CACHE_REDIS_ADDR":  "cache:6380",
		"NBFEAT_PIPELINE_MODE":     "unscaled",
		"NBFEAT_PIPELINE_TIMEOUT":  "5s",
		"NBFEAT_METRICS_NAMESPACE": "qm9",
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Pipeline.Workers)
	assert.Equal(t, "cache:6380", cfg.Cache.Redis.Addr)
	assert.Equal(t, "unscaled", cfg.Pipeline.Mode)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.Timeout)
	assert.Equal(t, "qm9", cfg.Metrics.Namespace)
}

func TestLoadFromEnv_NoFile(t *testing.T) {
	setEnvVars(t, map[string]string{
		"NBFEAT_PIPELINE_PAIR_INDEX": "train.csv",
		"NBFEAT_PIPELINE_NEIGHBORS":  "2",
		"NBFEAT_KAFKA_ENABLED":       "true",
		"NBFEAT_KAFKA_BROKERS":       "k1:9092,k2:9092",
	})

	cfg, err := LoadFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "train.csv", cfg.Pipeline.PairIndex)
	assert.Equal(t, 2, cfg.Pipeline.Neighbors)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, DefaultWorkers(), cfg.Pipeline.Workers)
}

func TestLoad_EmptyPathUsesEnv(t *testing.T) {
	setEnvVars(t, map[string]string{"NBFEAT_LOG_LEVEL": "warn"})
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestMustLoad(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)
	assert.NotPanics(t, func() { MustLoad(path) })
	assert.Panics(t, func() { MustLoad("non_existent.yaml") })
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	path := createTempConfigFile(t, validConfigYAML)

	changed := make(chan *Config, 4)
	require.NoError(t, Watch(path, func(c *Config) { changed <- c }, nil))

	updated := validConfigYAML + "\n"
	updated = replaceOnce(updated, "workers: 8", "workers: 4")
	require.NoError(t, os.WriteFile(path, []byte(updated), 0o644))

	select {
	case cfg := <-changed:
		assert.Equal(t, 4, cfg.Pipeline.Workers)
	case <-time.After(5 * time.Second):
		t.Skip("filesystem notifications not delivered in this environment")
	}
}

func TestWatch_MissingFile(t *testing.T) {
	assert.Error(t, Watch(filepath.Join(t.TempDir(), "absent.yaml"), func(*Config) {}, nil))
}

func replaceOnce(s, old, new string) string {
	for i := 0; i+len(old) <= len(s); i++ {
		if s[i:i+len(old)] == old {
			return s[:i] + new + s[i+len(old):]
		}
	}
	return s
}
