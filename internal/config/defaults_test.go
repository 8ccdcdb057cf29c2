package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultNeighbors, cfg.Pipeline.Neighbors)
	assert.Equal(t, DefaultMode, cfg.Pipeline.Mode)
	assert.Equal(t, DefaultWorkers(), cfg.Pipeline.Workers)
	assert.Equal(t, ",", cfg.Pipeline.Delimiter)
	assert.Equal(t, DefaultRedisAddr, cfg.Cache.Redis.Addr)
	assert.Equal(t, DefaultCacheTTLJitter, cfg.Cache.TTLJitter)
	assert.Equal(t, []string{DefaultKafkaBroker}, cfg.Kafka.Brokers)
	assert.Equal(t, DefaultLogOutput, cfg.Log.Output)
	require.NoError(t, cfg.Validate())
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Pipeline.Workers = 1
	cfg.Pipeline.Neighbors = 2
	cfg.Log.Level = "error"
	ApplyDefaults(cfg)

	assert.Equal(t, 1, cfg.Pipeline.Workers)
	assert.Equal(t, 2, cfg.Pipeline.Neighbors)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}
