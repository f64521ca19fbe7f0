package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Storage.Driver)
	assert.False(t, cfg.Kafka.Enabled)
	assert.Equal(t, 60*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, 2000, cfg.Ranking.ParallelThreshold)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intake.yaml")
	yaml := `
server:
  port: 9000
  requestTimeout: 3s
storage:
  driver: sqlite
  sqlitePath: /tmp/intake.db
redis:
  enabled: true
  cacheTTL: 2m
ranking:
  workers: 4
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("INTAKE_SERVER_PORT", "9100")
	t.Setenv("INTAKE_KAFKA_ENABLED", "true")
	t.Setenv("INTAKE_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, 4, cfg.Ranking.Workers)
	assert.True(t, cfg.Kafka.Enabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "localhost", cfg.Postgres.Host, "unset values keep defaults")
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("INTAKE_STORAGE_DRIVER", "mysql")
	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
