package env

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEnvCfgDefaults(t *testing.T) {
	os.Clearenv()

	cfg, err := GetEnvCfg()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, StoragePostgres, cfg.Storage)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.True(t, cfg.DBMigrate)
	assert.Equal(t, 5672, cfg.MQPort)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.CacheEnabled())
	assert.False(t, cfg.MQEnabled())
}

func TestGetEnvCfgOverrides(t *testing.T) {
	os.Clearenv()
	t.Setenv("APP_STORAGE", "memory")
	t.Setenv("APP_MQ_HOST", "rabbit")
	t.Setenv("APP_MQ_PORT", "5673")
	t.Setenv("APP_REDIS_HOST", "redis")
	t.Setenv("APP_WRITE_TIMEOUT", "3s")

	cfg, err := GetEnvCfg()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 5673, cfg.MQPort)
	assert.Equal(t, 3*time.Second, cfg.WriteTimeout)
	assert.True(t, cfg.CacheEnabled())
	assert.True(t, cfg.MQEnabled())
}

func TestGetEnvCfgUnsupportedStorage(t *testing.T) {
	os.Clearenv()
	t.Setenv("APP_STORAGE", "mongo")

	_, err := GetEnvCfg()

	assert.Error(t, err)
}
