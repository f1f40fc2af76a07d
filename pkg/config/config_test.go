package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/stock-ledger/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.False(t, cfg.Redis.Enabled())
	assert.Equal(t, 10*time.Second, cfg.Redis.LockTTL())
	assert.Equal(t, 4, cfg.Ledger.MaxAttempts)
	assert.Equal(t, 25*time.Millisecond, cfg.Ledger.RetryInitial())
	assert.Equal(t, 500*time.Millisecond, cfg.Ledger.RetryMax())
	assert.Equal(t, 3*time.Second, cfg.Ledger.LockTimeout())
	assert.True(t, cfg.Metrics.Enabled)
}

func TestLoad_EnvSobrescribe(t *testing.T) {
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LEDGER_MAX_ATTEMPTS", "7")
	t.Setenv("LEDGER_LOCK_TIMEOUT_MS", "150")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.True(t, cfg.Redis.Enabled())
	assert.Equal(t, 7, cfg.Ledger.MaxAttempts)
	assert.Equal(t, 150*time.Millisecond, cfg.Ledger.LockTimeout())
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DB.ConnectionString())
}

func TestValidate_RequiereSecretYReintentos(t *testing.T) {
	cfg := &config.Config{Ledger: config.LedgerConfig{MaxAttempts: 1}}
	assert.Error(t, cfg.Validate())

	cfg.JWT.Secret = "s"
	assert.NoError(t, cfg.Validate())

	cfg.Ledger.MaxAttempts = 0
	assert.Error(t, cfg.Validate())
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "h", Port: 5432, User: "u", Password: "p@ss:w/rd", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p%40ss%3Aw%2Frd@h:5432/d?sslmode=disable", c.DSN())
}
