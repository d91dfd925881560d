package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("VACATION_SCAN_CRON", "")
	t.Setenv("REASSIGN_TRANSACTIONAL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "0 5 0 * * *", cfg.VacationScan.Cron)
	assert.False(t, cfg.Reassignment.Transactional)
	assert.Equal(t, "migrations", cfg.Postgres.MigrationsDir)
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	assert.Equal(t, 10*time.Minute, VacationScanConfig{}.LockTTL())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REASSIGN_TRANSACTIONAL", "true")
	t.Setenv("VACATION_SCAN_TZ", "Europe/Berlin")
	t.Setenv("VACATION_SCAN_LOCK_TTL_SECONDS", "90")
	t.Setenv("APP_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Reassignment.Transactional)
	assert.Equal(t, 90*time.Second, cfg.VacationScan.LockTTL())
	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())

	loc, err := cfg.VacationScan.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", loc.String())
}

func TestLoadRejectsBadInput(t *testing.T) {
	t.Setenv("REDIS_DB", "zero")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("REDIS_DB", "0")
	t.Setenv("VACATION_SCAN_TZ", "Mars/Olympus")
	_, err = Load()
	require.Error(t, err)
}
