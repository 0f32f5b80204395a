package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 1000, cfg.Scheduler.MaxAttempts)
	assert.True(t, cfg.Scheduler.Randomize)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.TimeBudget)
	assert.Equal(t, 2*time.Hour, cfg.Scheduler.TimetableTTL)
	assert.Nil(t, cfg.Scheduler.TermStart)
	assert.False(t, cfg.Database.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "timetable-scheduler", cfg.Redis.Namespace)
	assert.True(t, cfg.JWT.Enabled)
	assert.Equal(t, time.Hour, cfg.Exports.LinkTTL)
	assert.Equal(t, 24*time.Hour, cfg.Exports.Retention)
}

func TestLoadExportOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ENABLE_AUTH", "false")
	t.Setenv("EXPORTS_LINK_TTL", "15m")
	t.Setenv("EXPORTS_STORAGE_DIR", "/var/lib/timetables")

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.JWT.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Exports.LinkTTL)
	assert.Equal(t, "/var/lib/timetables", cfg.Exports.StorageDir)
}

func TestLoadSchedulerOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SCHEDULER_MAX_ATTEMPTS", "25")
	t.Setenv("SCHEDULER_WORKERS", "4")
	t.Setenv("SCHEDULER_TIME_BUDGET", "not-a-duration")
	t.Setenv("SCHEDULER_TERM_START", "2025-01-13")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 25, cfg.Scheduler.MaxAttempts)
	assert.Equal(t, 4, cfg.Scheduler.Workers)
	assert.Equal(t, 30*time.Second, cfg.Scheduler.TimeBudget)
	require.NotNil(t, cfg.Scheduler.TermStart)
	assert.Equal(t, "2025-01-13", cfg.Scheduler.TermStart.Format("2006-01-02"))
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestLoadRejectsMalformedTermStart(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SCHEDULER_TERM_START", "13/01/2025")

	_, err := Load()
	assert.Error(t, err)
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
