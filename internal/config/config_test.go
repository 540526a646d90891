package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "taskbridge", cfg.AppName)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Equal(t, 3*time.Hour, cfg.JWT.TokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.Journal.Retention)
	assert.Equal(t, 32, cfg.Realtime.ChannelBuffer)
	assert.True(t, cfg.Migrations.Enabled)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_TOKEN_TTL", "45m")
	t.Setenv("JOURNAL_SWEEP_INTERVAL", "120")
	t.Setenv("RUN_MIGRATIONS", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.HTTP.Port)
	assert.Equal(t, 45*time.Minute, cfg.JWT.TokenTTL)
	assert.Equal(t, 2*time.Minute, cfg.Journal.SweepInterval)
	assert.False(t, cfg.Migrations.Enabled)
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:    "db.internal",
		Port:    "5433",
		Name:    "tasks",
		User:    "svc",
		SSLMode: "require",
	}
	assert.Equal(t, "postgres://svc:@db.internal:5433/tasks?sslmode=require", db.DSN())

	db.URL = "postgres://u:p@explicit/db"
	assert.Equal(t, "postgres://u:p@explicit/db", db.DSN())
}
