package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "DB_DSN", "DB_NAME", "TOKEN_TTL_HOURS", "WORKFLOW_TIMEOUT_MS", "IDENTITY_MODE", "SEED_FLOOR_PLAN"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "reservations.db", cfg.DBDSN)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5*time.Second, cfg.WorkflowTimeout)
	assert.Equal(t, "staff", cfg.IdentityMode)
	assert.True(t, cfg.SeedFloorPlan)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "MySQL")
	t.Setenv("DB_DSN", "")
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASS", "pw")
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_NAME", "floor")
	t.Setenv("STRICT_STATUS_DETAILS", "true")
	t.Setenv("WORKFLOW_TIMEOUT_MS", "not-a-number")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg := Load()
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "app:pw@tcp(db:3307)/floor?charset=utf8mb4&parseTime=True&loc=Local&clientFoundRows=true", cfg.DBDSN)
	assert.True(t, cfg.StrictStatusDetails)
	assert.Equal(t, 5*time.Second, cfg.WorkflowTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestInitDBSqlite(t *testing.T) {
	db, err := InitDB(Config{DBDriver: "sqlite", DBDSN: "file::memory:"})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.NoError(t, sqlDB.Ping())

	_, err = InitDB(Config{DBDriver: "oracle"})
	assert.Error(t, err)
}
