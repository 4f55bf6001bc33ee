package config

import (
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "RESET_TOKEN_TTL", "FRONTEND_URL", "CORS_ORIGINS", "DEBUG"} {
		t.Setenv(key, "")
	}

	cfg, _ := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.ResetTokenTTL)
	assert.Equal(t, "http://localhost:5173", cfg.FrontendURL)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.False(t, cfg.Debug)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("RESET_TOKEN_TTL", "30m")
	t.Setenv("FRONTEND_URL", "https://viara.store/")
	t.Setenv("CORS_ORIGINS", "https://a.io, ,https://b.io")
	t.Setenv("DEBUG", "true")

	cfg, _ := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 30*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, "https://viara.store", cfg.FrontendURL)
	assert.Equal(t, []string{"https://a.io", "https://b.io"}, cfg.CORSOrigins)
	assert.True(t, cfg.Debug)
}

func TestDSN(t *testing.T) {
	cfg := &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "viara", DBPort: "5433"}
	assert.Equal(t, "host=db user=u password=p dbname=viara port=5433 sslmode=disable", cfg.DSN())

	cfg.DatabaseURL = "postgres://u:p@db/viara"
	assert.Equal(t, "postgres://u:p@db/viara", cfg.DSN())
}

func TestDialector(t *testing.T) {
	for _, driver := range []string{"", "postgres", "pq", "sqlite"} {
		d, err := (&Config{DBDriver: driver, SQLitePath: "test.db"}).Dialector()
		require.NoError(t, err, driver)
		assert.NotNil(t, d, driver)
	}

	_, err := (&Config{DBDriver: "mysql"}).Dialector()
	assert.Error(t, err)
}

func TestOpenDatabaseSQLite(t *testing.T) {
	cfg := &Config{DBDriver: "sqlite", SQLitePath: t.TempDir() + "/viara.db"}

	db, err := OpenDatabase(cfg)
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable("orders"))
	assert.True(t, db.Migrator().HasTable("auth_tokens"))
}

func TestNewRedisDisabled(t *testing.T) {
	assert.Nil(t, NewRedis(&Config{}, logr.Discard()))
}

func TestNewLogger(t *testing.T) {
	log, flush, err := NewLogger(true)
	require.NoError(t, err)
	defer flush()
	log.V(1).Info("logger works")
}
