package confs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/users")
	t.Setenv("HOST", "")
	t.Setenv("PORT", "")
	t.Setenv("DB_MAX_OPEN_CONNS", "")
	t.Setenv("DB_MAX_IDLE_CONNS", "")
	t.Setenv("DB_CONN_MAX_LIFETIME", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("BCRYPT_COST", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 10, cfg.DBMaxOpenConns)
	assert.Equal(t, 5, cfg.DBMaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.DBConnMaxLifetime)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, bcrypt.DefaultCost, cfg.BcryptCost)
	assert.True(t, cfg.AllowAllOrigins())
}

func TestFromEnv_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "  ")

	cfg, err := FromEnv()
	assert.Nil(t, cfg)
	assert.ErrorIs(t, err, ErrMissingDatabaseURL)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/users")
	t.Setenv("HOST", "127.0.0.1")
	t.Setenv("PORT", "9090")
	t.Setenv("DB_MAX_OPEN_CONNS", "4")
	t.Setenv("DB_MAX_IDLE_CONNS", "8")
	t.Setenv("DB_CONN_MAX_LIFETIME", "90s")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("BCRYPT_COST", "4")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example, http://b.example,")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 4, cfg.DBMaxOpenConns)
	// idle connections never exceed the pool bound
	assert.Equal(t, 4, cfg.DBMaxIdleConns)
	assert.Equal(t, 90*time.Second, cfg.DBConnMaxLifetime)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.BcryptCost)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	assert.False(t, cfg.AllowAllOrigins())
}

func TestFromEnv_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://db/users")
	t.Setenv("DB_MAX_OPEN_CONNS", "lots")
	t.Setenv("DB_MAX_IDLE_CONNS", "-1")
	t.Setenv("DB_CONN_MAX_LIFETIME", "soon")
	t.Setenv("BCRYPT_COST", "99")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.DBMaxOpenConns)
	assert.Equal(t, 5, cfg.DBMaxIdleConns)
	assert.Equal(t, 30*time.Minute, cfg.DBConnMaxLifetime)
	assert.Equal(t, bcrypt.DefaultCost, cfg.BcryptCost)
}
