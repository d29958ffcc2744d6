package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("PORT", "8080")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/db?sslmode=disable")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GO_ENV", "test")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 14*24*time.Hour, cfg.CartTTL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 5432, cfg.PostgresPort)
	assert.Equal(t, "postgres://u:p@localhost:5432/db?sslmode=disable", cfg.DSN())
	assert.Empty(t, cfg.AMQPURL)
}

func TestLoad_CartTTL(t *testing.T) {
	setRequired(t)
	t.Setenv("CART_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.CartTTL)

	t.Setenv("CART_TTL", "soon")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("CART_TTL", "-1h")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoad_RequiresRedis(t *testing.T) {
	setRequired(t)
	t.Setenv("REDIS_ADDR", "")

	_, err := Load()
	assert.EqualError(t, err, "REDIS_ADDR is required")
}

func TestDSN_FromParts(t *testing.T) {
	setRequired(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRES_USER", "app")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_DB", "shop")
	t.Setenv("POSTGRES_HOST", "db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=app password=pw dbname=shop sslmode=disable", cfg.DSN())
}
