package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("WS_ALLOWED_ORIGINS", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_DSN", "")
	t.Setenv("MYSQL_DSN", "")

	cfg := New()

	assert.Equal(t, "mysql", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "@tcp(localhost:3306)/irlobby")
	assert.Equal(t, "irlobby", cfg.Log.Component)
	assert.Equal(t, time.Hour, cfg.Redis.CountTTL)
	assert.Equal(t, 1, cfg.Eligibility.MinCapacity)
	assert.Equal(t, 100, cfg.Eligibility.MaxCapacity)
	assert.Equal(t, "0.0.0.0:8080", cfg.HTTPAddr())
	assert.Empty(t, cfg.WS.AllowedOrigins)
}

func TestNew_PostgresDSN(t *testing.T) {
	t.Setenv("DB_DRIVER", "Postgres")
	t.Setenv("DB_DSN", "")
	t.Setenv("MYSQL_DSN", "")
	t.Setenv("DB_HOST", "db")

	cfg := New()

	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Contains(t, cfg.DB.DSN, "host=db port=5432")
}

func TestNew_Overrides(t *testing.T) {
	t.Setenv("DB_DSN", "file::memory:")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("REDIS_COUNT_TTL", "90s")
	t.Setenv("ELIGIBILITY_MAX_CAPACITY", "12")
	t.Setenv("ELIGIBILITY_MIN_CAPACITY", "nope")
	t.Setenv("LOG_SOURCE", "yes")
	t.Setenv("WS_ALLOWED_ORIGINS", " https://app.irlobby.test, ,https://admin.irlobby.test ")

	cfg := New()

	assert.Equal(t, "file::memory:", cfg.DB.DSN)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 90*time.Second, cfg.Redis.CountTTL)
	assert.Equal(t, 12, cfg.Eligibility.MaxCapacity)
	assert.Equal(t, 1, cfg.Eligibility.MinCapacity)
	assert.True(t, cfg.Log.Source)
	assert.Equal(t, []string{"https://app.irlobby.test", "https://admin.irlobby.test"}, cfg.WS.AllowedOrigins)
}

func TestIsTruthy(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", " on "} {
		assert.True(t, isTruthy(v), v)
	}
	for _, v := range []string{"", "0", "off", "nah"} {
		assert.False(t, isTruthy(v), v)
	}
}
