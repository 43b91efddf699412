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

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, 720*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.AI.Model)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
	assert.Equal(t, int64(50<<20), cfg.MaxUploadBytes())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", " SQLite ")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("JWT_TTL", "48h")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("AI_MAX_HISTORY", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/tmp/x.db", cfg.SQLitePath)
	assert.Equal(t, 48*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 5, cfg.AI.MaxHistory)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			StoreDriver: DriverSQLite,
			SQLitePath:  "shelf.db",
			JWTSecret:   "a-strong-secret",
			TokenTTL:    time.Hour,
			AI:          AIConfig{MaxPageChars: 100, MaxHistory: 10},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "redis" }, wantErr: "STORE_DRIVER"},
		{name: "default secret in production", mutate: func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = defaultJWTSecret
		}, wantErr: "strong secret"},
		{name: "short admin secret", mutate: func(c *Config) { c.AdminSecret = "short" }, wantErr: "ADMIN_SECRET"},
		{name: "zero ttl", mutate: func(c *Config) { c.TokenTTL = 0 }, wantErr: "JWT_TTL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
