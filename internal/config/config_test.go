package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TASKBOARD_AUTH_JWTSECRET", testSecret)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Addr)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	assert.Empty(t, cfg.Server.TrustedProxies)
	assert.Equal(t, "data/taskboard.db", cfg.Database.Path)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, 100, cfg.RateLimit.Requests)
	assert.Equal(t, 5, cfg.RateLimit.AuthRequests)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Empty(t, cfg.Storage.Bucket)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TASKBOARD_AUTH_JWTSECRET", testSecret)
	t.Setenv("TASKBOARD_AUTH_TOKENTTL", "2h")
	t.Setenv("TASKBOARD_AUTH_COOKIESECURE", "true")
	t.Setenv("TASKBOARD_SERVER_ALLOWEDORIGINS", "https://a.example,https://b.example")
	t.Setenv("TASKBOARD_SERVER_TRUSTEDPROXIES", "10.0.0.0/8")
	t.Setenv("TASKBOARD_REDIS_ADDR", "localhost:6379")
	t.Setenv("TASKBOARD_RATELIMIT_AUTHREQUESTS", "10")
	t.Setenv("TASKBOARD_STORAGE_BUCKET", "exports")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.Auth.CookieSecure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.Server.TrustedProxies)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 10, cfg.RateLimit.AuthRequests)
	assert.Equal(t, "exports", cfg.Storage.Bucket)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TASKBOARD_AUTH_JWTSECRET", "")

	_, err := Load()
	require.Error(t, err)

	t.Setenv("TASKBOARD_AUTH_JWTSECRET", "too-short")
	_, err = Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var cfg Config
		cfg.Auth.JWTSecret = testSecret
		cfg.Auth.TokenTTL = time.Hour
		cfg.RateLimit.Requests = 1
		cfg.RateLimit.AuthRequests = 1
		cfg.RateLimit.Window = time.Minute
		return cfg
	}

	require.NoError(t, valid().Validate())

	cases := map[string]func(*Config){
		"zero ttl":       func(c *Config) { c.Auth.TokenTTL = 0 },
		"zero window":    func(c *Config) { c.RateLimit.Window = 0 },
		"zero requests":  func(c *Config) { c.RateLimit.Requests = 0 },
		"bad log format": func(c *Config) { c.Log.Format = "xml" },
		"blank secret":   func(c *Config) { c.Auth.JWTSecret = "   " },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
