package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", StorageMemory)
	t.Setenv("APP_TIMEZONE", "UTC")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 60*time.Second, cfg.Notifications.Interval)
	assert.Equal(t, 30*time.Minute, cfg.Notifications.Window)
	assert.Equal(t, NotifierInbox, cfg.Notifications.Notifier)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Security.AuthEnabled())

	loc, err := cfg.App.Location()
	require.NoError(t, err)
	assert.Equal(t, time.UTC, loc)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", StorageRedis)
	t.Setenv("REDIS_HOST", "cache")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("NOTIFICATIONS_WINDOW", "15m")
	t.Setenv("NOTIFICATIONS_NOTIFIER", NotifierLog)
	t.Setenv("JWT_SECRET", "a-long-enough-secret")
	t.Setenv("APP_TIMEZONE", "Asia/Tokyo")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "cache:6380", cfg.Redis.GetAddr())
	assert.Equal(t, 15*time.Minute, cfg.Notifications.Window)
	assert.Equal(t, NotifierLog, cfg.Notifications.Notifier)
	assert.True(t, cfg.Security.AuthEnabled())

	loc, err := cfg.App.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", loc.String())
}

func validConfig() *Config {
	return &Config{
		App:     AppConfig{Timezone: "UTC"},
		Server:  ServerConfig{Port: 8080},
		Storage: StorageConfig{Driver: StorageFile, FilePath: "planner.json"},
		Security: SecurityConfig{
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Notifications: NotificationsConfig{
			Interval: time.Minute,
			Window:   30 * time.Minute,
			Notifier: NotifierInbox,
		},
	}
}

func TestValidateConfig(t *testing.T) {
	require.NoError(t, validateConfig(validConfig()))

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "sqlite" }},
		{"file driver without path", func(c *Config) { c.Storage.FilePath = "" }},
		{"postgres without database", func(c *Config) { c.Storage.Driver = StoragePostgres }},
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"zero interval", func(c *Config) { c.Notifications.Interval = 0 }},
		{"zero window", func(c *Config) { c.Notifications.Window = 0 }},
		{"huge window", func(c *Config) { c.Notifications.Window = 48 * time.Hour }},
		{"unknown notifier", func(c *Config) { c.Notifications.Notifier = "email" }},
		{"unknown timezone", func(c *Config) { c.App.Timezone = "Mars/Olympus" }},
		{"short secret", func(c *Config) { c.Security.JWTSecret = "short" }},
		{"rate limit without window", func(c *Config) { c.Security.RateLimitWindow = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, validateConfig(cfg))
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "planner", SSLMode: "disable"}
	assert.Contains(t, cfg.GetDSN(), "host=db")
	assert.Contains(t, cfg.GetDSN(), "dbname=planner")
}

func TestAppEnvironment(t *testing.T) {
	dev := AppConfig{Environment: "development"}
	assert.True(t, dev.IsDevelopment())
	assert.False(t, dev.IsProduction())

	prod := AppConfig{Environment: "production"}
	assert.True(t, prod.IsProduction())
	assert.False(t, prod.IsDevelopment())
}
