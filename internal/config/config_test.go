package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestInit_Defaults(t *testing.T) {
	viper.Reset()
	Init()
	cfg := Get()

	assert.Equal(t, "campus-enrollment", cfg.App.Name)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "migrations", cfg.Database.MigrationsDir)
	assert.Equal(t, "log", cfg.Notification.Sender)
	assert.Equal(t, "memory", cfg.Notification.Queue)
	assert.Equal(t, 50, cfg.Notification.EnqueueTimeout)
	assert.Equal(t, 3, cfg.Notification.MaxAttempts)
	assert.Equal(t, "postgres", cfg.Store.Type)
	assert.True(t, cfg.RateLimit.Enabled)
}

func TestInit_EnvironmentOverride(t *testing.T) {
	viper.Reset()
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("NOTIFICATION_SENDER", "kafka")
	t.Setenv("RATE_LIMIT_REQUESTS", "5")
	t.Setenv("NOTIFICATION_QUEUE", "redis")

	Init()
	cfg := Get()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "kafka", cfg.Notification.Sender)
	assert.Equal(t, 5, cfg.RateLimit.Requests)
	assert.Equal(t, "redis", cfg.Notification.Queue)
}
