package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		envVersion, envLogLevel, envDBUser, envDBPass, envDBHost,
		envDBName, envResetHistory, envOpTimeout, envMetricsAddr, envStatsInterval,
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv(envDBName, "chatbot")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.Version)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "localhost:27017", cfg.DBHost)
	assert.Equal(t, "chatbot", cfg.DBName)
	assert.Empty(t, cfg.DBUser)
	assert.False(t, cfg.ResetHistory)
	assert.Equal(t, 10*time.Second, cfg.OpTimeout)
	assert.Equal(t, ":8080", cfg.MetricsAddr)
	assert.Equal(t, time.Minute, cfg.StatsInterval)
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(envDBName, "chatbot")
	t.Setenv(envDBUser, "admin")
	t.Setenv(envDBPass, "secret")
	t.Setenv(envDBHost, "db.internal:27017")
	t.Setenv(envResetHistory, "true")
	t.Setenv(envOpTimeout, "30s")
	t.Setenv(envStatsInterval, "5m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "admin", cfg.DBUser)
	assert.Equal(t, "secret", cfg.DBPass)
	assert.Equal(t, "db.internal:27017", cfg.DBHost)
	assert.True(t, cfg.ResetHistory)
	assert.Equal(t, 30*time.Second, cfg.OpTimeout)
	assert.Equal(t, 5*time.Minute, cfg.StatsInterval)
}

func TestLoadValidation(t *testing.T) {
	t.Run("database name required", func(t *testing.T) {
		clearEnv(t)
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), envDBName)
	})

	t.Run("password without username", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(envDBName, "chatbot")
		t.Setenv(envDBPass, "secret")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("invalid reset flag", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(envDBName, "chatbot")
		t.Setenv(envResetHistory, "yep")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("invalid timeout", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(envDBName, "chatbot")
		t.Setenv(envOpTimeout, "soon")
		_, err := Load()
		require.Error(t, err)
	})

	t.Run("timeout too small", func(t *testing.T) {
		clearEnv(t)
		t.Setenv(envDBName, "chatbot")
		t.Setenv(envOpTimeout, "100ms")
		_, err := Load()
		require.Error(t, err)
	})
}
