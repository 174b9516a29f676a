package config

import (
	"testing"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"VGSALES_DATA", "PORT", "LOG_LEVEL", "TOP_N", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(k, "")
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "vgsales-clean.csv", cfg.DataFile)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, log.INFO, cfg.LogLevel)
	assert.Equal(t, 10, cfg.TopN)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestFromEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("VGSALES_DATA", "/data/sales.csv")
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TOP_N", "25")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "/data/sales.csv", cfg.DataFile)
	assert.Equal(t, ":9000", cfg.Addr())
	assert.Equal(t, log.DEBUG, cfg.LogLevel)
	assert.Equal(t, 25, cfg.TopN)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestFromEnvInvalid(t *testing.T) {
	tests := map[string][2]string{
		"log level":     {"LOG_LEVEL", "LOUD"},
		"top n":         {"TOP_N", "ten"},
		"top n zero":    {"TOP_N", "0"},
		"shutdown time": {"SHUTDOWN_TIMEOUT", "soon"},
	}
	for name, kv := range tests {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
