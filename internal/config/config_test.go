package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)

	assert.Equal(t, "./data/mpdhub.db", cfg.DBPath)
	assert.Equal(t, ":7936", cfg.ListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 5*time.Second, cfg.PollInterval)
	assert.Equal(t, 10, cfg.FlowRateLimit)
	assert.Empty(t, cfg.MigrationsDir)
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("MPDHUB_LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("MPDHUB_POLL_INTERVAL", "250ms")
	t.Setenv("MPDHUB_LOG_FORMAT", "json")

	cfg, err := Load(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mpdhub.yaml")
	require.NoError(t, os.WriteFile(path, []byte("db_path: /var/lib/mpdhub.db\nflow_rate_limit: 0\n"), 0o600))

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/mpdhub.db", cfg.DBPath)
	assert.Equal(t, 0, cfg.FlowRateLimit)
}

func TestLoadFlagOverridesEnv(t *testing.T) {
	t.Setenv("MPDHUB_DB_PATH", "/from/env.db")
	v := viper.New()
	v.Set("db_path", "/from/flag.db")

	cfg, err := Load(v, "")
	require.NoError(t, err)
	assert.Equal(t, "/from/flag.db", cfg.DBPath)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Config{DBPath: "x.db", ListenAddr: ":1", LogLevel: "info", LogFormat: "text", PollInterval: time.Second}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no db path", func(c *Config) { c.DBPath = "" }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }},
		{"zero interval", func(c *Config) { c.PollInterval = 0 }},
		{"negative rate", func(c *Config) { c.FlowRateLimit = -1 }},
		{"bad key", func(c *Config) { c.SecretKey = "not base64!" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}
