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

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	// Explicit path that does not exist is an error
	require.Error(t, err)

	cfg, err = Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8096, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 30*time.Second, cfg.LiveTV.OpenTimeout)
	assert.Equal(t, 3*time.Hour, cfg.Recording.DefaultDuration)
	assert.Equal(t, 256*1024, cfg.Recording.CopyBufferSize)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9000
logging:
  level: debug
  format: text
livetv:
  open_timeout: 5s
recording:
  directory: /tmp/recordings
  default_duration: 30m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 5*time.Second, cfg.LiveTV.OpenTimeout)
	assert.Equal(t, "/tmp/recordings", cfg.Recording.Directory)
	assert.Equal(t, 30*time.Minute, cfg.Recording.DefaultDuration)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("JELLYFIN_SERVER_PORT", "9096")
	t.Setenv("JELLYFIN_LOGGING_LEVEL", "warn")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9096, cfg.Server.Port)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		v := viper.New()
		SetDefaults(v)
		var cfg Config
		require.NoError(t, v.Unmarshal(&cfg))
		return &cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"bad driver", func(c *Config) { c.Database.Driver = "oracle" }, "database.driver"},
		{"empty dsn", func(c *Config) { c.Database.DSN = "" }, "database.dsn"},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"zero open timeout", func(c *Config) { c.LiveTV.OpenTimeout = 0 }, "livetv.open_timeout"},
		{"zero session ttl", func(c *Config) { c.LiveTV.SessionTTL = 0 }, "livetv.session_ttl"},
		{"empty recording dir", func(c *Config) { c.Recording.Directory = "" }, "recording.directory"},
		{"zero copy buffer", func(c *Config) { c.Recording.CopyBufferSize = 0 }, "recording.copy_buffer_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", Port: 8096}
	assert.Equal(t, "127.0.0.1:8096", cfg.Address())
}
