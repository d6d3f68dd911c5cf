// Package config provides configuration management using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultServerPort      = 8096
	defaultServerTimeout   = 30 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	defaultMaxOpenConns    = 25
	defaultMaxIdleConns    = 10
	defaultConnMaxIdleTime = 30 * time.Minute
	defaultOpenTimeout     = 30 * time.Second
	defaultSessionTTL      = 5 * time.Minute
	defaultCleanupCron     = "0 */30 * * * *"
	defaultCopyBufferSize  = 256 * 1024
	defaultRecordDuration  = 3 * time.Hour
)

// Config holds all configuration for the application.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	LiveTV    LiveTVConfig    `mapstructure:"livetv"`
	Recording RecordingConfig `mapstructure:"recording"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// DatabaseConfig holds database connection configuration.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // sqlite, postgres, mysql
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	LogLevel        string        `mapstructure:"log_level"` // silent, error, warn, info
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// LiveTVConfig holds live stream session configuration.
type LiveTVConfig struct {
	// OpenTimeout is the bounded wait for a provider to confirm readiness.
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
	// SessionTTL is how long a session may stay open with zero consumers
	// before the janitor closes it.
	SessionTTL time.Duration `mapstructure:"session_ttl"`
	// CleanupCron is the 6-field cron expression for the idle-session sweep.
	CleanupCron string `mapstructure:"cleanup_cron"`
}

// RecordingConfig holds bounded stream recording configuration.
type RecordingConfig struct {
	// Directory is where recording files are written.
	Directory string `mapstructure:"directory"`
	// DefaultDuration is used when a recording request omits a duration.
	DefaultDuration time.Duration `mapstructure:"default_duration"`
	// CopyBufferSize is the chunk size for the copy loop, in bytes.
	CopyBufferSize int `mapstructure:"copy_buffer_size"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with JELLYFIN_ and use underscores
// for nesting. Example: JELLYFIN_SERVER_PORT=8096.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/jellyfin")
		v.AddConfigPath("$HOME/.jellyfin")
	}

	v.SetEnvPrefix("JELLYFIN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Config file not found is OK - we'll use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file.
func SetDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", defaultServerPort)
	v.SetDefault("server.read_timeout", defaultServerTimeout)
	v.SetDefault("server.write_timeout", defaultServerTimeout)
	v.SetDefault("server.shutdown_timeout", defaultShutdownTimeout)
	v.SetDefault("server.cors_origins", []string{"*"})

	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "jellyfin.db")
	v.SetDefault("database.max_open_conns", defaultMaxOpenConns)
	v.SetDefault("database.max_idle_conns", defaultMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.conn_max_idle_time", defaultConnMaxIdleTime)
	v.SetDefault("database.log_level", "warn")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	// Live TV defaults
	v.SetDefault("livetv.open_timeout", defaultOpenTimeout)
	v.SetDefault("livetv.session_ttl", defaultSessionTTL)
	v.SetDefault("livetv.cleanup_cron", defaultCleanupCron)

	// Recording defaults
	v.SetDefault("recording.directory", "./recordings")
	v.SetDefault("recording.default_duration", defaultRecordDuration)
	v.SetDefault("recording.copy_buffer_size", defaultCopyBufferSize)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	const maxPort = 65535
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return fmt.Errorf("server.port must be between 1 and %d", maxPort)
	}

	validDrivers := map[string]bool{"sqlite": true, "postgres": true, "mysql": true}
	if !validDrivers[c.Database.Driver] {
		return fmt.Errorf("database.driver must be one of: sqlite, postgres, mysql")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	if c.LiveTV.OpenTimeout <= 0 {
		return fmt.Errorf("livetv.open_timeout must be positive")
	}
	if c.LiveTV.SessionTTL <= 0 {
		return fmt.Errorf("livetv.session_ttl must be positive")
	}

	if c.Recording.Directory == "" {
		return fmt.Errorf("recording.directory is required")
	}
	if c.Recording.CopyBufferSize < 1 {
		return fmt.Errorf("recording.copy_buffer_size must be at least 1")
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
