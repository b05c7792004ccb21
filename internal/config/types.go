// Package config holds the crawler console configuration. Values are loaded
// by the root command (file, .env, environment, flags) and then passed
// through SetDefaults and Validate.
package config

import (
	"time"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/logger"
)

// Default values.
const (
	DefaultBackendURL     = "http://localhost:5000"
	DefaultBackendTimeout = 30 * time.Second
	DefaultPageSize       = 20
	MaxPageSize           = 100
	DefaultPollInterval   = 5 * time.Second
	DefaultSubject        = "crawler-console"
)

// Config is the full console configuration.
type Config struct {
	Backend    BackendConfig    `mapstructure:"backend" yaml:"backend"`
	Auth       AuthConfig       `mapstructure:"auth" yaml:"auth"`
	Collection CollectionConfig `mapstructure:"collection" yaml:"collection"`
	Queue      QueueConfig      `mapstructure:"queue" yaml:"queue"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// BackendConfig locates the crawler backend.
type BackendConfig struct {
	URL     string        `mapstructure:"url" yaml:"url"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// AuthConfig holds the credential sent as x-access-token. Either a
// pre-issued token or a JWT secret to sign service tokens with.
type AuthConfig struct {
	Token     string `mapstructure:"token" yaml:"token"`
	JWTSecret string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	Subject   string `mapstructure:"subject" yaml:"subject"`
}

// CollectionConfig selects the website list the console works on.
type CollectionConfig struct {
	ID       string `mapstructure:"id" yaml:"id"`
	PageSize int    `mapstructure:"page_size" yaml:"page_size"`
}

// QueueConfig controls queue polling.
type QueueConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
}

// LoggingConfig mirrors logger.Config.
type LoggingConfig struct {
	Level       string   `mapstructure:"level" yaml:"level"`
	Format      string   `mapstructure:"format" yaml:"format"`
	OutputPaths []string `mapstructure:"output_paths" yaml:"output_paths"`
}

// SetDefaults fills every zero value with its default.
func (c *Config) SetDefaults() {
	c.Backend.SetDefaults()
	c.Auth.SetDefaults()
	c.Collection.SetDefaults()
	c.Queue.SetDefaults()
	c.Logging.SetDefaults()
}

// SetDefaults applies default values for BackendConfig.
func (c *BackendConfig) SetDefaults() {
	if c.URL == "" {
		c.URL = DefaultBackendURL
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultBackendTimeout
	}
}

// SetDefaults applies default values for AuthConfig.
func (c *AuthConfig) SetDefaults() {
	if c.Subject == "" {
		c.Subject = DefaultSubject
	}
}

// SetDefaults applies default values for CollectionConfig.
func (c *CollectionConfig) SetDefaults() {
	if c.PageSize == 0 {
		c.PageSize = DefaultPageSize
	}
}

// SetDefaults applies default values for QueueConfig.
func (c *QueueConfig) SetDefaults() {
	if c.PollInterval == 0 {
		c.PollInterval = DefaultPollInterval
	}
}

// SetDefaults applies default values for LoggingConfig.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = logger.DefaultLevel
	}
	if c.Format == "" {
		c.Format = logger.DefaultFormat
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = append([]string(nil), logger.DefaultOutputPaths...)
	}
}

// LoggerConfig converts the section into a logger.Config.
func (c LoggingConfig) LoggerConfig(debug bool) logger.Config {
	cfg := logger.Config{
		Level:       c.Level,
		Format:      c.Format,
		Development: debug,
		OutputPaths: c.OutputPaths,
	}
	if debug {
		cfg.Level = "debug"
	}
	return cfg
}
