package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks every section and returns all problems joined.
func (c *Config) Validate() error {
	return errors.Join(
		c.Backend.Validate(),
		c.Auth.Validate(),
		c.Collection.Validate(),
		c.Queue.Validate(),
		c.Logging.Validate(),
	)
}

// Validate validates a BackendConfig.
func (c *BackendConfig) Validate() error {
	if c.URL == "" {
		return &ValidationError{Field: "backend.url", Message: "is required"}
	}
	u, err := url.Parse(c.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return &ValidationError{Field: "backend.url", Message: "must be an absolute URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "backend.url", Message: "scheme must be http or https"}
	}
	if c.Timeout < 0 {
		return &ValidationError{Field: "backend.timeout", Message: "must not be negative"}
	}
	return nil
}

// Validate validates an AuthConfig.
func (c *AuthConfig) Validate() error {
	if c.Token == "" && c.JWTSecret == "" {
		return &ValidationError{Field: "auth", Message: "token or jwt_secret is required"}
	}
	return nil
}

// Validate validates a CollectionConfig.
func (c *CollectionConfig) Validate() error {
	if c.PageSize < 1 || c.PageSize > MaxPageSize {
		return &ValidationError{
			Field:   "collection.page_size",
			Message: fmt.Sprintf("must be between 1 and %d", MaxPageSize),
		}
	}
	return nil
}

// Validate validates a QueueConfig.
func (c *QueueConfig) Validate() error {
	if c.PollInterval < time.Second {
		return &ValidationError{Field: "queue.poll_interval", Message: "must be at least 1s"}
	}
	return nil
}

// Validate validates a LoggingConfig.
func (c *LoggingConfig) Validate() error {
	switch c.Level {
	case "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error, fatal"}
	}
	switch c.Format {
	case "json", "console":
	default:
		return &ValidationError{Field: "logging.format", Message: "must be one of: json, console"}
	}
	return nil
}
