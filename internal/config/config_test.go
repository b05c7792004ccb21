package config_test

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/config"
)

func validConfig() config.Config {
	cfg := config.Config{
		Auth:       config.AuthConfig{Token: "tok"},
		Collection: config.CollectionConfig{ID: "42"},
	}
	cfg.SetDefaults()
	return cfg
}

func TestSetDefaults(t *testing.T) {
	t.Parallel()

	var cfg config.Config
	cfg.SetDefaults()

	assert.Equal(t, config.DefaultBackendURL, cfg.Backend.URL)
	assert.Equal(t, config.DefaultBackendTimeout, cfg.Backend.Timeout)
	assert.Equal(t, config.DefaultPageSize, cfg.Collection.PageSize)
	assert.Equal(t, config.DefaultPollInterval, cfg.Queue.PollInterval)
	assert.Equal(t, config.DefaultSubject, cfg.Auth.Subject)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, []string{"stderr"}, cfg.Logging.OutputPaths)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		mutate    func(*config.Config)
		wantField string
	}{
		{name: "valid", mutate: func(*config.Config) {}},
		{name: "jwt secret only", mutate: func(c *config.Config) { c.Auth.Token = ""; c.Auth.JWTSecret = "s" }},
		{name: "relative url", mutate: func(c *config.Config) { c.Backend.URL = "/crawler" }, wantField: "backend.url"},
		{name: "ftp url", mutate: func(c *config.Config) { c.Backend.URL = "ftp://host" }, wantField: "backend.url"},
		{name: "no credentials", mutate: func(c *config.Config) { c.Auth.Token = "" }, wantField: "auth"},
		{name: "page size too large", mutate: func(c *config.Config) { c.Collection.PageSize = 500 }, wantField: "collection.page_size"},
		{name: "poll too fast", mutate: func(c *config.Config) { c.Queue.PollInterval = time.Millisecond }, wantField: "queue.poll_interval"},
		{name: "unknown level", mutate: func(c *config.Config) { c.Logging.Level = "loud" }, wantField: "logging.level"},
		{name: "unknown format", mutate: func(c *config.Config) { c.Logging.Format = "xml" }, wantField: "logging.format"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}
			var vErr *config.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestLoggerConfig_DebugOverridesLevel(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	lc := cfg.Logging.LoggerConfig(true)

	assert.Equal(t, "debug", lc.Level)
	assert.True(t, lc.Development)
	assert.Equal(t, cfg.Logging.Format, lc.Format)
}

func TestYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	var buf bytes.Buffer
	require.NoError(t, config.WriteYAML(&buf, cfg, false))
	assert.Contains(t, buf.String(), "page_size: 20")

	back, err := config.ReadYAML(&buf)
	require.NoError(t, err)
	assert.Equal(t, cfg, back)
}

func TestWriteYAML_Redacts(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.Auth.JWTSecret = "secret"
	var buf bytes.Buffer
	require.NoError(t, config.WriteYAML(&buf, cfg, true))

	assert.NotContains(t, buf.String(), "secret\n")
	assert.NotContains(t, buf.String(), "tok\n")
	assert.Contains(t, buf.String(), "********")
}

func TestTemplate(t *testing.T) {
	t.Parallel()

	tmpl := config.Template()
	assert.Equal(t, config.DefaultBackendURL, tmpl.Backend.URL)
	assert.Empty(t, tmpl.Collection.ID)
}
