package common

import (
	"fmt"
	"io"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/client"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/config"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/logger"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/metrics"
)

// LoadConfig decodes the viper state into a validated Config. Values from
// the environment arrive as strings, so input is weakly typed: "50" fills
// page_size, "5s" a duration and "a,b" a list.
func LoadConfig(v *viper.Viper) (*config.Config, error) {
	cfg := &config.Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}
	if decodeErr := decoder.Decode(v.AllSettings()); decodeErr != nil {
		return nil, fmt.Errorf("decode config: %w", decodeErr)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// NewCommandDeps loads configuration from the global viper instance and
// builds the logger, metrics and backend client.
func NewCommandDeps(cmd *cobra.Command) (CommandDeps, error) {
	cfg, err := LoadConfig(viper.GetViper())
	if err != nil {
		return CommandDeps{}, fmt.Errorf("load config: %w", err)
	}
	return FromConfig(cfg, viper.GetBool("debug"), cmd.OutOrStdout())
}

// FromConfig builds dependencies from an already validated Config.
func FromConfig(cfg *config.Config, debug bool, out io.Writer) (CommandDeps, error) {
	log, err := logger.New(cfg.Logging.LoggerConfig(debug))
	if err != nil {
		return CommandDeps{}, fmt.Errorf("create logger: %w", err)
	}

	m := metrics.New()
	deps := CommandDeps{
		Logger:  log,
		Config:  cfg,
		Client:  NewClient(cfg, log),
		Metrics: m,
		Out:     out,
	}

	if validateErr := deps.Validate(); validateErr != nil {
		return CommandDeps{}, fmt.Errorf("validate deps: %w", validateErr)
	}
	return deps, nil
}

// NewClient builds the backend client for cfg. A pre-issued token wins
// over a JWT secret.
func NewClient(cfg *config.Config, log logger.Logger) *client.Client {
	opts := []client.Option{
		client.WithBaseURL(cfg.Backend.URL),
		client.WithTimeout(cfg.Backend.Timeout),
		client.WithLogger(log),
	}
	switch {
	case cfg.Auth.Token != "":
		opts = append(opts, client.WithToken(cfg.Auth.Token))
	case cfg.Auth.JWTSecret != "":
		opts = append(opts, client.WithJWTSecret(cfg.Auth.JWTSecret, cfg.Auth.Subject))
	}
	return client.New(opts...)
}
