package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// WriteYAML encodes cfg as YAML. Credentials are written as placeholders
// when redact is set.
func WriteYAML(w io.Writer, cfg Config, redact bool) error {
	if redact {
		cfg.Auth.Token = redacted(cfg.Auth.Token)
		cfg.Auth.JWTSecret = redacted(cfg.Auth.JWTSecret)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return nil
}

// Template returns a default configuration suitable for `config init`.
func Template() Config {
	var cfg Config
	cfg.SetDefaults()
	cfg.Auth.Token = ""
	cfg.Collection.ID = ""
	return cfg
}

// ReadYAML decodes a configuration file body.
func ReadYAML(r io.Reader) (Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func redacted(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
