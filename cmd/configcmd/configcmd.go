// Package configcmd implements the config command, which writes a starter
// configuration file and prints the effective configuration.
package configcmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/north-cloud/crawler-console/cmd/common"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/config"
)

// DefaultPath is where config init writes without --output.
const DefaultPath = "config.yaml"

// ErrExists is returned when config init would overwrite a file.
var ErrExists = errors.New("file exists (use --force to overwrite)")

// Loader returns the effective configuration.
type Loader func() (*config.Config, error)

// Command returns the config command reading the global viper instance.
func Command() *cobra.Command {
	return NewCommand(func() (*config.Config, error) {
		return common.LoadConfig(viper.GetViper())
	})
}

// NewCommand returns the config command using load for config show.
func NewCommand(load Loader) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or inspect the configuration",
	}
	cmd.AddCommand(newInitCommand(), newShowCommand(load))
	return cmd
}

func newInitCommand() *cobra.Command {
	var (
		output string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a configuration template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !force {
				if _, err := os.Stat(output); err == nil {
					return fmt.Errorf("%s: %w", output, ErrExists)
				}
			}

			var buf bytes.Buffer
			if err := config.WriteYAML(&buf, config.Template(), false); err != nil {
				return err
			}
			if dir := filepath.Dir(output); dir != "." {
				if err := os.MkdirAll(dir, 0o750); err != nil {
					return fmt.Errorf("create %s: %w", dir, err)
				}
			}
			if err := os.WriteFile(output, buf.Bytes(), 0o600); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", DefaultPath, "file to write")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newShowCommand(load Loader) *cobra.Command {
	var reveal bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return config.WriteYAML(cmd.OutOrStdout(), *cfg, !reveal)
		},
	}
	cmd.Flags().BoolVar(&reveal, "reveal", false, "print credentials in clear text")
	return cmd
}
