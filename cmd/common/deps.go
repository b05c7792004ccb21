// Package common provides shared utilities for command implementations.
package common

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/client"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/config"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/logger"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/metrics"
)

// CommandDeps holds common dependencies for all commands.
type CommandDeps struct {
	Logger  logger.Logger
	Config  *config.Config
	Client  *client.Client
	Metrics *metrics.Metrics
	Out     io.Writer
}

// Validate ensures all required dependencies are present.
func (d CommandDeps) Validate() error {
	if d.Logger == nil {
		return ErrLoggerRequired
	}
	if d.Config == nil {
		return ErrConfigRequired
	}
	if d.Client == nil {
		return ErrClientRequired
	}
	return nil
}

// RequireCollection returns the configured collection id.
func (d CommandDeps) RequireCollection() (string, error) {
	if d.Config.Collection.ID == "" {
		return "", ErrCollectionRequired
	}
	return d.Config.Collection.ID, nil
}

// Writer returns where tables go.
func (d CommandDeps) Writer() io.Writer {
	if d.Out == nil {
		return os.Stdout
	}
	return d.Out
}

// DepsProvider builds the dependencies of a command at run time.
type DepsProvider func(cmd *cobra.Command) (CommandDeps, error)

// Static returns a DepsProvider that always yields deps.
func Static(deps CommandDeps) DepsProvider {
	return func(*cobra.Command) (CommandDeps, error) {
		return deps, deps.Validate()
	}
}
