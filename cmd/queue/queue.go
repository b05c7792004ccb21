// Package queue implements the command that lists queued websites and
// watches them until the backend finishes scraping.
package queue

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/crawler-console/cmd/common"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
	queueview "github.com/jonesrussell/north-cloud/crawler-console/internal/queue"
)

// Command returns the queue command.
func Command(newDeps common.DepsProvider) *cobra.Command {
	var (
		watch      bool
		untilEmpty bool
		interval   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "List websites waiting on a scrape job",
		Long: `List the websites of the collection that are queued for scraping.
With --watch the list is polled and every website that finishes is
reported, until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := newDeps(cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}
			collectionID, err := deps.RequireCollection()
			if err != nil {
				return err
			}

			view := queueview.New(deps.Client, collectionID, deps.Logger, deps.Metrics)
			out := deps.Writer()
			if _, refreshErr := view.Refresh(cmd.Context()); refreshErr != nil {
				return fmt.Errorf("failed to list queue: %w", refreshErr)
			}
			common.RenderQueue(out, view.Rows())
			if !watch || (untilEmpty && len(view.Rows()) == 0) {
				return nil
			}

			if interval <= 0 {
				interval = deps.Config.Queue.PollInterval
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			var done func([]domain.Website) bool
			if untilEmpty {
				done = func(rows []domain.Website) bool { return len(rows) == 0 }
			}
			watchErr := view.WatchUntil(ctx, interval, func(c queueview.Change) {
				reportChange(out, c)
			}, done)
			if errors.Is(watchErr, context.Canceled) {
				return nil
			}
			return watchErr
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "poll until interrupted")
	cmd.Flags().BoolVar(&untilEmpty, "until-empty", false, "stop watching once nothing is queued")
	cmd.Flags().DurationVar(&interval, "interval", 0, "poll interval (default queue.poll_interval)")
	return cmd
}

func reportChange(w io.Writer, c queueview.Change) {
	switch after := c.After.Status.(type) {
	case domain.Scraped:
		fmt.Fprintf(w, "%s %s scraped (%d resources)\n", c.After.ID(), c.After.URL(), len(after.Resources))
	case domain.Errored:
		fmt.Fprintf(w, "%s %s failed at %s: %s\n", c.After.ID(), c.After.URL(), after.Latest.Stage, after.Latest.Status)
	default:
		fmt.Fprintf(w, "%s %s left the queue (%s)\n", c.After.ID(), c.After.URL(), c.After.Status.Kind())
	}
}
