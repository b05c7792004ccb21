package websites

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/crawler-console/cmd/common"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
)

func newAddCommand(newDeps common.DepsProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "add URL",
		Short: "Add a URL to the collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, view, err := setup(cmd, newDeps)
			if err != nil {
				return err
			}
			view.OpenAdd()
			view.SetAddURL(args[0])
			row, addErr := view.Add(cmd.Context())
			if addErr != nil {
				return fmt.Errorf("failed to add %s: %w", args[0], addErr)
			}
			common.RenderRow(deps.Writer(), row)
			return nil
		},
	}
}

func newRemoveCommand(newDeps common.DepsProvider) *cobra.Command {
	return &cobra.Command{
		Use:     "remove ID",
		Aliases: []string{"rm"},
		Short:   "Remove a website from the collection",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, view, err := setup(cmd, newDeps)
			if err != nil {
				return err
			}
			row, err := findArg(cmd, view, args)
			if err != nil {
				return err
			}
			if rmErr := view.Remove(cmd.Context(), row.ID()); rmErr != nil {
				return fmt.Errorf("failed to remove %s: %w", row.ID(), rmErr)
			}
			fmt.Fprintf(deps.Writer(), "Removed %s (%s)\n", row.ID(), row.URL())
			return nil
		},
	}
}

func newScrapeCommand(newDeps common.DepsProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape ID",
		Short: "Scrape a website now",
		Long: `Scrape a website synchronously. When the backend reports a scrape
failure, the stage, status and traceback are printed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, view, err := setup(cmd, newDeps)
			if err != nil {
				return err
			}
			row, err := findArg(cmd, view, args)
			if err != nil {
				return err
			}
			scraped, err := view.Scrape(cmd.Context(), row.ID())
			if err != nil {
				return fmt.Errorf("failed to scrape %s: %w", row.ID(), err)
			}
			out := deps.Writer()
			common.RenderRow(out, scraped)
			if scraped.Status.Kind() == domain.StatusErrored {
				return common.RenderErrors(out, scraped)
			}
			return nil
		},
	}
}

func newQueueCommand(newDeps common.DepsProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "queue ID",
		Short: "Queue a website for a backend scrape job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, view, err := setup(cmd, newDeps)
			if err != nil {
				return err
			}
			row, err := findArg(cmd, view, args)
			if err != nil {
				return err
			}
			if qErr := view.Queue(cmd.Context(), row.ID()); qErr != nil {
				return fmt.Errorf("failed to queue %s: %w", row.ID(), qErr)
			}
			fmt.Fprintf(deps.Writer(), "Queued %s (%s)\n", row.ID(), row.URL())
			return nil
		},
	}
}

// ErrNoSelection is returned by bulk-queue without ids or --all.
var ErrNoSelection = errors.New("pass row ids or --all")

func newBulkQueueCommand(newDeps common.DepsProvider) *cobra.Command {
	var (
		page  int
		query string
		all   bool
	)
	cmd := &cobra.Command{
		Use:   "bulk-queue [ID...]",
		Short: "Queue several websites of one page in a single call",
		Long: `Queue the given rows of a page, or every row of the page with --all.
Rows already queued or scraped are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !all {
				return ErrNoSelection
			}
			deps, view, err := setup(cmd, newDeps)
			if err != nil {
				return err
			}
			if loadErr := view.Load(cmd.Context(), page, query); loadErr != nil {
				return fmt.Errorf("failed to list websites: %w", loadErr)
			}
			if all {
				view.SelectAll(true)
			}
			for _, id := range args {
				if selErr := view.Select(domain.ID(id), true); selErr != nil {
					return fmt.Errorf("%s on page %d: %w", id, view.Page(), selErr)
				}
			}

			n, err := view.BulkQueue(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to bulk queue: %w", err)
			}
			out := deps.Writer()
			fmt.Fprintf(out, "Queued %d websites\n", n)
			common.RenderWebsites(out, view)
			return nil
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter text")
	cmd.Flags().BoolVar(&all, "all", false, "select every row on the page")
	return cmd
}
