// Package websites implements one-shot commands on a collection's website
// list.
package websites

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/crawler-console/cmd/common"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/collection"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
)

// Command returns the websites command with its subcommands.
func Command(newDeps common.DepsProvider) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "websites",
		Aliases: []string{"ws"},
		Short:   "Manage the websites of a collection",
		Long: `Manage the websites of a collection.

Examples:
  # List the second page of websites matching "docs"
  crawler-console websites list --page 2 --query docs

  # Add a URL and scrape it
  crawler-console websites add https://example.com/a
  crawler-console websites scrape <id>`,
	}

	cmd.AddCommand(
		newListCommand(newDeps),
		newAddCommand(newDeps),
		newRemoveCommand(newDeps),
		newScrapeCommand(newDeps),
		newQueueCommand(newDeps),
		newBulkQueueCommand(newDeps),
		newErrorsCommand(newDeps),
		newDownloadCommand(newDeps),
		newPreviewCommand(newDeps),
	)
	return cmd
}

// setup builds the dependencies and a view of the configured collection.
func setup(cmd *cobra.Command, newDeps common.DepsProvider) (common.CommandDeps, *collection.View, error) {
	deps, err := newDeps(cmd)
	if err != nil {
		return common.CommandDeps{}, nil, fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	view, err := deps.NewCollectionView()
	if err != nil {
		return common.CommandDeps{}, nil, err
	}
	return deps, view, nil
}

// findArg resolves the row named by the first argument.
func findArg(cmd *cobra.Command, view *collection.View, args []string) (domain.Website, error) {
	return common.FindRow(cmd.Context(), view, domain.ID(args[0]))
}

func newListCommand(newDeps common.DepsProvider) *cobra.Command {
	var (
		page  int
		query string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List a page of websites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, view, err := setup(cmd, newDeps)
			if err != nil {
				return err
			}
			if loadErr := view.Load(cmd.Context(), page, query); loadErr != nil {
				return fmt.Errorf("failed to list websites: %w", loadErr)
			}
			common.RenderWebsites(deps.Writer(), view)
			return nil
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().StringVarP(&query, "query", "q", "", "filter text")
	return cmd
}
