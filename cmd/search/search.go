// Package search implements the web search command, which finds URLs on
// the public web and imports them into the collection.
package search

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/crawler-console/cmd/common"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/logger"
	websearch "github.com/jonesrussell/north-cloud/crawler-console/internal/search"
)

// Command returns the search command.
func Command(newDeps common.DepsProvider) *cobra.Command {
	var (
		page      int
		imports   []string
		importAll bool
	)
	cmd := &cobra.Command{
		Use:   "search QUERY",
		Short: "Search the web for URLs to add",
		Long: `Search the web and optionally import results into the collection.

Examples:
  # Show the second page of results for "cats"
  crawler-console search cats --page 2

  # Import results 21 and 23, as numbered in the # column
  crawler-console search cats --page 2 --import 21,23

  # Import every result on the page
  crawler-console search cats --import-all`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, err := newDeps(cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}
			collectionID, err := deps.RequireCollection()
			if err != nil {
				return err
			}

			view := websearch.New(deps.Client, collectionID, deps.Logger, deps.Metrics,
				websearch.WithPageSize(deps.Config.Collection.PageSize))
			query := strings.Join(args, " ")
			if loadErr := view.Load(cmd.Context(), page, query); loadErr != nil {
				return fmt.Errorf("failed to search %q: %w", query, loadErr)
			}

			out := deps.Writer()
			if len(imports) == 0 && !importAll {
				common.RenderSearch(out, view)
				return nil
			}

			if importAll {
				view.SelectAll(true)
			}
			for _, ref := range imports {
				u, resolveErr := common.ResolveResult(view, ref)
				if resolveErr != nil {
					return resolveErr
				}
				if selErr := view.Select(u, true); selErr != nil {
					return selErr
				}
			}

			added, importErr := view.Import(cmd.Context())
			reportImport(out, deps.Logger, added)
			if importErr != nil {
				return fmt.Errorf("failed to import: %w", importErr)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&page, "page", "p", 1, "page number")
	cmd.Flags().StringSliceVar(&imports, "import", nil, "result numbers or URLs to import")
	cmd.Flags().BoolVar(&importAll, "import-all", false, "import every result on the page")
	return cmd
}

func reportImport(out io.Writer, log logger.Logger, added []domain.WebsiteRecord) {
	urls := make([]string, 0, len(added))
	for _, rec := range added {
		fmt.Fprintf(out, "Imported %s as %s\n", rec.URL, rec.ID)
		urls = append(urls, rec.URL)
	}
	log.Info("Imported search results",
		logger.Int("count", len(added)),
		logger.Strings("urls", urls),
	)
}
