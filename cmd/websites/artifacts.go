package websites

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/crawler-console/cmd/common"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/collection"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/logger"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/preview"
)

const stdoutName = "-"

func newLoader(deps common.CommandDeps, view *collection.View) *preview.Loader {
	return preview.NewLoader(deps.Client, view.CollectionID(), deps.Logger, deps.Metrics)
}

func newErrorsCommand(newDeps common.DepsProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "errors ID",
		Short: "Show the latest backend scrape failure of a website",
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
			return common.RenderErrors(deps.Writer(), row)
		},
	}
}

func newDownloadCommand(newDeps common.DepsProvider) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "download ID",
		Short: "Download the main data file of a scraped website",
		Long: `Download the main data file of a scraped website. Without --output
the file is named after the page title and its content type.`,
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

			var buf bytes.Buffer
			file, err := newLoader(deps, view).Download(cmd.Context(), row, &buf)
			if err != nil {
				return fmt.Errorf("failed to download %s: %w", row.ID(), err)
			}

			if output == stdoutName {
				_, err = io.Copy(deps.Writer(), &buf)
				return err
			}
			name := output
			if name == "" {
				name = preview.FileName(row, file)
			}
			if writeErr := os.WriteFile(name, buf.Bytes(), 0o600); writeErr != nil {
				return fmt.Errorf("failed to write %s: %w", name, writeErr)
			}
			deps.Logger.Info("Downloaded resource",
				logger.String("row_id", row.ID().String()),
				logger.String("file", name),
			)
			fmt.Fprintf(deps.Writer(), "Wrote %d bytes to %s\n", file.Size, name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", `output file ("-" for stdout)`)
	return cmd
}

func newPreviewCommand(newDeps common.DepsProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "preview ID",
		Short: "Show the resources and page metadata of a scraped website",
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
			p, err := newLoader(deps, view).Load(cmd.Context(), row)
			if err != nil {
				return fmt.Errorf("failed to preview %s: %w", row.ID(), err)
			}
			common.RenderPreview(deps.Writer(), p)
			return nil
		},
	}
}
