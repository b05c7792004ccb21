// Package console implements the interactive console: the collection list
// in the main pane with web search, the queue and scrape previews sliding
// in on the right.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/north-cloud/crawler-console/cmd/common"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/collection"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/logger"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/preview"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/queue"
	websearch "github.com/jonesrussell/north-cloud/crawler-console/internal/search"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/shell"
)

// Command returns the console command.
func Command(newDeps common.DepsProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "console",
		Short: "Start the interactive console",
		Long: `Start the interactive console. The collection list is the main pane;
"web", "queued" and "view" slide search, queue and scrape preview panes in
on the right. The arrow keys (or "left"/"right") switch panes. Type "help"
for every command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := newDeps(cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}
			c, err := New(deps)
			if err != nil {
				return err
			}
			return c.Run(cmd.Context(), cmd.InOrStdin())
		},
	}
}

type handler func(ctx context.Context, args []string) error

type command struct {
	usage string
	help  string
	run   handler
}

// Console hosts the views behind a line-oriented prompt.
type Console struct {
	deps     common.CommandDeps
	out      io.Writer
	log      logger.Logger
	shell    *shell.Shell
	websites *collection.View
	web      *websearch.View
	queue    *queue.View
	previews *preview.Loader
	commands map[string]command
	aliases  map[string]string

	// previewRow is the row the scrape pane opened, which may sit on
	// another page of the collection.
	previewRow  domain.Website
	paneChanged bool
	quit        bool
}

// New builds a console on the configured collection.
func New(deps common.CommandDeps) (*Console, error) {
	websites, err := deps.NewCollectionView()
	if err != nil {
		return nil, err
	}
	id := websites.CollectionID()

	c := &Console{
		deps:     deps,
		out:      deps.Writer(),
		log:      deps.Logger.With(logger.String("component", "console")),
		shell:    shell.New(shell.NewKeymap()),
		websites: websites,
		queue:    queue.New(deps.Client, id, deps.Logger, deps.Metrics),
		previews: preview.NewLoader(deps.Client, id, deps.Logger, deps.Metrics),
	}
	c.web = websearch.New(deps.Client, id, deps.Logger, deps.Metrics,
		websearch.WithPageSize(deps.Config.Collection.PageSize),
		websearch.WithImportHandler(func(recs []domain.WebsiteRecord) {
			websites.Prepend(recs...)
		}),
	)
	c.shell.OnChange(func(st shell.State) {
		c.paneChanged = true
		c.log.Debug("Pane changed",
			logger.String("pane", string(st.Pane)),
			logger.String("code", string(st.Code)),
			logger.Any("payload", st.Payload),
		)
	})
	c.registerCommands()
	return c, nil
}

// Shell returns the navigation shell.
func (c *Console) Shell() *shell.Shell {
	return c.shell
}

// Run reads commands from in until EOF or "quit".
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	unmount := c.shell.Mount()
	defer func() {
		unmount()
		c.web.Unmount()
		c.queue.Unmount()
		c.websites.Unmount()
	}()

	if err := c.websites.Load(ctx, 1, ""); err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
	} else {
		common.RenderWebsites(c.out, c.websites)
	}

	scanner := bufio.NewScanner(in)
	for !c.quit {
		c.prompt()
		if !scanner.Scan() {
			break
		}
		c.Exec(ctx, scanner.Text())
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	fmt.Fprintln(c.out)
	return scanner.Err()
}

// Exec runs one input line and shows the pane it leads to.
func (c *Console) Exec(ctx context.Context, line string) {
	c.paneChanged = false
	if err := c.exec(ctx, line); err != nil {
		c.log.Debug("Command failed", logger.String("line", line), logger.Error(err))
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
	if c.paneChanged {
		c.showPane(ctx)
	}
}

func (c *Console) exec(ctx context.Context, line string) error {
	if key, ok := shell.ParseKey(line); ok {
		if c.shell.Keys().Dispatch(key) && key == shell.KeyRight && c.shell.State().Pane != shell.PaneRight {
			fmt.Fprintln(c.out, "no right pane opened yet")
		}
		return nil
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	name := strings.ToLower(fields[0])
	if alias, ok := c.aliases[name]; ok {
		name = alias
	}
	cmd, ok := c.commands[name]
	if !ok {
		return fmt.Errorf("unknown command %q (try help)", fields[0])
	}
	return cmd.run(ctx, fields[1:])
}

func (c *Console) prompt() {
	st := c.shell.State()
	label := string(st.Pane)
	if st.Pane == shell.PaneRight {
		label = string(st.Code)
	}
	fmt.Fprintf(c.out, "[%s] > ", label)
}

// onSearchPane reports whether selection and paging apply to web results.
func (c *Console) onSearchPane() bool {
	st := c.shell.State()
	return st.Pane == shell.PaneRight && st.Code == shell.CodeSearch
}

func (c *Console) showPane(ctx context.Context) {
	st := c.shell.State()
	if st.Pane == shell.PaneMain {
		common.RenderWebsites(c.out, c.websites)
		return
	}

	var err error
	switch st.Code {
	case shell.CodeSearch:
		common.RenderSearch(c.out, c.web)
	case shell.CodeQueue:
		err = c.showQueue(ctx)
	case shell.CodeScrape:
		id, _ := st.Payload.(domain.ID)
		err = c.showPreview(ctx, id)
	}
	if err != nil {
		fmt.Fprintf(c.out, "error: %v\n", err)
	}
}

func (c *Console) showQueue(ctx context.Context) error {
	changes, err := c.queue.Refresh(ctx)
	if err != nil {
		return err
	}
	for _, ch := range changes {
		fmt.Fprintf(c.out, "%s %s is now %s\n", ch.After.ID(), ch.After.URL(), ch.After.Status.Kind())
	}
	rows := c.queue.Rows()
	common.RenderQueue(c.out, rows)
	return nil
}

func (c *Console) showPreview(ctx context.Context, id domain.ID) error {
	row, err := c.websites.Row(id)
	if err != nil {
		if c.previewRow.ID() != id {
			return err
		}
		row = c.previewRow
	}
	p, err := c.previews.Load(ctx, row)
	if err != nil {
		return err
	}
	common.RenderPreview(c.out, p)
	return nil
}

func (c *Console) help(context.Context, []string) error {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	w := bufio.NewWriter(c.out)
	for _, name := range names {
		cmd := c.commands[name]
		fmt.Fprintf(w, "  %-22s %s\n", cmd.usage, cmd.help)
	}
	fmt.Fprintf(w, "  %-22s %s\n", "left | right", "switch panes (arrow keys work too)")
	return w.Flush()
}
