package console

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jonesrussell/north-cloud/crawler-console/cmd/common"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/client"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/collection"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/preview"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/render"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/shell"
)

var (
	errUsage     = errors.New("wrong arguments")
	errNeedsPage = errors.New("page must be a positive number")
)

func (c *Console) registerCommands() {
	c.commands = map[string]command{
		"help":     {"help", "show this help", c.help},
		"list":     {"list [PAGE]", "show the collection list", c.list},
		"find":     {"find [TEXT]", "filter the collection list", c.find},
		"next":     {"next", "next page of the visible list", c.next},
		"prev":     {"prev", "previous page of the visible list", c.prev},
		"refresh":  {"refresh", "reload the visible pane", c.refresh},
		"add":      {"add URL", "add a URL to the collection", c.add},
		"remove":   {"remove ID", "remove a website", c.remove},
		"scrape":   {"scrape ID", "scrape a website now", c.scrape},
		"queue":    {"queue ID", "queue a website for scraping", c.queueOne},
		"select":   {"select REF...", "select rows (ids) or results (# or URL)", c.selectRefs(true)},
		"unselect": {"unselect REF...", "clear a selection", c.selectRefs(false)},
		"all":      {"all [on|off]", "select or clear the visible page", c.selectAll},
		"bulk":     {"bulk", "queue the selected websites in one call", c.bulk},
		"errors":   {"errors ID", "show the latest scrape failure", c.showErrors},
		"view":     {"view ID", "open the scrape preview of a website", c.view},
		"download": {"download ID [FILE]", "save the main data file", c.download},
		"web":      {"web QUERY", "search the web for URLs", c.webSearch},
		"import":   {"import", "add the selected search results", c.importSelected},
		"queued":   {"queued", "open the queue pane", c.queued},
		"stats":    {"stats", "show request counters", c.stats},
		"quit":     {"quit", "leave the console", c.exit},
	}
	c.aliases = map[string]string{
		"ls":   "list",
		"rm":   "remove",
		"n":    "next",
		"p":    "prev",
		"?":    "help",
		"exit": "quit",
		"q":    "quit",
	}
}

func oneArg(args []string) (string, error) {
	if len(args) != 1 {
		return "", errUsage
	}
	return args[0], nil
}

// withRow runs fn on the row with id. The user's page and filter survive
// a lookup of a row shown elsewhere.
func (c *Console) withRow(ctx context.Context, raw string, fn func(domain.Website) error) error {
	return common.VisitRow(ctx, c.websites, domain.ID(raw), fn)
}

func (c *Console) showMain() {
	if c.shell.State().Pane == shell.PaneMain {
		common.RenderWebsites(c.out, c.websites)
		return
	}
	c.shell.SlideToLeft()
}

func (c *Console) list(ctx context.Context, args []string) error {
	page := c.websites.Page()
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return errNeedsPage
		}
		page = n
	}
	if err := c.websites.Load(ctx, page, c.websites.Query()); err != nil {
		return err
	}
	c.showMain()
	return nil
}

func (c *Console) find(ctx context.Context, args []string) error {
	if err := c.websites.Search(ctx, strings.Join(args, " ")); err != nil {
		return err
	}
	c.showMain()
	return nil
}

func (c *Console) next(ctx context.Context, _ []string) error {
	if c.onSearchPane() {
		if err := c.web.NextPage(ctx); err != nil {
			return err
		}
		common.RenderSearch(c.out, c.web)
		return nil
	}
	if err := c.websites.NextPage(ctx); err != nil {
		return err
	}
	c.showMain()
	return nil
}

func (c *Console) prev(ctx context.Context, _ []string) error {
	if c.onSearchPane() {
		if err := c.web.PrevPage(ctx); err != nil {
			return err
		}
		common.RenderSearch(c.out, c.web)
		return nil
	}
	if err := c.websites.PrevPage(ctx); err != nil {
		return err
	}
	c.showMain()
	return nil
}

func (c *Console) refresh(ctx context.Context, _ []string) error {
	if c.shell.State().Pane == shell.PaneRight {
		c.showPane(ctx)
		return nil
	}
	if err := c.websites.Refresh(ctx); err != nil {
		return err
	}
	common.RenderWebsites(c.out, c.websites)
	return nil
}

func (c *Console) add(ctx context.Context, args []string) error {
	u, err := oneArg(args)
	if err != nil {
		return err
	}
	c.websites.OpenAdd()
	c.websites.SetAddURL(u)
	if _, addErr := c.websites.Add(ctx); addErr != nil {
		modal := c.websites.AddModal()
		fmt.Fprintf(c.out, "add %s: %s, url kept\n", modal.URL, modal.State)
		return addErr
	}
	c.showMain()
	return nil
}

func (c *Console) remove(ctx context.Context, args []string) error {
	raw, err := oneArg(args)
	if err != nil {
		return err
	}
	err = c.withRow(ctx, raw, func(row domain.Website) error {
		return c.websites.Remove(ctx, row.ID())
	})
	if err != nil {
		return err
	}
	c.showMain()
	return nil
}

func (c *Console) scrape(ctx context.Context, args []string) error {
	raw, err := oneArg(args)
	if err != nil {
		return err
	}
	var scraped domain.Website
	err = c.withRow(ctx, raw, func(row domain.Website) error {
		var scrapeErr error
		scraped, scrapeErr = c.websites.Scrape(ctx, row.ID())
		return scrapeErr
	})
	if err != nil {
		return err
	}
	if scraped.Status.Kind() == domain.StatusErrored {
		return common.RenderErrors(c.out, scraped)
	}
	c.showMain()
	return nil
}

func (c *Console) queueOne(ctx context.Context, args []string) error {
	raw, err := oneArg(args)
	if err != nil {
		return err
	}
	err = c.withRow(ctx, raw, func(row domain.Website) error {
		return c.websites.Queue(ctx, row.ID())
	})
	if err != nil {
		return err
	}
	c.showMain()
	return nil
}

func (c *Console) selectRefs(on bool) handler {
	return func(_ context.Context, args []string) error {
		if len(args) == 0 {
			return errUsage
		}
		for _, ref := range args {
			if err := c.selectRef(ref, on); err != nil {
				return err
			}
		}
		c.showSelection()
		return nil
	}
}

func (c *Console) selectRef(ref string, on bool) error {
	if c.onSearchPane() {
		u, err := common.ResolveResult(c.web, ref)
		if err != nil {
			return err
		}
		return c.web.Select(u, on)
	}
	return c.websites.Select(domain.ID(ref), on)
}

func (c *Console) selectAll(_ context.Context, args []string) error {
	on := len(args) == 0 || args[0] != "off"
	if c.onSearchPane() {
		c.web.SelectAll(on)
	} else {
		c.websites.SelectAll(on)
	}
	c.showSelection()
	return nil
}

func (c *Console) showSelection() {
	if c.onSearchPane() {
		common.RenderSearch(c.out, c.web)
		return
	}
	common.RenderWebsites(c.out, c.websites)
	fmt.Fprintf(c.out, "%d selected, %d need queueing\n",
		len(c.websites.Selected()), len(c.websites.NeedQueue()))
}

func (c *Console) bulk(ctx context.Context, _ []string) error {
	n, err := c.websites.BulkQueue(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Queued %d websites\n", n)
	c.showMain()
	return nil
}

func (c *Console) showErrors(ctx context.Context, args []string) error {
	raw, err := oneArg(args)
	if err != nil {
		return err
	}
	return c.withRow(ctx, raw, func(row domain.Website) error {
		return common.RenderErrors(c.out, row)
	})
}

func (c *Console) view(ctx context.Context, args []string) error {
	raw, err := oneArg(args)
	if err != nil {
		return err
	}
	var row domain.Website
	err = c.withRow(ctx, raw, func(w domain.Website) error {
		row = w
		return nil
	})
	if err != nil {
		return err
	}
	if row.Status.Kind() != domain.StatusScraped {
		return fmt.Errorf("%s: %w", row.ID(), collection.ErrNotScraped)
	}
	c.previewRow = row
	st := c.shell.State()
	if st.Pane == shell.PaneRight && st.Code == shell.CodeScrape && st.Payload == row.ID() {
		c.showPane(ctx)
		return nil
	}
	c.shell.SlideToRight(shell.CodeScrape, row.ID())
	return nil
}

func (c *Console) download(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	var (
		row  domain.Website
		file client.File
		buf  bytes.Buffer
	)
	err := c.withRow(ctx, args[0], func(w domain.Website) error {
		row = w
		var dlErr error
		file, dlErr = c.previews.Download(ctx, w, &buf)
		return dlErr
	})
	if err != nil {
		return err
	}
	name := preview.FileName(row, file)
	if len(args) == 2 {
		name = args[1]
	}
	if writeErr := os.WriteFile(name, buf.Bytes(), 0o600); writeErr != nil {
		return fmt.Errorf("write %s: %w", name, writeErr)
	}
	fmt.Fprintf(c.out, "Wrote %d bytes to %s\n", file.Size, name)
	return nil
}

func (c *Console) webSearch(ctx context.Context, args []string) error {
	if len(args) == 0 {
		c.shell.SlideToRight(shell.CodeSearch, c.web.Query())
		return nil
	}
	query := strings.Join(args, " ")
	if err := c.web.Search(ctx, query); err != nil {
		return err
	}
	if c.onSearchPane() {
		common.RenderSearch(c.out, c.web)
		return nil
	}
	c.shell.SlideToRight(shell.CodeSearch, query)
	return nil
}

func (c *Console) importSelected(ctx context.Context, _ []string) error {
	added, err := c.web.Import(ctx)
	for _, rec := range added {
		fmt.Fprintf(c.out, "Imported %s as %s\n", rec.URL, rec.ID)
	}
	return err
}

func (c *Console) queued(ctx context.Context, _ []string) error {
	st := c.shell.State()
	if st.Pane == shell.PaneRight && st.Code == shell.CodeQueue {
		return c.showQueue(ctx)
	}
	c.shell.SlideToRight(shell.CodeQueue, nil)
	return nil
}

func (c *Console) stats(context.Context, []string) error {
	samples, err := c.deps.Metrics.Snapshot()
	if err != nil {
		return err
	}
	render.Metrics(c.out, samples)
	return nil
}

func (c *Console) exit(context.Context, []string) error {
	c.quit = true
	return nil
}
