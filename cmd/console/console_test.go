package console_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/crawler-console/cmd/common"
	"github.com/jonesrussell/north-cloud/crawler-console/cmd/console"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/client"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/config"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/crawlertest"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/logger"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/metrics"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/shell"
)

const collectionID = "42"

func newConsole(t *testing.T, srv *crawlertest.Server) (*console.Console, *bytes.Buffer) {
	t.Helper()
	cfg := &config.Config{
		Backend:    config.BackendConfig{URL: srv.URL},
		Auth:       config.AuthConfig{Token: "t"},
		Collection: config.CollectionConfig{ID: collectionID},
	}
	cfg.SetDefaults()

	var out bytes.Buffer
	c, err := console.New(common.CommandDeps{
		Logger:  logger.NewNop(),
		Config:  cfg,
		Client:  common.NewClient(cfg, logger.NewNop()),
		Metrics: metrics.New(),
		Out:     &out,
	})
	require.NoError(t, err)
	return c, &out
}

func script(lines ...string) *strings.Reader {
	return strings.NewReader(strings.Join(lines, "\n") + "\n")
}

func newServer(t *testing.T) *crawlertest.Server {
	t.Helper()
	srv := crawlertest.New(crawlertest.WithToken("t"))
	t.Cleanup(srv.Close)
	srv.Seed(collectionID,
		`{"id":1,"url":"https://a.example","title":"A"}`,
		`{"id":2,"url":"https://b.example","title":"B"}`,
	)
	srv.SeedWeb(
		crawlertest.SearchResult{Name: "Cats", URL: "https://cats.example", Snippet: "cats"},
		crawlertest.SearchResult{Name: "More cats", URL: "https://more-cats.example", Snippet: "cats"},
	)
	return srv
}

func TestConsole_PaneNavigation(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	c, out := newConsole(t, srv)

	require.NoError(t, c.Run(context.Background(), script("web cats", "left", "\x1b[C", "←")))

	text := out.String()
	assert.Equal(t, 2, strings.Count(text, "https://more-cats.example"))
	assert.Contains(t, text, "[search] > ")
	assert.Equal(t, shell.PaneMain, c.Shell().State().Pane)
	assert.Equal(t, shell.CodeSearch, c.Shell().State().Code)
	assert.Zero(t, c.Shell().Keys().Bound(shell.KeyRight), "bindings removed when the console exits")
}

func TestConsole_RightBeforeAnyPane(t *testing.T) {
	t.Parallel()

	c, out := newConsole(t, newServer(t))
	require.NoError(t, c.Run(context.Background(), script("right")))
	assert.Contains(t, out.String(), "no right pane opened yet")
	assert.Equal(t, shell.PaneMain, c.Shell().State().Pane)
}

func TestConsole_ImportPrependsToCollection(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	c, out := newConsole(t, srv)

	require.NoError(t, c.Run(context.Background(), script("web cats", "select 2", "import", "left")))

	assert.Contains(t, out.String(), "Imported https://more-cats.example")
	reqs := srv.Requests(client.PathAdd)
	require.Len(t, reqs, 1)
	assert.Equal(t, "https://more-cats.example", reqs[0].JSON()["url"])

	rows := srv.Rows(collectionID)
	require.Len(t, rows, 3)
	assert.Equal(t, "https://more-cats.example", rows[0]["url"])
}

func TestConsole_BulkQueue(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	c, out := newConsole(t, srv)

	require.NoError(t, c.Run(context.Background(), script("all", "bulk", "bulk")))

	text := out.String()
	assert.Contains(t, text, "2 selected, 2 need queueing")
	assert.Contains(t, text, "Queued 2 websites")
	assert.Contains(t, text, "error: no selected rows need queueing")
	assert.Len(t, srv.Requests(client.PathBulkQueue), 1)
}

func TestConsole_ScrapeAndView(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	srv.AddFile(collectionID, "res-1", crawlertest.File{
		ContentType: "text/html",
		Body:        []byte(`<html><head><meta property="og:description" content="About A"></head><body>A body</body></html>`),
	})
	c, out := newConsole(t, srv)

	require.NoError(t, c.Run(context.Background(), script("view 1", "scrape 1", "view 1")))

	text := out.String()
	assert.Contains(t, text, "error: 1: row has not been scraped")
	assert.Contains(t, text, "res-1")
	assert.Contains(t, text, "About A")
	assert.Equal(t, shell.CodeScrape, c.Shell().State().Code)
}

func TestConsole_AddFailureKeepsURL(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	srv.Fail(client.PathAdd, 500)
	c, out := newConsole(t, srv)

	require.NoError(t, c.Run(context.Background(), script("add https://example.com/a")))
	assert.Contains(t, out.String(), "add https://example.com/a: failed, url kept")
}

func TestConsole_QueuedPaneAndStats(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	c, out := newConsole(t, srv)

	require.NoError(t, c.Run(context.Background(), script("queue 1", "queued", "stats", "quit", "list")))

	text := out.String()
	assert.Contains(t, text, "[queue] > ")
	assert.Contains(t, text, "crawler_console_actions_total")
	assert.Len(t, srv.Requests(client.PathManifest), 2, "input after quit is ignored")
}

func TestConsole_UnknownCommand(t *testing.T) {
	t.Parallel()

	c, out := newConsole(t, newServer(t))
	require.NoError(t, c.Run(context.Background(), script("frobnicate")))
	assert.Contains(t, out.String(), `unknown command "frobnicate"`)
}

func TestConsole_ActionOffScreenKeepsFilter(t *testing.T) {
	t.Parallel()

	srv := newServer(t)
	c, out := newConsole(t, srv)

	require.NoError(t, c.Run(context.Background(), script("find a.example", "queue 2")))

	reqs := srv.Requests(client.PathManifest)
	last := reqs[len(reqs)-1].Query
	assert.Equal(t, "a.example", last.Get("query"))
	assert.Equal(t, "0", last.Get("offset"))
	require.Len(t, srv.Requests(client.PathQueue), 1)

	text := out.String()
	assert.NotContains(t, text, "error:")
	screens := strings.Split(text, "[main] > ")
	require.Len(t, screens, 4)
	afterQueue := screens[2]
	assert.Contains(t, afterQueue, "a.example")
	assert.NotContains(t, afterQueue, "b.example")
}
