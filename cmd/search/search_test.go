package search_test

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/crawler-console/cmd/common"
	cmdsearch "github.com/jonesrussell/north-cloud/crawler-console/cmd/search"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/client"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/config"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/crawlertest"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/logger"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/search"
)

const collectionID = "42"

func newServer(t *testing.T, n int) *crawlertest.Server {
	t.Helper()
	srv := crawlertest.New()
	t.Cleanup(srv.Close)
	for i := 0; i < n; i++ {
		srv.SeedWeb(crawlertest.SearchResult{
			Name:    "Cats " + string(rune('A'+i)),
			URL:     "https://cats.example/" + string(rune('a'+i)),
			Snippet: "all about cats",
		})
	}
	return srv
}

func run(t *testing.T, srv *crawlertest.Server, args ...string) (string, error) {
	t.Helper()
	cfg := &config.Config{
		Backend:    config.BackendConfig{URL: srv.URL},
		Auth:       config.AuthConfig{Token: "t"},
		Collection: config.CollectionConfig{ID: collectionID, PageSize: 2},
	}
	cfg.SetDefaults()

	var out bytes.Buffer
	deps := common.CommandDeps{
		Logger: logger.NewNop(),
		Config: cfg,
		Client: common.NewClient(cfg, logger.NewNop()),
		Out:    &out,
	}
	cmd := cmdsearch.Command(common.Static(deps))
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSearch_PageWindow(t *testing.T) {
	t.Parallel()

	srv := newServer(t, 5)
	out, err := run(t, srv, "cats", "--page", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "cats.example/c")
	assert.Contains(t, out, "Page 2/3")

	reqs := srv.Requests(client.PathWeb)
	require.Len(t, reqs, 1)
	assert.Equal(t, "2", reqs[0].Query.Get("offset"))
	assert.Equal(t, "2", reqs[0].Query.Get("limit"))
	assert.Equal(t, "cats", reqs[0].Query.Get("query"))
}

func TestSearch_ImportByNumber(t *testing.T) {
	t.Parallel()

	srv := newServer(t, 5)
	out, err := run(t, srv, "cats", "--page", "2", "--import", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Imported https://cats.example/d")

	reqs := srv.Requests(client.PathAdd)
	require.Len(t, reqs, 1)
	assert.Equal(t, map[string]any{"id": collectionID, "url": "https://cats.example/d"}, reqs[0].JSON())
	assert.Len(t, srv.Rows(collectionID), 1)
}

func TestSearch_ImportAll(t *testing.T) {
	t.Parallel()

	srv := newServer(t, 3)
	_, err := run(t, srv, "cats", "--import-all")
	require.NoError(t, err)
	assert.Len(t, srv.Requests(client.PathAdd), 2)
}

func TestSearch_ImportUnknownNumber(t *testing.T) {
	t.Parallel()

	srv := newServer(t, 3)
	_, err := run(t, srv, "cats", "--import", "9")
	require.ErrorIs(t, err, search.ErrResultNotFound)
	assert.Empty(t, srv.Requests(client.PathAdd))
}

func TestSearch_ImportFailure(t *testing.T) {
	t.Parallel()

	srv := newServer(t, 2)
	srv.Fail(client.PathAdd, http.StatusInternalServerError)
	_, err := run(t, srv, "cats", "--import-all")
	require.Error(t, err)
	assert.True(t, client.IsNetworkFailure(err))
}
