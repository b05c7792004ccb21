package collection_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/action"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/client"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/collection"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/crawlertest"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/render"
)

const collectionID = "42"

func setup(t *testing.T, rows ...string) (*crawlertest.Server, *collection.View) {
	t.Helper()
	srv := crawlertest.New()
	t.Cleanup(srv.Close)
	srv.Seed(collectionID, rows...)

	c := client.New(client.WithBaseURL(srv.URL), client.WithToken("t"))
	v := collection.New(c, collectionID)
	require.NoError(t, v.Load(context.Background(), 1, ""))
	return srv, v
}

func ids(rows []domain.Website) []domain.ID {
	out := make([]domain.ID, len(rows))
	for i, r := range rows {
		out[i] = r.ID()
	}
	return out
}

func TestLoad_RequestsPageWindow(t *testing.T) {
	t.Parallel()

	srv, v := setup(t)
	require.NoError(t, v.Search(context.Background(), "cats"))
	require.NoError(t, v.Load(context.Background(), 2, "cats"))

	reqs := srv.Requests(client.PathManifest)
	last := reqs[len(reqs)-1].Query
	assert.Equal(t, "cats", last.Get("query"))
	assert.Equal(t, "20", last.Get("limit"))
	assert.Equal(t, "20", last.Get("offset"))
	assert.Equal(t, collectionID, last.Get("id"))
	assert.Equal(t, 2, v.Page())
	assert.Equal(t, "cats", v.Query())
}

func TestPaging_Bounds(t *testing.T) {
	t.Parallel()

	var rows []string
	for i := 1; i <= 45; i++ {
		rows = append(rows, fmt.Sprintf(`{"id":%d,"url":"https://example.com/%d"}`, i, i))
	}
	srv, v := setup(t, rows...)
	ctx := context.Background()

	assert.Equal(t, 3, v.Pages())
	require.NoError(t, v.PrevPage(ctx))
	assert.Equal(t, 1, v.Page())

	require.NoError(t, v.NextPage(ctx))
	require.NoError(t, v.NextPage(ctx))
	assert.Equal(t, 3, v.Page())
	assert.Len(t, v.Rows(), 5)

	before := len(srv.Requests(client.PathManifest))
	require.NoError(t, v.NextPage(ctx))
	assert.Len(t, srv.Requests(client.PathManifest), before)
	assert.Equal(t, 3, v.Page())
}

func TestAdd_Success(t *testing.T) {
	t.Parallel()

	srv, v := setup(t, `{"id":"old","url":"https://example.com/old"}`)

	v.OpenAdd()
	v.SetAddURL("https://example.com/a")
	w, err := v.Add(context.Background())
	require.NoError(t, err)

	reqs := srv.Requests(client.PathAdd)
	require.Len(t, reqs, 1)
	assert.JSONEq(t, `{"id":"42","url":"https://example.com/a"}`, string(reqs[0].Body))

	rows := v.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, w.ID(), rows[0].ID())
	assert.Equal(t, "https://example.com/a", rows[0].URL())
	assert.Equal(t, collection.AddModal{}, v.AddModal())
}

func TestAdd_FailureKeepsModal(t *testing.T) {
	t.Parallel()

	srv, v := setup(t)
	srv.Fail(client.PathAdd, http.StatusInternalServerError)

	v.OpenAdd()
	v.SetAddURL("https://example.com/a")
	_, err := v.Add(context.Background())
	require.Error(t, err)
	assert.True(t, client.IsNetworkFailure(err))

	modal := v.AddModal()
	assert.True(t, modal.Open)
	assert.Equal(t, action.Failed, modal.State)
	assert.Equal(t, "https://example.com/a", modal.URL)
	assert.Empty(t, v.Rows())
}

func TestAdd_EmptyURL(t *testing.T) {
	t.Parallel()

	srv, v := setup(t)
	v.OpenAdd()
	v.SetAddURL("   ")

	_, err := v.Add(context.Background())
	require.ErrorIs(t, err, collection.ErrEmptyURL)
	assert.Empty(t, srv.Requests(client.PathAdd))
}

func TestRemove_OnlyTargetRowWhileOtherInFlight(t *testing.T) {
	t.Parallel()

	srv, v := setup(t,
		`{"id":"a","url":"https://example.com/a"}`,
		`{"id":"b","url":"https://example.com/b"}`,
		`{"id":"c","url":"https://example.com/c"}`,
	)
	gate := srv.Hold(client.PathScrape)

	done := make(chan error, 1)
	go func() {
		_, err := v.Scrape(context.Background(), "a")
		done <- err
	}()
	<-gate.Arrived()

	control, err := v.Control("a")
	require.NoError(t, err)
	assert.Equal(t, render.ControlSpinner, control)

	require.NoError(t, v.Remove(context.Background(), "b"))
	assert.Equal(t, []domain.ID{"a", "c"}, ids(v.Rows()))

	gate.Release()
	require.NoError(t, <-done)

	assert.Equal(t, []domain.ID{"a", "c"}, ids(v.Rows()))
	control, err = v.Control("a")
	require.NoError(t, err)
	assert.Equal(t, render.ControlView, control)
}

func TestRemove_DuplicateRejected(t *testing.T) {
	t.Parallel()

	srv, v := setup(t, `{"id":"a","url":"https://example.com/a"}`)
	gate := srv.Hold(client.PathRemove)

	done := make(chan error, 1)
	go func() { done <- v.Remove(context.Background(), "a") }()
	<-gate.Arrived()

	err := v.Remove(context.Background(), "a")
	require.ErrorIs(t, err, action.ErrInFlight)

	gate.Release()
	require.NoError(t, <-done)
	assert.Len(t, srv.Requests(client.PathRemove), 1)
	assert.Empty(t, v.Rows())

	_, err = v.Row("a")
	assert.ErrorIs(t, err, collection.ErrRowNotFound)
}

func TestBulkQueue_MarksAfterSuccess(t *testing.T) {
	t.Parallel()

	srv, v := setup(t,
		`{"id":"a","url":"https://example.com/a"}`,
		`{"id":"b","url":"https://example.com/b","queued":1}`,
		`{"id":"c","url":"https://example.com/c","scraped_at":"2024-01-01 00:00:00"}`,
		`{"id":"d","url":"https://example.com/d"}`,
	)
	v.SelectAll(true)
	require.NoError(t, v.Select("d", false))
	assert.Equal(t, []domain.ID{"a"}, ids(v.NeedQueue()))

	n, err := v.BulkQueue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	body := srv.Requests(client.PathBulkQueue)[0].JSON()
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "a", items[0].(map[string]any)["id"])

	row, err := v.Row("a")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQueued, row.Status.Kind())
	assert.False(t, v.IsSelected("a"))
	assert.True(t, v.IsSelected("b"))
	assert.Empty(t, v.NeedQueue())
	assert.Equal(t, action.Succeeded, v.BulkQueueState())
}

func TestBulkQueue_IncludesOtherPages(t *testing.T) {
	t.Parallel()

	srv := crawlertest.New()
	t.Cleanup(srv.Close)
	srv.Seed(collectionID,
		`{"id":"a","url":"https://example.com/a"}`,
		`{"id":"b","url":"https://example.com/b"}`,
		`{"id":"c","url":"https://example.com/c"}`,
	)
	v := collection.New(client.New(client.WithBaseURL(srv.URL)), collectionID, collection.WithPageSize(1))
	ctx := context.Background()

	require.NoError(t, v.Load(ctx, 1, ""))
	require.NoError(t, v.Select("a", true))
	require.NoError(t, v.NextPage(ctx))
	require.NoError(t, v.Select("b", true))

	assert.True(t, v.IsSelected("a"))
	assert.Equal(t, []domain.ID{"a", "b"}, ids(v.Selected()))
	assert.Equal(t, []domain.ID{"a", "b"}, ids(v.NeedQueue()))

	n, err := v.BulkQueue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	items := srv.Requests(client.PathBulkQueue)[0].JSON()["items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].(map[string]any)["id"])
	assert.Equal(t, "b", items[1].(map[string]any)["id"])

	assert.Empty(t, v.Selected())
	row, err := v.Row("b")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQueued, row.Status.Kind())

	require.NoError(t, v.PrevPage(ctx))
	row, err = v.Row("a")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQueued, row.Status.Kind())
}

func TestBulkQueue_FailureChangesNothing(t *testing.T) {
	t.Parallel()

	srv, v := setup(t,
		`{"id":"a","url":"https://example.com/a"}`,
		`{"id":"b","url":"https://example.com/b"}`,
	)
	srv.Fail(client.PathBulkQueue, http.StatusBadGateway)
	v.SelectAll(true)

	_, err := v.BulkQueue(context.Background())
	require.Error(t, err)

	assert.Len(t, v.NeedQueue(), 2)
	for _, r := range v.Rows() {
		assert.Equal(t, domain.StatusUnqueued, r.Status.Kind())
		assert.True(t, v.IsSelected(r.ID()))
	}
	assert.Equal(t, action.Failed, v.BulkQueueState())
}

func TestBulkQueue_NothingSelected(t *testing.T) {
	t.Parallel()

	_, v := setup(t, `{"id":"a","url":"https://example.com/a"}`)
	_, err := v.BulkQueue(context.Background())
	assert.ErrorIs(t, err, collection.ErrNothingToQueue)
}

func TestScrape_ServerReportedErrors(t *testing.T) {
	t.Parallel()

	srv := crawlertest.New(crawlertest.WithScrape(func(row crawlertest.Row) crawlertest.Row {
		out := crawlertest.Row{}
		for k, val := range row {
			out[k] = val
		}
		out["errors"] = `[{"stage":"fetch","status":500,"traceback":"Traceback (most recent call last)"}]`
		return out
	}))
	t.Cleanup(srv.Close)
	srv.Seed(collectionID, `{"id":"a","url":"https://example.com/a"}`)

	v := collection.New(client.New(client.WithBaseURL(srv.URL)), collectionID)
	require.NoError(t, v.Load(context.Background(), 1, ""))

	w, err := v.Scrape(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusErrored, w.Status.Kind())

	details, err := v.ErrorDetails("a")
	require.NoError(t, err)
	assert.Equal(t, domain.ScrapeError{
		Stage:     "fetch",
		Status:    "500",
		Traceback: "Traceback (most recent call last)",
	}, details)

	control, err := v.Control("a")
	require.NoError(t, err)
	assert.Equal(t, render.ControlError, control)
}

func TestScrape_NetworkFailureKeepsRow(t *testing.T) {
	t.Parallel()

	srv, v := setup(t, `{"id":"a","url":"https://example.com/a","queued":1}`)
	srv.Fail(client.PathScrape, http.StatusServiceUnavailable)

	_, err := v.Scrape(context.Background(), "a")
	require.Error(t, err)

	row, err := v.Row("a")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusQueued, row.Status.Kind())
	assert.Equal(t, action.Failed, v.LoadState(collection.ActionScrape, "a"))
}

func TestQueue_ClearsErrors(t *testing.T) {
	t.Parallel()

	_, v := setup(t, `{"id":"a","url":"https://example.com/a","errors":"[{\"stage\":\"fetch\",\"status\":404,\"traceback\":\"\"}]"}`)

	control, err := v.Control("a")
	require.NoError(t, err)
	assert.Equal(t, render.ControlError, control)

	require.NoError(t, v.Queue(context.Background(), "a"))

	control, err = v.Control("a")
	require.NoError(t, err)
	assert.Equal(t, render.ControlQueued, control)

	_, err = v.ErrorDetails("a")
	assert.ErrorIs(t, err, collection.ErrNoErrors)
}

func TestQueue_ScrapedRowStaysScraped(t *testing.T) {
	t.Parallel()

	_, v := setup(t, `{"id":"a","url":"https://example.com/a","scraped_at":"2024-01-01 00:00:00",`+
		`"website_data":"[{\"data_type\":\"data\",\"resource_id\":\"res-a\"}]"}`)

	require.NoError(t, v.Queue(context.Background(), "a"))

	row, err := v.Row("a")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusScraped, row.Status.Kind())

	control, err := v.Control("a")
	require.NoError(t, err)
	assert.Equal(t, render.ControlView, control)

	res, err := v.MainResource("a")
	require.NoError(t, err)
	assert.Equal(t, domain.ID("res-a"), res.ResourceID)
}

func TestMainResource(t *testing.T) {
	t.Parallel()

	_, v := setup(t,
		`{"id":"a","url":"u1","scraped_at":"2024-01-01 00:00:00","website_data":"[{\"data_type\":\"data\",\"resource_id\":\"res-a\"}]"}`,
		`{"id":"b","url":"u2"}`,
	)

	res, err := v.MainResource("a")
	require.NoError(t, err)
	assert.Equal(t, domain.ID("res-a"), res.ResourceID)

	_, err = v.MainResource("b")
	assert.ErrorIs(t, err, collection.ErrNotScraped)
}

func TestPrepend_Deduplicates(t *testing.T) {
	t.Parallel()

	_, v := setup(t,
		`{"id":"a","url":"https://example.com/a"}`,
		`{"id":"b","url":"https://example.com/b"}`,
	)

	v.Prepend(
		domain.WebsiteRecord{ID: "n", URL: "https://example.com/n"},
		domain.WebsiteRecord{ID: "b", URL: "https://example.com/b2"},
	)

	assert.Equal(t, []domain.ID{"n", "b", "a"}, ids(v.Rows()))
	assert.Equal(t, 3, v.Total())
}

func TestUnmount_SkipsReducers(t *testing.T) {
	t.Parallel()

	srv, v := setup(t, `{"id":"a","url":"https://example.com/a"}`)
	gate := srv.Hold(client.PathQueue)

	done := make(chan error, 1)
	go func() { done <- v.Queue(context.Background(), "a") }()
	<-gate.Arrived()

	v.Unmount()
	gate.Release()

	select {
	case err := <-done:
		require.ErrorIs(t, err, action.ErrUnmounted)
	case <-time.After(5 * time.Second):
		t.Fatal("queue did not finish")
	}

	row, err := v.Row("a")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusUnqueued, row.Status.Kind())
	assert.Len(t, srv.Requests(client.PathQueue), 1)
}
