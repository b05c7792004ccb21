package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
)

func decodeRecord(t *testing.T, raw string) domain.WebsiteRecord {
	t.Helper()
	var rec domain.WebsiteRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	return rec
}

func TestDecode_Precedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want domain.StatusKind
	}{
		{"fresh row", `{"id":"1","url":"u"}`, domain.StatusUnqueued},
		{"queued", `{"id":"1","url":"u","queued":true}`, domain.StatusQueued},
		{
			"errors beat queued",
			`{"id":"1","url":"u","queued":true,"errors":"[{\"stage\":\"fetch\",\"status\":500,\"traceback\":\"x\"}]"}`,
			domain.StatusErrored,
		},
		{
			"scraped beats errors",
			`{"id":"1","url":"u","scraped_at":"2024-01-01 00:00:00","errors":"[{\"stage\":\"fetch\"}]"}`,
			domain.StatusScraped,
		},
		{"empty error list", `{"id":"1","url":"u","errors":"[]"}`, domain.StatusUnqueued},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			w, err := domain.Decode(decodeRecord(t, tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, w.Status.Kind())
		})
	}
}

func TestDecode_ErroredKeepsLatest(t *testing.T) {
	t.Parallel()

	rec := decodeRecord(t, `{"id":"1","url":"u","errors":"[{\"stage\":\"fetch\",\"status\":500,\"traceback\":\"first\"},{\"stage\":\"parse\",\"status\":\"bad\",\"traceback\":\"second\"}]"}`)

	w, err := domain.Decode(rec)
	require.NoError(t, err)

	errored, ok := w.Status.(domain.Errored)
	require.True(t, ok)
	assert.Len(t, errored.History, 2)
	assert.Equal(t, "parse", errored.Latest.Stage)
	assert.Equal(t, domain.Text("bad"), errored.Latest.Status)
	assert.Equal(t, "second", errored.Latest.Traceback)
}

func TestDecode_MalformedColumnsAreEmpty(t *testing.T) {
	t.Parallel()

	w, err := domain.Decode(decodeRecord(t, `{"id":"1","url":"u","queued":1,"errors":"not json"}`))
	require.Error(t, err)
	assert.Equal(t, domain.StatusQueued, w.Status.Kind())

	w, err = domain.Decode(decodeRecord(t, `{"id":"2","url":"u","scraped_at":"2024-01-01 00:00:00","website_data":"{"}`))
	require.Error(t, err)
	scraped, ok := w.Status.(domain.Scraped)
	require.True(t, ok)
	assert.Empty(t, scraped.Resources)
}

func TestScraped_MainResource(t *testing.T) {
	t.Parallel()

	rec := decodeRecord(t, `{"id":"1","url":"u","scraped_at":"2024-01-01 00:00:00","website_data":"[{\"data_type\":\"screenshot\",\"resource_id\":\"s\"},{\"data_type\":\"data\",\"resource_id\":\"d\"}]"}`)
	w, err := domain.Decode(rec)
	require.NoError(t, err)

	scraped := w.Status.(domain.Scraped)
	main, ok := scraped.MainResource()
	require.True(t, ok)
	assert.Equal(t, domain.ID("d"), main.ResourceID)

	_, ok = domain.Scraped{}.MainResource()
	assert.False(t, ok)
}

func TestMarkQueued_ClearsErrors(t *testing.T) {
	t.Parallel()

	rec := decodeRecord(t, `{"id":"1","url":"u","errors":"[{\"stage\":\"fetch\"}]"}`)
	w := domain.MarkQueued(rec)

	assert.Equal(t, domain.StatusQueued, w.Status.Kind())
	assert.True(t, bool(w.Record.Queued))
	assert.True(t, w.Record.Errors.IsEmpty())
	assert.False(t, w.NeedsQueue())
}

func TestMarkQueued_KeepsScraped(t *testing.T) {
	t.Parallel()

	rec := decodeRecord(t, `{"id":"1","url":"u","scraped_at":"2024-01-01 00:00:00",`+
		`"website_data":"[{\"data_type\":\"data\",\"resource_id\":\"r\"}]"}`)
	w := domain.MarkQueued(rec)

	scraped, ok := w.Status.(domain.Scraped)
	require.True(t, ok, "status %s", w.Status.Kind())
	main, found := scraped.MainResource()
	require.True(t, found)
	assert.Equal(t, domain.ID("r"), main.ResourceID)
	assert.True(t, bool(w.Record.Queued))
	assert.False(t, w.NeedsQueue())
}

func TestNeedsQueue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"fresh row", `{"id":"1","url":"u"}`, true},
		{"errored row", `{"id":"1","url":"u","errors":"[{\"stage\":\"fetch\"}]"}`, true},
		{"queued row", `{"id":"1","url":"u","queued":1}`, false},
		{"scraped row", `{"id":"1","url":"u","scraped_at":"2024-01-01 00:00:00"}`, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			w, err := domain.Decode(decodeRecord(t, tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, w.NeedsQueue())
		})
	}
}

func TestMimetypes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "application/pdf", domain.MimetypeForExt("pdf"))
	assert.Equal(t, "text/markdown", domain.MimetypeForExt(".MD"))
	assert.Equal(t, domain.DefaultMimetype, domain.MimetypeForExt("exe"))

	assert.Equal(t, "html", domain.ExtForMimetype("text/html; charset=utf-8"))
	assert.Equal(t, "docx", domain.ExtForMimetype("application/vnd.openxmlformats-officedocument.wordprocessingml.document"))
	assert.Equal(t, "png", domain.ExtForMimetype("image/png"))
	assert.Equal(t, "epub", domain.ExtForMimetype("application/epub+zip"))
	assert.Equal(t, "json", domain.ExtForMimetype("application/ld+json"))
	assert.Empty(t, domain.ExtForMimetype(""))
}
