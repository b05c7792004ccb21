package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
)

func TestWebsiteRecord_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		input      string
		wantID     domain.ID
		wantQueued bool
		wantTitle  string
		scraped    bool
	}{
		{
			name:   "string id and null columns",
			input:  `{"id":"7","url":"https://example.com","title":null,"queued":null,"scraped_at":null}`,
			wantID: "7",
		},
		{
			name:       "numeric id and integer flag",
			input:      `{"id":12,"url":"https://example.com","queued":1,"title":"Home"}`,
			wantID:     "12",
			wantQueued: true,
			wantTitle:  "Home",
		},
		{
			name:       "string flag",
			input:      `{"id":"a","url":"u","queued":"1"}`,
			wantID:     "a",
			wantQueued: true,
		},
		{
			name:    "backend timestamp",
			input:   `{"id":"b","url":"u","scraped_at":"2024-03-01 10:20:30"}`,
			wantID:  "b",
			scraped: true,
		},
		{
			name:   "empty timestamp is unset",
			input:  `{"id":"c","url":"u","scraped_at":""}`,
			wantID: "c",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var rec domain.WebsiteRecord
			require.NoError(t, json.Unmarshal([]byte(tt.input), &rec))

			assert.Equal(t, tt.wantID, rec.ID)
			assert.Equal(t, tt.wantQueued, bool(rec.Queued))
			assert.Equal(t, tt.wantTitle, rec.Title)
			assert.Equal(t, tt.scraped, rec.ScrapedAt.IsSet())
		})
	}
}

func TestWebsiteRecord_RoundTripKeepsUnknownFields(t *testing.T) {
	t.Parallel()

	input := `{"id":12,"url":"https://example.com","author":"ann","website_data":"[{\"data_type\":\"data\",\"resource_id\":\"r1\"}]","scraped_at":"2024-03-01 10:20:30"}`

	var rec domain.WebsiteRecord
	require.NoError(t, json.Unmarshal([]byte(input), &rec))

	out, err := json.Marshal(rec)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(out, &fields))

	assert.InDelta(t, 12, fields["id"], 0)
	assert.Equal(t, "ann", fields["author"])
	assert.Equal(t, `[{"data_type":"data","resource_id":"r1"}]`, fields["website_data"])
	assert.Equal(t, "2024-03-01 10:20:30", fields["scraped_at"])
	assert.Nil(t, fields["errors"])
	assert.Nil(t, fields["title"])
}

func TestWebsiteRecord_RawIDFollowsChangedID(t *testing.T) {
	t.Parallel()

	var rec domain.WebsiteRecord
	require.NoError(t, json.Unmarshal([]byte(`{"id":5,"url":"u"}`), &rec))
	assert.JSONEq(t, `5`, string(rec.RawID()))

	rec.ID = "x"
	assert.JSONEq(t, `"x"`, string(rec.RawID()))
}

func TestEncodedList_AcceptsArrayForm(t *testing.T) {
	t.Parallel()

	var rec domain.WebsiteRecord
	require.NoError(t, json.Unmarshal(
		[]byte(`{"id":"1","url":"u","errors":[{"stage":"fetch","status":500,"traceback":"tb"}]}`), &rec))

	var errs []domain.ScrapeError
	require.NoError(t, rec.Errors.Decode(&errs))
	require.Len(t, errs, 1)
	assert.Equal(t, domain.Text("500"), errs[0].Status)

	out, err := json.Marshal(rec.Errors)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"stage":"fetch","status":500,"traceback":"tb"}]`, string(out))
}
