// Package domain holds the crawler console's data model: website records as
// the backend sends them, their decoded row status, and web search results.
package domain

import (
	"encoding/json"
	"fmt"
)

// Record field names as the backend sends them.
const (
	fieldID          = "id"
	fieldURL         = "url"
	fieldTitle       = "title"
	fieldContentType = "content_type"
	fieldCreatedAt   = "created_at"
	fieldScrapedAt   = "scraped_at"
	fieldQueued      = "queued"
	fieldWebsiteData = "website_data"
	fieldErrors      = "errors"
)

// WebsiteRecord is one row in a collection's crawl list.
type WebsiteRecord struct {
	ID          ID
	URL         string
	Title       string
	ContentType string
	CreatedAt   Timestamp
	ScrapedAt   Timestamp
	Queued      Flag
	WebsiteData EncodedList
	Errors      EncodedList

	// extra holds every field the console does not model, including the id
	// in its original JSON form, so the record round-trips to the backend.
	extra map[string]json.RawMessage
}

type recordFields struct {
	ID          ID          `json:"id"`
	URL         string      `json:"url"`
	Title       *string     `json:"title"`
	ContentType *string     `json:"content_type"`
	CreatedAt   Timestamp   `json:"created_at"`
	ScrapedAt   Timestamp   `json:"scraped_at"`
	Queued      Flag        `json:"queued"`
	WebsiteData EncodedList `json:"website_data"`
	Errors      EncodedList `json:"errors"`
}

// UnmarshalJSON decodes the modelled fields and keeps the rest verbatim.
func (r *WebsiteRecord) UnmarshalJSON(data []byte) error {
	var f recordFields
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("decode website record: %w", err)
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return fmt.Errorf("decode website record: %w", err)
	}
	for _, key := range []string{
		fieldURL, fieldTitle, fieldContentType, fieldCreatedAt,
		fieldScrapedAt, fieldQueued, fieldWebsiteData, fieldErrors,
	} {
		delete(all, key)
	}

	*r = WebsiteRecord{
		ID:          f.ID,
		URL:         f.URL,
		CreatedAt:   f.CreatedAt,
		ScrapedAt:   f.ScrapedAt,
		Queued:      f.Queued,
		WebsiteData: f.WebsiteData,
		Errors:      f.Errors,
		extra:       all,
	}
	if f.Title != nil {
		r.Title = *f.Title
	}
	if f.ContentType != nil {
		r.ContentType = *f.ContentType
	}
	return nil
}

// MarshalJSON re-encodes the record with unmodelled fields preserved.
func (r WebsiteRecord) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.extra)+9)
	for k, v := range r.extra {
		out[k] = v
	}
	out[fieldID] = r.RawID()
	out[fieldURL] = r.URL
	out[fieldTitle] = nullableString(r.Title)
	out[fieldContentType] = nullableString(r.ContentType)
	out[fieldCreatedAt] = r.CreatedAt
	out[fieldScrapedAt] = r.ScrapedAt
	out[fieldQueued] = bool(r.Queued)
	out[fieldWebsiteData] = r.WebsiteData
	out[fieldErrors] = r.Errors
	return json.Marshal(out)
}

// RawID returns the id in the JSON form the backend used for it.
func (r WebsiteRecord) RawID() json.RawMessage {
	if raw, ok := r.extra[fieldID]; ok {
		var decoded ID
		if err := json.Unmarshal(raw, &decoded); err == nil && decoded == r.ID {
			return raw
		}
	}
	encoded, _ := json.Marshal(string(r.ID))
	return encoded
}

// Extra returns an unmodelled field as raw JSON.
func (r WebsiteRecord) Extra(key string) (json.RawMessage, bool) {
	raw, ok := r.extra[key]
	return raw, ok
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// SearchResult is one row returned by the web search endpoint.
type SearchResult struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}
