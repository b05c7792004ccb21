package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
)

// Backend paths.
const (
	PathManifest  = "/crawler/manifest"
	PathAdd       = "/crawler/add"
	PathRemove    = "/crawler/remove"
	PathScrape    = "/crawler/scrape"
	PathQueue     = "/crawler/queue"
	PathBulkQueue = "/crawler/bulk-queue"
	PathWeb       = "/crawler/web"
	PathFiles     = "/assets/files"
)

// DefaultLimit is the page size of every paginated listing.
const DefaultLimit = 20

// Page is one page of a paginated listing.
type Page[T any] struct {
	Results []T `json:"results"`
	Total   int `json:"total"`
}

// ListParams selects a page of a collection listing or web search.
type ListParams struct {
	CollectionID string
	Query        string
	Page         int
	Limit        int
}

// Offset converts a 1-based page into a row offset.
func Offset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return limit * (page - 1)
}

func (p ListParams) values() url.Values {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	v := url.Values{}
	v.Set("query", p.Query)
	v.Set("limit", strconv.Itoa(limit))
	v.Set("offset", strconv.Itoa(Offset(p.Page, limit)))
	v.Set("id", p.CollectionID)
	return v
}

type addRequest struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type removeRequest struct {
	ID    string          `json:"id"`
	RowID json.RawMessage `json:"row_id"`
}

type itemRequest struct {
	ID   string               `json:"id"`
	Item domain.WebsiteRecord `json:"item"`
}

type itemsRequest struct {
	ID    string                 `json:"id"`
	Items []domain.WebsiteRecord `json:"items"`
}

type resultResponse struct {
	Result domain.WebsiteRecord `json:"result"`
}

// ListWebsites returns one page of a collection's website list.
func (c *Client) ListWebsites(ctx context.Context, p ListParams) (Page[domain.WebsiteRecord], error) {
	var page Page[domain.WebsiteRecord]
	if err := c.doJSON(ctx, http.MethodGet, PathManifest, p.values(), nil, &page); err != nil {
		return Page[domain.WebsiteRecord]{}, fmt.Errorf("list websites: %w", err)
	}
	return page, nil
}

// SearchWeb returns one page of public web results for p.Query.
func (c *Client) SearchWeb(ctx context.Context, p ListParams) (Page[domain.SearchResult], error) {
	var page Page[domain.SearchResult]
	if err := c.doJSON(ctx, http.MethodGet, PathWeb, p.values(), nil, &page); err != nil {
		return Page[domain.SearchResult]{}, fmt.Errorf("search web: %w", err)
	}
	return page, nil
}

// AddWebsite adds rawURL to a collection and returns the created row.
func (c *Client) AddWebsite(ctx context.Context, collectionID, rawURL string) (domain.WebsiteRecord, error) {
	var resp resultResponse
	body := addRequest{ID: collectionID, URL: rawURL}
	if err := c.doJSON(ctx, http.MethodPost, PathAdd, nil, body, &resp); err != nil {
		return domain.WebsiteRecord{}, fmt.Errorf("add website: %w", err)
	}
	return resp.Result, nil
}

// RemoveWebsite deletes a row from a collection.
func (c *Client) RemoveWebsite(ctx context.Context, collectionID string, rec domain.WebsiteRecord) error {
	body := removeRequest{ID: collectionID, RowID: rec.RawID()}
	if err := c.doJSON(ctx, http.MethodPost, PathRemove, nil, body, nil); err != nil {
		return fmt.Errorf("remove website: %w", err)
	}
	return nil
}

// Scrape scrapes one row synchronously and returns the updated record,
// which may itself carry backend-reported errors.
func (c *Client) Scrape(ctx context.Context, collectionID string, rec domain.WebsiteRecord) (domain.WebsiteRecord, error) {
	var resp resultResponse
	body := itemRequest{ID: collectionID, Item: rec}
	if err := c.doJSON(ctx, http.MethodPost, PathScrape, nil, body, &resp); err != nil {
		return domain.WebsiteRecord{}, fmt.Errorf("scrape website: %w", err)
	}
	return resp.Result, nil
}

// Queue enqueues a scrape job for one row.
func (c *Client) Queue(ctx context.Context, collectionID string, rec domain.WebsiteRecord) error {
	body := itemRequest{ID: collectionID, Item: rec}
	if err := c.doJSON(ctx, http.MethodPost, PathQueue, nil, body, nil); err != nil {
		return fmt.Errorf("queue website: %w", err)
	}
	return nil
}

// BulkQueue enqueues scrape jobs for every record in one call.
func (c *Client) BulkQueue(ctx context.Context, collectionID string, recs []domain.WebsiteRecord) error {
	body := itemsRequest{ID: collectionID, Items: recs}
	if err := c.doJSON(ctx, http.MethodPost, PathBulkQueue, nil, body, nil); err != nil {
		return fmt.Errorf("bulk queue websites: %w", err)
	}
	return nil
}

// File describes a downloaded asset.
type File struct {
	ContentType string
	Size        int64
}

// DownloadFile streams the resource name of a collection into w.
func (c *Client) DownloadFile(ctx context.Context, collectionID string, name domain.ID, w io.Writer) (File, error) {
	query := url.Values{}
	query.Set("id", collectionID)
	query.Set("name", name.String())

	req, err := c.newRequest(ctx, http.MethodGet, PathFiles, query, nil)
	if err != nil {
		return File{}, fmt.Errorf("download file: %w", err)
	}
	resp, err := c.send(req)
	if err != nil {
		return File{}, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return File{}, fmt.Errorf("download file: %w", &TransportError{Method: req.Method, URL: req.URL.Redacted(), Err: err})
	}
	return File{ContentType: resp.Header.Get("Content-Type"), Size: n}, nil
}
