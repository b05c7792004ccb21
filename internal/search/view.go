// Package search is the web search pane: paginated public web results the
// user can select and import into the collection.
package search

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/action"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/client"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/logger"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/metrics"
)

// Action names.
const (
	ActionSearch = "web-search"
	ActionImport = "import"
)

var (
	// ErrResultNotFound is returned for a URL not on the current page.
	ErrResultNotFound = errors.New("search result not found")
	// ErrNothingToImport is returned by Import with an empty selection.
	ErrNothingToImport = errors.New("no search results selected")
)

// Backend is the part of the crawler API the view needs.
type Backend interface {
	SearchWeb(ctx context.Context, p client.ListParams) (client.Page[domain.SearchResult], error)
	AddWebsite(ctx context.Context, collectionID, rawURL string) (domain.WebsiteRecord, error)
}

// ImportFunc receives the rows created by an import.
type ImportFunc func(recs []domain.WebsiteRecord)

// View holds the search pane state. It is safe for concurrent use.
type View struct {
	backend      Backend
	collectionID string
	pageSize     int
	tracker      *action.Tracker

	mu       sync.Mutex
	page     int
	query    string
	total    int
	results  []domain.SearchResult
	selected *domain.Selection[domain.SearchResult]
	onImport ImportFunc
}

// Option configures a View.
type Option func(*View)

// WithPageSize overrides the page size.
func WithPageSize(n int) Option {
	return func(v *View) {
		if n > 0 {
			v.pageSize = n
		}
	}
}

// WithImportHandler sets the callback run after a successful import.
func WithImportHandler(fn ImportFunc) Option {
	return func(v *View) {
		v.onImport = fn
	}
}

// New returns an empty search view for a collection.
func New(backend Backend, collectionID string, log logger.Logger, m *metrics.Metrics, opts ...Option) *View {
	if log == nil {
		log = logger.NewNop()
	}
	v := &View{
		backend:      backend,
		collectionID: collectionID,
		pageSize:     client.DefaultLimit,
		tracker:      action.NewTracker(log.With(logger.String("view", "search")), m),
		page:         1,
		selected:     domain.NewSelection[domain.SearchResult](),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Search lists the first page of results for query.
func (v *View) Search(ctx context.Context, query string) error {
	return v.Load(ctx, 1, query)
}

// Load fetches page (1-based) of the results for query.
func (v *View) Load(ctx context.Context, page int, query string) error {
	if page < 1 {
		page = 1
	}
	params := client.ListParams{
		CollectionID: v.collectionID,
		Query:        query,
		Page:         page,
		Limit:        v.pageSize,
	}
	_, err := action.Run(ctx, v.tracker, action.Spec[client.Page[domain.SearchResult]]{
		Name: ActionSearch,
		Key:  "page",
		Call: func(ctx context.Context) (client.Page[domain.SearchResult], error) {
			return v.backend.SearchWeb(ctx, params)
		},
		OnSuccess: func(p client.Page[domain.SearchResult]) {
			v.mu.Lock()
			defer v.mu.Unlock()
			v.page = page
			v.query = query
			v.total = p.Total
			v.results = p.Results
		},
	})
	return err
}

// NextPage loads the following page unless the current one is last.
func (v *View) NextPage(ctx context.Context) error {
	v.mu.Lock()
	page, query, last := v.page, v.query, v.lastPage()
	v.mu.Unlock()
	if page >= last {
		return nil
	}
	return v.Load(ctx, page+1, query)
}

// PrevPage loads the previous page unless the current one is first.
func (v *View) PrevPage(ctx context.Context) error {
	v.mu.Lock()
	page, query := v.page, v.query
	v.mu.Unlock()
	if page <= 1 {
		return nil
	}
	return v.Load(ctx, page-1, query)
}

func (v *View) lastPage() int {
	if v.total <= 0 {
		return 1
	}
	return (v.total + v.pageSize - 1) / v.pageSize
}

// Page returns the current page.
func (v *View) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// Pages returns the page count, at least 1.
func (v *View) Pages() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastPage()
}

// Query returns the current search text.
func (v *View) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query
}

// Total returns the number of matches reported by the backend.
func (v *View) Total() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.total
}

// Offset returns the row offset of the current page.
func (v *View) Offset() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return client.Offset(v.page, v.pageSize)
}

// Results returns a copy of the current page.
func (v *View) Results() []domain.SearchResult {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.SearchResult(nil), v.results...)
}

// Select marks or unmarks the result with rawURL on the current page.
func (v *View) Select(rawURL string, on bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, r := range v.results {
		if r.URL == rawURL {
			v.setSelected(r, on)
			return nil
		}
	}
	return fmt.Errorf("%s: %w", rawURL, ErrResultNotFound)
}

// SelectAll marks or unmarks every result on the current page.
func (v *View) SelectAll(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, r := range v.results {
		v.setSelected(r, on)
	}
}

func (v *View) setSelected(r domain.SearchResult, on bool) {
	if on {
		v.selected.Set(r.URL, r)
		return
	}
	v.selected.Delete(r.URL)
}

// IsSelected reports whether rawURL is selected.
func (v *View) IsSelected(rawURL string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected.Has(rawURL)
}

// Selected returns every selected result, including those on other pages,
// in the order they were selected.
func (v *View) Selected() []domain.SearchResult {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selected.Items()
}

// Import adds every selected result to the collection, one add per URL.
// Imported results are deselected and handed to the import handler. On a
// partial failure the joined errors are returned and the rows already added
// stay imported.
func (v *View) Import(ctx context.Context) ([]domain.WebsiteRecord, error) {
	pending := v.Selected()
	if len(pending) == 0 {
		return nil, ErrNothingToImport
	}

	var (
		imported []domain.WebsiteRecord
		errs     []error
	)
	for _, r := range pending {
		rawURL := r.URL
		rec, err := action.Run(ctx, v.tracker, action.Spec[domain.WebsiteRecord]{
			Name: ActionImport,
			Key:  rawURL,
			Call: func(ctx context.Context) (domain.WebsiteRecord, error) {
				return v.backend.AddWebsite(ctx, v.collectionID, rawURL)
			},
			OnSuccess: func(domain.WebsiteRecord) {
				v.mu.Lock()
				defer v.mu.Unlock()
				v.selected.Delete(rawURL)
			},
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("import %s: %w", rawURL, err))
			if errors.Is(err, action.ErrUnmounted) || ctx.Err() != nil {
				break
			}
			continue
		}
		imported = append(imported, rec)
	}

	v.mu.Lock()
	onImport := v.onImport
	v.mu.Unlock()
	if len(imported) > 0 && onImport != nil && v.tracker.Mounted() {
		onImport(imported)
	}
	return imported, errors.Join(errs...)
}

// ImportState returns the state of the latest import of rawURL.
func (v *View) ImportState(rawURL string) action.LoadState {
	return v.tracker.State(ActionImport, rawURL)
}

// Unmount stops completed calls from changing the view.
func (v *View) Unmount() {
	v.tracker.Unmount()
}

// Mount re-enables state updates.
func (v *View) Mount() {
	v.tracker.Mount()
}
