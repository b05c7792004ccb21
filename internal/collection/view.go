// Package collection is the website list of one collection: a paginated
// mirror of the backend manifest with selection, per-row actions and the
// add-URL modal.
package collection

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/action"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/client"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/logger"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/metrics"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/render"
)

// Action names used for load states, logs and metrics.
const (
	ActionLoad      = "load"
	ActionAdd       = "add"
	ActionRemove    = "remove"
	ActionScrape    = "scrape"
	ActionQueue     = "queue"
	ActionBulkQueue = "bulk-queue"
)

const (
	pageKey = "page"
	addKey  = "modal"
	bulkKey = "selection"
)

// Backend is the part of the crawler API the view needs.
type Backend interface {
	ListWebsites(ctx context.Context, p client.ListParams) (client.Page[domain.WebsiteRecord], error)
	AddWebsite(ctx context.Context, collectionID, rawURL string) (domain.WebsiteRecord, error)
	RemoveWebsite(ctx context.Context, collectionID string, rec domain.WebsiteRecord) error
	Scrape(ctx context.Context, collectionID string, rec domain.WebsiteRecord) (domain.WebsiteRecord, error)
	Queue(ctx context.Context, collectionID string, rec domain.WebsiteRecord) error
	BulkQueue(ctx context.Context, collectionID string, recs []domain.WebsiteRecord) error
}

// AddModal is the add-URL dialog.
type AddModal struct {
	Open  bool
	URL   string
	State action.LoadState
}

// View holds one collection's list state. It is safe for concurrent use.
type View struct {
	backend      Backend
	collectionID string
	pageSize     int
	log          logger.Logger
	tracker      *action.Tracker

	mu       sync.Mutex
	page     int
	query    string
	total    int
	rows     []domain.Website
	selected *domain.Selection[domain.Website]
	add      AddModal
}

// Option configures a View.
type Option func(*options)

type options struct {
	pageSize int
	log      logger.Logger
	metrics  *metrics.Metrics
}

// WithPageSize overrides the page size.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log logger.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithMetrics records action metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// New returns an empty view on page 1. Call Load to fetch rows.
func New(backend Backend, collectionID string, opts ...Option) *View {
	o := options{pageSize: client.DefaultLimit, log: logger.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.log.With(logger.String("view", "collection"), logger.String("collection", collectionID))
	return &View{
		backend:      backend,
		collectionID: collectionID,
		pageSize:     o.pageSize,
		log:          log,
		tracker:      action.NewTracker(log, o.metrics),
		page:         1,
		selected:     domain.NewSelection[domain.Website](),
	}
}

// CollectionID returns the collection the view lists.
func (v *View) CollectionID() string {
	return v.collectionID
}

// Load fetches page (1-based) of the rows matching query.
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
	_, err := action.Run(ctx, v.tracker, action.Spec[client.Page[domain.WebsiteRecord]]{
		Name: ActionLoad,
		Key:  pageKey,
		Call: func(ctx context.Context) (client.Page[domain.WebsiteRecord], error) {
			return v.backend.ListWebsites(ctx, params)
		},
		OnSuccess: func(p client.Page[domain.WebsiteRecord]) {
			rows := v.decodeAll(p.Results)
			v.mu.Lock()
			defer v.mu.Unlock()
			v.page = page
			v.query = query
			v.total = p.Total
			v.rows = rows
		},
	})
	return err
}

// Refresh reloads the current page.
func (v *View) Refresh(ctx context.Context) error {
	v.mu.Lock()
	page, query := v.page, v.query
	v.mu.Unlock()
	return v.Load(ctx, page, query)
}

// Search lists the first page matching query.
func (v *View) Search(ctx context.Context, query string) error {
	return v.Load(ctx, 1, query)
}

// NextPage loads the following page. On the last page it does nothing.
func (v *View) NextPage(ctx context.Context) error {
	v.mu.Lock()
	page, query, last := v.page, v.query, v.lastPage()
	v.mu.Unlock()
	if page >= last {
		return nil
	}
	return v.Load(ctx, page+1, query)
}

// PrevPage loads the previous page. On page 1 it does nothing.
func (v *View) PrevPage(ctx context.Context) error {
	v.mu.Lock()
	page, query := v.page, v.query
	v.mu.Unlock()
	if page <= 1 {
		return nil
	}
	return v.Load(ctx, page-1, query)
}

// Page returns the current page number.
func (v *View) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.page
}

// Query returns the current search text.
func (v *View) Query() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.query
}

// Total returns the backend's match count for the current query.
func (v *View) Total() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.total
}

// Pages returns the number of pages for the current query, at least 1.
func (v *View) Pages() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.lastPage()
}

func (v *View) lastPage() int {
	if v.total <= 0 {
		return 1
	}
	return (v.total + v.pageSize - 1) / v.pageSize
}

// Rows returns a copy of the current rows in display order.
func (v *View) Rows() []domain.Website {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.Website(nil), v.rows...)
}

// Row returns the row with id.
func (v *View) Row(id domain.ID) (domain.Website, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.indexOf(id)
	if i < 0 {
		return domain.Website{}, fmt.Errorf("%s: %w", id, ErrRowNotFound)
	}
	return v.rows[i], nil
}

// LoadState returns the state of the latest named action on id.
func (v *View) LoadState(name string, id domain.ID) action.LoadState {
	return v.tracker.State(name, id.String())
}

// Control returns the control the row renders in its scrape column.
func (v *View) Control(id domain.ID) (render.Control, error) {
	row, err := v.Row(id)
	if err != nil {
		return render.ControlQueue, err
	}
	return render.ControlFor(row.Status, v.inFlight(id)), nil
}

// ControlFunc adapts Control for the table renderer.
func (v *View) ControlFunc() render.ControlFunc {
	return func(w domain.Website) render.Control {
		return render.ControlFor(w.Status, v.inFlight(w.ID()))
	}
}

func (v *View) inFlight(id domain.ID) bool {
	return v.tracker.InFlight(id.String(), ActionScrape, ActionQueue)
}

// ErrorDetails returns the latest backend-reported failure of a row.
func (v *View) ErrorDetails(id domain.ID) (domain.ScrapeError, error) {
	row, err := v.Row(id)
	if err != nil {
		return domain.ScrapeError{}, err
	}
	errored, ok := row.Status.(domain.Errored)
	if !ok {
		return domain.ScrapeError{}, fmt.Errorf("%s: %w", id, ErrNoErrors)
	}
	return errored.Latest, nil
}

// MainResource returns the "data" resource of a scraped row.
func (v *View) MainResource(id domain.ID) (domain.Resource, error) {
	row, err := v.Row(id)
	if err != nil {
		return domain.Resource{}, err
	}
	scraped, ok := row.Status.(domain.Scraped)
	if !ok {
		return domain.Resource{}, fmt.Errorf("%s: %w", id, ErrNotScraped)
	}
	res, ok := scraped.MainResource()
	if !ok {
		return domain.Resource{}, fmt.Errorf("%s: no data resource: %w", id, ErrNotScraped)
	}
	return res, nil
}

// Unmount stops completed calls from changing the view.
func (v *View) Unmount() {
	v.tracker.Unmount()
}

// Mount re-enables state updates after Unmount.
func (v *View) Mount() {
	v.tracker.Mount()
}

// indexOf must be called with v.mu held.
func (v *View) indexOf(id domain.ID) int {
	for i := range v.rows {
		if v.rows[i].ID() == id {
			return i
		}
	}
	return -1
}

func (v *View) decodeAll(recs []domain.WebsiteRecord) []domain.Website {
	rows := make([]domain.Website, 0, len(recs))
	for _, rec := range recs {
		rows = append(rows, v.decode(rec))
	}
	return rows
}

func (v *View) decode(rec domain.WebsiteRecord) domain.Website {
	w, err := domain.Decode(rec)
	if err != nil {
		v.log.Warn("Malformed row columns treated as empty",
			logger.String("row_id", rec.ID.String()),
			logger.Error(err),
		)
	}
	return w
}

func trimURL(u string) string {
	return strings.TrimSpace(u)
}
