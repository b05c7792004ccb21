// Package queue lists the rows of a collection that wait on a backend
// scrape job and watches them until they finish.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/action"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/client"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/logger"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/metrics"
)

// ActionRefresh names queue reloads in logs and metrics.
const ActionRefresh = "queue-refresh"

// maxPages bounds how far a refresh pages through the manifest.
const maxPages = 50

// Lister is the part of the crawler API the queue needs.
type Lister interface {
	ListWebsites(ctx context.Context, p client.ListParams) (client.Page[domain.WebsiteRecord], error)
}

// Change is a row that left the queue between two refreshes.
type Change struct {
	Before domain.Website
	After  domain.Website
}

// View is the queue pane.
type View struct {
	lister       Lister
	collectionID string
	pageSize     int
	log          logger.Logger
	metrics      *metrics.Metrics
	tracker      *action.Tracker

	mu   sync.Mutex
	rows []domain.Website
}

// New returns an empty queue view.
func New(lister Lister, collectionID string, log logger.Logger, m *metrics.Metrics) *View {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With(logger.String("view", "queue"))
	return &View{
		lister:       lister,
		collectionID: collectionID,
		pageSize:     client.DefaultLimit,
		log:          log,
		metrics:      m,
		tracker:      action.NewTracker(log, m),
	}
}

// Rows returns the queued rows of the last refresh.
func (v *View) Rows() []domain.Website {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]domain.Website(nil), v.rows...)
}

// Refresh reloads the whole collection and keeps the queued rows. It
// returns the rows that were queued before and are no longer.
func (v *View) Refresh(ctx context.Context) ([]Change, error) {
	all, err := action.Run(ctx, v.tracker, action.Spec[[]domain.Website]{
		Name: ActionRefresh,
		Key:  v.collectionID,
		Call: v.listAll,
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[domain.ID]domain.Website, len(all))
	var queued []domain.Website
	for _, w := range all {
		byID[w.ID()] = w
		if w.Status.Kind() == domain.StatusQueued {
			queued = append(queued, w)
		}
	}

	v.mu.Lock()
	var changes []Change
	for _, prev := range v.rows {
		cur, ok := byID[prev.ID()]
		if ok && cur.Status.Kind() != domain.StatusQueued {
			changes = append(changes, Change{Before: prev, After: cur})
		}
	}
	v.rows = queued
	v.mu.Unlock()

	v.metrics.SetQueuedRows(len(queued))
	return changes, nil
}

func (v *View) listAll(ctx context.Context) ([]domain.Website, error) {
	var out []domain.Website
	for page := 1; page <= maxPages; page++ {
		p, err := v.lister.ListWebsites(ctx, client.ListParams{
			CollectionID: v.collectionID,
			Page:         page,
			Limit:        v.pageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("queue page %d: %w", page, err)
		}
		for _, rec := range p.Results {
			w, decodeErr := domain.Decode(rec)
			if decodeErr != nil {
				v.log.Warn("Malformed row columns treated as empty",
					logger.String("row_id", rec.ID.String()),
					logger.Error(decodeErr),
				)
			}
			out = append(out, w)
		}
		if len(p.Results) < v.pageSize || page*v.pageSize >= p.Total {
			break
		}
	}
	return out, nil
}

// Watch refreshes every interval until ctx ends, calling onChange for each
// row that left the queue. Refresh failures are logged and polling goes on.
func (v *View) Watch(ctx context.Context, interval time.Duration, onChange func(Change)) error {
	return v.WatchUntil(ctx, interval, onChange, nil)
}

// WatchUntil is Watch with a stop condition. After every successful refresh
// stop is called with the rows still queued; when it returns true the watch
// ends with a nil error. A nil stop never ends the watch.
func (v *View) WatchUntil(ctx context.Context, interval time.Duration, onChange func(Change), stop func([]domain.Website) bool) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		changes, err := v.Refresh(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return ctx.Err()
		case err != nil:
			v.log.Warn("Queue refresh failed", logger.Error(err))
		default:
			for _, c := range changes {
				onChange(c)
			}
			if stop != nil && stop(v.Rows()) {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Unmount stops the view from recording refresh results.
func (v *View) Unmount() {
	v.tracker.Unmount()
}
