package collection

import (
	"context"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/action"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
)

// Select marks or unmarks a row of the current page. Selection is keyed by
// URL and survives paging: rows selected on other pages stay selected and
// take part in BulkQueue.
func (v *View) Select(id domain.ID, on bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	i := v.indexOf(id)
	if i < 0 {
		return ErrRowNotFound
	}
	v.setSelected(v.rows[i], on)
	return nil
}

// SelectAll marks or unmarks every row on the current page.
func (v *View) SelectAll(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, r := range v.rows {
		v.setSelected(r, on)
	}
}

// setSelected must be called with v.mu held.
func (v *View) setSelected(w domain.Website, on bool) {
	if on {
		v.selected.Set(w.URL(), w)
		return
	}
	v.selected.Delete(w.URL())
}

// IsSelected reports whether the row with id is selected, on this page or
// another.
func (v *View) IsSelected(id domain.ID) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i := v.indexOf(id); i >= 0 {
		return v.selected.Has(v.rows[i].URL())
	}
	for _, w := range v.selected.Items() {
		if w.ID() == id {
			return true
		}
	}
	return false
}

// Selected returns every selected row in the order it was selected. Rows
// on the current page are returned as last loaded.
func (v *View) Selected() []domain.Website {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.selectedRows()
}

// selectedRows must be called with v.mu held.
func (v *View) selectedRows() []domain.Website {
	onPage := make(map[string]domain.Website, len(v.rows))
	for _, r := range v.rows {
		onPage[r.URL()] = r
	}
	out := v.selected.Items()
	for i, w := range out {
		if cur, ok := onPage[w.URL()]; ok {
			out[i] = cur
		}
	}
	return out
}

// NeedQueue returns the selected rows that are neither queued nor scraped.
func (v *View) NeedQueue() []domain.Website {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.needQueue()
}

// needQueue must be called with v.mu held.
func (v *View) needQueue() []domain.Website {
	var out []domain.Website
	for _, r := range v.selectedRows() {
		if r.NeedsQueue() {
			out = append(out, r)
		}
	}
	return out
}

// BulkQueue enqueues every row NeedQueue returns in one call, including
// rows selected on other pages. Rows are marked queued and deselected only
// after the call succeeds.
func (v *View) BulkQueue(ctx context.Context) (int, error) {
	v.mu.Lock()
	pending := v.needQueue()
	v.mu.Unlock()
	if len(pending) == 0 {
		return 0, ErrNothingToQueue
	}

	recs := make([]domain.WebsiteRecord, len(pending))
	sent := make(map[domain.ID]bool, len(pending))
	for i, r := range pending {
		recs[i] = r.Record
		sent[r.ID()] = true
	}

	_, err := action.Run(ctx, v.tracker, action.Spec[struct{}]{
		Name: ActionBulkQueue,
		Key:  bulkKey,
		Call: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, v.backend.BulkQueue(ctx, v.collectionID, recs)
		},
		OnSuccess: func(struct{}) {
			v.mu.Lock()
			defer v.mu.Unlock()
			for i, r := range v.rows {
				if sent[r.ID()] {
					v.rows[i] = domain.MarkQueued(r.Record)
				}
			}
			for _, r := range pending {
				v.selected.Delete(r.URL())
			}
		},
	})
	if err != nil {
		return 0, err
	}
	return len(recs), nil
}

// BulkQueueState returns the state of the latest bulk queue call.
func (v *View) BulkQueueState() action.LoadState {
	return v.tracker.State(ActionBulkQueue, bulkKey)
}
