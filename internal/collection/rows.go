package collection

import (
	"context"
	"fmt"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/action"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
)

// Remove deletes a row. Only the row with id leaves the list.
func (v *View) Remove(ctx context.Context, id domain.ID) error {
	row, err := v.Row(id)
	if err != nil {
		return err
	}
	_, err = action.Run(ctx, v.tracker, action.Spec[struct{}]{
		Name: ActionRemove,
		Key:  id.String(),
		Call: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, v.backend.RemoveWebsite(ctx, v.collectionID, row.Record)
		},
		OnSuccess: func(struct{}) {
			v.mu.Lock()
			defer v.mu.Unlock()
			if i := v.indexOf(id); i >= 0 {
				v.selected.Delete(v.rows[i].URL())
				v.rows = append(v.rows[:i:i], v.rows[i+1:]...)
				if v.total > 0 {
					v.total--
				}
			}
		},
	})
	if err != nil {
		return err
	}
	// The row is gone; its per-action states would only leak.
	v.tracker.Forget(id.String())
	return nil
}

// Scrape scrapes a row synchronously and replaces it with the backend's
// answer, which may carry scrape errors of its own.
func (v *View) Scrape(ctx context.Context, id domain.ID) (domain.Website, error) {
	row, err := v.Row(id)
	if err != nil {
		return domain.Website{}, err
	}
	rec, err := action.Run(ctx, v.tracker, action.Spec[domain.WebsiteRecord]{
		Name: ActionScrape,
		Key:  id.String(),
		Call: func(ctx context.Context) (domain.WebsiteRecord, error) {
			return v.backend.Scrape(ctx, v.collectionID, row.Record)
		},
		OnSuccess: func(rec domain.WebsiteRecord) {
			updated := v.decode(rec)
			v.mu.Lock()
			defer v.mu.Unlock()
			if i := v.indexOf(id); i >= 0 {
				v.rows[i] = updated
			}
		},
	})
	if err != nil {
		return domain.Website{}, err
	}
	return v.decode(rec), nil
}

// Queue enqueues a scrape job for one row.
func (v *View) Queue(ctx context.Context, id domain.ID) error {
	row, err := v.Row(id)
	if err != nil {
		return err
	}
	_, err = action.Run(ctx, v.tracker, action.Spec[struct{}]{
		Name: ActionQueue,
		Key:  id.String(),
		Call: func(ctx context.Context) (struct{}, error) {
			return struct{}{}, v.backend.Queue(ctx, v.collectionID, row.Record)
		},
		OnSuccess: func(struct{}) {
			v.mu.Lock()
			defer v.mu.Unlock()
			if i := v.indexOf(id); i >= 0 {
				v.rows[i] = domain.MarkQueued(v.rows[i].Record)
			}
		},
	})
	return err
}

// Prepend puts records at the top of the list in the given order. An
// existing row with the same id is replaced.
func (v *View) Prepend(recs ...domain.WebsiteRecord) {
	if len(recs) == 0 {
		return
	}
	incoming := v.decodeAll(recs)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.prepend(incoming...)
}

// prepend must be called with v.mu held.
func (v *View) prepend(rows ...domain.Website) {
	seen := make(map[domain.ID]bool, len(rows))
	out := make([]domain.Website, 0, len(rows)+len(v.rows))
	for _, r := range rows {
		if seen[r.ID()] {
			continue
		}
		seen[r.ID()] = true
		out = append(out, r)
	}
	added := len(out)
	for _, r := range v.rows {
		if seen[r.ID()] {
			added--
			continue
		}
		out = append(out, r)
	}
	v.rows = out
	v.total += added
}

// OpenAdd shows the add-URL modal.
func (v *View) OpenAdd() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.add.Open = true
}

// SetAddURL sets the modal's URL field.
func (v *View) SetAddURL(u string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.add.URL = u
}

// CloseAdd clears and hides the modal.
func (v *View) CloseAdd() {
	v.mu.Lock()
	v.add = AddModal{}
	v.mu.Unlock()
	v.tracker.Reset(ActionAdd, addKey)
}

// AddModal returns the modal state.
func (v *View) AddModal() AddModal {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.add
}

// Add posts the modal's URL. On success the new row goes first and the
// modal closes; on failure the modal stays open with its URL.
func (v *View) Add(ctx context.Context) (domain.Website, error) {
	v.mu.Lock()
	rawURL := trimURL(v.add.URL)
	if rawURL == "" {
		v.mu.Unlock()
		return domain.Website{}, ErrEmptyURL
	}
	v.add.State = action.Loading
	v.mu.Unlock()

	rec, err := action.Run(ctx, v.tracker, action.Spec[domain.WebsiteRecord]{
		Name: ActionAdd,
		Key:  addKey,
		Call: func(ctx context.Context) (domain.WebsiteRecord, error) {
			return v.backend.AddWebsite(ctx, v.collectionID, rawURL)
		},
		OnSuccess: func(rec domain.WebsiteRecord) {
			row := v.decode(rec)
			v.mu.Lock()
			defer v.mu.Unlock()
			v.prepend(row)
			v.add = AddModal{}
		},
		OnFailure: func(error) {
			v.mu.Lock()
			defer v.mu.Unlock()
			v.add.State = action.Failed
		},
	})
	if err != nil {
		return domain.Website{}, fmt.Errorf("add %s: %w", rawURL, err)
	}
	return v.decode(rec), nil
}
