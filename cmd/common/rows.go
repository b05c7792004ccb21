package common

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/collection"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
)

// maxScanPages bounds FindRow's walk through the manifest.
const maxScanPages = 100

// FindRow pages through the unfiltered collection until the row with id is
// on the view's current page. The view is left on that page; use VisitRow to
// keep what the user was looking at.
func FindRow(ctx context.Context, v *collection.View, id domain.ID) (domain.Website, error) {
	for page := 1; page <= maxScanPages; page++ {
		if err := v.Load(ctx, page, ""); err != nil {
			return domain.Website{}, fmt.Errorf("find row %s: %w", id, err)
		}
		row, err := v.Row(id)
		if err == nil {
			return row, nil
		}
		if !errors.Is(err, collection.ErrRowNotFound) {
			return domain.Website{}, err
		}
		if page >= v.Pages() {
			break
		}
	}
	return domain.Website{}, fmt.Errorf("%s: %w", id, collection.ErrRowNotFound)
}

// VisitRow runs fn on the row with id. A row that is not on the current
// page is found with FindRow, and the page and query shown before are
// loaded again once fn returns.
func VisitRow(ctx context.Context, v *collection.View, id domain.ID, fn func(domain.Website) error) error {
	if row, err := v.Row(id); err == nil {
		return fn(row)
	}

	page, query := v.Page(), v.Query()
	row, err := FindRow(ctx, v, id)
	if err == nil {
		err = fn(row)
	}
	if restoreErr := v.Load(ctx, page, query); restoreErr != nil {
		return errors.Join(err, fmt.Errorf("restore page %d: %w", page, restoreErr))
	}
	return err
}

// NewCollectionView returns a view on the configured collection.
func (d CommandDeps) NewCollectionView() (*collection.View, error) {
	id, err := d.RequireCollection()
	if err != nil {
		return nil, err
	}
	return collection.New(d.Client, id,
		collection.WithPageSize(d.Config.Collection.PageSize),
		collection.WithLogger(d.Logger),
		collection.WithMetrics(d.Metrics),
	), nil
}
