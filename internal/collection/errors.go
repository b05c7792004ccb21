package collection

import (
	"errors"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
)

var (
	// ErrRowNotFound is returned for an id not in the current page.
	ErrRowNotFound = errors.New("row not found")
	// ErrNothingToQueue is returned by BulkQueue when no selected row needs
	// queueing.
	ErrNothingToQueue = errors.New("no selected rows need queueing")
	// ErrEmptyURL is returned by Add when the modal holds no URL.
	ErrEmptyURL = errors.New("url is empty")
	// ErrNotScraped is returned when a row has no scraped resources.
	ErrNotScraped = domain.ErrNotScraped
	// ErrNoErrors is returned by ErrorDetails for a row without scrape errors.
	ErrNoErrors = errors.New("row has no scrape errors")
)
