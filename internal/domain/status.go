package domain

import (
	"errors"
	"fmt"
	"time"
)

// DataTypeMain marks the primary extracted resource of a scraped page.
const DataTypeMain = "data"

// Resource describes one artifact extracted by a scrape.
type Resource struct {
	DataType   string `json:"data_type"`
	ResourceID ID     `json:"resource_id"`
}

// ScrapeError is one failure record written by the backend.
type ScrapeError struct {
	Stage     string `json:"stage"`
	Status    Text   `json:"status"`
	Traceback string `json:"traceback"`
}

// StatusKind enumerates the row lifecycle states.
type StatusKind int

const (
	// StatusUnqueued is the initial state: not scraped, not queued, no errors.
	StatusUnqueued StatusKind = iota
	// StatusQueued means a scrape job is enqueued on the backend.
	StatusQueued
	// StatusScraped means scraping succeeded.
	StatusScraped
	// StatusErrored means the backend recorded a scrape failure.
	StatusErrored
)

func (k StatusKind) String() string {
	switch k {
	case StatusUnqueued:
		return "unqueued"
	case StatusQueued:
		return "queued"
	case StatusScraped:
		return "scraped"
	case StatusErrored:
		return "errored"
	default:
		return fmt.Sprintf("status(%d)", int(k))
	}
}

// Status is the decoded lifecycle state of a row. It is one of Unqueued,
// Queued, Scraped or Errored.
type Status interface {
	Kind() StatusKind
}

// Unqueued is a row nobody has asked the backend to scrape yet.
type Unqueued struct{}

// Queued is a row waiting on a backend scrape job.
type Queued struct{}

// Scraped is a row with extracted resources.
type Scraped struct {
	At        time.Time
	Resources []Resource
}

// Errored is a row whose last scrape failed on the backend.
type Errored struct {
	Latest  ScrapeError
	History []ScrapeError
}

func (Unqueued) Kind() StatusKind { return StatusUnqueued }
func (Queued) Kind() StatusKind   { return StatusQueued }
func (Scraped) Kind() StatusKind  { return StatusScraped }
func (Errored) Kind() StatusKind  { return StatusErrored }

// MainResource returns the first resource of type "data".
func (s Scraped) MainResource() (Resource, bool) {
	for _, r := range s.Resources {
		if r.DataType == DataTypeMain {
			return r, true
		}
	}
	return Resource{}, false
}

// Website is a record together with its status, decoded once when the
// record enters a view.
type Website struct {
	Record WebsiteRecord
	Status Status
}

// ID returns the record id.
func (w Website) ID() ID {
	return w.Record.ID
}

// URL returns the record url.
func (w Website) URL() string {
	return w.Record.URL
}

// Decode derives the row status. Precedence is scraped_at, then errors,
// then queued. Malformed website_data or errors columns are reported in the
// returned error and treated as empty; the Website is always usable.
func Decode(rec WebsiteRecord) (Website, error) {
	var decodeErrs []error

	if rec.ScrapedAt.IsSet() {
		var resources []Resource
		if err := rec.WebsiteData.Decode(&resources); err != nil {
			decodeErrs = append(decodeErrs, fmt.Errorf("website_data: %w", err))
			resources = nil
		}
		return Website{
			Record: rec,
			Status: Scraped{At: rec.ScrapedAt.Time, Resources: resources},
		}, errors.Join(decodeErrs...)
	}

	var history []ScrapeError
	if err := rec.Errors.Decode(&history); err != nil {
		decodeErrs = append(decodeErrs, fmt.Errorf("errors: %w", err))
		history = nil
	}
	if len(history) > 0 {
		return Website{
			Record: rec,
			Status: Errored{Latest: history[len(history)-1], History: history},
		}, errors.Join(decodeErrs...)
	}

	if rec.Queued {
		return Website{Record: rec, Status: Queued{}}, errors.Join(decodeErrs...)
	}
	return Website{Record: rec, Status: Unqueued{}}, errors.Join(decodeErrs...)
}

// MarkQueued returns the record as the client shows it after a successful
// enqueue: queued and with prior errors cleared. The status is derived again,
// so a row that was already scraped stays Scraped.
func MarkQueued(rec WebsiteRecord) Website {
	rec.Queued = true
	rec.Errors = EncodedList{}
	w, _ := Decode(rec)
	return w
}

// NeedsQueue reports whether a row still has to be sent to the queue.
func (w Website) NeedsQueue() bool {
	return !bool(w.Record.Queued) && !w.Record.ScrapedAt.IsSet()
}

// ErrNotScraped is returned when a row has no scraped resources.
var ErrNotScraped = errors.New("row has not been scraped")
