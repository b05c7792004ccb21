// Package render draws console views as go-pretty tables.
package render

import (
	"fmt"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
)

// Control is what a row shows in its scrape column.
type Control int

const (
	// ControlQueue offers to queue the row.
	ControlQueue Control = iota
	// ControlQueued marks a row waiting on a backend job.
	ControlQueued
	// ControlError shows a backend-reported scrape failure.
	ControlError
	// ControlSpinner marks a scrape or queue call in flight.
	ControlSpinner
	// ControlView opens the scrape preview.
	ControlView
)

func (c Control) String() string {
	switch c {
	case ControlQueue:
		return "Queue"
	case ControlQueued:
		return "Queued"
	case ControlError:
		return "Error"
	case ControlSpinner:
		return "..."
	case ControlView:
		return "View"
	default:
		return fmt.Sprintf("control(%d)", int(c))
	}
}

// ControlFor picks exactly one control. A scraped row always shows View;
// otherwise an in-flight call wins over errors, errors over queued.
func ControlFor(status domain.Status, inFlight bool) Control {
	if status != nil && status.Kind() == domain.StatusScraped {
		return ControlView
	}
	if inFlight {
		return ControlSpinner
	}
	if status == nil {
		return ControlQueue
	}
	switch status.Kind() {
	case domain.StatusErrored:
		return ControlError
	case domain.StatusQueued:
		return ControlQueued
	default:
		return ControlQueue
	}
}

// ControlFunc resolves the control of a row at render time.
type ControlFunc func(domain.Website) Control

// StatusControl ignores in-flight calls; one-shot commands have none.
func StatusControl(w domain.Website) Control {
	return ControlFor(w.Status, false)
}
