package render

import (
	"net/url"
	"strings"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
)

// Column describes one table column.
type Column struct {
	Key   string
	Title string
	Width int
}

// Website table columns.
var WebsiteColumns = []Column{
	{Key: "_select", Title: "", Width: 3},
	{Key: "id", Title: "ID", Width: 12},
	{Key: "created_at", Title: "Added", Width: 11},
	{Key: "url", Title: "URL", Width: 40},
	{Key: "title", Title: "Title", Width: 40},
	{Key: "content_type", Title: "Content", Width: 8},
	{Key: "_scrape", Title: "Scrape", Width: 8},
	{Key: "scraped_at", Title: "Visited", Width: 11},
}

// SmallTimestampLayout is the compact date shown in the Added and Visited
// columns.
const SmallTimestampLayout = "Jan 2 2006"

// Search result columns.
var SearchColumns = []Column{
	{Key: "_select", Title: "", Width: 3},
	{Key: "#", Title: "#", Width: 4},
	{Key: "name", Title: "Name", Width: 36},
	{Key: "url", Title: "URL", Width: 40},
	{Key: "snippet", Title: "Snippet", Width: 60},
}

// RowContext is what a cell needs to render a website row.
type RowContext struct {
	Website  domain.Website
	Control  Control
	Selected bool
}

// WebsiteCell renders one cell of a website row.
func WebsiteCell(col Column, rc RowContext) string {
	rec := rc.Website.Record
	switch col.Key {
	case "_select":
		return checkbox(rc.Selected)
	case "id":
		return rec.ID.String()
	case "url":
		return SiteWithPath(rec.URL)
	case "title":
		return rec.Title
	case "created_at":
		return SmallTimestamp(rec.CreatedAt)
	case "content_type":
		return contentCell(rc.Website)
	case "scraped_at":
		return SmallTimestamp(rec.ScrapedAt)
	case "_scrape":
		return rc.Control.String()
	default:
		if raw, ok := rec.Extra(col.Key); ok {
			return strings.Trim(string(raw), `"`)
		}
		return ""
	}
}

// contentCell shows the download extension for a scraped row with a main
// data resource.
func contentCell(w domain.Website) string {
	scraped, ok := w.Status.(domain.Scraped)
	if !ok {
		return ""
	}
	if _, ok := scraped.MainResource(); !ok {
		return ""
	}
	return domain.ExtForMimetype(w.Record.ContentType)
}

// SmallTimestamp formats t with SmallTimestampLayout. Text the backend sent
// in an unknown layout is shown as is.
func SmallTimestamp(t domain.Timestamp) string {
	if !t.IsSet() {
		return ""
	}
	if t.IsZero() {
		return t.Raw()
	}
	return t.Format(SmallTimestampLayout)
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

// SiteWithPath shortens a URL to host and path for display.
func SiteWithPath(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return raw
	}
	host := strings.TrimPrefix(u.Host, "www.")
	path := strings.TrimSuffix(u.EscapedPath(), "/")
	return host + path
}

// Truncate shortens s to at most n runes, ending with "...".
func Truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if n <= 3 || len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
