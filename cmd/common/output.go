package common

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/collection"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/preview"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/render"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/search"
)

// previewTextRunes bounds the page text printed under a preview.
const previewTextRunes = 400

// RenderWebsites writes the current page of v.
func RenderWebsites(w io.Writer, v *collection.View) {
	render.WebsiteTable{
		Rows:     v.Rows(),
		Control:  v.ControlFunc(),
		Selected: func(row domain.Website) bool { return v.IsSelected(row.ID()) },
		Pager: render.Pager{
			Page:  v.Page(),
			Pages: v.Pages(),
			Total: v.Total(),
			Query: v.Query(),
		},
	}.Render(w)
}

// RenderRow writes a single row as a one-line table.
func RenderRow(w io.Writer, row domain.Website) {
	render.WebsiteTable{
		Rows:  []domain.Website{row},
		Pager: render.Pager{Page: 1, Pages: 1, Total: 1},
	}.Render(w)
}

// RenderErrors writes the latest scrape error of an errored row and the
// number of earlier attempts.
func RenderErrors(w io.Writer, row domain.Website) error {
	errored, ok := row.Status.(domain.Errored)
	if !ok {
		return fmt.Errorf("%s: %w", row.ID(), collection.ErrNoErrors)
	}
	render.ErrorInfo(w, errored.Latest)
	if n := len(errored.History); n > 1 {
		fmt.Fprintf(w, "%d earlier attempts failed\n", n-1)
	}
	return nil
}

// RenderPreview writes what a scrape produced for one row.
func RenderPreview(w io.Writer, p preview.Preview) {
	props := [][2]string{
		{"ID", p.Website.ID().String()},
		{"URL", p.Website.URL()},
		{"Title", p.Website.Record.Title},
		{"Scraped at", p.ScrapedAt},
		{"Content type", p.File.ContentType},
	}
	if p.HasMain {
		props = append(props,
			[2]string{"Resource", p.Main.ResourceID.String()},
			[2]string{"Size", strconv.FormatInt(p.File.Size, 10)},
			[2]string{"Extension", p.Ext},
		)
	}
	render.Properties(w, props)
	render.Resources(w, p.Scraped.Resources)

	if p.Metadata == nil {
		return
	}
	md := p.Metadata
	render.Properties(w, [][2]string{
		{"Page title", md.Title},
		{"Description", md.Description},
		{"Author", md.Author},
		{"Image", md.Image},
		{"Favicon", md.Favicon},
	})
	text := md.Article
	if text == "" {
		text = md.Text
	}
	if text != "" {
		fmt.Fprintln(w, render.Truncate(text, previewTextRunes))
	}
}

// RenderSearch writes the current page of web search results.
func RenderSearch(w io.Writer, v *search.View) {
	render.SearchTable{
		Results:  v.Results(),
		Selected: func(r domain.SearchResult) bool { return v.IsSelected(r.URL) },
		Offset:   v.Offset(),
		Pager: render.Pager{
			Page:  v.Page(),
			Pages: v.Pages(),
			Total: v.Total(),
			Query: v.Query(),
		},
	}.Render(w)
}

// ResolveResult maps a result number (as shown in the # column) or a URL
// to a URL on the current page.
func ResolveResult(v *search.View, ref string) (string, error) {
	results := v.Results()
	if n, err := strconv.Atoi(ref); err == nil {
		i := n - 1 - v.Offset()
		if i < 0 || i >= len(results) {
			return "", fmt.Errorf("result %d: %w", n, search.ErrResultNotFound)
		}
		return results[i].URL, nil
	}
	for _, r := range results {
		if r.URL == ref {
			return r.URL, nil
		}
	}
	return "", fmt.Errorf("%s: %w", ref, search.ErrResultNotFound)
}

// RenderQueue writes the queued rows of a collection.
func RenderQueue(w io.Writer, rows []domain.Website) {
	render.WebsiteTable{
		Rows:  rows,
		Pager: render.Pager{Page: 1, Pages: 1, Total: len(rows)},
	}.Render(w)
}
