package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/metrics"
)

// Pager is the footer of a paginated table.
type Pager struct {
	Page  int
	Pages int
	Total int
	Query string
}

// footer puts the totals in the first two columns and the page label in
// the URL column, the widest one.
func (p Pager) footer(cols []Column) table.Row {
	row := make(table.Row, len(cols))
	row[0] = "Total"
	if len(cols) > 1 {
		row[1] = p.Total
	}
	label := fmt.Sprintf("Page %d/%d", p.Page, max(p.Pages, 1))
	if p.Query != "" {
		label += fmt.Sprintf("  Query: %s", p.Query)
	}
	for i, c := range cols {
		if c.Key == "url" && i > 1 {
			row[i] = label
			return row
		}
	}
	if len(cols) > 2 {
		row[2] = label
	}
	return row
}

// WebsiteTable renders a collection page.
type WebsiteTable struct {
	Rows     []domain.Website
	Control  ControlFunc
	Selected func(domain.Website) bool
	Pager    Pager
}

func newWriter(w io.Writer, cols []Column, style table.Style) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(style)
	t.Style().Format.Footer = text.FormatDefault

	header := make(table.Row, len(cols))
	configs := make([]table.ColumnConfig, len(cols))
	for i, c := range cols {
		header[i] = c.Title
		configs[i] = table.ColumnConfig{Number: i + 1, WidthMax: c.Width}
	}
	t.SetColumnConfigs(configs)
	t.AppendHeader(header)
	return t
}

// Render writes the table to w.
func (wt WebsiteTable) Render(w io.Writer) {
	control := wt.Control
	if control == nil {
		control = StatusControl
	}
	t := newWriter(w, WebsiteColumns, table.StyleLight)

	for _, row := range wt.Rows {
		rc := RowContext{Website: row, Control: control(row)}
		if wt.Selected != nil {
			rc.Selected = wt.Selected(row)
		}
		cells := make(table.Row, len(WebsiteColumns))
		for i, col := range WebsiteColumns {
			cells[i] = WebsiteCell(col, rc)
		}
		t.AppendRow(cells)
	}

	t.AppendFooter(wt.Pager.footer(WebsiteColumns))
	t.Render()
}

// SearchTable renders a page of web search results.
type SearchTable struct {
	Results  []domain.SearchResult
	Selected func(domain.SearchResult) bool
	Offset   int
	Pager    Pager
}

// Render writes the table to w.
func (st SearchTable) Render(w io.Writer) {
	t := newWriter(w, SearchColumns, table.StyleRounded)
	t.Style().Options.SeparateRows = true

	for i, r := range st.Results {
		selected := st.Selected != nil && st.Selected(r)
		t.AppendRow(table.Row{
			checkbox(selected),
			strconv.Itoa(st.Offset + i + 1),
			r.Name,
			r.URL,
			Truncate(r.Snippet, SearchColumns[4].Width*2),
		})
	}

	t.AppendFooter(st.Pager.footer(SearchColumns))
	t.Render()
}

// ErrorInfo renders a backend-reported scrape failure as a two-column
// info table.
func ErrorInfo(w io.Writer, e domain.ScrapeError) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, WidthMax: 100},
	})
	t.AppendRow(table.Row{"Stage", e.Stage})
	t.AppendRow(table.Row{"Status", string(e.Status)})
	t.AppendRow(table.Row{"Traceback", e.Traceback})
	t.Render()
}

// Resources renders the artifacts of a scraped row.
func Resources(w io.Writer, resources []domain.Resource) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "Data Type", "Resource ID"})
	for i, r := range resources {
		t.AppendRow(table.Row{i + 1, r.DataType, r.ResourceID.String()})
	}
	t.Render()
}

// Properties renders key/value pairs in order, skipping empty values.
func Properties(w io.Writer, pairs [][2]string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 2, WidthMax: 100}})
	for _, p := range pairs {
		if p[1] == "" {
			continue
		}
		t.AppendRow(table.Row{p[0], p[1]})
	}
	t.Render()
}

// Metrics renders gathered metric samples.
func Metrics(w io.Writer, samples []metrics.Sample) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Metric", "Labels", "Value"})
	for _, s := range samples {
		t.AppendRow(table.Row{s.Name, s.Labels, strconv.FormatFloat(s.Value, 'g', 6, 64)})
	}
	t.Render()
}
