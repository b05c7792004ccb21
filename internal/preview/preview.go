// Package preview shows what a scrape produced: the extracted resources,
// the main data file and, for HTML, the page's own metadata.
package preview

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/action"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/client"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/domain"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/logger"
	"github.com/jonesrussell/north-cloud/crawler-console/internal/metrics"
)

// ActionDownload names downloads in logs and metrics.
const ActionDownload = "download"

// Downloader fetches stored assets.
type Downloader interface {
	DownloadFile(ctx context.Context, collectionID string, name domain.ID, w io.Writer) (client.File, error)
}

// Preview is the scrape pane content of one row.
type Preview struct {
	Website   domain.Website
	Scraped   domain.Scraped
	Main      domain.Resource
	HasMain   bool
	File      client.File
	Ext       string
	Metadata  *Metadata
	Body      []byte
	ScrapedAt string
}

// Loader builds previews for a collection.
type Loader struct {
	dl           Downloader
	collectionID string
	tracker      *action.Tracker
	log          logger.Logger
}

// NewLoader returns a loader downloading from dl.
func NewLoader(dl Downloader, collectionID string, log logger.Logger, m *metrics.Metrics) *Loader {
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With(logger.String("view", "preview"))
	return &Loader{
		dl:           dl,
		collectionID: collectionID,
		tracker:      action.NewTracker(log, m),
		log:          log,
	}
}

// Load downloads the row's main data resource and extracts HTML metadata
// from it. A scraped row without a data resource yields a preview with
// only its resource list.
func (l *Loader) Load(ctx context.Context, w domain.Website) (Preview, error) {
	scraped, ok := w.Status.(domain.Scraped)
	if !ok {
		return Preview{}, fmt.Errorf("%s: %w", w.ID(), domain.ErrNotScraped)
	}

	p := Preview{
		Website:   w,
		Scraped:   scraped,
		ScrapedAt: w.Record.ScrapedAt.Raw(),
	}
	p.Main, p.HasMain = scraped.MainResource()
	if !p.HasMain {
		return p, nil
	}

	var buf bytes.Buffer
	file, err := l.Download(ctx, w, &buf)
	if err != nil {
		return p, err
	}
	p.File = file
	p.Body = buf.Bytes()
	p.Ext = extension(file.ContentType, w.Record.ContentType)
	if p.File.ContentType == "" && p.Ext != "" {
		p.File.ContentType = domain.MimetypeForExt(p.Ext)
	}

	if p.Ext == "html" || p.Ext == "ahtml" {
		md, mdErr := Extract(bytes.NewReader(p.Body), w.URL())
		if mdErr != nil {
			l.log.Warn("Metadata extraction failed",
				logger.String("row_id", w.ID().String()),
				logger.Error(mdErr),
			)
		} else {
			p.Metadata = &md
		}
	}
	return p, nil
}

// Download streams the main data resource of a scraped row into dst.
func (l *Loader) Download(ctx context.Context, w domain.Website, dst io.Writer) (client.File, error) {
	scraped, ok := w.Status.(domain.Scraped)
	if !ok {
		return client.File{}, fmt.Errorf("%s: %w", w.ID(), domain.ErrNotScraped)
	}
	main, ok := scraped.MainResource()
	if !ok {
		return client.File{}, fmt.Errorf("%s: no data resource: %w", w.ID(), domain.ErrNotScraped)
	}

	return action.Run(ctx, l.tracker, action.Spec[client.File]{
		Name: ActionDownload,
		Key:  w.ID().String(),
		Call: func(ctx context.Context) (client.File, error) {
			return l.dl.DownloadFile(ctx, l.collectionID, main.ResourceID, dst)
		},
	})
}

// DownloadState returns the state of the latest download of a row.
func (l *Loader) DownloadState(id domain.ID) action.LoadState {
	return l.tracker.State(ActionDownload, id.String())
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName suggests a local name for a downloaded resource.
func FileName(w domain.Website, file client.File) string {
	base := w.Record.Title
	if base == "" {
		base = path.Base(strings.TrimSuffix(w.URL(), "/"))
	}
	base = strings.Trim(unsafeName.ReplaceAllString(base, "_"), "_.")
	if base == "" {
		base = "resource-" + w.ID().String()
	}
	if len(base) > 80 {
		base = base[:80]
	}
	if ext := extension(file.ContentType, w.Record.ContentType); ext != "" {
		return base + "." + ext
	}
	return base
}

func extension(served, recorded string) string {
	if ext := domain.ExtForMimetype(recorded); ext != "" && ext != "octet-stream" {
		return ext
	}
	return domain.ExtForMimetype(served)
}
