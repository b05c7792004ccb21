package preview

import (
	"bytes"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// maxTextRunes bounds the visible text kept for display.
const maxTextRunes = 2000

// Metadata is what a scraped HTML page says about itself.
type Metadata struct {
	Title       string
	Description string
	Author      string
	Image       string
	Favicon     string
	// Text is every visible text node of the body.
	Text string
	// Article is the main content as a readability pass sees it; empty
	// when the page has nothing article-like.
	Article string
}

// Extract parses an HTML document. Relative favicon links are resolved
// against pageURL.
func Extract(r io.Reader, pageURL string) (Metadata, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Metadata{}, fmt.Errorf("read html: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return Metadata{}, fmt.Errorf("parse html: %w", err)
	}

	md := Metadata{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Description: firstContent(doc,
			"meta[property='og:description']",
			"meta[name='description']",
		),
		Author: firstContent(doc,
			"meta[property='og:author']",
			"meta[name='author']",
		),
		Image: firstContent(doc,
			"meta[property='og:image']",
			"meta[name='twitter:image']",
		),
		Favicon: favicon(doc, pageURL),
	}

	doc.Find("script, style, noscript, template").Remove()
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	md.Text = truncateRunes(strings.Join(strings.Fields(body.Text()), " "), maxTextRunes)
	md.Article = articleText(raw, pageURL)
	return md, nil
}

func articleText(raw []byte, pageURL string) string {
	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return ""
	}
	article, err := readability.FromReader(bytes.NewReader(raw), parsedURL)
	if err != nil {
		return ""
	}
	return truncateRunes(strings.Join(strings.Fields(article.TextContent), " "), maxTextRunes)
}

func firstContent(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		var found string
		doc.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if content, ok := s.Attr("content"); ok && strings.TrimSpace(content) != "" {
				found = strings.TrimSpace(content)
				return false
			}
			return true
		})
		if found != "" {
			return found
		}
	}
	return ""
}

func favicon(doc *goquery.Document, pageURL string) string {
	var href string
	doc.Find("link[rel][href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		switch strings.ToLower(strings.TrimSpace(rel)) {
		case "icon", "shortcut icon":
			href, _ = s.Attr("href")
			return false
		}
		return true
	})
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
