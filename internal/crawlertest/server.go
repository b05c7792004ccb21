// Package crawlertest provides an in-memory crawler backend for tests. It
// serves the manifest, scrape, queue, search and file endpoints from gin
// behind an httptest.Server and records every request it receives.
package crawlertest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Row is a stored record in the backend's JSON shape.
type Row = map[string]any

// Request is one recorded call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

// JSON decodes the recorded body into a generic map.
func (r Request) JSON() map[string]any {
	out := map[string]any{}
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()
	_ = dec.Decode(&out)
	return out
}

// File is a downloadable asset.
type File struct {
	ContentType string
	Body        []byte
}

// ScrapeFunc turns a stored row into its scraped form.
type ScrapeFunc func(row Row) Row

// Server is a fake crawler backend.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	token    string
	rows     map[string][]Row
	web      []SearchResult
	files    map[string]File
	requests []Request
	failures map[string]int
	gates    map[string]*Gate
	scrape   ScrapeFunc
	now      func() time.Time
}

// SearchResult is a web search hit served by /crawler/web.
type SearchResult struct {
	Name    string `json:"name"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Option configures a Server.
type Option func(*Server)

// WithToken makes the server reject calls without this x-access-token.
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

// WithScrape replaces the default scrape behaviour.
func WithScrape(fn ScrapeFunc) Option {
	return func(s *Server) {
		s.scrape = fn
	}
}

// New starts a fake backend. Close it with Server.Close.
func New(opts ...Option) *Server {
	gin.SetMode(gin.TestMode)

	s := &Server{
		rows:     map[string][]Row{},
		files:    map[string]File{},
		failures: map[string]int{},
		gates:    map[string]*Gate{},
		now:      time.Now,
	}
	s.scrape = s.defaultScrape
	for _, opt := range opts {
		opt(s)
	}

	router := gin.New()
	router.Use(s.record(), s.authorize(), s.inject())

	crawler := router.Group("/crawler")
	crawler.GET("/manifest", s.handleManifest)
	crawler.POST("/add", s.handleAdd)
	crawler.POST("/remove", s.handleRemove)
	crawler.POST("/scrape", s.handleScrape)
	crawler.POST("/queue", s.handleQueue)
	crawler.POST("/bulk-queue", s.handleBulkQueue)
	crawler.GET("/web", s.handleWeb)
	router.GET("/assets/files", s.handleFile)

	s.Server = httptest.NewServer(router)
	return s
}

// Seed appends rows to a collection. Each row is a JSON object; numbers
// keep their literal form so numeric ids survive.
func (s *Server) Seed(collection string, rows ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, raw := range rows {
		row := Row{}
		dec := json.NewDecoder(strings.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&row); err != nil {
			panic(fmt.Sprintf("crawlertest: bad seed row %q: %v", raw, err))
		}
		s.rows[collection] = append(s.rows[collection], row)
	}
}

// SeedWeb appends results to the web search corpus.
func (s *Server) SeedWeb(results ...SearchResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.web = append(s.web, results...)
}

// AddFile registers a downloadable asset for a collection.
func (s *Server) AddFile(collection, name string, f File) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[collection+"/"+name] = f
}

// Fail makes every call to path answer with status. Zero clears it.
func (s *Server) Fail(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.failures, path)
		return
	}
	s.failures[path] = status
}

// Rows returns a copy of a collection's stored rows.
func (s *Server) Rows(collection string) []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Row, 0, len(s.rows[collection]))
	for _, r := range s.rows[collection] {
		out = append(out, cloneRow(r))
	}
	return out
}

// Requests returns the recorded calls, optionally only those to path.
func (s *Server) Requests(path string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Request
	for _, r := range s.requests {
		if path == "" || r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// CompleteQueued scrapes every queued row of a collection, the way the
// backend's workers eventually do.
func (s *Server) CompleteQueued(collection string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.rows[collection] {
		if truthy(row["queued"]) && !present(row["scraped_at"]) {
			s.rows[collection][i] = s.scrape(row)
		}
	}
}

// Update applies fn to the stored row with id.
func (s *Server) Update(collection, id string, fn func(Row)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.rows[collection] {
		if idOf(row) == id {
			fn(row)
			return true
		}
	}
	return false
}

func (s *Server) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: c.Request.Method,
			Path:   c.Request.URL.Path,
			Query:  c.Request.URL.Query(),
			Header: c.Request.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()
		c.Next()
	}
}

func (s *Server) authorize() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.token != "" && c.GetHeader("x-access-token") != s.token {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid access token"})
			return
		}
		c.Next()
	}
}

func (s *Server) inject() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		s.mu.Lock()
		gate := s.gates[path]
		status := s.failures[path]
		s.mu.Unlock()

		if gate != nil {
			gate.wait(c.Request.Context())
		}
		if status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"error": fmt.Sprintf("injected failure on %s", path)})
			return
		}
		c.Next()
	}
}

func (s *Server) handleManifest(c *gin.Context) {
	collection := c.Query("id")
	query := strings.ToLower(c.Query("query"))
	limit, offset := paging(c)

	s.mu.Lock()
	var matches []Row
	for _, row := range s.rows[collection] {
		if query == "" ||
			strings.Contains(strings.ToLower(fmt.Sprint(row["url"])), query) ||
			strings.Contains(strings.ToLower(fmt.Sprint(row["title"])), query) {
			matches = append(matches, cloneRow(row))
		}
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"results": window(matches, offset, limit), "total": len(matches)})
}

func (s *Server) handleWeb(c *gin.Context) {
	query := strings.ToLower(c.Query("query"))
	limit, offset := paging(c)

	s.mu.Lock()
	var matches []SearchResult
	for _, r := range s.web {
		text := strings.ToLower(r.Name + " " + r.URL + " " + r.Snippet)
		if query == "" || strings.Contains(text, query) {
			matches = append(matches, r)
		}
	}
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"results": window(matches, offset, limit), "total": len(matches)})
}

func (s *Server) handleAdd(c *gin.Context) {
	var req struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	row := Row{
		"id":           uuid.NewString(),
		"url":          req.URL,
		"title":        nil,
		"content_type": nil,
		"created_at":   s.now().UTC().Format("2006-01-02 15:04:05"),
		"scraped_at":   nil,
		"queued":       0,
		"website_data": nil,
		"errors":       nil,
	}

	s.mu.Lock()
	s.rows[req.ID] = append([]Row{row}, s.rows[req.ID]...)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"result": row})
}

func (s *Server) handleRemove(c *gin.Context) {
	var req struct {
		ID    string          `json:"id"`
		RowID json.RawMessage `json:"row_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rowID := rawID(req.RowID)

	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.rows[req.ID]
	for i, row := range rows {
		if idOf(row) == rowID {
			s.rows[req.ID] = append(rows[:i:i], rows[i+1:]...)
			c.JSON(http.StatusOK, gin.H{"response": "success"})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "row not found"})
}

func (s *Server) handleScrape(c *gin.Context) {
	collection, item, ok := s.bindItem(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, row := range s.rows[collection] {
		if idOf(row) == idOf(item) {
			s.rows[collection][i] = s.scrape(row)
			c.JSON(http.StatusOK, gin.H{"result": cloneRow(s.rows[collection][i])})
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "row not found"})
}

func (s *Server) handleQueue(c *gin.Context) {
	collection, item, ok := s.bindItem(c)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.markQueued(collection, idOf(item)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "row not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": "queued"})
}

func (s *Server) handleBulkQueue(c *gin.Context) {
	var req struct {
		ID    string `json:"id"`
		Items []Row  `json:"items"`
	}
	if err := bindNumbers(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range req.Items {
		s.markQueued(req.ID, idOf(item))
	}
	c.JSON(http.StatusOK, gin.H{"response": "queued", "count": len(req.Items)})
}

func (s *Server) handleFile(c *gin.Context) {
	s.mu.Lock()
	f, ok := s.files[c.Query("id")+"/"+c.Query("name")]
	s.mu.Unlock()

	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.Data(http.StatusOK, f.ContentType, f.Body)
}

func (s *Server) bindItem(c *gin.Context) (string, Row, bool) {
	var req struct {
		ID   string `json:"id"`
		Item Row    `json:"item"`
	}
	if err := bindNumbers(c, &req); err != nil || req.Item == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "item is required"})
		return "", nil, false
	}
	return req.ID, req.Item, true
}

// markQueued must be called with s.mu held.
func (s *Server) markQueued(collection, id string) bool {
	for _, row := range s.rows[collection] {
		if idOf(row) == id {
			row["queued"] = 1
			row["errors"] = nil
			return true
		}
	}
	return false
}

func (s *Server) defaultScrape(row Row) Row {
	out := cloneRow(row)
	resource, _ := json.Marshal([]map[string]string{
		{"data_type": "data", "resource_id": "res-" + idOf(row)},
	})
	out["scraped_at"] = s.now().UTC().Format("2006-01-02 15:04:05")
	out["content_type"] = "text/html"
	out["website_data"] = string(resource)
	out["errors"] = nil
	if !present(out["title"]) {
		out["title"] = "Scraped " + fmt.Sprint(row["url"])
	}
	return out
}

func bindNumbers(c *gin.Context, dst any) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	return dec.Decode(dst)
}

func paging(c *gin.Context) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 {
		limit = 20
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func window[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func idOf(row Row) string {
	if row == nil {
		return ""
	}
	switch v := row["id"].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func rawID(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case json.Number:
		return t.String() != "0"
	case int:
		return t != 0
	case float64:
		return t != 0
	case string:
		return t != "" && t != "0" && t != "false"
	default:
		return false
	}
}

func present(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}

func cloneRow(row Row) Row {
	out := make(Row, len(row))
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out[k] = row[k]
	}
	return out
}
