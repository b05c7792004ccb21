// Package client talks to the crawler backend: the website manifest,
// scrape and queue endpoints, web search and file downloads.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonesrussell/north-cloud/crawler-console/internal/logger"
)

const (
	// DefaultBaseURL is the backend address used when none is configured.
	DefaultBaseURL = "http://localhost:5000"
	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// HeaderAccessToken carries the credential on every call.
	HeaderAccessToken = "x-access-token"
	// HeaderRequestID correlates client and backend logs.
	HeaderRequestID = "X-Request-ID"
)

// Client is an HTTP client for the crawler backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	log        logger.Logger
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithBaseURL sets the backend base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout sets the timeout for API requests.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithTokenSource sets where access tokens come from.
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithToken sends a pre-issued token.
func WithToken(token string) Option {
	return WithTokenSource(StaticToken(token))
}

// WithJWTSecret signs service tokens for subject.
func WithJWTSecret(secret, subject string) Option {
	return WithTokenSource(NewJWTSource(secret, subject, DefaultTokenTTL))
}

// WithLogger sets the logger used for request tracing.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		c.log = log
	}
}

// New creates a crawler backend client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: newHTTPClient(DefaultTimeout),
		log:        logger.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured backend address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type requestIDKey struct{}

// WithRequestID attaches a request id that the next call sends as
// X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id attached by WithRequestID, or a new one.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(HeaderRequestID, RequestID(ctx))

	if c.tokens != nil {
		token, tokenErr := c.tokens.Token(ctx)
		if tokenErr != nil {
			return nil, fmt.Errorf("access token: %w", tokenErr)
		}
		req.Header.Set(HeaderAccessToken, token)
	}
	return req, nil
}

// send performs req and returns the response when it is 2xx. The caller
// closes the body.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	log := c.log
	if l, ok := logger.Lookup(req.Context()); ok {
		log = l
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:gosec // URL from config
	if err != nil {
		log.Debug("Request failed",
			logger.String("method", req.Method),
			logger.String("path", req.URL.Path),
			logger.String("request_id", req.Header.Get(HeaderRequestID)),
			logger.Error(err),
		)
		return nil, &TransportError{Method: req.Method, URL: req.URL.Redacted(), Err: err}
	}

	log.Debug("Request completed",
		logger.String("method", req.Method),
		logger.String("path", req.URL.Path),
		logger.String("request_id", req.Header.Get(HeaderRequestID)),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		defer resp.Body.Close()
		return nil, parseHTTPError(req, resp)
	}
	return resp, nil
}

// doJSON sends a request and decodes a 2xx JSON body into result. A nil
// result discards the body.
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, result any) error {
	req, err := c.newRequest(ctx, method, path, query, body)
	if err != nil {
		return err
	}

	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if result == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if decodeErr := json.NewDecoder(resp.Body).Decode(result); decodeErr != nil {
		return fmt.Errorf("decode %s response: %w", path, decodeErr)
	}
	return nil
}
