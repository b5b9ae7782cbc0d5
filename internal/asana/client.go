package asana

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the Asana REST API root.
const DefaultBaseURL = "https://app.asana.com/api/1.0/"

// Client issues authenticated GET requests against the Asana API.
// It holds the session credential and is not mutated after NewClient.
type Client struct {
	baseURL    string
	token      string
	pageSize   int
	httpClient *http.Client
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets a per-request timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithPageSize enables pagination on list endpoints. Zero disables it.
func WithPageSize(n int) Option {
	return func(c *Client) { c.pageSize = n }
}

// WithLogger sets the logger used for request tracing and transport errors.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for baseURL authenticated with token.
func NewClient(baseURL, token string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	c := &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{},
		logger:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get fetches path (relative to the base URL, query included) and returns
// the parsed response body. The HTTP status is not inspected: an error
// page surfaces as a ParseError or a ShapeError further down.
func (c *Client) Get(ctx context.Context, path string) (gjson.Result, error) {
	c.logger.Debug("asana request", "path", path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("create request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("asana transport error", "path", path, "error", err)
		return gjson.Result{}, fmt.Errorf("get %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("asana transport error", "path", path, "error", err)
		return gjson.Result{}, fmt.Errorf("read %s: %w", path, err)
	}
	c.logger.Debug("asana response", "path", path, "status", resp.StatusCode, "bytes", len(body))

	if !gjson.ValidBytes(body) {
		return gjson.Result{}, &ParseError{Path: path, StatusCode: resp.StatusCode, Body: snippet(body)}
	}
	return gjson.ParseBytes(body), nil
}

// data fetches path and returns the "data" member of the envelope.
func (c *Client) data(ctx context.Context, path string) (gjson.Result, error) {
	body, err := c.Get(ctx, path)
	if err != nil {
		return gjson.Result{}, err
	}
	return field(body, path, "data")
}

// list fetches a collection endpoint. With a page size set it follows
// next_page.offset until the API reports no further pages.
func (c *Client) list(ctx context.Context, path string) ([]gjson.Result, error) {
	var items []gjson.Result
	offset := ""
	for {
		p := path
		if c.pageSize > 0 {
			p = withQuery(p, "limit", strconv.Itoa(c.pageSize))
			if offset != "" {
				p = withQuery(p, "offset", offset)
			}
		}

		body, err := c.Get(ctx, p)
		if err != nil {
			return nil, err
		}
		data, err := field(body, p, "data")
		if err != nil {
			return nil, err
		}
		if !data.IsArray() {
			return nil, &ShapeError{Path: p, Key: "data", Reason: "expected an array"}
		}
		items = append(items, data.Array()...)

		if c.pageSize <= 0 {
			return items, nil
		}
		next := body.Get("next_page.offset")
		if !next.Exists() || next.Type == gjson.Null || next.String() == "" {
			return items, nil
		}
		offset = next.String()
	}
}

func withQuery(path, key, value string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + key + "=" + url.QueryEscape(value)
}

func snippet(body []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(body))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
