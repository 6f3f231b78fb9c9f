package granola

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/starford/granola-sync/internal/apperr"
	"github.com/starford/granola-sync/internal/models"
)

const (
	DefaultBaseURL   = "https://api.granola.ai"
	defaultUserAgent = "granola-sync/1.0"
)

// Client fetches documents from the Granola API.
type Client struct {
	base      *http.Client
	baseURL   string
	userAgent string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets the underlying transport client, e.g. for tests.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.base = hc }
}

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.base.Timeout = d
		}
	}
}

// NewClient creates a client for baseURL; empty means DefaultBaseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		base:      &http.Client{Timeout: 30 * time.Second},
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: defaultUserAgent,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type documentsRequest struct {
	Limit                  int  `json:"limit"`
	Offset                 int  `json:"offset"`
	IncludeLastViewedPanel bool `json:"include_last_viewed_panel"`
}

type documentsResponse struct {
	Docs []json.RawMessage `json:"docs"`
}

// FetchDocuments returns up to limit of the most recent documents. Every
// failure wraps apperr.ErrFetch.
func (c *Client) FetchDocuments(ctx context.Context, token string, limit int) ([]models.Document, error) {
	body, err := json.Marshal(documentsRequest{Limit: limit, IncludeLastViewedPanel: true})
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", apperr.ErrFetch, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/get-documents", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", apperr.ErrFetch, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.authorized(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrFetch, err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", apperr.ErrFetch, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", apperr.ErrFetch, resp.StatusCode, truncate(respBytes, 200))
	}

	var out documentsResponse
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", apperr.ErrFetch, err)
	}
	if out.Docs == nil {
		return nil, fmt.Errorf("%w: response has no docs array", apperr.ErrFetch)
	}

	docs := make([]models.Document, 0, len(out.Docs))
	for _, raw := range out.Docs {
		doc, err := models.ParseDocument(raw)
		if err != nil {
			// Non-object entries carry nothing usable.
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// authorized wraps the base client so every request carries the bearer token.
func (c *Client) authorized(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.base)
	hc := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}))
	hc.Timeout = c.base.Timeout
	return hc
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
