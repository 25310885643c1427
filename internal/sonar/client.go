// Package sonar retrieves issue records from the SonarCloud issue search API.
package sonar

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/huangsam/sonarissues/internal/contract"
	"github.com/huangsam/sonarissues/schema"
)

// SearchPath is the issue search endpoint relative to the base URL.
const SearchPath = "/api/issues/search"

// Client pages through the issue search API one request at a time.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	pageSize   int
	maxPages   int
	progress   io.Writer
}

var _ contract.IssueSource = &Client{} // Compile-time check

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the SonarCloud base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithPageSize sets the number of issues requested per page.
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithMaxPages caps the number of requests; 0 means unbounded.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.maxPages = n
		}
	}
}

// WithProgress redirects page progress lines; nil disables them.
func WithProgress(w io.Writer) Option {
	return func(c *Client) {
		c.progress = w
	}
}

// NewClient creates a search client with SonarCloud defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    contract.DefaultBaseURL,
		httpClient: http.DefaultClient,
		timeout:    contract.DefaultTimeout,
		pageSize:   schema.PageSize,
		progress:   os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig creates a search client from the validated configuration.
// Extra options are applied last.
func NewClientFromConfig(cfg *contract.Config, opts ...Option) *Client {
	base := []Option{
		WithBaseURL(cfg.BaseURL),
		WithTimeout(cfg.Timeout),
		WithPageSize(cfg.PageSize),
		WithMaxPages(cfg.MaxPages),
	}
	return NewClient(append(base, opts...)...)
}

// PageSize returns the configured page size.
func (c *Client) PageSize() int {
	return c.pageSize
}

// basicAuth builds the Authorization header value: the token is the user name
// and the password is empty.
func basicAuth(token string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(token+":"))
}

// logf writes a progress line unless progress output is disabled.
func (c *Client) logf(ctx context.Context, format string, args ...any) {
	if c.progress == nil || contract.ShouldSuppressHeader(ctx) {
		return
	}
	_, _ = fmt.Fprintf(c.progress, format, args...)
}
