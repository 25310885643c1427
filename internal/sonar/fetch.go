package sonar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"

	"github.com/huangsam/sonarissues/internal/contract"
	"github.com/huangsam/sonarissues/schema"
)

// searchPage is one decoded page of the search response.
type searchPage struct {
	Total  *int `json:"total"`
	Paging struct {
		Total *int `json:"total"`
	} `json:"paging"`
	Issues []schema.RawIssue `json:"issues"`
}

// reportedTotal prefers paging.total and falls back to the legacy top-level total.
func (p *searchPage) reportedTotal() int {
	if p.Paging.Total != nil {
		return *p.Paging.Total
	}
	if p.Total != nil {
		return *p.Total
	}
	return 0
}

// FetchIssues implements contract.IssueSource. Pages are requested strictly in
// order until a page comes back empty or shorter than the page size. Any failure
// aborts the whole fetch and discards pages already received.
func (c *Client) FetchIssues(ctx context.Context, sc schema.Context, filter schema.Filter) (*contract.FetchResult, error) {
	if err := contract.ValidateContext(sc); err != nil {
		return nil, err
	}

	var issues []schema.RawIssue
	reportedTotal := 0
	page := 1
	for {
		if err := ctx.Err(); err != nil {
			return nil, &contract.FetchError{Kind: contract.CanceledError, Page: page, Err: err}
		}
		if c.maxPages > 0 && page > c.maxPages {
			return nil, &contract.FetchError{Kind: contract.PageLimitError, Page: page}
		}

		resp, err := c.fetchPage(ctx, sc, filter, page)
		if err != nil {
			return nil, err
		}

		if page == 1 {
			reportedTotal = resp.reportedTotal()
			if reportedTotal == 0 {
				c.logf(ctx, "⚠️  Server reported 0 matching issues, continuing with the first page\n")
			} else {
				c.logf(ctx, "🔎 Server reported %d matching issues\n", reportedTotal)
			}
		}

		issues = append(issues, resp.Issues...)
		c.logf(ctx, "📥 Loaded page %d: %d issues (total so far: %d)\n", page, len(resp.Issues), len(issues))

		if len(resp.Issues) == 0 || len(resp.Issues) < c.pageSize {
			return &contract.FetchResult{Issues: issues, ReportedTotal: reportedTotal, Pages: page}, nil
		}
		page++
	}
}

// SearchURL builds the request URL for one page.
func (c *Client) SearchURL(sc schema.Context, filter schema.Filter, page int) string {
	q := url.Values{}
	q.Set("componentKeys", sc.ProjectKey)
	q.Set("organization", sc.Organization)
	q.Set("ps", strconv.Itoa(c.pageSize))
	q.Set("p", strconv.Itoa(page))
	q.Set("statuses", filter.StatusParam())
	if sev := filter.SeverityParam(); sev != "" {
		q.Set("severities", sev)
	}
	if key, value, ok := sc.Scope.QueryParam(); ok {
		q.Set(key, value)
	}
	return c.baseURL + SearchPath + "?" + q.Encode()
}

// fetchPage issues a single search request and decodes the response.
func (c *Client) fetchPage(ctx context.Context, sc schema.Context, filter schema.Filter, page int) (*searchPage, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, c.SearchURL(sc, filter, page), nil)
	if err != nil {
		return nil, &contract.FetchError{Kind: contract.TransportError, Page: page, Err: err}
	}
	req.Header.Set("Authorization", basicAuth(sc.Token))
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(ctx, page, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransport(ctx, page, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &contract.FetchError{
			Kind:       contract.RemoteStatusError,
			Page:       page,
			StatusCode: resp.StatusCode,
			Body:       contract.Truncate(string(body), contract.MaxStatusBody),
			Err:        fmt.Errorf("unexpected status %s", resp.Status),
		}
	}

	result, err := decodePage(body)
	if err != nil {
		return nil, &contract.FetchError{
			Kind: contract.DecodeError,
			Page: page,
			Body: contract.Truncate(string(body), contract.MaxDecodeBody),
			Err:  err,
		}
	}
	return result, nil
}

// decodePage parses exactly one JSON object. A null body or trailing data is an
// error, otherwise the loop would take it for an empty last page.
func decodePage(body []byte) (*searchPage, error) {
	var result *searchPage
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&result); err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("response body is null")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after the response object")
	}
	return result, nil
}

// classifyTransport maps a failed round trip to a fetch error kind. A canceled
// parent context wins over the per-request deadline.
func classifyTransport(parent context.Context, page int, err error) error {
	if parent.Err() != nil {
		return &contract.FetchError{Kind: contract.CanceledError, Page: page, Err: err}
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &contract.FetchError{Kind: contract.TimeoutError, Page: page, Err: err}
	}
	return &contract.FetchError{Kind: contract.TransportError, Page: page, Err: err}
}
