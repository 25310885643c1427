// Package contract provides interfaces and shared utilities for the internal architecture.
package contract

import (
	"context"
	"io"

	"github.com/huangsam/sonarissues/schema"
)

// IssueSource retrieves the complete raw issue set for a context and filter.
// This allows the pipeline to be tested without a live SonarCloud endpoint.
type IssueSource interface {
	// FetchIssues pages through the search endpoint until exhaustion.
	// It returns either every page or an error, never a prefix of pages.
	FetchIssues(ctx context.Context, sc schema.Context, filter schema.Filter) (*FetchResult, error)
}

// FetchResult is the outcome of a complete paginated fetch.
type FetchResult struct {
	Issues        []schema.RawIssue
	ReportedTotal int // server-reported total from the first page, diagnostics only
	Pages         int // number of requests issued
}

// HistoryManager defines the interface for accessing the history store.
// This allows the persistence layer to be mocked for testing.
type HistoryManager interface {
	GetHistoryStore() HistoryStore
}

// HistoryStore defines the interface for recording export runs.
type HistoryStore interface {
	// RecordRun stores a finished export run
	RecordRun(run schema.ExportRun) error

	// ListRuns returns the most recent runs first, at most limit rows (0 = all)
	ListRuns(limit int) ([]schema.ExportRun, error)

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// Clear removes every recorded run
	Clear() error

	// Close closes the underlying connection
	Close() error
}

// FormatWriter serializes canonical issues into one export format.
type FormatWriter interface {
	Format() schema.OutputFormat
	Extension() string
	Write(w io.Writer, issues []schema.Issue, meta schema.ExportMetadata) error
}
