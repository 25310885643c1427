package contract

import (
	"context"
	"io"

	"github.com/huangsam/sonarissues/schema"
	"github.com/stretchr/testify/mock"
)

// MockIssueSource is a mock implementation of IssueSource for testing.
type MockIssueSource struct {
	mock.Mock
}

var _ IssueSource = &MockIssueSource{} // Compile-time check

// FetchIssues implements the IssueSource interface.
func (m *MockIssueSource) FetchIssues(ctx context.Context, sc schema.Context, filter schema.Filter) (*FetchResult, error) {
	args := m.Called(ctx, sc, filter)
	res, _ := args.Get(0).(*FetchResult)
	return res, args.Error(1)
}

// MockHistoryManager is a mock implementation of HistoryManager for testing.
type MockHistoryManager struct {
	mock.Mock
}

var _ HistoryManager = &MockHistoryManager{} // Compile-time check

// GetHistoryStore implements the HistoryManager interface.
func (m *MockHistoryManager) GetHistoryStore() HistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(HistoryStore)
	return store
}

// MockHistoryStore is a mock implementation of HistoryStore for testing.
type MockHistoryStore struct {
	mock.Mock
}

var _ HistoryStore = &MockHistoryStore{} // Compile-time check

// RecordRun implements the HistoryStore interface.
func (m *MockHistoryStore) RecordRun(run schema.ExportRun) error {
	args := m.Called(run)
	return args.Error(0)
}

// ListRuns implements the HistoryStore interface.
func (m *MockHistoryStore) ListRuns(limit int) ([]schema.ExportRun, error) {
	args := m.Called(limit)
	runs, _ := args.Get(0).([]schema.ExportRun)
	return runs, args.Error(1)
}

// GetStatus implements the HistoryStore interface.
func (m *MockHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// Clear implements the HistoryStore interface.
func (m *MockHistoryStore) Clear() error {
	args := m.Called()
	return args.Error(0)
}

// Close implements the HistoryStore interface.
func (m *MockHistoryStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockFormatWriter is a mock implementation of FormatWriter for testing.
type MockFormatWriter struct {
	mock.Mock
}

var _ FormatWriter = &MockFormatWriter{} // Compile-time check

// Format implements the FormatWriter interface.
func (m *MockFormatWriter) Format() schema.OutputFormat {
	args := m.Called()
	return args.Get(0).(schema.OutputFormat)
}

// Extension implements the FormatWriter interface.
func (m *MockFormatWriter) Extension() string {
	args := m.Called()
	return args.String(0)
}

// Write implements the FormatWriter interface.
func (m *MockFormatWriter) Write(w io.Writer, issues []schema.Issue, meta schema.ExportMetadata) error {
	args := m.Called(w, issues, meta)
	return args.Error(0)
}
