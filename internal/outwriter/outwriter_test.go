package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/huangsam/sonarissues/internal/contract"
	"github.com/huangsam/sonarissues/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleIssues() []schema.Issue {
	line := 7
	return []schema.Issue{
		{
			Key: "AX-1", Type: "BUG", Severity: "BLOCKER", Status: "OPEN",
			FilePath: "src/a.py", Line: &line, Message: "Null dereference, really",
			Created: "2024-01-02T03:04:05+0000", Author: "dev@example.com", Rule: "S1234",
			ScopeLabel: "main", PRLabel: "N/A",
		},
		{
			Key: "AX-2", Type: "CODE_SMELL", Severity: "MINOR", Status: "CONFIRMED",
			FilePath: "docs/说明.md", Message: "Line\nbreak", Created: "2024-01-03T00:00:00+0000",
			Author: "N/A", Rule: "S100", ScopeLabel: "main", PRLabel: "N/A",
		},
	}
}

func sampleMeta() schema.ExportMetadata {
	return schema.ExportMetadata{
		Project:      "acme_web",
		Organization: "acme",
		Branch:       "main",
		PRNumber:     "N/A",
		ExportedAt:   "2024-05-01T10:00:00Z",
		Version:      "0.1.0",
		RunID:        "run-1",
	}
}

func TestCSVWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &CSVWriter{}
	require.NoError(t, w.Write(&buf, sampleIssues(), sampleMeta()))

	raw := buf.Bytes()
	require.True(t, bytes.HasPrefix(raw, utf8BOM), "CSV must start with a UTF-8 BOM")

	records, err := csv.NewReader(bytes.NewReader(raw[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, CSVHeader, records[0])
	assert.Equal(t, []string{
		"AX-1", "BUG", "BLOCKER", "OPEN", "src/a.py", "7",
		"Null dereference, really", "2024-01-02T03:04:05+0000", "dev@example.com", "S1234",
	}, records[1])
	assert.Equal(t, "", records[2][5], "missing line renders empty")
	assert.Equal(t, "Line\nbreak", records[2][6])
	assert.Equal(t, "docs/说明.md", records[2][4])
}

func TestCSVWriterScopeAware(t *testing.T) {
	issues := sampleIssues()
	issues[0].ScopeLabel = "ALL"
	issues[0].PRLabel = "42"
	meta := sampleMeta()
	meta.ScopeAware = true

	var buf bytes.Buffer
	require.NoError(t, (&CSVWriter{}).Write(&buf, issues, meta))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, ScopedCSVHeader, records[0])
	assert.Equal(t, []string{"ALL", "42"}, records[1][10:])
}

func TestJSONWriterRoundTrip(t *testing.T) {
	issues := sampleIssues()
	meta := sampleMeta()
	meta.ScopeAware = true
	meta.TotalIssues = 99 // recomputed by the writer

	var buf bytes.Buffer
	require.NoError(t, (&JSONWriter{}).Write(&buf, issues, meta))

	var doc schema.ExportDocument
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, len(issues), doc.Metadata.TotalIssues)
	assert.Equal(t, issues, doc.Issues)
	assert.Equal(t, "acme_web", doc.Metadata.Project)
	assert.Equal(t, "main", doc.Metadata.Branch)
	assert.Equal(t, "N/A", doc.Metadata.PRNumber)
	assert.Contains(t, buf.String(), "\n  \"metadata\"", "output is indented")
}

func TestJSONWriterNotScopeAware(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, (&JSONWriter{}).Write(&buf, nil, sampleMeta()))

	var generic map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &generic))
	var metadata map[string]any
	require.NoError(t, json.Unmarshal(generic["metadata"], &metadata))
	assert.NotContains(t, metadata, "branch")
	assert.NotContains(t, metadata, "pr_number")
	assert.Equal(t, float64(0), metadata["total_issues"])
	assert.Contains(t, buf.String(), `"issues": []`)
}

func TestWriterFormats(t *testing.T) {
	ow := NewOutWriter()
	for _, f := range schema.AllOutputFormats {
		w, ok := ow.Writer(f)
		require.True(t, ok, "writer for %s", f)
		assert.Equal(t, f, w.Format())
		assert.Equal(t, string(f), w.Extension())
	}
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ow := NewOutWriter()
	ow.SetLog(io.Discard)

	report := ow.WriteAll(schema.AllOutputFormats, sampleIssues(), sampleMeta(), dir, ts)
	require.True(t, report.Succeeded())
	assert.False(t, report.Partial())
	assert.NoError(t, report.Err())
	require.Len(t, report.Files, 3)

	for _, f := range report.Files {
		assert.Equal(t, dir, filepath.Dir(f.Path))
		assert.True(t, strings.HasPrefix(filepath.Base(f.Path), "sonarcloud_issues_20240501_100000."))
		info, err := os.Stat(f.Path)
		require.NoError(t, err)
		assert.Equal(t, info.Size(), f.Size)
	}
	assert.Equal(t, filepath.Join(dir, "sonarcloud_issues_20240501_100000.parquet"), report.Paths()[0])
}

func TestWriteAllOneFormatFails(t *testing.T) {
	dir := t.TempDir()
	ow := NewOutWriter()
	ow.SetLog(io.Discard)

	failing := &contract.MockFormatWriter{}
	failing.On("Format").Return(schema.CSVOut)
	failing.On("Extension").Return("csv")
	failing.On("Write", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))
	ow.Register(failing)

	formats := []schema.OutputFormat{schema.CSVOut, schema.JSONOut}
	report := ow.WriteAll(formats, sampleIssues(), sampleMeta(), dir, time.Now())

	assert.True(t, report.Succeeded(), "json still written")
	assert.True(t, report.Partial())
	require.Len(t, report.Files, 1)
	assert.Equal(t, schema.JSONOut, report.Files[0].Format)

	require.Len(t, report.Errors, 1)
	var exportErr *contract.ExportError
	require.True(t, errors.As(report.Errors[0], &exportErr))
	assert.Equal(t, schema.CSVOut, exportErr.Format)

	_, err := os.Stat(exportErr.Path)
	assert.True(t, os.IsNotExist(err), "partial file removed")
	failing.AssertExpectations(t)
}

func TestWriteAllUnwritableDirectory(t *testing.T) {
	ow := NewOutWriter()
	ow.SetLog(io.Discard)
	missing := filepath.Join(t.TempDir(), "does", "not", "exist")

	report := ow.WriteAll([]schema.OutputFormat{schema.CSVOut, schema.JSONOut}, sampleIssues(), sampleMeta(), missing, time.Now())
	assert.False(t, report.Succeeded())
	assert.Len(t, report.Errors, 2)
	assert.Error(t, report.Err())
}

func TestWriteAllUnknownFormat(t *testing.T) {
	ow := NewOutWriter()
	ow.SetLog(io.Discard)

	report := ow.WriteAll([]schema.OutputFormat{"xlsx", schema.JSONOut}, nil, sampleMeta(), t.TempDir(), time.Now())
	assert.True(t, report.Succeeded())
	assert.Len(t, report.Errors, 1)
}

func TestWriteIssueTable(t *testing.T) {
	cfg := &contract.Config{PreviewLimit: 1, Width: 120, ScopeColumns: true}
	var buf bytes.Buffer
	require.NoError(t, WriteIssueTable(&buf, sampleIssues(), cfg))

	out := buf.String()
	assert.Contains(t, out, "BLOCKER")
	assert.Contains(t, out, "src/a.py")
	assert.NotContains(t, out, "docs/")
	assert.Contains(t, out, "Showing 1 of 2 issues. BLOCKER=1 MINOR=1")
}

func TestCountBySeverity(t *testing.T) {
	counts := CountBySeverity(sampleIssues())
	assert.Equal(t, 1, counts[schema.BlockerSeverity])
	assert.Equal(t, 1, counts[schema.MinorSeverity])
	assert.Equal(t, 0, counts[schema.MajorSeverity])
}

func TestGetMaxTablePathWidth(t *testing.T) {
	assert.Equal(t, 15, GetMaxTablePathWidth(&contract.Config{Width: 40}))
	assert.Equal(t, 70, GetMaxTablePathWidth(&contract.Config{Width: 400}))
	assert.Equal(t, 50, GetMaxTablePathWidth(&contract.Config{Width: 160}))
}

func TestWriteRunsTable(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	runs := []schema.ExportRun{
		{RunID: "r1", Project: "acme_web", ScopeLabel: "main", PRLabel: "N/A", FetchedCount: 620, Pages: 2,
			Formats: []string{"csv"}, Outcome: schema.SuccessOutcome, StartTime: start, EndTime: start.Add(time.Second)},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteRunsTable(&buf, runs, false))
	assert.Contains(t, buf.String(), "acme_web")
	assert.Contains(t, buf.String(), "620")
	assert.Contains(t, buf.String(), "success")
	assert.Contains(t, buf.String(), "Showing 1 runs")
}

func TestWriteHistoryStatus(t *testing.T) {
	var buf bytes.Buffer
	status := schema.HistoryStatus{
		Backend: "sqlite", Connected: true, TotalRuns: 3, FailedRuns: 1, TotalIssues: 12345,
		LastRunID: "r3", LastRunTime: time.Now(), OldestRunTime: time.Now().Add(-time.Hour),
	}
	require.NoError(t, WriteHistoryStatus(&buf, status))
	assert.Contains(t, buf.String(), "sqlite")
	assert.Contains(t, buf.String(), "3 (1 failed)")
	assert.Contains(t, buf.String(), "12,345")
	assert.Contains(t, buf.String(), "r3")
}

func TestTroubleshootingMarkdown(t *testing.T) {
	sc := schema.Context{ProjectKey: "acme_web", Organization: "acme", Scope: schema.PullRequest("9")}
	md := TroubleshootingMarkdown("https://sonarcloud.io/", sc)
	assert.Contains(t, md, "User Token")
	assert.Contains(t, md, "`acme`")
	assert.Contains(t, md, "pull request #9")
	assert.Contains(t, md, "https://sonarcloud.io/api/issues/search?componentKeys=acme_web&organization=acme&ps=10")
}

func TestWriteTroubleshootingPlain(t *testing.T) {
	sc := schema.Context{ProjectKey: "p", Organization: "o"}
	var buf bytes.Buffer
	require.NoError(t, WriteTroubleshooting(&buf, "https://sonarcloud.io", sc, false))
	assert.Contains(t, buf.String(), "## No issues found")
}

func TestColorsEnabled(t *testing.T) {
	t.Setenv("TERM", "xterm")
	t.Setenv("NO_COLOR", "1")
	assert.False(t, ColorsEnabled())
}

func TestRenderMarkdownEmpty(t *testing.T) {
	out, err := RenderMarkdown("", true)
	require.NoError(t, err)
	assert.Empty(t, out)
}
