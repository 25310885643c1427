// Package core has the export pipeline: fetch, normalize and fan out to writers.
package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/sonarissues/internal/contract"
	"github.com/huangsam/sonarissues/internal/outwriter"
	"github.com/huangsam/sonarissues/schema"
)

// DefaultVersion is stamped into export metadata when no build version is set.
const DefaultVersion = "0.1.0"

// ErrNoIssues means the fetch succeeded but matched nothing. It is not a failure
// of the process; callers print guidance and return to idle.
var ErrNoIssues = errors.New("no issues matched the export filters")

// IssueExporter writes canonical issues in every requested format.
type IssueExporter interface {
	WriteAll(formats []schema.OutputFormat, issues []schema.Issue, meta schema.ExportMetadata, dir string, ts time.Time) outwriter.ExportReport
}

var _ IssueExporter = &outwriter.OutWriter{} // Compile-time check

// Canonical is a fetched and normalized issue set with its export metadata.
type Canonical struct {
	RunID     string
	StartTime time.Time
	Issues    []schema.Issue
	Metadata  schema.ExportMetadata
	Pages     int
}

// ExportOutcome is the result of a full export.
type ExportOutcome struct {
	*Canonical
	Report outwriter.ExportReport
}

// BuildMetadata describes an export of count issues for the configured scope.
func BuildMetadata(cfg *contract.Config, count, reportedTotal int, runID string, at time.Time) schema.ExportMetadata {
	version := cfg.Version
	if version == "" {
		version = DefaultVersion
	}
	meta := schema.ExportMetadata{
		Project:       cfg.ProjectKey,
		Organization:  cfg.Organization,
		ExportedAt:    at.Format(contract.DateTimeFormat),
		TotalIssues:   count,
		Version:       version,
		RunID:         runID,
		ReportedTotal: reportedTotal,
		ScopeAware:    cfg.ScopeColumns,
	}
	if cfg.ScopeColumns {
		meta.Branch = cfg.Scope.Label()
		meta.PRNumber = cfg.Scope.PRLabel()
	}
	for _, s := range cfg.Filter.Severities() {
		meta.Severities = append(meta.Severities, string(s))
	}
	for _, s := range cfg.Filter.Statuses() {
		meta.Statuses = append(meta.Statuses, string(s))
	}
	return meta
}

// FetchCanonical fetches every page for the configured context and normalizes
// the records. Returns ErrNoIssues together with the (empty) result when nothing matched.
func FetchCanonical(ctx context.Context, cfg *contract.Config, source contract.IssueSource) (*Canonical, error) {
	start := time.Now()
	runID, ok := getRunID(ctx)
	if !ok {
		runID = uuid.NewString()
	}

	sc := cfg.SonarContext()
	if !shouldSuppressHeader(ctx) {
		logExportHeader(cfg)
	}

	res, err := source.FetchIssues(ctx, sc, cfg.Filter)
	if err != nil {
		return nil, fmt.Errorf("fetching issues for %s: %w", sc.ProjectKey, err)
	}

	issues := NormalizeIssues(res.Issues, sc.Scope)
	canonical := &Canonical{
		RunID:     runID,
		StartTime: start,
		Issues:    issues,
		Metadata:  BuildMetadata(cfg, len(issues), res.ReportedTotal, runID, start),
		Pages:     res.Pages,
	}
	if len(issues) == 0 {
		return canonical, ErrNoIssues
	}
	return canonical, nil
}

// ExecuteExport runs the whole pipeline: fetch, normalize, optional preview,
// write every configured format and record the run in history.
func ExecuteExport(ctx context.Context, cfg *contract.Config, source contract.IssueSource, mgr contract.HistoryManager, exporter IssueExporter) (*ExportOutcome, error) {
	if len(cfg.Formats) == 0 {
		return nil, &contract.ConfigurationError{Field: "formats", Message: "select at least one of parquet, csv, json"}
	}
	if !hasRunID(ctx) {
		ctx = withRunID(ctx, uuid.NewString())
	}

	canonical, err := FetchCanonical(ctx, cfg, source)
	if err != nil {
		RecordUnwritten(ctx, cfg, canonical, mgr, err)
		if errors.Is(err, ErrNoIssues) {
			if !shouldSuppressHeader(ctx) {
				if werr := outwriter.WriteTroubleshooting(os.Stderr, cfg.BaseURL, cfg.SonarContext(), cfg.UseColors); werr != nil {
					contract.LogWarn("Troubleshooting guide rendering failed", werr)
				}
			}
			return &ExportOutcome{Canonical: canonical}, err
		}
		return nil, err
	}

	return WriteExport(ctx, cfg, canonical, mgr, exporter)
}

// WriteExport writes an already fetched issue set in every configured format and
// records the run. It fails only when no format could be written.
func WriteExport(ctx context.Context, cfg *contract.Config, canonical *Canonical, mgr contract.HistoryManager, exporter IssueExporter) (*ExportOutcome, error) {
	if len(cfg.Formats) == 0 {
		return nil, &contract.ConfigurationError{Field: "formats", Message: "select at least one of parquet, csv, json"}
	}

	if cfg.Preview && !shouldSuppressHeader(ctx) {
		if err := outwriter.WriteIssueTable(os.Stdout, canonical.Issues, cfg); err != nil {
			contract.LogWarn("Preview rendering failed", err)
		}
	}

	report := exporter.WriteAll(cfg.Formats, canonical.Issues, canonical.Metadata, cfg.OutputDir, canonical.StartTime)
	outcome := &ExportOutcome{Canonical: canonical, Report: report}

	switch {
	case !report.Succeeded():
		err := fmt.Errorf("all export formats failed: %w", report.Err())
		recordRun(mgr, newRunRecord(cfg, canonical, &report, schema.FailedOutcome, err))
		return outcome, err
	case report.Partial():
		recordRun(mgr, newRunRecord(cfg, canonical, &report, schema.PartialOutcome, report.Err()))
	default:
		recordRun(mgr, newRunRecord(cfg, canonical, &report, schema.SuccessOutcome, nil))
	}

	if !shouldSuppressHeader(ctx) {
		fmt.Fprintf(os.Stderr, "✅ Exported %d issues to %d file(s) in %v\n",
			len(canonical.Issues), len(report.Files), time.Since(canonical.StartTime).Round(time.Millisecond))
	}
	return outcome, nil
}

// RecordUnwritten records a run that ended before any file was written. An empty
// result counts as a success; any other error as a failure. canonical may be nil
// when the fetch itself failed.
func RecordUnwritten(ctx context.Context, cfg *contract.Config, canonical *Canonical, mgr contract.HistoryManager, err error) {
	if errors.Is(err, ErrNoIssues) && canonical != nil {
		recordRun(mgr, newRunRecord(cfg, canonical, nil, schema.SuccessOutcome, nil))
		return
	}
	if canonical == nil {
		runID, ok := getRunID(ctx)
		if !ok {
			runID = uuid.NewString()
		}
		now := time.Now()
		canonical = &Canonical{RunID: runID, StartTime: now, Metadata: BuildMetadata(cfg, 0, 0, runID, now)}
	}
	recordRun(mgr, newRunRecord(cfg, canonical, nil, schema.FailedOutcome, err))
}

// newRunRecord builds the history row for a finished export.
func newRunRecord(cfg *contract.Config, c *Canonical, report *outwriter.ExportReport, outcome schema.RunOutcome, err error) schema.ExportRun {
	run := schema.ExportRun{
		RunID:         c.RunID,
		Project:       cfg.ProjectKey,
		Organization:  cfg.Organization,
		ScopeLabel:    cfg.Scope.Label(),
		PRLabel:       cfg.Scope.PRLabel(),
		Severities:    cfg.Filter.SeverityParam(),
		Statuses:      cfg.Filter.StatusParam(),
		ReportedTotal: c.Metadata.ReportedTotal,
		FetchedCount:  len(c.Issues),
		Pages:         c.Pages,
		Outcome:       outcome,
		StartTime:     c.StartTime,
		EndTime:       time.Now(),
	}
	for _, f := range cfg.Formats {
		run.Formats = append(run.Formats, string(f))
	}
	if report != nil {
		run.Files = report.Paths()
	}
	if err != nil {
		run.ErrorMessage = err.Error()
	}
	return run
}

// recordRun stores the run when history is enabled. Failures only warn.
func recordRun(mgr contract.HistoryManager, run schema.ExportRun) {
	if mgr == nil {
		return
	}
	store := mgr.GetHistoryStore()
	if store == nil {
		return
	}
	if err := store.RecordRun(run); err != nil {
		contract.LogWarn("Export history recording failed", err)
	}
}

// logExportHeader prints what is about to be fetched.
func logExportHeader(cfg *contract.Config) {
	filters := "statuses=" + cfg.Filter.StatusParam()
	if sev := cfg.Filter.SeverityParam(); sev != "" {
		filters += " severities=" + sev
	}
	fmt.Fprintf(os.Stderr, "🔍 Exporting %s/%s, %s (%s)\n",
		cfg.Organization, cfg.ProjectKey, cfg.Scope, strings.TrimSpace(filters))
}
