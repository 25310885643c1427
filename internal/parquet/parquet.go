// Package parquet provides data structures and functions for exporting SonarCloud
// issues and export history to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/huangsam/sonarissues/schema"
	"github.com/parquet-go/parquet-go"
)

// ErrMissingColumn is returned when a row schema lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// IssueColumns is the required column order of the issue table.
var IssueColumns = []string{
	"issue_key",
	"type",
	"severity",
	"status",
	"file_path",
	"line",
	"message",
	"created",
	"author",
	"rule",
}

// ScopedIssueColumns extends IssueColumns with the scope provenance columns.
var ScopedIssueColumns = append(append([]string(nil), IssueColumns...), "branch", "pr_number")

// IssueRow represents one canonical issue in the issue table.
type IssueRow struct {
	IssueKey string `parquet:"issue_key,snappy"`
	Type     string `parquet:"type,snappy"`
	Severity string `parquet:"severity,snappy"`
	Status   string `parquet:"status,snappy"`
	FilePath string `parquet:"file_path,snappy"`

	// Line is null when the issue is file-level
	Line *int64 `parquet:"line,optional,snappy"`

	Message string `parquet:"message,snappy"`
	Created string `parquet:"created,snappy"`
	Author  string `parquet:"author,snappy"`
	Rule    string `parquet:"rule,snappy"`
}

// ScopedIssueRow is IssueRow plus the branch and pull request provenance columns.
type ScopedIssueRow struct {
	IssueKey string `parquet:"issue_key,snappy"`
	Type     string `parquet:"type,snappy"`
	Severity string `parquet:"severity,snappy"`
	Status   string `parquet:"status,snappy"`
	FilePath string `parquet:"file_path,snappy"`
	Line     *int64 `parquet:"line,optional,snappy"`
	Message  string `parquet:"message,snappy"`
	Created  string `parquet:"created,snappy"`
	Author   string `parquet:"author,snappy"`
	Rule     string `parquet:"rule,snappy"`
	Branch   string `parquet:"branch,snappy"`
	PRNumber string `parquet:"pr_number,snappy"`
}

// ExportRun represents a single recorded export run.
// This struct maps to the sonarissues_export_runs database table.
type ExportRun struct {
	RunID        string `parquet:"run_id,snappy"`
	Project      string `parquet:"project,snappy"`
	Organization string `parquet:"organization,snappy"`
	ScopeLabel   string `parquet:"scope_label,snappy"`
	PRLabel      string `parquet:"pr_label,snappy"`
	Severities   string `parquet:"severities,snappy"`
	Statuses     string `parquet:"statuses,snappy"`

	// ReportedTotal is the total announced by the server on the first page
	ReportedTotal int32 `parquet:"reported_total,snappy"`

	FetchedCount int32  `parquet:"fetched_count,snappy"`
	Pages        int32  `parquet:"pages,snappy"`
	Formats      string `parquet:"formats,snappy"`
	Files        string `parquet:"files,snappy"`
	Outcome      string `parquet:"outcome,snappy"`

	// ErrorMessage is set when the run failed or partially failed (nullable)
	ErrorMessage *string `parquet:"error_message,optional,snappy"`

	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is null for runs that never completed
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	RunDurationMs *int64 `parquet:"run_duration_ms,optional,snappy"`
}

// ValidateColumns checks that every required column exists in the row schema.
func ValidateColumns(s *parquet.Schema, required []string) error {
	for _, col := range required {
		if _, ok := s.Lookup(col); !ok {
			return fmt.Errorf("%w: %s", ErrMissingColumn, col)
		}
	}
	return nil
}

// WriteIssues writes canonical issues as a Parquet table. When scoped is true the
// branch and pr_number columns are appended.
func WriteIssues(w io.Writer, issues []schema.Issue, scoped bool) error {
	if scoped {
		return writeRows(w, ConvertScopedIssues(issues), ScopedIssueColumns)
	}
	return writeRows(w, ConvertIssues(issues), IssueColumns)
}

// writeRows checks the row type against the required column list, then writes
// all rows. The check guards the row structs: a renamed or dropped parquet tag
// fails every write with ErrMissingColumn rather than producing a file with a
// different layout. Close flushes the footer, so its error is not ignored.
func writeRows[T any](w io.Writer, rows []T, required []string) error {
	if err := ValidateColumns(parquet.SchemaOf(new(T)), required); err != nil {
		return err
	}
	writer := parquet.NewGenericWriter[T](w)
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			_ = writer.Close()
			return fmt.Errorf("failed to write data to parquet file: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteExportRunsParquet writes a slice of ExportRun structs to a Parquet file.
func WriteExportRunsParquet(data []ExportRun, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[ExportRun](file)
	if len(data) > 0 {
		if _, err := writer.Write(data); err != nil {
			_ = writer.Close()
			return fmt.Errorf("failed to write data to parquet file: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertIssues converts canonical issues to IssueRow for Parquet export.
func ConvertIssues(issues []schema.Issue) []IssueRow {
	result := make([]IssueRow, len(issues))
	for i, is := range issues {
		result[i] = IssueRow{
			IssueKey: is.Key,
			Type:     is.Type,
			Severity: is.Severity,
			Status:   is.Status,
			FilePath: is.FilePath,
			Line:     lineValue(is.Line),
			Message:  is.Message,
			Created:  is.Created,
			Author:   is.Author,
			Rule:     is.Rule,
		}
	}
	return result
}

// ConvertScopedIssues converts canonical issues to ScopedIssueRow for Parquet export.
func ConvertScopedIssues(issues []schema.Issue) []ScopedIssueRow {
	result := make([]ScopedIssueRow, len(issues))
	for i, is := range issues {
		result[i] = ScopedIssueRow{
			IssueKey: is.Key,
			Type:     is.Type,
			Severity: is.Severity,
			Status:   is.Status,
			FilePath: is.FilePath,
			Line:     lineValue(is.Line),
			Message:  is.Message,
			Created:  is.Created,
			Author:   is.Author,
			Rule:     is.Rule,
			Branch:   is.ScopeLabel,
			PRNumber: is.PRLabel,
		}
	}
	return result
}

// ConvertExportRuns converts schema.ExportRun to ExportRun for Parquet export.
func ConvertExportRuns(runs []schema.ExportRun) []ExportRun {
	result := make([]ExportRun, len(runs))
	for i, run := range runs {
		row := ExportRun{
			RunID:         run.RunID,
			Project:       run.Project,
			Organization:  run.Organization,
			ScopeLabel:    run.ScopeLabel,
			PRLabel:       run.PRLabel,
			Severities:    run.Severities,
			Statuses:      run.Statuses,
			ReportedTotal: int32(run.ReportedTotal),
			FetchedCount:  int32(run.FetchedCount),
			Pages:         int32(run.Pages),
			Formats:       strings.Join(run.Formats, ","),
			Files:         strings.Join(run.Files, ","),
			Outcome:       string(run.Outcome),
			StartTime:     run.StartTime,
		}
		if run.ErrorMessage != "" {
			msg := run.ErrorMessage
			row.ErrorMessage = &msg
		}
		if !run.EndTime.IsZero() {
			end := run.EndTime
			ms := run.Duration().Milliseconds()
			row.EndTime = &end
			row.RunDurationMs = &ms
		}
		result[i] = row
	}
	return result
}

func lineValue(line *int) *int64 {
	if line == nil {
		return nil
	}
	v := int64(*line)
	return &v
}
