package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/huangsam/sonarissues/internal/contract"
	"github.com/huangsam/sonarissues/internal/parquet"
	"github.com/huangsam/sonarissues/schema"
)

// CSVHeader is the delimited-text header, in column order.
var CSVHeader = []string{
	"Issue Key", "Type", "Severity", "Status", "File Path", "Line",
	"Message", "Created", "Author", "Rule",
}

// ScopedCSVHeader extends CSVHeader with the scope provenance columns.
var ScopedCSVHeader = append(append([]string(nil), CSVHeader...), "Branch", "PR")

// CSVWriter writes issues as BOM-prefixed UTF-8 CSV with human-readable headers.
type CSVWriter struct{}

var _ contract.FormatWriter = &CSVWriter{} // Compile-time check

// Format implements contract.FormatWriter.
func (w *CSVWriter) Format() schema.OutputFormat { return schema.CSVOut }

// Extension implements contract.FormatWriter.
func (w *CSVWriter) Extension() string { return "csv" }

// Write implements contract.FormatWriter.
func (w *CSVWriter) Write(out io.Writer, issues []schema.Issue, meta schema.ExportMetadata) error {
	if _, err := out.Write(utf8BOM); err != nil {
		return fmt.Errorf("failed to write CSV BOM: %w", err)
	}
	header := CSVHeader
	if meta.ScopeAware {
		header = ScopedCSVHeader
	}
	return writeCSVWithHeader(out, header, func(cw *csv.Writer) error {
		for _, is := range issues {
			rec := []string{
				is.Key,
				is.Type,
				is.Severity,
				is.Status,
				is.FilePath,
				is.LineString(),
				is.Message,
				is.Created,
				is.Author,
				is.Rule,
			}
			if meta.ScopeAware {
				rec = append(rec, is.ScopeLabel, is.PRLabel)
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// JSONWriter writes issues as an indented export document with metadata.
type JSONWriter struct{}

var _ contract.FormatWriter = &JSONWriter{} // Compile-time check

// Format implements contract.FormatWriter.
func (w *JSONWriter) Format() schema.OutputFormat { return schema.JSONOut }

// Extension implements contract.FormatWriter.
func (w *JSONWriter) Extension() string { return "json" }

// Write implements contract.FormatWriter.
func (w *JSONWriter) Write(out io.Writer, issues []schema.Issue, meta schema.ExportMetadata) error {
	return writeJSON(out, NewExportDocument(issues, meta))
}

// NewExportDocument pairs metadata with issues, keeping total_issues in sync
// and encoding an empty list as [] rather than null.
func NewExportDocument(issues []schema.Issue, meta schema.ExportMetadata) schema.ExportDocument {
	if issues == nil {
		issues = []schema.Issue{}
	}
	meta.TotalIssues = len(issues)
	if !meta.ScopeAware {
		meta.Branch = ""
		meta.PRNumber = ""
	}
	return schema.ExportDocument{Metadata: meta, Issues: issues}
}

// ParquetWriter writes issues as a snappy-compressed Parquet table.
type ParquetWriter struct{}

var _ contract.FormatWriter = &ParquetWriter{} // Compile-time check

// Format implements contract.FormatWriter.
func (w *ParquetWriter) Format() schema.OutputFormat { return schema.ParquetOut }

// Extension implements contract.FormatWriter.
func (w *ParquetWriter) Extension() string { return "parquet" }

// Write implements contract.FormatWriter.
func (w *ParquetWriter) Write(out io.Writer, issues []schema.Issue, meta schema.ExportMetadata) error {
	return parquet.WriteIssues(out, issues, meta.ScopeAware)
}
