// Package outwriter has output and writer logic.
package outwriter

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/huangsam/sonarissues/internal/contract"
	"github.com/huangsam/sonarissues/schema"
)

// OutWriter provides a unified interface for all export operations.
// It owns one FormatWriter per output format and fans canonical issues out to them.
type OutWriter struct {
	writers map[schema.OutputFormat]contract.FormatWriter
	log     io.Writer
}

// NewOutWriter creates a new instance of the output writer with every built-in format.
func NewOutWriter() *OutWriter {
	ow := &OutWriter{
		writers: make(map[schema.OutputFormat]contract.FormatWriter),
		log:     os.Stderr,
	}
	ow.Register(&ParquetWriter{})
	ow.Register(&CSVWriter{})
	ow.Register(&JSONWriter{})
	return ow
}

// Register adds or replaces the writer for its format.
func (ow *OutWriter) Register(w contract.FormatWriter) {
	ow.writers[w.Format()] = w
}

// SetLog redirects status lines; nil silences them.
func (ow *OutWriter) SetLog(w io.Writer) {
	ow.log = w
}

// Writer returns the writer registered for a format.
func (ow *OutWriter) Writer(format schema.OutputFormat) (contract.FormatWriter, bool) {
	w, ok := ow.writers[format]
	return w, ok
}

// ExportFile is one successfully written export file.
type ExportFile struct {
	Format schema.OutputFormat
	Path   string
	Size   int64
}

// ExportReport collects the outcome of every requested format.
type ExportReport struct {
	Files  []ExportFile
	Errors []error
}

// Succeeded reports whether at least one format was written.
func (r ExportReport) Succeeded() bool {
	return len(r.Files) > 0
}

// Partial reports whether some but not all formats were written.
func (r ExportReport) Partial() bool {
	return len(r.Files) > 0 && len(r.Errors) > 0
}

// Err joins every per-format failure, or nil.
func (r ExportReport) Err() error {
	return errors.Join(r.Errors...)
}

// Paths returns the written file paths in request order.
func (r ExportReport) Paths() []string {
	paths := make([]string, len(r.Files))
	for i, f := range r.Files {
		paths[i] = f.Path
	}
	return paths
}

// WriteAll writes the issues once per requested format into dir. Formats are
// attempted one after another; a failing format never stops the remaining ones.
func (ow *OutWriter) WriteAll(formats []schema.OutputFormat, issues []schema.Issue, meta schema.ExportMetadata, dir string, ts time.Time) ExportReport {
	var report ExportReport
	for _, format := range formats {
		w, ok := ow.writers[format]
		if !ok {
			path := filepath.Join(dir, contract.ExportFileName(string(format), ts))
			err := &contract.ExportError{Format: format, Path: path, Err: fmt.Errorf("no writer registered")}
			ow.logf("❌ %v\n", err)
			report.Errors = append(report.Errors, err)
			continue
		}

		path := filepath.Join(dir, contract.ExportFileName(w.Extension(), ts))
		size, err := writeWithFile(path, func(out io.Writer) error {
			return w.Write(out, issues, meta)
		})
		if err != nil {
			exportErr := &contract.ExportError{Format: format, Path: path, Err: err}
			ow.logf("❌ %v\n", exportErr)
			report.Errors = append(report.Errors, exportErr)
			continue
		}

		ow.logf("💾 Wrote %s to %s (%s)\n", format, path, humanize.Bytes(uint64(size)))
		report.Files = append(report.Files, ExportFile{Format: format, Path: path, Size: size})
	}
	return report
}

func (ow *OutWriter) logf(format string, args ...any) {
	if ow.log == nil {
		return
	}
	_, _ = fmt.Fprintf(ow.log, format, args...)
}
