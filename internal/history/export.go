package history

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/sonarissues/internal/contract"
	"github.com/huangsam/sonarissues/internal/parquet"
)

// ErrHistoryDisabled is returned when history commands run without a store.
var ErrHistoryDisabled = errors.New("export history is disabled. Set --history-backend to sqlite, mysql or postgresql")

// ExportHistory writes every recorded run to a Parquet file.
func ExportHistory(store contract.HistoryStore, outputFile string, out io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return ErrHistoryDisabled
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no export history found to export")
	}

	runs, err := store.ListRuns(0)
	if err != nil {
		return fmt.Errorf("failed to retrieve export runs: %w", err)
	}

	_, _ = fmt.Fprintf(out, "Exporting history from %s backend...\n", status.Backend)
	if err := parquet.WriteExportRunsParquet(parquet.ConvertExportRuns(runs), outputFile); err != nil {
		return fmt.Errorf("failed to write export runs: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Exported %d export runs to: %s\n", len(runs), outputFile)
	return nil
}
