package outwriter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// utf8BOM lets spreadsheet tools detect UTF-8 in CSV files.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// countingWriter tracks how many bytes went through it.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// writeWithFile handles the common pattern of creating a file, writing to it, and cleaning up.
// A partially written file is removed on failure. It returns the number of bytes written.
func writeWithFile(outputFile string, writer func(io.Writer) error) (int64, error) {
	file, err := os.Create(outputFile)
	if err != nil {
		return 0, err
	}

	cw := &countingWriter{w: file}
	if err := writer(cw); err != nil {
		_ = file.Close()
		_ = os.Remove(outputFile)
		return 0, err
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(outputFile)
		return 0, err
	}
	return cw.n, nil
}

// writeJSON is a generic JSON encoder that handles indentation consistently.
func writeJSON(w io.Writer, data any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// writeCSVWithHeader handles the common pattern of creating a CSV writer,
// writing a header, and writing data rows.
func writeCSVWithHeader(w io.Writer, header []string, writeRows func(*csv.Writer) error) error {
	csvWriter := csv.NewWriter(w)

	if err := csvWriter.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	if err := writeRows(csvWriter); err != nil {
		return err
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
