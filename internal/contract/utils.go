package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/huangsam/sonarissues/schema"
)

// Color variables for console output.
var (
	BlockerColor  = color.New(color.FgRed, color.Bold)     // BlockerColor represents standard danger.
	CriticalColor = color.New(color.FgMagenta, color.Bold) // CriticalColor represents strong, distinct warning.
	MajorColor    = color.New(color.FgYellow)              // MajorColor represents standard caution, not bold.
	MinorColor    = color.New(color.FgCyan)                // MinorColor represents informational signal.
	InfoColor     = color.New(color.FgWhite)               // InfoColor represents low-priority signal.
)

// GetColorLabel returns a colored severity label for console output (table).
// Unknown severities are returned unchanged.
func GetColorLabel(severity string) string {
	switch schema.Severity(severity) {
	case schema.BlockerSeverity:
		return BlockerColor.Sprint(severity)
	case schema.CriticalSeverity:
		return CriticalColor.Sprint(severity)
	case schema.MajorSeverity:
		return MajorColor.Sprint(severity)
	case schema.MinorSeverity:
		return MinorColor.Sprint(severity)
	case schema.InfoSeverity:
		return InfoColor.Sprint(severity)
	default:
		return severity
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ExportFileName returns the export file name for an extension at the given time.
func ExportFileName(ext string, ts time.Time) string {
	return fmt.Sprintf("%s_%s.%s", schema.OutputPrefix, ts.Format(schema.TimestampLayout), ext)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for export history.
func GetHistoryDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".sonarissues_history.db"
	}
	return filepath.Join(homeDir, ".sonarissues_history.db")
}

// MaskToken hides all but the first 8 characters of a secret.
func MaskToken(token string) string {
	if token == "" {
		return "(not set)"
	}
	runes := []rune(token)
	if len(runes) <= 8 {
		return strings.Repeat("*", len(runes))
	}
	return string(runes[:8]) + "..."
}

// TruncatePath truncates a file path to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to leave room for the "..." prefix.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// TruncateText truncates free text to a maximum width with ellipsis suffix.
func TruncateText(text string, maxWidth int) string {
	runes := []rune(text)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return text
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
