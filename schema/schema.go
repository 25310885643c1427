// Package schema has the models, constants and value types shared by all parts of sonarissues.
package schema

import (
	"encoding/json"
	"strconv"
)

// RawIssue is one issue exactly as returned by the search API.
// The remote shape is open-ended, so fields are read through the accessors below.
type RawIssue map[string]any

// Str returns the string value of a field and whether it was present as a string.
func (r RawIssue) Str(key string) (string, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// StrOr returns the string value of a field or fallback when absent or not a string.
func (r RawIssue) StrOr(key, fallback string) string {
	if s, ok := r.Str(key); ok {
		return s
	}
	return fallback
}

// Int returns the integer value of a field. Decoders may hand us json.Number,
// float64 or int depending on how the payload was produced.
func (r RawIssue) Int(key string) (int, bool) {
	switch v := r[key].(type) {
	case json.Number:
		n, err := strconv.Atoi(v.String())
		if err != nil {
			return 0, false
		}
		return n, true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	default:
		return 0, false
	}
}

// Strings returns the string elements of a list field, or nil.
func (r RawIssue) Strings(key string) []string {
	list, ok := r[key].([]any)
	if !ok || len(list) == 0 {
		return nil
	}
	var out []string
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// Issue is the canonical, format-agnostic record used by every writer.
type Issue struct {
	Key        string   `json:"key"`
	Type       string   `json:"type"`
	Severity   string   `json:"severity"`
	Status     string   `json:"status"`
	FilePath   string   `json:"file_path"`
	Line       *int     `json:"line"`
	Message    string   `json:"message"`
	Created    string   `json:"created"`
	Author     string   `json:"author"`
	Rule       string   `json:"rule"`
	ScopeLabel string   `json:"scope_label"`
	PRLabel    string   `json:"pr_label"`
	Component  string   `json:"component,omitempty"`
	Project    string   `json:"project,omitempty"`
	Effort     string   `json:"effort,omitempty"`
	Updated    string   `json:"updated,omitempty"`
	Tags       []string `json:"tags,omitempty"`
}

// LineString renders the line for text formats, empty when unknown.
func (i Issue) LineString() string {
	if i.Line == nil {
		return ""
	}
	return strconv.Itoa(*i.Line)
}

// ExportMetadata describes one export invocation.
type ExportMetadata struct {
	Project       string   `json:"project"`
	Organization  string   `json:"organization"`
	Branch        string   `json:"branch,omitempty"`
	PRNumber      string   `json:"pr_number,omitempty"`
	ExportedAt    string   `json:"exported_at"`
	TotalIssues   int      `json:"total_issues"`
	Version       string   `json:"version"`
	RunID         string   `json:"run_id,omitempty"`
	ReportedTotal int      `json:"reported_total"`
	Severities    []string `json:"severities,omitempty"`
	Statuses      []string `json:"statuses,omitempty"`

	// ScopeAware controls whether scope columns and labels are emitted.
	ScopeAware bool `json:"-"`
}

// ExportDocument is the structured-text export layout.
type ExportDocument struct {
	Metadata ExportMetadata `json:"metadata"`
	Issues   []Issue        `json:"issues"`
}
