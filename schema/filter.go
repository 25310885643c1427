package schema

import "strings"

// Filter describes which severities and statuses an export includes.
// Statuses always start with the OPEN baseline.
type Filter struct {
	severities []Severity
	statuses   []IssueStatus
}

// NewFilter builds a filter, deduplicating values and forcing OPEN to the front.
// Unknown values are dropped.
func NewFilter(severities []Severity, statuses []IssueStatus) Filter {
	f := Filter{statuses: []IssueStatus{OpenStatus}}

	seenSev := make(map[Severity]bool)
	for _, s := range severities {
		if _, ok := ValidSeverities[s]; !ok || seenSev[s] {
			continue
		}
		seenSev[s] = true
		f.severities = append(f.severities, s)
	}

	seenStatus := map[IssueStatus]bool{OpenStatus: true}
	for _, s := range statuses {
		if _, ok := ValidStatuses[s]; !ok || seenStatus[s] {
			continue
		}
		seenStatus[s] = true
		f.statuses = append(f.statuses, s)
	}
	return f
}

// Severities returns a copy of the selected severities; empty means all.
func (f Filter) Severities() []Severity {
	return append([]Severity(nil), f.severities...)
}

// Statuses returns a copy of the selected statuses, OPEN first.
func (f Filter) Statuses() []IssueStatus {
	if len(f.statuses) == 0 {
		return []IssueStatus{OpenStatus}
	}
	return append([]IssueStatus(nil), f.statuses...)
}

// SeverityParam is the comma-joined severities query value, empty for no filter.
func (f Filter) SeverityParam() string {
	parts := make([]string, len(f.severities))
	for i, s := range f.severities {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

// StatusParam is the comma-joined statuses query value.
func (f Filter) StatusParam() string {
	statuses := f.Statuses()
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = string(s)
	}
	return strings.Join(parts, ",")
}

// ParseSeverities parses a comma-separated severity list. Invalid entries are
// returned separately so callers can warn about them.
func ParseSeverities(s string) (valid []Severity, invalid []string) {
	for _, part := range splitUpper(s) {
		sev := Severity(part)
		if _, ok := ValidSeverities[sev]; ok {
			valid = append(valid, sev)
		} else {
			invalid = append(invalid, part)
		}
	}
	return valid, invalid
}

// ParseStatuses parses a comma-separated status list. Invalid entries are
// returned separately so callers can warn about them.
func ParseStatuses(s string) (valid []IssueStatus, invalid []string) {
	for _, part := range splitUpper(s) {
		st := IssueStatus(part)
		if _, ok := ValidStatuses[st]; ok {
			valid = append(valid, st)
		} else {
			invalid = append(invalid, part)
		}
	}
	return valid, invalid
}

// splitUpper splits a comma list, trimming and upper-casing each non-empty entry.
func splitUpper(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		part = strings.ToUpper(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
