package core

import (
	"strings"

	"github.com/huangsam/sonarissues/schema"
)

// lastSegment returns the text after the last ':' or the whole string when there is none.
func lastSegment(s string) string {
	if i := strings.LastIndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// NormalizeIssue maps one raw search record to the canonical issue. It never fails:
// absent fields become empty strings, a missing author becomes "N/A" and a
// non-numeric line becomes nil.
func NormalizeIssue(raw schema.RawIssue, scope schema.Scope) schema.Issue {
	component := raw.StrOr("component", "")
	is := schema.Issue{
		Key:        raw.StrOr("key", ""),
		Type:       raw.StrOr("type", ""),
		Severity:   raw.StrOr("severity", ""),
		Status:     raw.StrOr("status", ""),
		FilePath:   lastSegment(component),
		Message:    raw.StrOr("message", ""),
		Created:    raw.StrOr("creationDate", ""),
		Author:     raw.StrOr("author", schema.DefaultAuthor),
		Rule:       lastSegment(raw.StrOr("rule", "")),
		ScopeLabel: scope.Label(),
		PRLabel:    scope.PRLabel(),
		Component:  component,
		Project:    raw.StrOr("project", ""),
		Effort:     raw.StrOr("effort", ""),
		Updated:    raw.StrOr("updateDate", ""),
		Tags:       raw.Strings("tags"),
	}
	if line, ok := raw.Int("line"); ok {
		is.Line = &line
	}
	return is
}

// NormalizeIssues maps every raw record in order. The output has the same length.
func NormalizeIssues(raws []schema.RawIssue, scope schema.Scope) []schema.Issue {
	issues := make([]schema.Issue, len(raws))
	for i, raw := range raws {
		issues[i] = NormalizeIssue(raw, scope)
	}
	return issues
}
