package core

import (
	"encoding/json"
	"testing"

	"github.com/huangsam/sonarissues/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLastSegment(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"proj:src/a.py", "src/a.py"},
		{"python:S1234", "S1234"},
		{"org:proj:deep/file.go", "deep/file.go"},
		{"no-colon", "no-colon"},
		{"trailing:", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, lastSegment(tt.in))
		})
	}
}

func TestNormalizeIssue(t *testing.T) {
	raw := schema.RawIssue{
		"key":          "AX-1",
		"type":         "BUG",
		"severity":     "MAJOR",
		"status":       "OPEN",
		"component":    "acme_web:src/a.py",
		"line":         json.Number("42"),
		"message":      "Remove this unused import",
		"creationDate": "2024-01-02T03:04:05+0000",
		"author":       "dev@example.com",
		"rule":         "python:S1234",
		"project":      "acme_web",
		"tags":         []any{"unused", 3},
	}

	is := NormalizeIssue(raw, schema.NamedBranch("develop"))
	assert.Equal(t, "AX-1", is.Key)
	assert.Equal(t, "src/a.py", is.FilePath)
	assert.Equal(t, "S1234", is.Rule)
	require.NotNil(t, is.Line)
	assert.Equal(t, 42, *is.Line)
	assert.Equal(t, "dev@example.com", is.Author)
	assert.Equal(t, "develop", is.ScopeLabel)
	assert.Equal(t, "N/A", is.PRLabel)
	assert.Equal(t, "acme_web:src/a.py", is.Component)
	assert.Equal(t, []string{"unused"}, is.Tags)
}

func TestNormalizeIssueMissingFields(t *testing.T) {
	is := NormalizeIssue(schema.RawIssue{"line": "not-a-number", "author": nil}, schema.PullRequest("17"))
	assert.Empty(t, is.Key)
	assert.Empty(t, is.FilePath)
	assert.Empty(t, is.Rule)
	assert.Nil(t, is.Line)
	assert.Equal(t, "N/A", is.Author)
	assert.Equal(t, "ALL", is.ScopeLabel)
	assert.Equal(t, "17", is.PRLabel)
}

func TestNormalizeIssuesKeepsOrderAndDuplicates(t *testing.T) {
	raws := []schema.RawIssue{{"key": "B"}, {"key": "A"}, {"key": "B"}}
	issues := NormalizeIssues(raws, schema.AllBranchesAggregate())
	require.Len(t, issues, 3)
	assert.Equal(t, []string{"B", "A", "B"}, []string{issues[0].Key, issues[1].Key, issues[2].Key})
	for _, is := range issues {
		assert.Equal(t, "ALL", is.ScopeLabel)
		assert.Equal(t, "N/A", is.PRLabel)
	}
	assert.Empty(t, NormalizeIssues(nil, schema.DefaultBranch("")))
}
