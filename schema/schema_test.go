package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeRaw(t *testing.T, payload string) RawIssue {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()
	var raw RawIssue
	require.NoError(t, dec.Decode(&raw))
	return raw
}

func TestRawIssueStr(t *testing.T) {
	raw := decodeRaw(t, `{"key":"AX1","author":null,"line":12}`)

	v, ok := raw.Str("key")
	assert.True(t, ok)
	assert.Equal(t, "AX1", v)

	_, ok = raw.Str("author")
	assert.False(t, ok, "null is treated as absent")

	_, ok = raw.Str("line")
	assert.False(t, ok, "numbers are not strings")

	_, ok = raw.Str("missing")
	assert.False(t, ok)

	assert.Equal(t, "fallback", raw.StrOr("missing", "fallback"))
	assert.Equal(t, "AX1", raw.StrOr("key", "fallback"))
}

func TestRawIssueInt(t *testing.T) {
	tests := []struct {
		name   string
		raw    RawIssue
		want   int
		wantOK bool
	}{
		{"json number", RawIssue{"line": json.Number("42")}, 42, true},
		{"float whole", RawIssue{"line": float64(7)}, 7, true},
		{"float fraction", RawIssue{"line": 7.5}, 0, false},
		{"int", RawIssue{"line": 3}, 3, true},
		{"string", RawIssue{"line": "12"}, 0, false},
		{"bad number", RawIssue{"line": json.Number("1e3")}, 0, false},
		{"absent", RawIssue{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.raw.Int("line")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRawIssueStrings(t *testing.T) {
	raw := decodeRaw(t, `{"tags":["cwe","",1,"owasp"],"empty":[]}`)
	assert.Equal(t, []string{"cwe", "", "owasp"}, raw.Strings("tags"))
	assert.Nil(t, raw.Strings("empty"))
	assert.Nil(t, raw.Strings("missing"))
}

func TestIssueLineString(t *testing.T) {
	line := 15
	assert.Equal(t, "15", Issue{Line: &line}.LineString())
	assert.Equal(t, "", Issue{}.LineString())
}

func TestExportMetadataOmitsScopeWhenEmpty(t *testing.T) {
	data, err := json.Marshal(ExportMetadata{Project: "p", Organization: "o", ScopeAware: true})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "branch")
	assert.NotContains(t, string(data), "ScopeAware")
	assert.Contains(t, string(data), `"total_issues":0`)
}
