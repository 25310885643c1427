package contract

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/huangsam/sonarissues/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetColorLabel(t *testing.T) {
	for _, sev := range schema.AllSeverities {
		t.Run(string(sev), func(t *testing.T) {
			assert.Contains(t, GetColorLabel(string(sev)), string(sev))
		})
	}

	t.Run("unknown severity unchanged", func(t *testing.T) {
		assert.Equal(t, "WHATEVER", GetColorLabel("WHATEVER"))
	})
}

func TestSelectOutputFile(t *testing.T) {
	t.Run("empty path returns stdout", func(t *testing.T) {
		file, err := SelectOutputFile("")
		require.NoError(t, err)
		assert.Equal(t, os.Stdout, file)
	})

	t.Run("valid path creates file", func(t *testing.T) {
		tempFile := filepath.Join(t.TempDir(), "test_output.txt")

		file, err := SelectOutputFile(tempFile)
		require.NoError(t, err)
		assert.NotNil(t, file)
		_ = file.Close()

		_, err = os.Stat(tempFile)
		assert.NoError(t, err)
	})
}

func TestExportFileName(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, "sonarcloud_issues_20240309_140507.csv", ExportFileName("csv", ts))
	assert.Equal(t, "sonarcloud_issues_20240309_140507.parquet", ExportFileName("parquet", ts))
}

func TestGetHistoryDBFilePath(t *testing.T) {
	path := GetHistoryDBFilePath()
	assert.NotEmpty(t, path)
	assert.Contains(t, path, ".sonarissues_history.db")

	homeDir, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, homeDir), "path %s should start with home dir %s", path, homeDir)
}

func TestMaskToken(t *testing.T) {
	assert.Equal(t, "(not set)", MaskToken(""))
	assert.Equal(t, "****", MaskToken("abcd"))
	assert.Equal(t, "12345678...", MaskToken("1234567890abcdef"))
}

func TestTruncatePath(t *testing.T) {
	assert.Equal(t, "src/a.py", TruncatePath("src/a.py", 20))
	assert.Equal(t, "...c/d.go", TruncatePath("a/b/c/d.go", 9))
	assert.Equal(t, "abc", TruncatePath("abc", 2))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 10))
	assert.Equal(t, "Remove...", TruncateText("Remove this unused import", 9))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", Truncate("hello", 10))
	assert.Equal(t, "hel", Truncate("hello", 3))

	// "é" is two bytes; never cut inside it
	s := "aé"
	out := Truncate(s, 2)
	assert.Equal(t, "a", out)
	assert.True(t, utf8.ValidString(out))
}

func TestParseBoolString(t *testing.T) {
	for _, s := range []string{"yes", "TRUE", "1"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.True(t, v)
	}
	for _, s := range []string{"no", "False", "0"} {
		v, err := ParseBoolString(s)
		require.NoError(t, err)
		assert.False(t, v)
	}
	_, err := ParseBoolString("sometimes")
	assert.Error(t, err)
}

func TestFetchError(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("export: %w", &FetchError{Kind: TransportError, Page: 3, Err: cause})

	assert.True(t, IsFetchKind(err, TransportError))
	assert.False(t, IsFetchKind(err, TimeoutError))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsFetchKind(cause, TransportError))

	status := &FetchError{Kind: RemoteStatusError, Page: 1, StatusCode: 401, Body: "Unauthorized"}
	assert.Contains(t, status.Error(), "HTTP 401")
	assert.Contains(t, status.Error(), "Unauthorized")

	limit := &FetchError{Kind: PageLimitError, Page: 11}
	assert.Contains(t, limit.Error(), "page limit")
}

func TestExportError(t *testing.T) {
	cause := os.ErrPermission
	err := &ExportError{Format: schema.CSVOut, Path: "/x/y.csv", Err: cause}
	assert.ErrorIs(t, err, os.ErrPermission)
	assert.Contains(t, err.Error(), "csv export to /x/y.csv failed")
}
