package menu

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/huangsam/sonarissues/internal/contract"
	"github.com/huangsam/sonarissues/internal/outwriter"
	"github.com/huangsam/sonarissues/internal/settings"
	"github.com/huangsam/sonarissues/internal/update"
	"github.com/huangsam/sonarissues/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type harness struct {
	menu   *Menu
	out    *bytes.Buffer
	store  *settings.Store
	source *contract.MockIssueSource
	dir    string
}

func newHarness(t *testing.T, input string, configured bool, opts ...Option) *harness {
	t.Helper()
	dir := t.TempDir()
	store := settings.NewStore(filepath.Join(dir, settings.FileName))
	if configured {
		require.NoError(t, store.Save(settings.Settings{
			Token: "squ_abcdef123456", Project: "acme_web", Organization: "acme", DefaultBranch: "develop",
		}))
	}

	cfg := &contract.Config{
		BaseURL:   contract.DefaultBaseURL,
		Filter:    schema.NewFilter(nil, nil),
		OutputDir: dir,
		Version:   "0.1.0",
	}
	ow := outwriter.NewOutWriter()
	ow.SetLog(io.Discard)

	h := &harness{out: &bytes.Buffer{}, store: store, source: &contract.MockIssueSource{}, dir: dir}
	all := append([]Option{
		WithIO(strings.NewReader(input), h.out),
		WithSourceFactory(func(*contract.Config) contract.IssueSource { return h.source }),
		WithExporter(ow),
	}, opts...)
	h.menu = New(cfg, store, nil, all...)
	return h
}

func lines(in ...string) string {
	return strings.Join(in, "\n") + "\n"
}

func exportedFiles(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, schema.OutputPrefix+"_*"))
	require.NoError(t, err)
	return matches
}

func TestFirstRunPrompt(t *testing.T) {
	h := newHarness(t, lines("squ_abcdef123456", "", "acme_web", "ACME", "", "", "0"), false)
	require.NoError(t, h.menu.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "SonarCloud Issues v0.1.0")
	assert.Contains(t, out, "First run: configuration required")
	assert.Contains(t, out, "value cannot be empty")
	assert.Contains(t, out, "Bye")

	saved, err := h.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "acme", saved.Organization)
	assert.Equal(t, "main", saved.DefaultBranch)
	assert.Empty(t, saved.DefaultPR)
}

func TestFirstRunCanceled(t *testing.T) {
	h := newHarness(t, "squ_abcdef123456\n", false)
	require.NoError(t, h.menu.Run(context.Background()))
	assert.Contains(t, h.out.String(), "Configuration canceled")
	assert.False(t, h.store.Exists())
}

func TestExportFlow(t *testing.T) {
	h := newHarness(t, lines("1", "y", "blocker,foo", "y", "reopened", "3", "42", "1,3", "0"), true)
	h.source.On("FetchIssues", mock.Anything, mock.MatchedBy(func(sc schema.Context) bool {
		return sc.Token == "squ_abcdef123456" && sc.Scope.Kind() == schema.PullRequestScope && sc.Scope.Value() == "42"
	}), mock.MatchedBy(func(f schema.Filter) bool {
		return f.SeverityParam() == "BLOCKER" && f.StatusParam() == "OPEN,REOPENED"
	})).Return(&contract.FetchResult{
		Issues: []schema.RawIssue{{"key": "AX-1", "component": "acme_web:src/a.py"}},
		Pages:  1,
	}, nil).Once()

	require.NoError(t, h.menu.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "Ignoring invalid severities: FOO")
	assert.Contains(t, out, "Selected statuses: OPEN,REOPENED")
	assert.Contains(t, out, "Fetched 1 issues in 1 page(s)")
	assert.Contains(t, out, "(1) Parquet (.parquet) - for DuckDB and pandas, not a spreadsheet format (use CSV for Excel)")
	assert.Contains(t, out, "(2) CSV (.csv) - opens in Excel")
	assert.Contains(t, out, "[PARQUET]")
	assert.Contains(t, out, "[JSON]")
	assert.Len(t, exportedFiles(t, h.dir), 2)
	h.source.AssertExpectations(t)
}

func TestExportFlowDefaultsAndFormatRetry(t *testing.T) {
	h := newHarness(t, lines("1", "n", "n", "1", "9", "2,2", "0"), true)
	h.source.On("FetchIssues", mock.Anything, mock.MatchedBy(func(sc schema.Context) bool {
		return sc.Scope.Kind() == schema.DefaultBranchScope && sc.Scope.Value() == "develop"
	}), mock.MatchedBy(func(f schema.Filter) bool {
		return f.SeverityParam() == "" && f.StatusParam() == "OPEN"
	})).Return(&contract.FetchResult{Issues: []schema.RawIssue{{"key": "AX-1"}}, Pages: 1}, nil).Once()

	require.NoError(t, h.menu.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "(1) Default branch: develop")
	assert.Contains(t, out, "Exporting OPEN issues only")
	assert.Contains(t, out, "Invalid option: 9")
	files := exportedFiles(t, h.dir)
	require.Len(t, files, 1)
	assert.Equal(t, ".csv", filepath.Ext(files[0]))
}

func TestExportFlowNoIssues(t *testing.T) {
	h := newHarness(t, lines("1", "n", "n", "4", "0"), true)
	h.source.On("FetchIssues", mock.Anything, mock.Anything, mock.Anything).
		Return(&contract.FetchResult{Pages: 1}, nil).Once()

	require.NoError(t, h.menu.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "No issues found")
	assert.Contains(t, out, "ps=10")
	assert.NotContains(t, out, "Select export formats")
	assert.Empty(t, exportedFiles(t, h.dir))
}

func TestExportFlowFetchFailure(t *testing.T) {
	h := newHarness(t, lines("1", "n", "n", "2", "release", "0"), true)
	h.source.On("FetchIssues", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &contract.FetchError{Kind: contract.RemoteStatusError, Page: 1, StatusCode: 401, Body: "Unauthorized"}).Once()

	require.NoError(t, h.menu.Run(context.Background()))
	assert.Contains(t, h.out.String(), "HTTP 401")
	assert.Contains(t, h.out.String(), "SonarCloud Issues Main Menu")
}

func TestScopeBackAndFormatBack(t *testing.T) {
	h := newHarness(t, lines("1", "n", "n", "0", "1", "n", "n", "1", "0", "0"), true)
	h.source.On("FetchIssues", mock.Anything, mock.Anything, mock.Anything).
		Return(&contract.FetchResult{Issues: []schema.RawIssue{{"key": "AX-1"}}, Pages: 1}, nil).Once()

	require.NoError(t, h.menu.Run(context.Background()))
	assert.Empty(t, exportedFiles(t, h.dir))
	h.source.AssertNumberOfCalls(t, "FetchIssues", 1)
}

func TestEmptyBranchName(t *testing.T) {
	h := newHarness(t, lines("1", "n", "n", "2", "", "0"), true)
	require.NoError(t, h.menu.Run(context.Background()))
	assert.Contains(t, h.out.String(), "branch name cannot be empty")
	h.source.AssertNotCalled(t, "FetchIssues", mock.Anything, mock.Anything, mock.Anything)
}

func TestSettingsMenu(t *testing.T) {
	var gotVersion string
	stub := func(_ context.Context, cfg *contract.Config, _ io.Writer, _ func(string) bool) error {
		gotVersion = cfg.Version
		return update.ErrUpToDate
	}
	h := newHarness(t, lines("2", "3", "NewOrg", "1", "", "5", "17", "6", "8", "9", "0", "0"), true, WithUpdate(stub))

	require.NoError(t, h.menu.Run(context.Background()))

	out := h.out.String()
	assert.Contains(t, out, "token cannot be empty")
	assert.Contains(t, out, "Organization:   neworg")
	assert.Contains(t, out, "Default PR:     17")
	assert.Contains(t, out, "Token:          squ_abcd...")
	assert.Contains(t, out, "Already on the latest version")
	assert.Contains(t, out, "Invalid option")
	assert.Equal(t, "0.1.0", gotVersion)
	assert.Equal(t, "neworg", h.menu.cfg.Organization)
}

func TestSettingsUpdateConfirm(t *testing.T) {
	var asked string
	stub := func(_ context.Context, _ *contract.Config, _ io.Writer, confirm func(string) bool) error {
		asked = "Update to v0.2.0? (y/N): "
		if !confirm(asked) {
			return update.ErrCanceled
		}
		return nil
	}
	h := newHarness(t, lines("2", "8", "n", "0", "0"), true, WithUpdate(stub))
	require.NoError(t, h.menu.Run(context.Background()))
	assert.Contains(t, h.out.String(), asked)
	assert.Contains(t, h.out.String(), "Update canceled")
}

func TestReconfigureAll(t *testing.T) {
	h := newHarness(t, lines("2", "7", "squ_zzzzzzzz9999", "other_proj", "Other", "trunk", "", "0", "0"), true)
	require.NoError(t, h.menu.Run(context.Background()))

	saved, err := h.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "other_proj", saved.Project)
	assert.Equal(t, "other", saved.Organization)
	assert.Equal(t, "trunk", saved.DefaultBranch)

	info, err := os.Stat(h.store.Path())
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestInputEndsMidFlow(t *testing.T) {
	h := newHarness(t, "1\ny\n", true)
	assert.NoError(t, h.menu.Run(context.Background()))
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h := newHarness(t, lines("1"), true)
	require.NoError(t, h.menu.Run(ctx))
	assert.NotContains(t, h.out.String(), "Main Menu")
}
