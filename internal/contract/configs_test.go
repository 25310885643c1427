package contract

import (
	"errors"
	"testing"
	"time"

	"github.com/huangsam/sonarissues/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessAndValidate(t *testing.T) {
	tests := []struct {
		name        string
		input       *ConfigRawInput
		expectError bool
	}{
		{
			name:  "valid minimal config",
			input: &ConfigRawInput{},
		},
		{
			name: "valid full config",
			input: &ConfigRawInput{
				Token:        "abc",
				Project:      "proj",
				Organization: "MyOrg",
				Timeout:      "10s",
				PageSize:     100,
				Severities:   "blocker,critical",
				Statuses:     "confirmed",
				Formats:      "csv,json",
				Color:        "no",
			},
		},
		{
			name:        "invalid timeout",
			input:       &ConfigRawInput{Timeout: "soon"},
			expectError: true,
		},
		{
			name:        "negative timeout",
			input:       &ConfigRawInput{Timeout: "-1s"},
			expectError: true,
		},
		{
			name:        "page size over limit",
			input:       &ConfigRawInput{PageSize: 501},
			expectError: true,
		},
		{
			name:        "negative max pages",
			input:       &ConfigRawInput{MaxPages: -1},
			expectError: true,
		},
		{
			name:        "invalid severity",
			input:       &ConfigRawInput{Severities: "urgent"},
			expectError: true,
		},
		{
			name:        "invalid status",
			input:       &ConfigRawInput{Statuses: "done"},
			expectError: true,
		},
		{
			name:        "invalid format",
			input:       &ConfigRawInput{Formats: "xlsx"},
			expectError: true,
		},
		{
			name:        "invalid color",
			input:       &ConfigRawInput{Color: "maybe"},
			expectError: true,
		},
		{
			name:        "invalid base url",
			input:       &ConfigRawInput{BaseURL: "sonarcloud.io"},
			expectError: true,
		},
		{
			name:        "invalid update repo",
			input:       &ConfigRawInput{UpdateRepo: "just-a-name"},
			expectError: true,
		},
		{
			name:        "branch and pr together",
			input:       &ConfigRawInput{Branch: "dev", PR: "12"},
			expectError: true,
		},
		{
			name:        "invalid history backend",
			input:       &ConfigRawInput{HistoryBackend: "oracle"},
			expectError: true,
		},
		{
			name:        "mysql history without connection",
			input:       &ConfigRawInput{HistoryBackend: "mysql"},
			expectError: true,
		},
		{
			name:  "sqlite history with default path",
			input: &ConfigRawInput{HistoryBackend: "sqlite"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			err := ProcessAndValidate(cfg, tt.input)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessAndValidateDefaults(t *testing.T) {
	cfg := &Config{}
	require.NoError(t, ProcessAndValidate(cfg, &ConfigRawInput{}))

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, schema.PageSize, cfg.PageSize)
	assert.Equal(t, 0, cfg.MaxPages)
	assert.Equal(t, DefaultPreviewLimit, cfg.PreviewLimit)
	assert.True(t, cfg.UseColors)
	assert.Equal(t, DefaultUpdateRepo, cfg.UpdateRepo)
	assert.Equal(t, "127.0.0.1:8080", cfg.ServeAddr)
	assert.Equal(t, schema.DatabaseBackend(""), cfg.HistoryBackend)
	assert.Empty(t, cfg.Formats)

	assert.Equal(t, schema.DefaultBranchScope, cfg.Scope.Kind())
	assert.Equal(t, schema.DefaultBranchName, cfg.Scope.Value())
	assert.Equal(t, []schema.IssueStatus{schema.OpenStatus}, cfg.Filter.Statuses())
	assert.Empty(t, cfg.Filter.Severities())
}

func TestProcessAndValidateServeAddr(t *testing.T) {
	tests := []struct {
		name string
		addr string
		want string
	}{
		{"default stays on loopback", "", "127.0.0.1:8080"},
		{"explicit address kept", ":9090", ":9090"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			require.NoError(t, ProcessAndValidate(cfg, &ConfigRawInput{Addr: tt.addr}))
			assert.Equal(t, tt.want, cfg.ServeAddr)
		})
	}
}

func TestProcessAndValidateNormalizes(t *testing.T) {
	cfg := &Config{}
	input := &ConfigRawInput{
		Token:         " tok ",
		Project:       "proj",
		Organization:  "ACME-Corp",
		BaseURL:       "http://localhost:9000/",
		DefaultBranch: "develop",
		Timeout:       "5s",
		Statuses:      "confirmed,open",
		Formats:       "JSON, csv,json",
	}
	require.NoError(t, ProcessAndValidate(cfg, input))

	assert.Equal(t, "tok", cfg.Token)
	assert.Equal(t, "acme-corp", cfg.Organization)
	assert.Equal(t, "http://localhost:9000", cfg.BaseURL)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "develop", cfg.Scope.Value())
	assert.Equal(t, "OPEN,CONFIRMED", cfg.Filter.StatusParam())
	assert.Equal(t, []schema.OutputFormat{schema.JSONOut, schema.CSVOut}, cfg.Formats)
}

func TestProcessScope(t *testing.T) {
	tests := []struct {
		name      string
		input     *ConfigRawInput
		wantKind  schema.ScopeKind
		wantValue string
	}{
		{"default branch", &ConfigRawInput{}, schema.DefaultBranchScope, "main"},
		{"configured default", &ConfigRawInput{DefaultBranch: "trunk"}, schema.DefaultBranchScope, "trunk"},
		{"named branch", &ConfigRawInput{Branch: "feature/x"}, schema.BranchScope, "feature/x"},
		{"pull request", &ConfigRawInput{PR: "42"}, schema.PullRequestScope, "42"},
		{"all branches", &ConfigRawInput{AllBranches: true}, schema.AllBranchesScope, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			require.NoError(t, ProcessAndValidate(cfg, tt.input))
			assert.Equal(t, tt.wantKind, cfg.Scope.Kind())
			assert.Equal(t, tt.wantValue, cfg.Scope.Value())
		})
	}
}

func TestProcessScopeMutuallyExclusive(t *testing.T) {
	cfg := &Config{}
	err := ProcessAndValidate(cfg, &ConfigRawInput{PR: "1", AllBranches: true})
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "scope", cfgErr.Field)
}

func TestRequireCredentials(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		wantField string
	}{
		{"missing token", Config{ProjectKey: "p", Organization: "o"}, "token"},
		{"blank token", Config{Token: "  ", ProjectKey: "p", Organization: "o"}, "token"},
		{"missing project", Config{Token: "t", Organization: "o"}, "project"},
		{"missing organization", Config{Token: "t", ProjectKey: "p"}, "organization"},
		{"empty branch scope", Config{Token: "t", ProjectKey: "p", Organization: "o", Scope: schema.NamedBranch("")}, "scope"},
		{"complete", Config{Token: "t", ProjectKey: "p", Organization: "o"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.RequireCredentials()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigurationError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}

func TestConfigClone(t *testing.T) {
	cfg := &Config{
		ProjectKey: "proj",
		Formats:    []schema.OutputFormat{schema.CSVOut},
		Scope:      schema.NamedBranch("dev"),
	}
	clone := cfg.CloneWithScope(schema.PullRequest("7"))
	clone.Formats[0] = schema.JSONOut

	assert.Equal(t, schema.CSVOut, cfg.Formats[0])
	assert.Equal(t, schema.BranchScope, cfg.Scope.Kind())
	assert.Equal(t, schema.PullRequestScope, clone.Scope.Kind())
	assert.Equal(t, "proj", clone.ProjectKey)
}

func TestSonarContext(t *testing.T) {
	cfg := &Config{Token: "t", ProjectKey: "p", Organization: "o", Scope: schema.AllBranchesAggregate()}
	sc := cfg.SonarContext()
	assert.Equal(t, "t", sc.Token)
	assert.Equal(t, "p", sc.ProjectKey)
	assert.Equal(t, "o", sc.Organization)
	assert.Equal(t, schema.AllBranchesScope, sc.Scope.Kind())
}

func TestValidateDatabaseConnectionString(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		conn    string
		wantErr bool
	}{
		{"sqlite empty", schema.SQLiteBackend, "", false},
		{"none", schema.NoneBackend, "", false},
		{"mysql ok", schema.MySQLBackend, "user:pass@tcp(localhost:3306)/history", false},
		{"mysql missing tcp", schema.MySQLBackend, "user:pass@localhost/history", true},
		{"mysql empty", schema.MySQLBackend, "", true},
		{"postgres ok", schema.PostgreSQLBackend, "host=localhost dbname=history", false},
		{"postgres missing dbname", schema.PostgreSQLBackend, "host=localhost", true},
		{"postgres empty", schema.PostgreSQLBackend, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDatabaseConnectionString(tt.backend, tt.conn)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	formats, err := ParseFormats("parquet, CSV ,,json,csv")
	require.NoError(t, err)
	assert.Equal(t, []schema.OutputFormat{schema.ParquetOut, schema.CSVOut, schema.JSONOut}, formats)

	formats, err = ParseFormats("")
	require.NoError(t, err)
	assert.Empty(t, formats)

	_, err = ParseFormats("csv,xml")
	assert.Error(t, err)
}

func TestWithRequest(t *testing.T) {
	base := &Config{
		DefaultBranch: "develop",
		Scope:         schema.DefaultBranch("develop"),
		Filter:        schema.NewFilter([]schema.Severity{schema.MajorSeverity}, nil),
		Formats:       []schema.OutputFormat{schema.CSVOut},
	}

	same, err := base.WithRequest(ExportRequest{})
	require.NoError(t, err)
	assert.Equal(t, base.Scope, same.Scope)
	assert.Equal(t, base.Filter, same.Filter)

	pr, err := base.WithRequest(ExportRequest{Scope: "pull-request", Value: "12", Statuses: "confirmed"})
	require.NoError(t, err)
	assert.Equal(t, schema.PullRequestScope, pr.Scope.Kind())
	assert.Equal(t, "MAJOR", pr.Filter.SeverityParam(), "severities kept")
	assert.Equal(t, "OPEN,CONFIRMED", pr.Filter.StatusParam())
	assert.Equal(t, schema.DefaultBranchScope, base.Scope.Kind(), "base untouched")

	branch, err := base.WithRequest(ExportRequest{Value: "feature/x", Formats: "json,parquet", OutputDir: "/tmp/out"})
	require.NoError(t, err)
	assert.Equal(t, "feature/x", branch.Scope.Label())
	assert.Equal(t, []schema.OutputFormat{schema.JSONOut, schema.ParquetOut}, branch.Formats)
	assert.Equal(t, "/tmp/out", branch.OutputDir)

	for _, req := range []ExportRequest{
		{Scope: "tag"},
		{Scope: "pull-request"},
		{Severities: "HIGH"},
		{Statuses: "DONE"},
		{Formats: "xlsx"},
	} {
		_, err := base.WithRequest(req)
		var cfgErr *ConfigurationError
		assert.True(t, errors.As(err, &cfgErr), "%+v", req)
	}
}
