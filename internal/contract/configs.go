package contract

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/sonarissues/schema"
)

// Default values for configuration.
const (
	DefaultBaseURL      = "https://sonarcloud.io"
	DefaultTimeout      = 30 * time.Second
	DownloadTimeout     = 120 * time.Second
	DefaultPreviewLimit = 20
	MaxPreviewLimit     = 1000
	DefaultUpdateRepo   = "Cola-Pig1121/sonarqube-cloud-issues"
	DefaultServeAddr    = "127.0.0.1:8080" // loopback only; --addr exposes it
)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// Config holds the runtime configuration for an export.
// This struct remains the "final, validated" config.
type Config struct {
	Token         string // Please use env var as this is plaintext
	ProjectKey    string
	Organization  string
	BaseURL       string
	DefaultBranch string
	DefaultPR     string

	Scope  schema.Scope
	Filter schema.Filter

	Formats      []schema.OutputFormat
	OutputDir    string
	ScopeColumns bool // Append branch and PR columns to tabular formats

	Timeout  time.Duration
	PageSize int
	MaxPages int // 0 = unbounded

	Preview      bool // Print a table preview of the fetched issues
	PreviewLimit int
	Width        int // Terminal width override (0 = auto-detect)
	UseColors    bool

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext

	UpdateRepo  string
	GitHubToken string
	ServeAddr   string
	Version     string
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Persisted settings (config file / env) ---
	Token         string `mapstructure:"token"`
	Project       string `mapstructure:"project"`
	Organization  string `mapstructure:"organization"`
	BaseURL       string `mapstructure:"base-url"`
	DefaultBranch string `mapstructure:"default-branch"`
	DefaultPR     string `mapstructure:"default-pr"`

	// --- Fields from rootCmd.PersistentFlags() ---
	Timeout          string `mapstructure:"timeout"`
	PageSize         int    `mapstructure:"page-size"`
	MaxPages         int    `mapstructure:"max-pages"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`

	// --- Fields from exportCmd.Flags() ---
	Branch       string `mapstructure:"branch"`
	PR           string `mapstructure:"pr"`
	AllBranches  bool   `mapstructure:"all-branches"`
	Severities   string `mapstructure:"severities"`
	Statuses     string `mapstructure:"statuses"`
	Formats      string `mapstructure:"formats"`
	OutputDir    string `mapstructure:"output-dir"`
	ScopeColumns bool   `mapstructure:"scope-columns"`
	Preview      bool   `mapstructure:"preview"`
	Limit        int    `mapstructure:"limit"`

	// --- Fields from updateCmd and serveCmd ---
	UpdateRepo  string `mapstructure:"update-repo"`
	GitHubToken string `mapstructure:"github-token"`
	Addr        string `mapstructure:"addr"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Formats = slices.Clone(c.Formats)
	return &clone
}

// CloneWithScope creates a copy of the Config targeting a different scope.
func (c *Config) CloneWithScope(scope schema.Scope) *Config {
	clone := c.Clone()
	clone.Scope = scope
	return clone
}

// SonarContext returns the immutable credential and scope value handed to the fetcher.
func (c *Config) SonarContext() schema.Context {
	return schema.Context{
		Token:        c.Token,
		ProjectKey:   c.ProjectKey,
		Organization: c.Organization,
		Scope:        c.Scope,
	}
}

// RequireCredentials reports the first missing credential as a ConfigurationError.
func (c *Config) RequireCredentials() error {
	return ValidateContext(c.SonarContext())
}

// ValidateContext checks that a fetch context is complete.
func ValidateContext(sc schema.Context) error {
	if strings.TrimSpace(sc.Token) == "" {
		return &ConfigurationError{Field: "token", Message: "SonarCloud token is not set. Run 'sonarissues config set token <value>' or set SONARISSUES_TOKEN"}
	}
	if strings.TrimSpace(sc.ProjectKey) == "" {
		return &ConfigurationError{Field: "project", Message: "project key is not set. Run 'sonarissues config set project <value>'"}
	}
	if strings.TrimSpace(sc.Organization) == "" {
		return &ConfigurationError{Field: "organization", Message: "organization is not set. Run 'sonarissues config set organization <value>'"}
	}
	if err := sc.Scope.Validate(); err != nil {
		return &ConfigurationError{Field: "scope", Message: err.Error()}
	}
	return nil
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct. Credentials are checked separately with
// RequireCredentials so that commands like config and history work without them.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processScope(cfg, input); err != nil {
		return err
	}
	if err := processFilter(cfg, input); err != nil {
		return err
	}
	if err := processFormats(cfg, input); err != nil {
		return err
	}
	if err := validateHistoryBackend(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateSimpleInputs processes and validates the credential, transport and display fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.Token = strings.TrimSpace(input.Token)
	cfg.ProjectKey = strings.TrimSpace(input.Project)
	cfg.Organization = strings.ToLower(strings.TrimSpace(input.Organization))
	cfg.DefaultBranch = strings.TrimSpace(input.DefaultBranch)
	cfg.DefaultPR = strings.TrimSpace(input.DefaultPR)
	cfg.OutputDir = input.OutputDir
	cfg.ScopeColumns = input.ScopeColumns
	cfg.Preview = input.Preview
	cfg.Width = input.Width
	cfg.GitHubToken = input.GitHubToken

	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(input.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if !strings.HasPrefix(cfg.BaseURL, "http://") && !strings.HasPrefix(cfg.BaseURL, "https://") {
		return fmt.Errorf("base-url must start with http:// or https:// (received %q)", input.BaseURL)
	}

	cfg.Timeout = DefaultTimeout
	if input.Timeout != "" {
		d, err := time.ParseDuration(input.Timeout)
		if err != nil {
			return fmt.Errorf("invalid --timeout value '%s': %w", input.Timeout, err)
		}
		if d <= 0 {
			return fmt.Errorf("timeout must be greater than 0 (received %s)", input.Timeout)
		}
		cfg.Timeout = d
	}

	cfg.PageSize = schema.PageSize
	if input.PageSize != 0 {
		if input.PageSize < 1 || input.PageSize > schema.PageSize {
			return fmt.Errorf("page-size must be between 1 and %d (received %d)", schema.PageSize, input.PageSize)
		}
		cfg.PageSize = input.PageSize
	}

	if input.MaxPages < 0 {
		return fmt.Errorf("max-pages cannot be negative (received %d)", input.MaxPages)
	}
	cfg.MaxPages = input.MaxPages

	cfg.PreviewLimit = DefaultPreviewLimit
	if input.Limit != 0 {
		if input.Limit < 0 || input.Limit > MaxPreviewLimit {
			return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxPreviewLimit, input.Limit)
		}
		cfg.PreviewLimit = input.Limit
	}

	cfg.UseColors = true
	if input.Color != "" {
		colors, err := ParseBoolString(input.Color)
		if err != nil {
			return fmt.Errorf("invalid --color value: %w", err)
		}
		cfg.UseColors = colors
	}

	cfg.UpdateRepo = strings.TrimSpace(input.UpdateRepo)
	if cfg.UpdateRepo == "" {
		cfg.UpdateRepo = DefaultUpdateRepo
	}
	if owner, repo, ok := strings.Cut(cfg.UpdateRepo, "/"); !ok || owner == "" || repo == "" {
		return fmt.Errorf("update-repo must look like owner/name (received %q)", input.UpdateRepo)
	}

	cfg.ServeAddr = input.Addr
	if cfg.ServeAddr == "" {
		cfg.ServeAddr = DefaultServeAddr
	}
	return nil
}

// processScope resolves the mutually exclusive scope flags into a single scope.
func processScope(cfg *Config, input *ConfigRawInput) error {
	branch := strings.TrimSpace(input.Branch)
	pr := strings.TrimSpace(input.PR)

	selected := 0
	for _, set := range []bool{branch != "", pr != "", input.AllBranches} {
		if set {
			selected++
		}
	}
	if selected > 1 {
		return &ConfigurationError{Field: "scope", Message: "--branch, --pr and --all-branches are mutually exclusive"}
	}

	switch {
	case branch != "":
		cfg.Scope = schema.NamedBranch(branch)
	case pr != "":
		cfg.Scope = schema.PullRequest(pr)
	case input.AllBranches:
		cfg.Scope = schema.AllBranchesAggregate()
	default:
		cfg.Scope = schema.DefaultBranch(cfg.DefaultBranch)
	}
	return nil
}

// processFilter builds the severity and status filter. Unknown values are rejected
// on the command line; the interactive menu warns and skips them instead.
func processFilter(cfg *Config, input *ConfigRawInput) error {
	severities, invalid := schema.ParseSeverities(input.Severities)
	if len(invalid) > 0 {
		return fmt.Errorf("invalid severities %v. must be a subset of BLOCKER, CRITICAL, MAJOR, MINOR, INFO", invalid)
	}
	statuses, invalid := schema.ParseStatuses(input.Statuses)
	if len(invalid) > 0 {
		return fmt.Errorf("invalid statuses %v. must be a subset of OPEN, CONFIRMED, REOPENED, RESOLVED, CLOSED, REVIEWED", invalid)
	}
	cfg.Filter = schema.NewFilter(severities, statuses)
	return nil
}

// processFormats parses the comma-separated output format list.
func processFormats(cfg *Config, input *ConfigRawInput) error {
	formats, err := ParseFormats(input.Formats)
	if err != nil {
		return err
	}
	cfg.Formats = formats
	return nil
}

// ParseFormats parses a comma-separated list of output formats, keeping the
// first occurrence of each.
func ParseFormats(s string) ([]schema.OutputFormat, error) {
	var formats []schema.OutputFormat
	for part := range strings.SplitSeq(s, ",") {
		f := schema.OutputFormat(strings.ToLower(strings.TrimSpace(part)))
		if f == "" {
			continue
		}
		if _, ok := schema.ValidOutputFormats[f]; !ok {
			return nil, fmt.Errorf("invalid output format '%s'. must be parquet, csv, json", part)
		}
		if !slices.Contains(formats, f) {
			formats = append(formats, f)
		}
	}
	return formats, nil
}

// validateHistoryBackend validates the export history backend configuration.
// An empty backend disables history recording.
func validateHistoryBackend(cfg *Config, input *ConfigRawInput) error {
	cfg.HistoryBackend = schema.DatabaseBackend(strings.ToLower(input.HistoryBackend))
	if cfg.HistoryBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	return ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// ExportRequest carries per-request overrides from the HTTP and MCP surfaces.
// Empty fields keep the base configuration.
type ExportRequest struct {
	Scope      string // default-branch, branch, pull-request or all-branches
	Value      string // branch name or pull request id
	Severities string
	Statuses   string
	Formats    string
	OutputDir  string
}

// WithRequest returns a copy of the config with the request overrides applied.
func (c *Config) WithRequest(req ExportRequest) (*Config, error) {
	clone := c.Clone()

	if req.Scope != "" || req.Value != "" {
		kind := req.Scope
		if kind == "" {
			kind = string(schema.BranchScope)
		}
		scope, err := schema.ParseScope(kind, req.Value, c.DefaultBranch)
		if err != nil {
			return nil, &ConfigurationError{Field: "scope", Message: err.Error()}
		}
		clone.Scope = scope
	}

	if req.Severities != "" || req.Statuses != "" {
		severities := clone.Filter.Severities()
		if req.Severities != "" {
			var invalid []string
			severities, invalid = schema.ParseSeverities(req.Severities)
			if len(invalid) > 0 {
				return nil, &ConfigurationError{Field: "severities", Message: fmt.Sprintf("invalid severities %v", invalid)}
			}
		}
		statuses := clone.Filter.Statuses()
		if req.Statuses != "" {
			var invalid []string
			statuses, invalid = schema.ParseStatuses(req.Statuses)
			if len(invalid) > 0 {
				return nil, &ConfigurationError{Field: "statuses", Message: fmt.Sprintf("invalid statuses %v", invalid)}
			}
		}
		clone.Filter = schema.NewFilter(severities, statuses)
	}

	if req.Formats != "" {
		formats, err := ParseFormats(req.Formats)
		if err != nil {
			return nil, &ConfigurationError{Field: "formats", Message: err.Error()}
		}
		clone.Formats = formats
	}
	if req.OutputDir != "" {
		clone.OutputDir = req.OutputDir
	}
	return clone, nil
}
