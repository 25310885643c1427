package schema

// Custom string types for type safety.
type (
	// Severity represents a SonarCloud issue severity level.
	Severity string

	// IssueStatus represents a SonarCloud issue lifecycle status.
	IssueStatus string

	// OutputFormat represents the format of an export file.
	OutputFormat string

	// ScopeKind represents which part of the project an export targets.
	ScopeKind string

	// DatabaseBackend represents the database backend for export history.
	DatabaseBackend string

	// RunOutcome represents how an export run ended.
	RunOutcome string
)

// All severity levels supported by the issue search API.
const (
	BlockerSeverity  Severity = "BLOCKER"
	CriticalSeverity Severity = "CRITICAL"
	MajorSeverity    Severity = "MAJOR"
	MinorSeverity    Severity = "MINOR"
	InfoSeverity     Severity = "INFO"
)

// All issue statuses supported by the issue search API.
const (
	OpenStatus      IssueStatus = "OPEN" // baseline, always requested
	ConfirmedStatus IssueStatus = "CONFIRMED"
	ReopenedStatus  IssueStatus = "REOPENED"
	ResolvedStatus  IssueStatus = "RESOLVED"
	ClosedStatus    IssueStatus = "CLOSED"
	ReviewedStatus  IssueStatus = "REVIEWED"
)

// All export formats supported.
const (
	ParquetOut OutputFormat = "parquet" // tabular-binary
	CSVOut     OutputFormat = "csv"     // delimited-text
	JSONOut    OutputFormat = "json"    // structured-text
)

// All scope kinds supported.
const (
	DefaultBranchScope ScopeKind = "default-branch" // default
	BranchScope        ScopeKind = "branch"
	PullRequestScope   ScopeKind = "pull-request"
	AllBranchesScope   ScopeKind = "all-branches"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite"
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All run outcomes recorded in history.
const (
	SuccessOutcome RunOutcome = "success"
	PartialOutcome RunOutcome = "partial"
	FailedOutcome  RunOutcome = "failed"
)

// Pipeline constants.
const (
	// PageSize is the number of issues requested per search page.
	PageSize = 500

	// OutputPrefix prefixes every export file name.
	OutputPrefix = "sonarcloud_issues"

	// TimestampLayout is the suffix layout of export file names.
	TimestampLayout = "20060102_150405"

	// DefaultAuthor replaces a missing issue author.
	DefaultAuthor = "N/A"

	// AggregateLabel is the scope label when no single branch is targeted.
	AggregateLabel = "ALL"

	// NoPRLabel is the PR label when no pull request is targeted.
	NoPRLabel = "N/A"

	// DefaultBranchName is used when no default branch is configured.
	DefaultBranchName = "main"
)

// AllSeverities lists every severity in descending order of impact.
var AllSeverities = []Severity{BlockerSeverity, CriticalSeverity, MajorSeverity, MinorSeverity, InfoSeverity}

// AllStatuses lists every status, baseline first.
var AllStatuses = []IssueStatus{OpenStatus, ConfirmedStatus, ReopenedStatus, ResolvedStatus, ClosedStatus, ReviewedStatus}

// AllOutputFormats lists every export format in menu order.
var AllOutputFormats = []OutputFormat{ParquetOut, CSVOut, JSONOut}

// ValidSeverities lists all valid severities.
var ValidSeverities = map[Severity]struct{}{
	BlockerSeverity:  {},
	CriticalSeverity: {},
	MajorSeverity:    {},
	MinorSeverity:    {},
	InfoSeverity:     {},
}

// ValidStatuses lists all valid statuses.
var ValidStatuses = map[IssueStatus]struct{}{
	OpenStatus:      {},
	ConfirmedStatus: {},
	ReopenedStatus:  {},
	ResolvedStatus:  {},
	ClosedStatus:    {},
	ReviewedStatus:  {},
}

// ValidOutputFormats lists all valid export formats.
var ValidOutputFormats = map[OutputFormat]struct{}{
	ParquetOut: {},
	CSVOut:     {},
	JSONOut:    {},
}

// ValidScopeKinds lists all valid scope kinds.
var ValidScopeKinds = map[ScopeKind]struct{}{
	DefaultBranchScope: {},
	BranchScope:        {},
	PullRequestScope:   {},
	AllBranchesScope:   {},
}

// ValidDatabaseBackends lists all valid history backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}
