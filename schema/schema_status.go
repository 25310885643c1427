package schema

import "time"

// ExportRun is one recorded export invocation.
type ExportRun struct {
	RunID         string
	Project       string
	Organization  string
	ScopeLabel    string
	PRLabel       string
	Severities    string
	Statuses      string
	ReportedTotal int
	FetchedCount  int
	Pages         int
	Formats       []string
	Files         []string
	Outcome       RunOutcome
	ErrorMessage  string
	StartTime     time.Time
	EndTime       time.Time
}

// Duration returns how long the run took.
func (r ExportRun) Duration() time.Duration {
	if r.EndTime.IsZero() {
		return 0
	}
	return r.EndTime.Sub(r.StartTime)
}

// HistoryStatus represents the status of the history store.
type HistoryStatus struct {
	Backend       string    `json:"backend"`
	Connected     bool      `json:"connected"`
	TotalRuns     int       `json:"total_runs"`
	FailedRuns    int       `json:"failed_runs"`
	TotalIssues   int       `json:"total_issues"`
	LastRunID     string    `json:"last_run_id"`
	LastRunTime   time.Time `json:"last_run_time"`
	OldestRunTime time.Time `json:"oldest_run_time"`
}
