package outwriter

import (
	"fmt"
	"io"
	"strconv"

	"github.com/huangsam/sonarissues/internal/contract"
	"github.com/huangsam/sonarissues/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteIssueTable prints a human-readable preview of the first issues.
func WriteIssueTable(w io.Writer, issues []schema.Issue, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)

	headers := []string{"#", "Severity", "Type", "File", "Line", "Rule", "Message"}
	if cfg.ScopeColumns {
		headers = append(headers, "Branch", "PR")
	}
	table.Header(headers)

	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignLeft
	})

	limit := cfg.PreviewLimit
	if limit <= 0 || limit > len(issues) {
		limit = len(issues)
	}
	pathWidth := GetMaxTablePathWidth(cfg)

	var data [][]string
	for i, is := range issues[:limit] {
		severity := is.Severity
		if cfg.UseColors {
			severity = contract.GetColorLabel(is.Severity)
		}
		row := []string{
			strconv.Itoa(i + 1),
			severity,
			is.Type,
			contract.TruncatePath(is.FilePath, pathWidth),
			is.LineString(),
			is.Rule,
			contract.TruncateText(is.Message, messageWidth),
		}
		if cfg.ScopeColumns {
			row = append(row, is.ScopeLabel, is.PRLabel)
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	counts := CountBySeverity(issues)
	summary := ""
	for _, sev := range schema.AllSeverities {
		if n := counts[sev]; n > 0 {
			summary += fmt.Sprintf(" %s=%d", sev, n)
		}
	}
	if _, err := fmt.Fprintf(w, "Showing %d of %d issues.%s\n", limit, len(issues), summary); err != nil {
		return err
	}
	return nil
}

// CountBySeverity tallies issues per severity.
func CountBySeverity(issues []schema.Issue) map[schema.Severity]int {
	counts := make(map[schema.Severity]int)
	for _, is := range issues {
		counts[schema.Severity(is.Severity)]++
	}
	return counts
}
