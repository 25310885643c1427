package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/huangsam/sonarissues/internal/contract"
	"github.com/huangsam/sonarissues/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteRunsTable prints recorded export runs, most recent first.
func WriteRunsTable(w io.Writer, runs []schema.ExportRun, useColors bool) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"#", "Started", "Project", "Scope", "PR", "Issues", "Pages", "Formats", "Outcome", "Took"})
	table.Configure(func(tc *tablewriter.Config) {
		tc.Row.Alignment.Global = tw.AlignRight
	})

	var green, yellow, red func(...any) string
	if useColors {
		green = color.New(color.FgGreen).SprintFunc()
		yellow = color.New(color.FgYellow).SprintFunc()
		red = color.New(color.FgRed).SprintFunc()
	} else {
		green = fmt.Sprint
		yellow = fmt.Sprint
		red = fmt.Sprint
	}

	var data [][]string
	for i, r := range runs {
		outcome := string(r.Outcome)
		switch r.Outcome {
		case schema.SuccessOutcome:
			outcome = green(outcome)
		case schema.PartialOutcome:
			outcome = yellow(outcome)
		case schema.FailedOutcome:
			outcome = red(outcome)
		}
		data = append(data, []string{
			strconv.Itoa(i + 1),
			humanize.Time(r.StartTime),
			r.Project,
			r.ScopeLabel,
			r.PRLabel,
			strconv.Itoa(r.FetchedCount),
			strconv.Itoa(r.Pages),
			strings.Join(r.Formats, ","),
			outcome,
			r.Duration().Round(time.Millisecond).String(),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d runs\n", len(runs))
	return err
}

// WriteHistoryStatus prints the history store status block.
func WriteHistoryStatus(w io.Writer, status schema.HistoryStatus) error {
	lines := []string{
		"📚 Export history",
		fmt.Sprintf("  Backend:      %s", status.Backend),
		fmt.Sprintf("  Connected:    %t", status.Connected),
		fmt.Sprintf("  Total runs:   %d (%d failed)", status.TotalRuns, status.FailedRuns),
		fmt.Sprintf("  Total issues: %s", humanize.Comma(int64(status.TotalIssues))),
	}
	if status.LastRunID != "" {
		lines = append(lines,
			fmt.Sprintf("  Last run:     %s (%s)", status.LastRunID, status.LastRunTime.Format(contract.DateTimeFormat)),
			fmt.Sprintf("  Oldest run:   %s", status.OldestRunTime.Format(contract.DateTimeFormat)),
		)
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
