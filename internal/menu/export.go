package menu

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/huangsam/sonarissues/core"
	"github.com/huangsam/sonarissues/internal/outwriter"
	"github.com/huangsam/sonarissues/schema"
)

type formatChoice struct {
	key    string
	format schema.OutputFormat
	label  string
}

// formatChoices maps the numbered format menu to output formats.
var formatChoices = []formatChoice{
	{"1", schema.ParquetOut, "Parquet (.parquet) - for DuckDB and pandas, not a spreadsheet format (use CSV for Excel)"},
	{"2", schema.CSVOut, "CSV (.csv) - opens in Excel and other spreadsheets, UTF-8 with BOM"},
	{"3", schema.JSONOut, "JSON (.json) - for programs and backups"},
}

// exportFlow asks for filters, scope and formats and runs one export.
// Fetch and write failures are reported and the menu returns to idle.
func (m *Menu) exportFlow(ctx context.Context) error {
	cfg := m.cfg.Clone()

	var severities []schema.Severity
	yes, err := m.confirm("\nFilter issues by severity? (y/N): ")
	if err != nil {
		return err
	}
	if yes {
		if severities, err = m.selectSeverities(); err != nil {
			return err
		}
		if len(severities) == 0 {
			m.hint("Severity filter canceled")
		} else {
			m.hint("Selected severities: " + joinValues(severities))
		}
	}

	var statuses []schema.IssueStatus
	yes, err = m.confirm("\nInclude statuses other than OPEN? (y/N): ")
	if err != nil {
		return err
	}
	if yes {
		if statuses, err = m.selectStatuses(); err != nil {
			return err
		}
	}
	cfg.Filter = schema.NewFilter(severities, statuses)
	if yes {
		m.hint("Selected statuses: " + cfg.Filter.StatusParam())
	} else {
		m.hint("Exporting OPEN issues only")
	}

	scope, ok, err := m.selectScope(cfg.DefaultBranch)
	if err != nil || !ok {
		return err
	}
	cfg.Scope = scope

	if err := cfg.RequireCredentials(); err != nil {
		m.fail(err)
		return nil
	}

	canonical, err := core.FetchCanonical(ctx, cfg, m.newSource(cfg))
	if err != nil {
		core.RecordUnwritten(ctx, cfg, canonical, m.mgr, err)
		if errors.Is(err, core.ErrNoIssues) {
			m.warn("No issues found")
			if werr := outwriter.WriteTroubleshooting(m.out, cfg.BaseURL, cfg.SonarContext(), cfg.UseColors); werr != nil {
				m.fail(werr)
			}
			return nil
		}
		m.fail(fmt.Errorf("export failed, check the error above: %w", err))
		return nil
	}
	m.ok(fmt.Sprintf("Fetched %d issues in %d page(s)", len(canonical.Issues), canonical.Pages))

	formats, ok, err := m.selectFormats()
	if err != nil || !ok {
		return err
	}
	cfg.Formats = formats

	m.header("Exporting...")
	outcome, err := core.WriteExport(ctx, cfg, canonical, m.mgr, m.exporter)
	if err != nil {
		m.fail(err)
		return nil
	}
	for _, f := range outcome.Report.Files {
		m.printf("  [%s] %s\n", strings.ToUpper(string(f.Format)), f.Path)
	}
	for _, e := range outcome.Report.Errors {
		m.warn(e.Error())
	}
	m.ok(fmt.Sprintf("Export finished: %d issues", len(canonical.Issues)))
	return nil
}

// selectSeverities reads a severity list. Invalid entries are warned about and
// skipped; nothing valid means no filter.
func (m *Menu) selectSeverities() ([]schema.Severity, error) {
	m.header("Select issue severities")
	m.println("Options: BLOCKER, CRITICAL, MAJOR, MINOR, INFO")
	m.hint("Separate several with commas (e.g. BLOCKER,CRITICAL). Press Enter for all.")
	m.rule("=")

	answer, err := m.prompt("Severities: ")
	if err != nil || answer == "" {
		return nil, err
	}
	valid, invalid := schema.ParseSeverities(answer)
	if len(invalid) > 0 {
		m.warn("Ignoring invalid severities: " + strings.Join(invalid, ", "))
		m.hint("Valid severities: BLOCKER, CRITICAL, MAJOR, MINOR, INFO")
	}
	if len(valid) == 0 {
		m.hint("No valid severity selected, exporting all severities")
	}
	return valid, nil
}

// selectStatuses reads extra statuses; OPEN is always part of the filter.
func (m *Menu) selectStatuses() ([]schema.IssueStatus, error) {
	m.header("Select issue statuses")
	m.println("Options: OPEN, CONFIRMED, REOPENED, RESOLVED, CLOSED, REVIEWED")
	m.hint("OPEN is always included. Separate extra statuses with commas (e.g. CONFIRMED,REOPENED).")
	m.rule("=")

	answer, err := m.prompt("Extra statuses [none]: ")
	if err != nil || answer == "" {
		return nil, err
	}
	valid, invalid := schema.ParseStatuses(answer)
	if len(invalid) > 0 {
		m.warn("Ignoring invalid statuses: " + strings.Join(invalid, ", "))
		m.hint("Valid statuses: CONFIRMED, REOPENED, RESOLVED, CLOSED, REVIEWED")
	}
	return valid, nil
}

// selectScope returns ok=false when the operator goes back.
func (m *Menu) selectScope(defaultBranch string) (schema.Scope, bool, error) {
	if defaultBranch == "" {
		defaultBranch = schema.DefaultBranchName
	}
	m.header("Select export scope")
	m.printf("(1) Default branch: %s\n", defaultBranch)
	m.println("(2) Named branch")
	m.println("(3) Pull request")
	m.println("(4) All branches (aggregate)")
	m.println("(0) Back")
	m.rule("=")

	choice, err := m.prompt("Choose: ")
	if err != nil {
		return schema.Scope{}, false, err
	}
	switch choice {
	case "0":
		return schema.Scope{}, false, nil
	case "1":
		return schema.DefaultBranch(defaultBranch), true, nil
	case "2":
		name, err := m.prompt("Branch name: ")
		if err != nil {
			return schema.Scope{}, false, err
		}
		if name == "" {
			m.fail(errors.New("branch name cannot be empty"))
			return schema.Scope{}, false, nil
		}
		return schema.NamedBranch(name), true, nil
	case "3":
		id, err := m.prompt("Pull request id: ")
		if err != nil {
			return schema.Scope{}, false, err
		}
		scope := schema.PullRequest(id)
		if err := scope.Validate(); err != nil {
			m.fail(err)
			return schema.Scope{}, false, nil
		}
		return scope, true, nil
	case "4":
		return schema.AllBranchesAggregate(), true, nil
	default:
		m.warn("Invalid option")
		return schema.Scope{}, false, nil
	}
}

// selectFormats re-prompts until every entry is valid. ok=false means back.
func (m *Menu) selectFormats() ([]schema.OutputFormat, bool, error) {
	m.header("Select export formats")
	for _, c := range formatChoices {
		m.printf("(%s) %s\n", c.key, c.label)
	}
	m.rule("-")
	m.hint("Enter several numbers separated by commas (e.g. 1,3). Enter 0 to go back.")
	m.rule("=")

	for {
		answer, err := m.prompt("\nFormats: ")
		if err != nil {
			return nil, false, err
		}
		if answer == "0" {
			return nil, false, nil
		}

		var selected []schema.OutputFormat
		valid := true
		for item := range strings.SplitSeq(answer, ",") {
			item = strings.TrimSpace(item)
			idx := slices.IndexFunc(formatChoices, func(c formatChoice) bool { return c.key == item })
			if idx < 0 {
				m.warn("Invalid option: " + item)
				valid = false
				break
			}
			if f := formatChoices[idx].format; !slices.Contains(selected, f) {
				selected = append(selected, f)
			}
		}
		if valid && len(selected) > 0 {
			return selected, true, nil
		}
		m.hint("Please choose again")
	}
}

func joinValues[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ",")
}
