// Package menu implements the interactive numbered-menu front end.
package menu

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/huangsam/sonarissues/core"
	"github.com/huangsam/sonarissues/internal/contract"
	"github.com/huangsam/sonarissues/internal/outwriter"
	"github.com/huangsam/sonarissues/internal/settings"
	"github.com/huangsam/sonarissues/internal/sonar"
	"github.com/huangsam/sonarissues/internal/update"
)

// errQuit ends the loop when input is exhausted.
var errQuit = errors.New("input closed")

const ruleWidth = 60

// SourceFactory builds the issue source for one export.
type SourceFactory func(cfg *contract.Config) contract.IssueSource

// UpdateFunc checks for and installs a newer release.
type UpdateFunc func(ctx context.Context, cfg *contract.Config, out io.Writer, confirm func(prompt string) bool) error

// Menu drives the interactive session over an input and output stream.
type Menu struct {
	cfg       *contract.Config
	store     *settings.Store
	mgr       contract.HistoryManager
	newSource SourceFactory
	exporter  core.IssueExporter
	update    UpdateFunc

	in  *bufio.Reader
	out io.Writer

	titleStyle lipgloss.Style
	okStyle    lipgloss.Style
	warnStyle  lipgloss.Style
	errStyle   lipgloss.Style
	dimStyle   lipgloss.Style
}

// Option configures a Menu.
type Option func(*Menu)

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(m *Menu) {
		m.in = bufio.NewReader(in)
		m.out = out
	}
}

// WithSourceFactory replaces the SonarCloud client used for exports.
func WithSourceFactory(f SourceFactory) Option {
	return func(m *Menu) { m.newSource = f }
}

// WithExporter replaces the format writers.
func WithExporter(e core.IssueExporter) Option {
	return func(m *Menu) { m.exporter = e }
}

// WithUpdate replaces the self-update action.
func WithUpdate(f UpdateFunc) Option {
	return func(m *Menu) { m.update = f }
}

// New builds a menu over cfg. Settings from store override the credential and
// default scope fields of cfg whenever they change.
func New(cfg *contract.Config, store *settings.Store, mgr contract.HistoryManager, opts ...Option) *Menu {
	m := &Menu{
		cfg:   cfg.Clone(),
		store: store,
		mgr:   mgr,
		newSource: func(c *contract.Config) contract.IssueSource {
			return sonar.NewClientFromConfig(c)
		},
		exporter: outwriter.NewOutWriter(),
		update:   runUpdate,
		in:       bufio.NewReader(os.Stdin),
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(m)
	}

	m.titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	m.okStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	m.warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	m.errStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	m.dimStyle = lipgloss.NewStyle().Faint(true)
	return m
}

// Run shows the banner, makes sure credentials exist and loops over the main menu
// until the operator exits, input ends or ctx is canceled.
func (m *Menu) Run(ctx context.Context) error {
	m.rule("=")
	m.println(m.styled(m.titleStyle, "SonarCloud Issues v"+m.version()))
	m.println("Export issues to Parquet, CSV and JSON")
	m.rule("=")

	if err := m.ensureConfigured(); err != nil {
		if errors.Is(err, errQuit) {
			return nil
		}
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		m.header("SonarCloud Issues Main Menu")
		m.println("(1) Export issues")
		m.println("(2) Settings")
		m.println("(0) Exit")
		m.rule("=")

		choice, err := m.prompt("Choose: ")
		if err != nil {
			return nil
		}
		switch choice {
		case "0":
			m.println("Bye")
			return nil
		case "1":
			err = m.exportFlow(ctx)
		case "2":
			err = m.settingsMenu(ctx)
		default:
			m.warn("Invalid option")
		}
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// ensureConfigured runs the first-run prompt when credentials are missing.
func (m *Menu) ensureConfigured() error {
	current, err := m.store.Load()
	if err != nil {
		return err
	}
	if current.Complete() {
		m.apply(current)
		return nil
	}
	if m.cfg.RequireCredentials() == nil {
		return nil // provided by environment or flags
	}
	m.println("\nFirst run: configuration required")
	if err := m.configureAll(current); err != nil {
		return err
	}
	return nil
}

// apply copies persisted settings into the working config.
func (m *Menu) apply(s settings.Settings) {
	m.cfg.Token = s.Token
	m.cfg.ProjectKey = s.Project
	m.cfg.Organization = s.Organization
	m.cfg.DefaultBranch = s.DefaultBranch
	m.cfg.DefaultPR = s.DefaultPR
}

// reload re-reads the settings file after a change.
func (m *Menu) reload() {
	s, err := m.store.Load()
	if err != nil {
		m.fail(err)
		return
	}
	m.apply(s)
}

func (m *Menu) version() string {
	if m.cfg.Version == "" {
		return core.DefaultVersion
	}
	return m.cfg.Version
}

// prompt prints label and reads one trimmed line.
func (m *Menu) prompt(label string) (string, error) {
	_, _ = fmt.Fprint(m.out, label)
	line, err := m.in.ReadString('\n')
	if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
		_, _ = fmt.Fprintln(m.out)
		return "", errQuit
	}
	return strings.TrimSpace(line), nil
}

// confirm asks a y/N question; anything but y or yes is no.
func (m *Menu) confirm(label string) (bool, error) {
	answer, err := m.prompt(label)
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(answer)
	return answer == "y" || answer == "yes", nil
}

func (m *Menu) styled(style lipgloss.Style, text string) string {
	if !m.cfg.UseColors || !outwriter.ColorsEnabled() {
		return text
	}
	return style.Render(text)
}

func (m *Menu) println(a ...any) {
	_, _ = fmt.Fprintln(m.out, a...)
}

func (m *Menu) printf(format string, a ...any) {
	_, _ = fmt.Fprintf(m.out, format, a...)
}

func (m *Menu) rule(ch string) {
	m.println(strings.Repeat(ch, ruleWidth))
}

func (m *Menu) header(title string) {
	m.println()
	m.rule("=")
	m.println(m.styled(m.titleStyle, title))
	m.rule("=")
}

func (m *Menu) hint(msg string) {
	m.println(m.styled(m.dimStyle, msg))
}

func (m *Menu) ok(msg string) {
	m.println(m.styled(m.okStyle, "✅ "+msg))
}

func (m *Menu) warn(msg string) {
	m.println(m.styled(m.warnStyle, "⚠️  "+msg))
}

func (m *Menu) fail(err error) {
	m.println(m.styled(m.errStyle, "❌ "+err.Error()))
}

// runUpdate is the default UpdateFunc backed by GitHub releases.
func runUpdate(ctx context.Context, cfg *contract.Config, out io.Writer, confirm func(prompt string) bool) error {
	u, err := update.NewUpdater(ctx, cfg, update.WithOutput(out))
	if err != nil {
		return err
	}
	_, err = u.Run(ctx, confirm)
	return err
}
