package menu

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/sonarissues/internal/settings"
	"github.com/huangsam/sonarissues/internal/update"
)

// settingsMenu loops until the operator goes back.
func (m *Menu) settingsMenu(ctx context.Context) error {
	for {
		m.header("Settings")
		m.println("(1) Set SonarCloud token")
		m.println("(2) Set project key")
		m.println("(3) Set organization key")
		m.println("(4) Set default branch")
		m.println("(5) Set default pull request")
		m.println("(6) View current settings")
		m.println("(7) Reconfigure everything")
		m.println("(8) Check for updates")
		m.println("(0) Back to main menu")
		m.rule("=")

		choice, err := m.prompt("Choose: ")
		if err != nil {
			return err
		}
		switch choice {
		case "0":
			return nil
		case "1":
			m.hint("Use a User Token: SonarCloud > My Account > Security > Generate Token")
			err = m.setOne(settings.TokenKey, "New user token: ")
		case "2":
			m.hint("Example: project 'org_project' in organization 'org'")
			err = m.setOne(settings.ProjectKey, "New project key: ")
		case "3":
			err = m.setOne(settings.OrganizationKey, "New organization key (lower case): ")
		case "4":
			m.hint("The default branch is usually main or master")
			err = m.setOne(settings.DefaultBranchKey, "Branch name [main]: ")
		case "5":
			m.hint("Leave empty to clear")
			err = m.setOne(settings.DefaultPRKey, "Default pull request id: ")
		case "6":
			err = m.viewSettings()
		case "7":
			m.println("\nReconfiguring all settings...")
			var current settings.Settings
			if current, err = m.store.Load(); err == nil {
				err = m.configureAll(current)
			}
		case "8":
			err = m.checkForUpdates(ctx)
		default:
			m.warn("Invalid option")
		}
		if errors.Is(err, errQuit) {
			return err
		}
		if err != nil {
			m.fail(err)
		}
	}
}

// setOne prompts for a single setting and saves it.
func (m *Menu) setOne(key, label string) error {
	value, err := m.prompt(label)
	if err != nil {
		return err
	}
	if err := m.store.Set(key, value); err != nil {
		return err
	}
	m.reload()
	m.ok("Settings saved")
	return nil
}

func (m *Menu) viewSettings() error {
	if !m.store.Exists() {
		m.warn("Not configured yet")
		return nil
	}
	current, err := m.store.Load()
	if err != nil {
		return err
	}
	m.header("Current settings")
	if err := settings.Show(m.out, current, m.version()); err != nil {
		return err
	}
	m.rule("=")
	return nil
}

// configureAll prompts for every setting in order. Required values are asked
// again until non-empty.
func (m *Menu) configureAll(current settings.Settings) error {
	m.header("SonarCloud configuration")
	m.hint("Press Ctrl+D to cancel")
	m.rule("-")

	next := current
	required := []struct {
		label  string
		hint   string
		target *string
	}{
		{"1. SonarCloud user token: ", "Generate one at SonarCloud > My Account > Security", &next.Token},
		{"2. Project key: ", "Example: project 'org_project' in organization 'org'", &next.Project},
		{"3. Organization key (lower case): ", "", &next.Organization},
	}
	for _, r := range required {
		if r.hint != "" {
			m.hint(r.hint)
		}
		for {
			value, err := m.prompt(r.label)
			if err != nil {
				m.warn("Configuration canceled")
				return err
			}
			if value != "" {
				*r.target = value
				break
			}
			m.fail(errors.New("value cannot be empty"))
		}
	}

	m.hint("The default branch is usually main or master")
	branch, err := m.prompt("4. Default branch [main]: ")
	if err != nil {
		m.warn("Configuration canceled")
		return err
	}
	next.DefaultBranch = branch

	m.hint("Fill in a pull request id to export it by default, or leave empty")
	pr, err := m.prompt("5. Default pull request id: ")
	if err != nil {
		m.warn("Configuration canceled")
		return err
	}
	next.DefaultPR = pr

	if err := m.store.Save(next); err != nil {
		return fmt.Errorf("saving settings failed: %w", err)
	}
	m.reload()
	m.ok("Settings saved to " + m.store.Path())
	return nil
}

// checkForUpdates runs the self-update with a y/N confirmation.
func (m *Menu) checkForUpdates(ctx context.Context) error {
	var promptErr error
	confirm := func(label string) bool {
		yes, err := m.confirm(label)
		if err != nil {
			promptErr = err
		}
		return yes
	}

	err := m.update(ctx, m.cfg, m.out, confirm)
	switch {
	case promptErr != nil:
		return promptErr
	case errors.Is(err, update.ErrUpToDate):
		m.ok("Already on the latest version")
		return nil
	case errors.Is(err, update.ErrCanceled):
		m.hint("Update canceled")
		return nil
	case err != nil:
		return fmt.Errorf("update failed: %w", err)
	}
	return nil
}
