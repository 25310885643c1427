// Package settings persists operator settings (credentials, project coordinates and
// scope defaults) to the YAML config file that the CLI also reads.
package settings

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/huangsam/sonarissues/internal/contract"
	"github.com/huangsam/sonarissues/schema"
	"github.com/spf13/viper"
)

// FileName is the config file name searched in the working and home directories.
const FileName = ".sonarissues.yaml"

// Setting keys. They match the mapstructure keys of contract.ConfigRawInput.
const (
	TokenKey         = "token"
	ProjectKey       = "project"
	OrganizationKey  = "organization"
	DefaultBranchKey = "default-branch"
	DefaultPRKey     = "default-pr"
	CreatedAtKey     = "created-at"
	UpdatedAtKey     = "updated-at"
)

// Keys lists the settings that can be changed with Set, in display order.
var Keys = []string{TokenKey, ProjectKey, OrganizationKey, DefaultBranchKey, DefaultPRKey}

// ErrUnknownKey is returned by Set for keys outside Keys.
var ErrUnknownKey = errors.New("unknown setting")

// Settings is the persisted operator configuration.
type Settings struct {
	Token         string `mapstructure:"token"`
	Project       string `mapstructure:"project"`
	Organization  string `mapstructure:"organization"`
	DefaultBranch string `mapstructure:"default-branch"`
	DefaultPR     string `mapstructure:"default-pr"`
	CreatedAt     string `mapstructure:"created-at"`
	UpdatedAt     string `mapstructure:"updated-at"`
}

// Complete reports whether every credential needed for an export is present.
func (s Settings) Complete() bool {
	return s.Token != "" && s.Project != "" && s.Organization != ""
}

// Store reads and writes one settings file.
type Store struct {
	path string
	now  func() time.Time
}

// DefaultPath returns ./.sonarissues.yaml when it exists, else the file in the home directory.
func DefaultPath() string {
	if _, err := os.Stat(FileName); err == nil {
		return FileName
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return FileName
	}
	return filepath.Join(home, FileName)
}

// NewStore returns a store for path, or DefaultPath when path is empty.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path, now: time.Now}
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Exists reports whether the settings file is present.
func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// read loads the file into a dedicated viper instance so unrelated keys survive a write.
func (s *Store) read() (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigFile(s.path)
	v.SetConfigType("yaml")
	if !s.Exists() {
		return v, nil
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading settings file %s: %w", s.path, err)
	}
	return v, nil
}

// Load returns the persisted settings. A missing file yields zero settings
// with the default branch filled in.
func (s *Store) Load() (Settings, error) {
	v, err := s.read()
	if err != nil {
		return Settings{}, err
	}
	var out Settings
	if err := v.Unmarshal(&out); err != nil {
		return Settings{}, fmt.Errorf("unable to decode settings: %w", err)
	}
	if out.DefaultBranch == "" {
		out.DefaultBranch = schema.DefaultBranchName
	}
	return out, nil
}

// normalize trims a value and applies per-key rules.
func normalize(key, value string) (string, error) {
	value = strings.TrimSpace(value)
	switch key {
	case TokenKey, ProjectKey, OrganizationKey:
		if value == "" {
			return "", fmt.Errorf("%s cannot be empty", key)
		}
		if key == OrganizationKey {
			value = strings.ToLower(value)
		}
	case DefaultBranchKey:
		if value == "" {
			value = schema.DefaultBranchName
		}
	case DefaultPRKey:
		// empty clears the default pull request
	default:
		return "", fmt.Errorf("%w '%s'. must be one of %s", ErrUnknownKey, key, strings.Join(Keys, ", "))
	}
	return value, nil
}

// Set changes one setting and writes the file.
func (s *Store) Set(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	value, err := normalize(key, value)
	if err != nil {
		return err
	}

	v, err := s.read()
	if err != nil {
		return err
	}
	v.Set(key, value)
	if v.GetString(CreatedAtKey) == "" {
		v.Set(CreatedAtKey, s.now().Format(contract.DateTimeFormat))
	}
	v.Set(UpdatedAtKey, s.now().Format(contract.DateTimeFormat))
	return s.write(v)
}

// Save replaces every setting at once, as a first-run or full reconfiguration does.
func (s *Store) Save(in Settings) error {
	values := map[string]string{
		TokenKey:         in.Token,
		ProjectKey:       in.Project,
		OrganizationKey:  in.Organization,
		DefaultBranchKey: in.DefaultBranch,
		DefaultPRKey:     in.DefaultPR,
	}

	v, err := s.read()
	if err != nil {
		return err
	}
	for _, key := range Keys {
		value, err := normalize(key, values[key])
		if err != nil {
			return err
		}
		v.Set(key, value)
	}
	now := s.now().Format(contract.DateTimeFormat)
	v.Set(CreatedAtKey, now)
	v.Set(UpdatedAtKey, now)
	return s.write(v)
}

// write persists the viper state with owner-only permissions since it holds a token.
func (s *Store) write(v *viper.Viper) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create settings directory: %w", err)
		}
	}
	if err := v.WriteConfigAs(s.path); err != nil {
		return fmt.Errorf("failed to write settings file %s: %w", s.path, err)
	}
	if err := os.Chmod(s.path, 0o600); err != nil {
		return fmt.Errorf("failed to restrict settings file permissions: %w", err)
	}
	return nil
}

// Show prints the settings with the token masked.
func Show(w io.Writer, in Settings, version string) error {
	notSet := func(s string) string {
		if s == "" {
			return "(not set)"
		}
		return s
	}
	lines := []struct{ label, value string }{
		{"Token", contract.MaskToken(in.Token)},
		{"Project Key", notSet(in.Project)},
		{"Organization", notSet(in.Organization)},
		{"Default Branch", notSet(in.DefaultBranch)},
		{"Default PR", notSet(in.DefaultPR)},
		{"Created", notSet(in.CreatedAt)},
		{"Version", notSet(version)},
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%-15s %s\n", l.label+":", l.value); err != nil {
			return err
		}
	}
	return nil
}
