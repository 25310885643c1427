package schema

import (
	"errors"
	"fmt"
	"strings"
)

// Scope selects the branch, pull request or aggregate view an export targets.
// Exactly one kind is active; use the constructors below to build one.
type Scope struct {
	kind  ScopeKind
	value string
}

// DefaultBranch targets the configured default branch.
func DefaultBranch(name string) Scope {
	if name == "" {
		name = DefaultBranchName
	}
	return Scope{kind: DefaultBranchScope, value: name}
}

// NamedBranch targets a specific branch.
func NamedBranch(name string) Scope {
	return Scope{kind: BranchScope, value: name}
}

// PullRequest targets a pull request by identifier.
func PullRequest(id string) Scope {
	return Scope{kind: PullRequestScope, value: id}
}

// AllBranchesAggregate targets the aggregate of all branches.
func AllBranchesAggregate() Scope {
	return Scope{kind: AllBranchesScope}
}

// ParseScope builds a scope from a kind name and its value.
func ParseScope(kind, value, defaultBranch string) (Scope, error) {
	value = strings.TrimSpace(value)
	var s Scope
	switch ScopeKind(strings.ToLower(strings.TrimSpace(kind))) {
	case DefaultBranchScope, "":
		s = DefaultBranch(defaultBranch)
	case BranchScope:
		s = NamedBranch(value)
	case PullRequestScope, "pr":
		s = PullRequest(value)
	case AllBranchesScope, "all":
		s = AllBranchesAggregate()
	default:
		return Scope{}, fmt.Errorf("invalid scope '%s'. must be default-branch, branch, pull-request, all-branches", kind)
	}
	if err := s.Validate(); err != nil {
		return Scope{}, err
	}
	return s, nil
}

// Kind returns the active scope kind.
func (s Scope) Kind() ScopeKind {
	if s.kind == "" {
		return DefaultBranchScope
	}
	return s.kind
}

// Value returns the branch name or pull request id, empty for the aggregate.
func (s Scope) Value() string {
	if s.kind == "" {
		return DefaultBranchName
	}
	return s.value
}

// Validate rejects branch and pull request scopes without a value.
func (s Scope) Validate() error {
	switch s.Kind() {
	case BranchScope:
		if s.value == "" {
			return errors.New("branch name cannot be empty")
		}
	case PullRequestScope:
		if s.value == "" {
			return errors.New("pull request id cannot be empty")
		}
	}
	return nil
}

// QueryParam returns the search parameter for this scope, if any.
func (s Scope) QueryParam() (key, value string, ok bool) {
	switch s.Kind() {
	case DefaultBranchScope, BranchScope:
		if v := s.Value(); v != "" {
			return "branch", v, true
		}
	case PullRequestScope:
		return "pullRequest", s.value, true
	}
	return "", "", false
}

// Label is the scope provenance label stamped on every record.
func (s Scope) Label() string {
	switch s.Kind() {
	case DefaultBranchScope, BranchScope:
		return s.Value()
	default:
		return AggregateLabel
	}
}

// PRLabel is the pull request provenance label stamped on every record.
func (s Scope) PRLabel() string {
	if s.Kind() == PullRequestScope {
		return s.value
	}
	return NoPRLabel
}

// String describes the scope for log lines.
func (s Scope) String() string {
	switch s.Kind() {
	case PullRequestScope:
		return fmt.Sprintf("pull request #%s", s.value)
	case AllBranchesScope:
		return "all branches (aggregate)"
	default:
		return fmt.Sprintf("branch '%s'", s.Value())
	}
}

// Context bundles the credential and project coordinates of a fetch.
type Context struct {
	Token        string
	ProjectKey   string
	Organization string
	Scope        Scope
}
