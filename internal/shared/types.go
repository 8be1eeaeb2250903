package shared

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/temirov/projectdesk/internal/execshell"
)

const (
	// OriginRemoteNameConstant identifies the remote projects are published through.
	OriginRemoteNameConstant = "origin"
	// DefaultBranchNameConstant is used whenever a project has no current branch.
	DefaultBranchNameConstant = "main"
	// LegacyDefaultBranchNameConstant is the historical default branch name retried during pulls.
	LegacyDefaultBranchNameConstant = "master"
	// GitDirectoryNameConstant marks a directory as a git repository.
	GitDirectoryNameConstant = ".git"

	projectNameRequiredMessageConstant = "project name required"
	projectNameInvalidMessageConstant  = "project name must be a single visible directory name"
	hiddenEntryPrefixConstant          = "."
	parentDirectoryReferenceConstant   = ".."
)

// ErrProjectNameRequired indicates an empty project name.
var ErrProjectNameRequired = errors.New(projectNameRequiredMessageConstant)

// ErrProjectNameInvalid indicates a project name that could escape the workspace root.
var ErrProjectNameInvalid = errors.New(projectNameInvalidMessageConstant)

// ProjectName is a validated directory name directly under the workspace root.
type ProjectName string

// NewProjectName trims and validates a project name.
func NewProjectName(raw string) (ProjectName, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) == 0 {
		return "", ErrProjectNameRequired
	}
	if trimmed == parentDirectoryReferenceConstant ||
		strings.HasPrefix(trimmed, hiddenEntryPrefixConstant) ||
		strings.ContainsAny(trimmed, "/\\\n\r\x00") ||
		filepath.Base(trimmed) != trimmed {
		return "", ErrProjectNameInvalid
	}
	return ProjectName(trimmed), nil
}

// String returns the raw name.
func (name ProjectName) String() string {
	return string(name)
}

// Clock abstracts time acquisition for deterministic testing.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the system time source.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// GitExecutor exposes the subset of shell execution used by project services.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// CommandExecutor runs arbitrary commands such as editor launchers.
type CommandExecutor interface {
	Execute(executionContext context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error)
}

// Project pairs a display name with the absolute directory it lives in.
type Project struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}
