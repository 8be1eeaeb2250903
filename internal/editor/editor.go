// Package editor opens project directories in the first editor launcher that works.
package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/projectdesk/internal/execshell"
	"github.com/temirov/projectdesk/internal/shared"
)

const (
	executorNotConfiguredMessage = "command executor not configured"
	noCandidatesMessage          = "no editor candidates configured"
	editorUnavailableTemplate    = "unable to open %s: %s"
	attemptTemplate              = "%s (%s)"
	attemptSeparator             = "; "
	candidatesConfigKeySuffix    = ".candidates"
	editorOpenedLogMessage       = "opened project in editor"
	editorAttemptFailedMessage   = "editor launcher failed"
	logFieldCandidateConstant    = "candidate"
	logFieldPathConstant         = "path"
)

// ErrExecutorNotConfigured indicates the opener was built without a command executor.
var ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessage)

// ErrNoCandidates indicates an opener with an empty launcher list.
var ErrNoCandidates = errors.New(noCandidatesMessage)

// Configuration lists editor launchers in priority order.
type Configuration struct {
	Candidates []string `mapstructure:"candidates"`
}

// DefaultConfiguration returns the Visual Studio Code launchers.
func DefaultConfiguration() Configuration {
	return Configuration{Candidates: []string{
		"code",
		"/usr/local/bin/code",
		"/Applications/Visual Studio Code.app/Contents/Resources/app/bin/code",
	}}
}

// DefaultConfigurationValues exposes defaults keyed under the provided configuration prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	return map[string]any{prefix + candidatesConfigKeySuffix: DefaultConfiguration().Candidates}
}

// Attempt records one failed launcher.
type Attempt struct {
	Candidate string
	Err       error
}

// UnavailableError reports that every launcher failed.
type UnavailableError struct {
	Path     string
	Attempts []Attempt
}

// Error lists each attempt.
func (unavailableError UnavailableError) Error() string {
	descriptions := make([]string, 0, len(unavailableError.Attempts))
	for _, attempt := range unavailableError.Attempts {
		descriptions = append(descriptions, fmt.Sprintf(attemptTemplate, attempt.Candidate, attempt.Err))
	}
	return fmt.Sprintf(editorUnavailableTemplate, unavailableError.Path, strings.Join(descriptions, attemptSeparator))
}

// Opener launches an editor for a directory.
type Opener struct {
	executor   shared.CommandExecutor
	candidates []string
	logger     *zap.Logger
}

// NewOpener constructs an Opener. Blank candidates are ignored.
func NewOpener(executor shared.CommandExecutor, configuration Configuration, logger *zap.Logger) (*Opener, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	candidates := make([]string, 0, len(configuration.Candidates))
	for _, candidate := range configuration.Candidates {
		if trimmed := strings.TrimSpace(candidate); len(trimmed) > 0 {
			candidates = append(candidates, trimmed)
		}
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Opener{executor: executor, candidates: candidates, logger: logger}, nil
}

// Open tries each launcher in order and stops at the first that exits successfully.
func (opener *Opener) Open(executionContext context.Context, directoryPath string) error {
	attempts := make([]Attempt, 0, len(opener.candidates))
	for _, candidate := range opener.candidates {
		_, executionError := opener.executor.Execute(executionContext, execshell.ShellCommand{
			Name:    execshell.CommandName(candidate),
			Details: execshell.CommandDetails{Arguments: []string{directoryPath}},
		})
		if executionError == nil {
			opener.logger.Info(editorOpenedLogMessage, zap.String(logFieldCandidateConstant, candidate), zap.String(logFieldPathConstant, directoryPath))
			return nil
		}
		opener.logger.Debug(editorAttemptFailedMessage, zap.String(logFieldCandidateConstant, candidate), zap.Error(executionError))
		attempts = append(attempts, Attempt{Candidate: candidate, Err: executionError})
		if executionContext.Err() != nil {
			break
		}
	}
	return UnavailableError{Path: directoryPath, Attempts: attempts}
}
