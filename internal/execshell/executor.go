package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// CommandName identifies an external executable.
type CommandName string

const (
	// CommandGit invokes the git binary.
	CommandGit CommandName = "git"
	// CommandGitHub invokes the GitHub CLI binary.
	CommandGitHub CommandName = "gh"
)

const (
	loggerNotConfiguredMessageConstant         = "logger not configured"
	commandRunnerNotConfiguredMessageConstant  = "command runner not configured"
	commandFailedErrorTemplateConstant         = "%s command exited with code %d"
	commandFailedStandardErrorTemplateConstant = "%s command exited with code %d: %s"
	commandExecutionErrorTemplateConstant      = "%s command execution failed: %v"
	commandStartedLogMessageConstant           = "command started"
	commandCompletedLogMessageConstant         = "command completed"
	commandFailedLogMessageConstant            = "command exited with non-zero status"
	commandExecutionFailedLogMessageConstant   = "command execution failed"
	logFieldCommandNameConstant                = "command_name"
	logFieldArgumentsConstant                  = "arguments"
	logFieldWorkingDirectoryConstant           = "working_directory"
	logFieldExitCodeConstant                   = "exit_code"
	logFieldStandardErrorConstant              = "standard_error"
	logFieldTimeoutConstant                    = "timeout"
)

// ErrLoggerNotConfigured indicates that the executor was constructed without a logger.
var ErrLoggerNotConfigured = errors.New(loggerNotConfiguredMessageConstant)

// ErrCommandRunnerNotConfigured indicates that the executor was constructed without a runner.
var ErrCommandRunnerNotConfigured = errors.New(commandRunnerNotConfiguredMessageConstant)

// CommandDetails describes arguments and environment for a single invocation.
type CommandDetails struct {
	Arguments            []string
	WorkingDirectory     string
	EnvironmentVariables map[string]string
	StandardInput        []byte
}

// ShellCommand couples an executable with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult captures the observable outcome of a finished process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner runs a shell command and reports its result.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// CommandFailedError reports a command that ran to completion with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command.
func (commandError CommandFailedError) Error() string {
	trimmedStandardError := strings.TrimSpace(commandError.Result.StandardError)
	if len(trimmedStandardError) == 0 {
		return fmt.Sprintf(commandFailedErrorTemplateConstant, commandError.Command.Name, commandError.Result.ExitCode)
	}
	return fmt.Sprintf(commandFailedStandardErrorTemplateConstant, commandError.Command.Name, commandError.Result.ExitCode, trimmedStandardError)
}

// CombinedOutput returns trimmed standard error followed by standard output.
func (commandError CommandFailedError) CombinedOutput() string {
	parts := make([]string, 0, 2)
	for _, candidate := range []string{commandError.Result.StandardError, commandError.Result.StandardOutput} {
		trimmed := strings.TrimSpace(candidate)
		if len(trimmed) > 0 {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, "\n")
}

// CommandExecutionError reports a command that could not be executed or was interrupted.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (executionError CommandExecutionError) Error() string {
	return fmt.Sprintf(commandExecutionErrorTemplateConstant, executionError.Command.Name, executionError.Cause)
}

// Unwrap exposes the underlying cause.
func (executionError CommandExecutionError) Unwrap() error {
	return executionError.Cause
}

// ShellExecutorOption customizes a ShellExecutor.
type ShellExecutorOption func(*ShellExecutor)

// WithCommandTimeout bounds every invocation; non-positive values disable the bound.
func WithCommandTimeout(timeout time.Duration) ShellExecutorOption {
	return func(executor *ShellExecutor) {
		executor.commandTimeout = timeout
	}
}

// WithCommandEventObserver registers an observer notified about command lifecycle events.
func WithCommandEventObserver(observer CommandEventObserver) ShellExecutorOption {
	return func(executor *ShellExecutor) {
		if observer != nil {
			executor.observer = observer
		}
	}
}

// ShellExecutor runs git and gh commands with structured logging and per-command timeouts.
type ShellExecutor struct {
	logger         *zap.Logger
	runner         CommandRunner
	observer       CommandEventObserver
	commandTimeout time.Duration
}

// NewShellExecutor validates dependencies and constructs a ShellExecutor.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner, options ...ShellExecutorOption) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}

	executor := &ShellExecutor{
		logger:   logger,
		runner:   commandRunner,
		observer: CommandEventObserverFunc(discardCommandEvent),
	}
	for _, option := range options {
		if option != nil {
			option(executor)
		}
	}
	return executor, nil
}

// ExecuteGit runs git with the supplied details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteGitHubCLI runs gh with the supplied details.
func (executor *ShellExecutor) ExecuteGitHubCLI(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.Execute(executionContext, ShellCommand{Name: CommandGitHub, Details: details})
}

// Execute runs an arbitrary command, applying the configured timeout.
func (executor *ShellExecutor) Execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}
	if executor.commandTimeout > 0 {
		var cancel context.CancelFunc
		executionContext, cancel = context.WithTimeout(executionContext, executor.commandTimeout)
		defer cancel()
	}

	commandFields := []zap.Field{
		zap.String(logFieldCommandNameConstant, string(command.Name)),
		zap.Strings(logFieldArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	}

	executor.logger.Debug(commandStartedLogMessageConstant, commandFields...)
	executor.observer.ObserveCommand(CommandEvent{Phase: CommandPhaseStarted, Command: command})

	result, runError := executor.runner.Run(executionContext, command)
	if runError != nil {
		failureFields := append(commandFields, zap.Error(runError))
		if errors.Is(runError, context.DeadlineExceeded) {
			failureFields = append(failureFields, zap.Duration(logFieldTimeoutConstant, executor.commandTimeout))
		}
		executor.logger.Warn(commandExecutionFailedLogMessageConstant, failureFields...)
		executor.observer.ObserveCommand(CommandEvent{Phase: CommandPhaseAborted, Command: command, Failure: runError})
		return ExecutionResult{}, CommandExecutionError{Command: command, Cause: runError}
	}

	executor.observer.ObserveCommand(CommandEvent{Phase: CommandPhaseCompleted, Command: command, Result: result})
	if result.ExitCode != 0 {
		executor.logger.Debug(
			commandFailedLogMessageConstant,
			append(commandFields,
				zap.Int(logFieldExitCodeConstant, result.ExitCode),
				zap.String(logFieldStandardErrorConstant, strings.TrimSpace(result.StandardError)),
			)...,
		)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: result}
	}

	executor.logger.Debug(commandCompletedLogMessageConstant, append(commandFields, zap.Int(logFieldExitCodeConstant, result.ExitCode))...)
	return result, nil
}
