package ui

import (
	"go.uber.org/zap"

	"github.com/temirov/projectdesk/internal/execshell"
)

// ConsoleCommandEventLogger narrates git and gh invocations on the console logger.
type ConsoleCommandEventLogger struct {
	logger    *zap.Logger
	formatter execshell.CommandMessageFormatter
}

// NewConsoleCommandEventLogger constructs a console event logger; a nil logger discards output.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleCommandEventLogger{logger: logger}
}

// ObserveCommand implements execshell.CommandEventObserver. Non-zero exits are warnings and
// aborted commands are errors.
func (eventLogger *ConsoleCommandEventLogger) ObserveCommand(event execshell.CommandEvent) {
	if eventLogger == nil {
		return
	}
	switch event.Phase {
	case execshell.CommandPhaseStarted:
		eventLogger.logger.Info(eventLogger.formatter.BuildStartedMessage(event.Command))
	case execshell.CommandPhaseCompleted:
		if event.Result.ExitCode != 0 {
			eventLogger.logger.Warn(eventLogger.formatter.BuildFailureMessage(event.Command, event.Result))
			return
		}
		eventLogger.logger.Info(eventLogger.formatter.BuildSuccessMessage(event.Command, event.Result))
	case execshell.CommandPhaseAborted:
		eventLogger.logger.Error(eventLogger.formatter.BuildExecutionFailureMessage(event.Command, event.Failure))
	}
}
