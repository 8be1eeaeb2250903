package execshell

// CommandPhase names a point in a command's lifecycle.
type CommandPhase string

const (
	// CommandPhaseStarted is reported before the process is launched.
	CommandPhaseStarted CommandPhase = "started"
	// CommandPhaseCompleted is reported once the process exits, whatever its exit code.
	CommandPhaseCompleted CommandPhase = "completed"
	// CommandPhaseAborted is reported when the process could not run or was interrupted.
	CommandPhaseAborted CommandPhase = "aborted"
)

// CommandEvent describes one lifecycle transition. Result is set for CommandPhaseCompleted
// and Failure for CommandPhaseAborted.
type CommandEvent struct {
	Phase   CommandPhase
	Command ShellCommand
	Result  ExecutionResult
	Failure error
}

// CommandEventObserver is notified synchronously for every git and gh invocation.
type CommandEventObserver interface {
	ObserveCommand(event CommandEvent)
}

// CommandEventObserverFunc adapts a function to CommandEventObserver.
type CommandEventObserverFunc func(event CommandEvent)

// ObserveCommand calls the function.
func (observerFunc CommandEventObserverFunc) ObserveCommand(event CommandEvent) {
	if observerFunc != nil {
		observerFunc(event)
	}
}

func discardCommandEvent(CommandEvent) {}
