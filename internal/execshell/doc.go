// Package execshell runs git and gh on behalf of projectdesk.
//
// ShellExecutor wraps a CommandRunner with structured logging, lifecycle
// observers, and a per-command timeout. Non-zero exits surface as
// CommandFailedError; processes that cannot start or exceed their deadline
// surface as CommandExecutionError.
package execshell
