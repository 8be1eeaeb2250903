// Package cli constructs the projectdesk command-line interface, wiring the Cobra command
// hierarchy, configuration loader, and structured logging primitives shared by the list,
// publish, init, sweep, convert-ssh, large-files and serve commands.
package cli
