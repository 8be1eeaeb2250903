// Package ui renders human-readable console output: command lifecycle sentences for the
// console logger and styled result reports for the CLI commands.
package ui
