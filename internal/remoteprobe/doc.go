// Package remoteprobe reports whether a project's origin remote exists and whether it
// already carries history. Probe results are never cached.
package remoteprobe
