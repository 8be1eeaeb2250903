// Package workspace lists the projects under the workspace root and exposes read-only
// browsing of their files.
package workspace
