// Package annotations persists per-project notes in a workspace-level JSON file and reads
// the optional .project-meta.json kept inside each project.
package annotations
