// Package sweep commits and pushes pending work across many projects, isolating each
// project's failure and folding outcomes into a summary.
package sweep
