// Package reconcile drives a local project directory to a state where its history is
// published on GitHub. It initializes missing repositories, creates or links the hosted
// repository, merges unrelated remote history when linking, and pushes the current branch.
package reconcile
