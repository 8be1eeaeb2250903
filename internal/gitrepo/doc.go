// Package gitrepo wraps the git operations used to reconcile project repositories.
//
// RepositoryManager runs init, stage, commit, status, remote, ls-remote, pull and
// push through an execshell-compatible executor with interactive prompts disabled.
// ParseRemoteURL and FormatRemoteURL translate between SSH and HTTPS remote forms.
package gitrepo
