// Package githubcli wraps the GitHub CLI calls projectdesk depends on.
//
// The client resolves the authenticated login, reads repository visibility, and
// creates repositories from local directories. Failures are reported as typed
// errors so callers can tell a taken repository name apart from other problems.
package githubcli
