// Package protocol rewrites project origin remotes from HTTPS to SSH.
package protocol
