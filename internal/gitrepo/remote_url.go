package gitrepo

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	remoteSchemeSeparatorConstant = "://"
	scpUserSeparatorConstant      = "@"
	scpPathSeparatorConstant      = ":"
	repositorySuffixConstant      = ".git"
	sshRemoteTemplateConstant     = "git@%s:%s/%s.git"
	httpsRemoteTemplateConstant   = "https://%s/%s/%s.git"
	malformedRemoteMessage        = "invalid remote url"
	missingValueMessage           = "value required"
	unsupportedProtocolMessage    = "unsupported remote protocol"
)

// RemoteProtocol is the transport a remote URL uses.
type RemoteProtocol string

const (
	RemoteProtocolSSH   RemoteProtocol = "ssh"
	RemoteProtocolHTTPS RemoteProtocol = "https"
)

var schemeProtocols = map[string]RemoteProtocol{
	"ssh":   RemoteProtocolSSH,
	"https": RemoteProtocolHTTPS,
	"http":  RemoteProtocolHTTPS,
}

// RemoteURL is a hosted repository address split into its parts. Ports are not retained.
type RemoteURL struct {
	Protocol   RemoteProtocol
	Host       string
	Owner      string
	Repository string
}

// FullName returns owner/repository.
func (remote RemoteURL) FullName() string {
	return remote.Owner + "/" + remote.Repository
}

// HostMatches compares hosts case-insensitively.
func (remote RemoteURL) HostMatches(host string) bool {
	return strings.EqualFold(strings.TrimSpace(remote.Host), strings.TrimSpace(host))
}

// RemoteURLParseError reports text that is not a hosted owner/repository remote.
type RemoteURLParseError struct {
	Input   string
	Message string
}

func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf("%s: %s", parseError.Input, parseError.Message)
}

// UnsupportedProtocolError is returned by FormatRemoteURL for protocols other than ssh and https.
type UnsupportedProtocolError struct {
	Protocol RemoteProtocol
}

func (protocolError UnsupportedProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", protocolError.Protocol, unsupportedProtocolMessage)
}

// ParseRemoteURL understands user@host:owner/repo, ssh://[user@]host/owner/repo and
// http(s)://[credentials@]host/owner/repo, each with an optional .git suffix.
func ParseRemoteURL(remote string) (RemoteURL, error) {
	trimmed := strings.TrimSpace(remote)
	if len(trimmed) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: missingValueMessage}
	}

	var parsed RemoteURL
	var repositoryPath string
	if strings.Contains(trimmed, remoteSchemeSeparatorConstant) {
		location, urlError := url.Parse(trimmed)
		if urlError != nil {
			return RemoteURL{}, RemoteURLParseError{Input: remote, Message: malformedRemoteMessage}
		}
		protocol, known := schemeProtocols[strings.ToLower(location.Scheme)]
		if !known {
			return RemoteURL{}, RemoteURLParseError{Input: remote, Message: malformedRemoteMessage}
		}
		parsed = RemoteURL{Protocol: protocol, Host: location.Hostname()}
		repositoryPath = location.Path
	} else {
		userAndHost, path, hasPath := strings.Cut(trimmed, scpPathSeparatorConstant)
		_, host, hasUser := strings.Cut(userAndHost, scpUserSeparatorConstant)
		if !hasPath || !hasUser {
			return RemoteURL{}, RemoteURLParseError{Input: remote, Message: malformedRemoteMessage}
		}
		parsed = RemoteURL{Protocol: RemoteProtocolSSH, Host: host}
		repositoryPath = path
	}

	owner, repository, split := splitRepositoryPath(repositoryPath)
	if len(parsed.Host) == 0 || !split {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: malformedRemoteMessage}
	}
	parsed.Owner = owner
	parsed.Repository = repository
	return parsed, nil
}

func splitRepositoryPath(path string) (string, string, bool) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) != 2 {
		return "", "", false
	}
	owner := strings.TrimSpace(segments[0])
	repository := strings.TrimSuffix(strings.TrimSpace(segments[1]), repositorySuffixConstant)
	if len(owner) == 0 || len(repository) == 0 {
		return "", "", false
	}
	return owner, repository, true
}

// FormatRemoteURL renders the canonical remote for the protocol: git@host:owner/repo.git for ssh
// and https://host/owner/repo.git for https.
func FormatRemoteURL(remote RemoteURL) (string, error) {
	for _, required := range []string{remote.Host, remote.Owner, remote.Repository} {
		if len(strings.TrimSpace(required)) == 0 {
			return "", RemoteURLParseError{Input: required, Message: missingValueMessage}
		}
	}

	switch remote.Protocol {
	case RemoteProtocolSSH:
		return fmt.Sprintf(sshRemoteTemplateConstant, remote.Host, remote.Owner, remote.Repository), nil
	case RemoteProtocolHTTPS:
		return fmt.Sprintf(httpsRemoteTemplateConstant, remote.Host, remote.Owner, remote.Repository), nil
	default:
		return "", UnsupportedProtocolError{Protocol: remote.Protocol}
	}
}
