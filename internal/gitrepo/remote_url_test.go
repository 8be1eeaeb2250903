package gitrepo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/projectdesk/internal/gitrepo"
)

func TestParseRemoteURL(testInstance *testing.T) {
	testCases := []struct {
		name        string
		input       string
		expected    gitrepo.RemoteURL
		expectError bool
	}{
		{
			name:     "scp_style_ssh",
			input:    "git@github.com:octo/demo.git",
			expected: gitrepo.RemoteURL{Protocol: gitrepo.RemoteProtocolSSH, Host: "github.com", Owner: "octo", Repository: "demo"},
		},
		{
			name:     "ssh_scheme",
			input:    "ssh://git@github.com/octo/demo",
			expected: gitrepo.RemoteURL{Protocol: gitrepo.RemoteProtocolSSH, Host: "github.com", Owner: "octo", Repository: "demo"},
		},
		{
			name:     "https",
			input:    "https://github.com/octo/demo.git",
			expected: gitrepo.RemoteURL{Protocol: gitrepo.RemoteProtocolHTTPS, Host: "github.com", Owner: "octo", Repository: "demo"},
		},
		{
			name:     "https_with_credentials",
			input:    "https://token@github.com/octo/demo.git/",
			expected: gitrepo.RemoteURL{Protocol: gitrepo.RemoteProtocolHTTPS, Host: "github.com", Owner: "octo", Repository: "demo"},
		},
		{
			name:     "ssh_scheme_with_port",
			input:    "ssh://github.com:22/octo/demo.git",
			expected: gitrepo.RemoteURL{Protocol: gitrepo.RemoteProtocolSSH, Host: "github.com", Owner: "octo", Repository: "demo"},
		},
		{
			name:        "unknown_scheme",
			input:       "ftp://github.com/octo/demo.git",
			expectError: true,
		},
		{
			name:        "nested_path",
			input:       "git@github.com:group/octo/demo.git",
			expectError: true,
		},
		{
			name:        "local_path",
			input:       "/srv/git/demo.git",
			expectError: true,
		},
		{
			name:        "missing_repository",
			input:       "https://github.com/octo",
			expectError: true,
		},
		{
			name:        "empty",
			input:       "  ",
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			parsed, parseError := gitrepo.ParseRemoteURL(testCase.input)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				require.IsType(testInstance, gitrepo.RemoteURLParseError{}, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expected, parsed)
			require.Equal(testInstance, "octo/demo", parsed.FullName())
			require.True(testInstance, parsed.HostMatches("GitHub.com"))
		})
	}
}

func TestFormatRemoteURL(testInstance *testing.T) {
	remote := gitrepo.RemoteURL{Host: "github.com", Owner: "octo", Repository: "demo"}

	remote.Protocol = gitrepo.RemoteProtocolSSH
	sshURL, sshError := gitrepo.FormatRemoteURL(remote)
	require.NoError(testInstance, sshError)
	require.Equal(testInstance, "git@github.com:octo/demo.git", sshURL)

	remote.Protocol = gitrepo.RemoteProtocolHTTPS
	httpsURL, httpsError := gitrepo.FormatRemoteURL(remote)
	require.NoError(testInstance, httpsError)
	require.Equal(testInstance, "https://github.com/octo/demo.git", httpsURL)

	remote.Protocol = gitrepo.RemoteProtocol("ftp")
	_, unsupportedError := gitrepo.FormatRemoteURL(remote)
	require.IsType(testInstance, gitrepo.UnsupportedProtocolError{}, unsupportedError)
}
