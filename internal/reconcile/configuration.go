package reconcile

import (
	"strings"

	"github.com/temirov/projectdesk/internal/shared"
)

const (
	defaultInitialCommitMessageConstant = "Initial commit"
	defaultGitHubHostConstant           = "github.com"
	defaultBranchConfigKeySuffix        = ".default_branch"
	initialCommitMessageConfigKeySuffix = ".initial_commit_message"
	privateConfigKeySuffix              = ".private"
)

// Configuration captures publishing defaults. GitHubHost is supplied from the github section.
type Configuration struct {
	DefaultBranch        string `mapstructure:"default_branch"`
	InitialCommitMessage string `mapstructure:"initial_commit_message"`
	Private              bool   `mapstructure:"private"`
	GitHubHost           string `mapstructure:"-"`
}

// DefaultConfiguration returns baseline publishing settings.
func DefaultConfiguration() Configuration {
	return Configuration{
		DefaultBranch:        shared.DefaultBranchNameConstant,
		InitialCommitMessage: defaultInitialCommitMessageConstant,
		Private:              false,
		GitHubHost:           defaultGitHubHostConstant,
	}
}

// DefaultConfigurationValues exposes defaults keyed under the provided configuration prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		prefix + defaultBranchConfigKeySuffix:        defaults.DefaultBranch,
		prefix + initialCommitMessageConfigKeySuffix: defaults.InitialCommitMessage,
		prefix + privateConfigKeySuffix:              defaults.Private,
	}
}

func (configuration Configuration) sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration

	sanitized.DefaultBranch = strings.TrimSpace(configuration.DefaultBranch)
	if len(sanitized.DefaultBranch) == 0 {
		sanitized.DefaultBranch = defaults.DefaultBranch
	}
	sanitized.InitialCommitMessage = strings.TrimSpace(configuration.InitialCommitMessage)
	if len(sanitized.InitialCommitMessage) == 0 {
		sanitized.InitialCommitMessage = defaults.InitialCommitMessage
	}
	sanitized.GitHubHost = strings.TrimSpace(configuration.GitHubHost)
	if len(sanitized.GitHubHost) == 0 {
		sanitized.GitHubHost = defaults.GitHubHost
	}

	return sanitized
}
