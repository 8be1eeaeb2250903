package sweep

import "strings"

const (
	defaultCommitMessageConstant = "Update project files"
	defaultParallelismConstant   = 1
	commitMessageConfigKeySuffix = ".commit_message"
	projectsConfigKeySuffix      = ".projects"
	parallelismConfigKeySuffix   = ".parallelism"
)

// Configuration captures sweep settings.
type Configuration struct {
	CommitMessage string   `mapstructure:"commit_message"`
	Projects      []string `mapstructure:"projects"`
	Parallelism   int      `mapstructure:"parallelism"`
}

// DefaultConfiguration returns baseline sweep settings.
func DefaultConfiguration() Configuration {
	return Configuration{
		CommitMessage: defaultCommitMessageConstant,
		Projects:      nil,
		Parallelism:   defaultParallelismConstant,
	}
}

// DefaultConfigurationValues exposes defaults keyed under the provided configuration prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		prefix + commitMessageConfigKeySuffix: defaults.CommitMessage,
		prefix + projectsConfigKeySuffix:      []string{},
		prefix + parallelismConfigKeySuffix:   defaults.Parallelism,
	}
}

func (configuration Configuration) sanitize() Configuration {
	sanitized := configuration
	sanitized.CommitMessage = strings.TrimSpace(configuration.CommitMessage)
	if len(sanitized.CommitMessage) == 0 {
		sanitized.CommitMessage = defaultCommitMessageConstant
	}
	if sanitized.Parallelism < 1 {
		sanitized.Parallelism = defaultParallelismConstant
	}

	projects := make([]string, 0, len(configuration.Projects))
	for _, project := range configuration.Projects {
		trimmed := strings.TrimSpace(project)
		if len(trimmed) > 0 {
			projects = append(projects, trimmed)
		}
	}
	sanitized.Projects = projects
	return sanitized
}
