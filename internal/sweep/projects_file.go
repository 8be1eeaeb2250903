package sweep

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

const (
	projectsFileReadErrorTemplate  = "read projects file %s: %w"
	projectsFileParseErrorTemplate = "parse projects file %s: %w"
)

type projectsDocument struct {
	Projects []string `yaml:"projects"`
}

// LoadProjectsFile reads a YAML project list. Both a bare sequence and a mapping with a
// "projects" key are accepted; entries may be project names or paths.
func LoadProjectsFile(fileSystem afero.Fs, filePath string) ([]string, error) {
	contents, readError := afero.ReadFile(fileSystem, filePath)
	if readError != nil {
		return nil, fmt.Errorf(projectsFileReadErrorTemplate, filePath, readError)
	}

	var root yaml.Node
	if parseError := yaml.Unmarshal(contents, &root); parseError != nil {
		return nil, fmt.Errorf(projectsFileParseErrorTemplate, filePath, parseError)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	var entries []string
	switch root.Content[0].Kind {
	case yaml.SequenceNode:
		if decodeError := root.Content[0].Decode(&entries); decodeError != nil {
			return nil, fmt.Errorf(projectsFileParseErrorTemplate, filePath, decodeError)
		}
	default:
		var document projectsDocument
		if decodeError := root.Content[0].Decode(&document); decodeError != nil {
			return nil, fmt.Errorf(projectsFileParseErrorTemplate, filePath, decodeError)
		}
		entries = document.Projects
	}

	trimmed := make([]string, 0, len(entries))
	for _, entry := range entries {
		if value := strings.TrimSpace(entry); len(value) > 0 {
			trimmed = append(trimmed, value)
		}
	}
	return trimmed, nil
}
