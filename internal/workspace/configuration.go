package workspace

import (
	"path/filepath"

	pathutils "github.com/temirov/projectdesk/internal/utils/path"
)

const (
	defaultRootConstant            = "~/Documents/dev"
	defaultAnnotationsFileName     = "project_annotations.json"
	rootConfigKeySuffix            = ".root"
	annotationsFileConfigKeySuffix = ".annotations_file"
)

// Configuration locates the workspace and its annotation store.
type Configuration struct {
	Root            string `mapstructure:"root"`
	AnnotationsFile string `mapstructure:"annotations_file"`
}

// DefaultConfiguration returns the baseline workspace location.
func DefaultConfiguration() Configuration {
	return Configuration{Root: defaultRootConstant}
}

// DefaultConfigurationValues exposes defaults keyed under the provided configuration prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		prefix + rootConfigKeySuffix:            defaults.Root,
		prefix + annotationsFileConfigKeySuffix: defaults.AnnotationsFile,
	}
}

// Resolve expands "~" in both paths and places the annotation store under the root when unset.
func (configuration Configuration) Resolve(homeExpander *pathutils.HomeExpander) Configuration {
	sanitizer := pathutils.NewPathSanitizer(homeExpander)
	resolved := Configuration{
		Root:            sanitizer.SanitizePath(configuration.Root),
		AnnotationsFile: sanitizer.SanitizePath(configuration.AnnotationsFile),
	}
	if len(resolved.Root) == 0 {
		resolved.Root = sanitizer.SanitizePath(defaultRootConstant)
	}
	if len(resolved.AnnotationsFile) == 0 {
		resolved.AnnotationsFile = filepath.Join(resolved.Root, defaultAnnotationsFileName)
	}
	return resolved
}
