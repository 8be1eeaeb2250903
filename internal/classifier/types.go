package classifier

import (
	"time"

	"github.com/temirov/projectdesk/internal/githubcli"
)

// ProjectType is the build ecosystem a project belongs to.
type ProjectType string

// Project types in marker priority order.
const (
	ProjectTypeNode    ProjectType = "JavaScript/Node"
	ProjectTypeMaven   ProjectType = "Java-Maven"
	ProjectTypeGradle  ProjectType = "Java/Kotlin-Gradle"
	ProjectTypeGo      ProjectType = "Go"
	ProjectTypeRust    ProjectType = "Rust"
	ProjectTypePython  ProjectType = "Python"
	ProjectTypeDocker  ProjectType = "Docker"
	ProjectTypeUnknown ProjectType = "Unknown"
)

// LanguageUnknown is reported when no tracked extension was observed.
const LanguageUnknown = "Unknown"

// GitState describes how far a project is along the path to being published.
type GitState string

// Git states.
const (
	GitStateNoGit      GitState = "no-git"
	GitStateNoRemote   GitState = "git-no-remote"
	GitStateWithRemote GitState = "git-with-remote"
)

// ProjectRecord holds the derived facts about one project directory.
type ProjectRecord struct {
	Name             string                         `json:"name"`
	Path             string                         `json:"path"`
	ProjectType      ProjectType                    `json:"project_type"`
	PrimaryLanguage  string                         `json:"primary_language"`
	GitState         GitState                       `json:"git_state"`
	RemoteURL        string                         `json:"remote_url,omitempty"`
	RemoteVisibility githubcli.RepositoryVisibility `json:"remote_visibility"`
	ReadmeExists     bool                           `json:"readme_exists"`
	GitignoreExists  bool                           `json:"gitignore_exists"`
	LastModified     time.Time                      `json:"last_modified"`
}

// HasGit reports whether the project is a git repository.
func (record ProjectRecord) HasGit() bool {
	return record.GitState != GitStateNoGit
}

var extensionLanguages = map[string]string{
	".js":     "JavaScript",
	".ts":     "TypeScript",
	".py":     "Python",
	".java":   "Java",
	".kt":     "Kotlin",
	".go":     "Go",
	".rs":     "Rust",
	".swift":  "Swift",
	".m":      "Objective-C",
	".pl":     "Prolog",
	".pro":    "Prolog",
	".sol":    "Solidity",
	".vy":     "Vyper",
	".circom": "Circom",
	".rb":     "Ruby",
	".php":    "PHP",
	".c":      "C",
	".cpp":    "C++",
	".cs":     "C#",
	".lua":    "Lua",
	".r":      "R",
	".scala":  "Scala",
	".clj":    "Clojure",
	".ex":     "Elixir",
	".dart":   "Dart",
	".nim":    "Nim",
	".zig":    "Zig",
	".v":      "V",
}

// LanguageForExtension maps a file extension (with dot, any case) to a language name.
func LanguageForExtension(extension string) (string, bool) {
	language, known := extensionLanguages[normalizeExtension(extension)]
	return language, known
}
