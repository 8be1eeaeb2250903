package workspace

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/temirov/projectdesk/internal/shared"
	pathutils "github.com/temirov/projectdesk/internal/utils/path"
)

const (
	rootRequiredMessage       = "workspace root required"
	projectNotFoundTemplate   = "project %s not found"
	listProjectsErrorTemplate = "list workspace %s: %w"
	hiddenEntryPrefixConstant = "."
	tildeSymbolConstant       = "~"
)

// ErrRootRequired indicates a workspace constructed without a root directory.
var ErrRootRequired = errors.New(rootRequiredMessage)

// ProjectNotFoundError reports a project name with no directory under the root.
type ProjectNotFoundError struct {
	Name string
}

// Error describes the missing project.
func (notFoundError ProjectNotFoundError) Error() string {
	return fmt.Sprintf(projectNotFoundTemplate, notFoundError.Name)
}

// Workspace is a directory whose immediate non-hidden subdirectories are projects.
type Workspace struct {
	fileSystem afero.Fs
	root       string
	sanitizer  *pathutils.PathSanitizer
}

// NewWorkspace constructs a Workspace rooted at root.
func NewWorkspace(fileSystem afero.Fs, root string) (*Workspace, error) {
	trimmedRoot := strings.TrimSpace(root)
	if len(trimmedRoot) == 0 {
		return nil, ErrRootRequired
	}
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	return &Workspace{
		fileSystem: fileSystem,
		root:       filepath.Clean(trimmedRoot),
		sanitizer:  pathutils.NewPathSanitizer(nil),
	}, nil
}

// Root returns the workspace directory.
func (workspace *Workspace) Root() string {
	return workspace.root
}

// ListProjects returns the non-hidden directories under the root sorted by name.
func (workspace *Workspace) ListProjects() ([]shared.Project, error) {
	entries, readError := afero.ReadDir(workspace.fileSystem, workspace.root)
	if readError != nil {
		return nil, fmt.Errorf(listProjectsErrorTemplate, workspace.root, readError)
	}

	projects := make([]shared.Project, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), hiddenEntryPrefixConstant) {
			continue
		}
		projects = append(projects, shared.Project{Name: entry.Name(), Path: filepath.Join(workspace.root, entry.Name())})
	}
	return projects, nil
}

// ResolveProject validates the name and requires the project directory to exist.
func (workspace *Workspace) ResolveProject(name string) (shared.Project, error) {
	projectName, nameError := shared.NewProjectName(name)
	if nameError != nil {
		return shared.Project{}, nameError
	}
	project := shared.Project{Name: projectName.String(), Path: filepath.Join(workspace.root, projectName.String())}

	info, statError := workspace.fileSystem.Stat(project.Path)
	if statError != nil || !info.IsDir() {
		return shared.Project{}, ProjectNotFoundError{Name: project.Name}
	}
	return project, nil
}

// ProjectForReference maps a command-line reference to a project without requiring it to
// exist. References containing a path separator or starting with "~" or "." are paths;
// anything else is a project name under the root.
func (workspace *Workspace) ProjectForReference(reference string) (shared.Project, error) {
	trimmed := strings.TrimSpace(reference)
	if isPathReference(trimmed) {
		projectPath := workspace.sanitizer.SanitizePath(trimmed)
		if absolutePath, absoluteError := filepath.Abs(projectPath); absoluteError == nil {
			projectPath = absolutePath
		}
		return shared.Project{Name: filepath.Base(projectPath), Path: projectPath}, nil
	}

	projectName, nameError := shared.NewProjectName(trimmed)
	if nameError != nil {
		return shared.Project{}, nameError
	}
	return shared.Project{Name: projectName.String(), Path: filepath.Join(workspace.root, projectName.String())}, nil
}

// ProjectsForReferences resolves references in order, dropping duplicate paths. An empty
// reference list selects every project in the workspace.
func (workspace *Workspace) ProjectsForReferences(references []string) ([]shared.Project, error) {
	if len(references) == 0 {
		return workspace.ListProjects()
	}

	projects := make([]shared.Project, 0, len(references))
	seen := make(map[string]struct{}, len(references))
	for _, reference := range references {
		project, referenceError := workspace.ProjectForReference(reference)
		if referenceError != nil {
			return nil, fmt.Errorf("%s: %w", reference, referenceError)
		}
		if _, duplicate := seen[project.Path]; duplicate {
			continue
		}
		seen[project.Path] = struct{}{}
		projects = append(projects, project)
	}
	return projects, nil
}

func isPathReference(reference string) bool {
	return strings.ContainsAny(reference, `/\`) ||
		strings.HasPrefix(reference, tildeSymbolConstant) ||
		reference == hiddenEntryPrefixConstant
}
