package classifier

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/projectdesk/internal/githubcli"
	"github.com/temirov/projectdesk/internal/gitrepo"
	"github.com/temirov/projectdesk/internal/shared"
)

const (
	defaultMaxFilesPerDirectoryConstant = 100
	defaultMaxDirectoriesConstant       = 2000
	defaultGitHubHostConstant           = "github.com"
	nodeModulesDirectoryNameConstant    = "node_modules"
	hiddenEntryPrefixConstant           = "."
	gitignoreFileNameConstant           = ".gitignore"
	requirementsFileNameConstant        = "requirements.txt"
	pythonExtensionConstant             = ".py"
	remoteReaderNotConfiguredMessage    = "remote url reader not configured"
	directoryUnreadableLogMessage       = "skipping unreadable directory"
	rootUnreadableLogMessage            = "project directory unreadable"
	remoteLookupFailedLogMessage        = "unable to read origin remote"
	remoteParseFailedLogMessage         = "origin remote is not a recognized hosted url"
	visibilityLookupFailedLogMessage    = "unable to resolve repository visibility"
	logFieldPathConstant                = "path"
	logFieldRemoteURLConstant           = "remote_url"
)

// ErrRemoteReaderNotConfigured indicates the classifier was built without a remote reader.
var ErrRemoteReaderNotConfigured = errors.New(remoteReaderNotConfiguredMessage)

type projectMarker struct {
	projectType ProjectType
	matches     func(entries map[string]os.FileInfo) bool
}

var projectMarkers = []projectMarker{
	{projectType: ProjectTypeNode, matches: hasEntry("package.json")},
	{projectType: ProjectTypeMaven, matches: hasEntry("pom.xml")},
	{projectType: ProjectTypeGradle, matches: hasEntry("build.gradle")},
	{projectType: ProjectTypeGo, matches: hasEntry("go.mod")},
	{projectType: ProjectTypeRust, matches: hasEntry("Cargo.toml")},
	{projectType: ProjectTypePython, matches: func(entries map[string]os.FileInfo) bool {
		if hasEntry(requirementsFileNameConstant)(entries) {
			return true
		}
		for name, info := range entries {
			if !info.IsDir() && strings.EqualFold(filepath.Ext(name), pythonExtensionConstant) {
				return true
			}
		}
		return false
	}},
	{projectType: ProjectTypeDocker, matches: hasEntry("Dockerfile")},
}

var readmeCandidates = []string{"README.md", "README.txt", "README", "README.rst"}

// RemoteURLReader reads a configured remote URL.
type RemoteURLReader interface {
	LookupRemoteURL(executionContext context.Context, repositoryPath string, remoteName string) (string, bool, error)
}

// VisibilityResolver resolves hosted repository visibility.
type VisibilityResolver interface {
	ResolveRepositoryVisibility(executionContext context.Context, repository string) (githubcli.RepositoryVisibility, error)
}

// Configuration bounds the classifier's directory walk.
type Configuration struct {
	MaxFilesPerDirectory int    `mapstructure:"max_files_per_directory"`
	MaxDirectories       int    `mapstructure:"max_directories"`
	GitHubHost           string `mapstructure:"-"`
}

// DefaultConfiguration returns the walk bounds used when nothing is configured.
func DefaultConfiguration() Configuration {
	return Configuration{
		MaxFilesPerDirectory: defaultMaxFilesPerDirectoryConstant,
		MaxDirectories:       defaultMaxDirectoriesConstant,
		GitHubHost:           defaultGitHubHostConstant,
	}
}

// DefaultConfigurationValues exposes defaults keyed under the provided configuration prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultConfiguration()
	return map[string]any{
		prefix + ".max_files_per_directory": defaults.MaxFilesPerDirectory,
		prefix + ".max_directories":         defaults.MaxDirectories,
	}
}

// Dependencies enumerates collaborators of the classifier.
type Dependencies struct {
	FileSystem         afero.Fs
	RemoteReader       RemoteURLReader
	VisibilityResolver VisibilityResolver
	Logger             *zap.Logger
}

// Classifier derives ProjectRecords from project directories.
type Classifier struct {
	fileSystem         afero.Fs
	remoteReader       RemoteURLReader
	visibilityResolver VisibilityResolver
	logger             *zap.Logger
	configuration      Configuration
}

// NewClassifier validates dependencies and applies configuration defaults.
func NewClassifier(dependencies Dependencies, configuration Configuration) (*Classifier, error) {
	if dependencies.RemoteReader == nil {
		return nil, ErrRemoteReaderNotConfigured
	}

	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if configuration.MaxFilesPerDirectory <= 0 {
		configuration.MaxFilesPerDirectory = defaultMaxFilesPerDirectoryConstant
	}
	if configuration.MaxDirectories <= 0 {
		configuration.MaxDirectories = defaultMaxDirectoriesConstant
	}
	if len(strings.TrimSpace(configuration.GitHubHost)) == 0 {
		configuration.GitHubHost = defaultGitHubHostConstant
	}

	return &Classifier{
		fileSystem:         fileSystem,
		remoteReader:       dependencies.RemoteReader,
		visibilityResolver: dependencies.VisibilityResolver,
		logger:             logger,
		configuration:      configuration,
	}, nil
}

// Classify inspects a project directory. It never fails: any probe that errors leaves
// the corresponding field at its default.
func (classifier *Classifier) Classify(executionContext context.Context, projectPath string) ProjectRecord {
	cleanedPath := filepath.Clean(projectPath)
	if absolutePath, absoluteError := filepath.Abs(cleanedPath); absoluteError == nil {
		cleanedPath = absolutePath
	}

	record := ProjectRecord{
		Name:             filepath.Base(cleanedPath),
		Path:             cleanedPath,
		ProjectType:      ProjectTypeUnknown,
		PrimaryLanguage:  LanguageUnknown,
		GitState:         GitStateNoGit,
		RemoteVisibility: githubcli.VisibilityUnknown,
	}

	if info, statError := classifier.fileSystem.Stat(cleanedPath); statError == nil {
		record.LastModified = info.ModTime()
	}

	topLevelEntries, readError := classifier.readEntries(cleanedPath)
	if readError != nil {
		classifier.logger.Debug(rootUnreadableLogMessage, zap.String(logFieldPathConstant, cleanedPath), zap.Error(readError))
		return record
	}

	record.ProjectType = detectProjectType(topLevelEntries)
	record.PrimaryLanguage = classifier.detectPrimaryLanguage(cleanedPath)
	record.ReadmeExists = hasReadme(topLevelEntries)
	record.GitignoreExists = hasEntry(gitignoreFileNameConstant)(topLevelEntries)

	if hasEntry(shared.GitDirectoryNameConstant)(topLevelEntries) {
		classifier.populateRemoteFacts(executionContext, &record)
	}

	return record
}

func (classifier *Classifier) populateRemoteFacts(executionContext context.Context, record *ProjectRecord) {
	record.GitState = GitStateNoRemote

	remoteURL, configured, lookupError := classifier.remoteReader.LookupRemoteURL(executionContext, record.Path, shared.OriginRemoteNameConstant)
	if lookupError != nil {
		classifier.logger.Debug(remoteLookupFailedLogMessage, zap.String(logFieldPathConstant, record.Path), zap.Error(lookupError))
		return
	}
	if !configured {
		return
	}

	record.GitState = GitStateWithRemote
	record.RemoteURL = remoteURL

	parsedRemote, parseError := gitrepo.ParseRemoteURL(remoteURL)
	if parseError != nil {
		classifier.logger.Debug(remoteParseFailedLogMessage, zap.String(logFieldRemoteURLConstant, remoteURL), zap.Error(parseError))
		return
	}
	if !parsedRemote.HostMatches(classifier.configuration.GitHubHost) || classifier.visibilityResolver == nil {
		return
	}

	visibility, visibilityError := classifier.visibilityResolver.ResolveRepositoryVisibility(executionContext, parsedRemote.FullName())
	if visibilityError != nil {
		classifier.logger.Debug(visibilityLookupFailedLogMessage, zap.String(logFieldRemoteURLConstant, remoteURL), zap.Error(visibilityError))
		return
	}
	record.RemoteVisibility = visibility
}

// detectPrimaryLanguage walks the tree breadth-first, pruning .git, node_modules and hidden
// directories, and counting at most MaxFilesPerDirectory files per directory.
func (classifier *Classifier) detectPrimaryLanguage(rootPath string) string {
	histogram := map[string]int{}
	pendingDirectories := []string{rootPath}
	visitedDirectories := 0

	for len(pendingDirectories) > 0 && visitedDirectories < classifier.configuration.MaxDirectories {
		directory := pendingDirectories[0]
		pendingDirectories = pendingDirectories[1:]
		visitedDirectories++

		entries, readError := afero.ReadDir(classifier.fileSystem, directory)
		if readError != nil {
			classifier.logger.Debug(directoryUnreadableLogMessage, zap.String(logFieldPathConstant, directory), zap.Error(readError))
			continue
		}

		inspectedFiles := 0
		for _, entry := range entries {
			if entry.IsDir() {
				if isPrunedDirectory(entry.Name()) {
					continue
				}
				pendingDirectories = append(pendingDirectories, filepath.Join(directory, entry.Name()))
				continue
			}
			if inspectedFiles >= classifier.configuration.MaxFilesPerDirectory {
				continue
			}
			inspectedFiles++
			extension := normalizeExtension(filepath.Ext(entry.Name()))
			if _, tracked := extensionLanguages[extension]; tracked {
				histogram[extension]++
			}
		}
	}

	return modalLanguage(histogram)
}

func (classifier *Classifier) readEntries(directory string) (map[string]os.FileInfo, error) {
	entries, readError := afero.ReadDir(classifier.fileSystem, directory)
	if readError != nil {
		return nil, readError
	}
	indexed := make(map[string]os.FileInfo, len(entries))
	for _, entry := range entries {
		indexed[entry.Name()] = entry
	}
	return indexed, nil
}

// modalLanguage picks the most frequent extension; ties resolve to the lexicographically
// smallest extension.
func modalLanguage(histogram map[string]int) string {
	if len(histogram) == 0 {
		return LanguageUnknown
	}
	extensions := make([]string, 0, len(histogram))
	for extension := range histogram {
		extensions = append(extensions, extension)
	}
	sort.Strings(extensions)

	bestExtension := extensions[0]
	for _, extension := range extensions[1:] {
		if histogram[extension] > histogram[bestExtension] {
			bestExtension = extension
		}
	}
	return extensionLanguages[bestExtension]
}

func detectProjectType(entries map[string]os.FileInfo) ProjectType {
	for _, marker := range projectMarkers {
		if marker.matches(entries) {
			return marker.projectType
		}
	}
	return ProjectTypeUnknown
}

func hasReadme(entries map[string]os.FileInfo) bool {
	for name, info := range entries {
		if info.IsDir() {
			continue
		}
		for _, candidate := range readmeCandidates {
			if strings.EqualFold(name, candidate) {
				return true
			}
		}
	}
	return false
}

func hasEntry(name string) func(entries map[string]os.FileInfo) bool {
	return func(entries map[string]os.FileInfo) bool {
		_, exists := entries[name]
		return exists
	}
}

func isPrunedDirectory(name string) bool {
	return name == nodeModulesDirectoryNameConstant || strings.HasPrefix(name, hiddenEntryPrefixConstant)
}

func normalizeExtension(extension string) string {
	return strings.ToLower(strings.TrimSpace(extension))
}
