package classifier_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/projectdesk/internal/classifier"
	"github.com/temirov/projectdesk/internal/githubcli"
)

const (
	testProjectPathConstant  = "/workspace/demo"
	testGitHubRemoteConstant = "git@github.com:octo/demo.git"
	testGitLabRemoteConstant = "https://gitlab.com/octo/demo.git"
)

type stubRemoteReader struct {
	remoteURL  string
	configured bool
	err        error
	calls      int
}

func (reader *stubRemoteReader) LookupRemoteURL(context.Context, string, string) (string, bool, error) {
	reader.calls++
	return reader.remoteURL, reader.configured, reader.err
}

type stubVisibilityResolver struct {
	visibility   githubcli.RepositoryVisibility
	err          error
	repositories []string
}

func (resolver *stubVisibilityResolver) ResolveRepositoryVisibility(_ context.Context, repository string) (githubcli.RepositoryVisibility, error) {
	resolver.repositories = append(resolver.repositories, repository)
	return resolver.visibility, resolver.err
}

type deniedPathFs struct {
	afero.Fs
	deniedPath string
}

func (fileSystem deniedPathFs) Open(name string) (afero.File, error) {
	if filepath.Clean(name) == fileSystem.deniedPath {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return fileSystem.Fs.Open(name)
}

func writeProjectFiles(testInstance *testing.T, fileSystem afero.Fs, files map[string]string) {
	testInstance.Helper()
	require.NoError(testInstance, fileSystem.MkdirAll(testProjectPathConstant, 0o755))
	for relativePath, contents := range files {
		absolutePath := filepath.Join(testProjectPathConstant, relativePath)
		require.NoError(testInstance, fileSystem.MkdirAll(filepath.Dir(absolutePath), 0o755))
		require.NoError(testInstance, afero.WriteFile(fileSystem, absolutePath, []byte(contents), 0o644))
	}
}

func newTestClassifier(testInstance *testing.T, fileSystem afero.Fs, reader classifier.RemoteURLReader, resolver classifier.VisibilityResolver) *classifier.Classifier {
	testInstance.Helper()
	instance, creationError := classifier.NewClassifier(
		classifier.Dependencies{FileSystem: fileSystem, RemoteReader: reader, VisibilityResolver: resolver, Logger: zap.NewNop()},
		classifier.Configuration{},
	)
	require.NoError(testInstance, creationError)
	return instance
}

func TestNewClassifierRequiresRemoteReader(testInstance *testing.T) {
	instance, creationError := classifier.NewClassifier(classifier.Dependencies{}, classifier.Configuration{})
	require.ErrorIs(testInstance, creationError, classifier.ErrRemoteReaderNotConfigured)
	require.Nil(testInstance, instance)
}

func TestClassifyProjectTypeAndLanguage(testInstance *testing.T) {
	testCases := []struct {
		name             string
		files            map[string]string
		expectedType     classifier.ProjectType
		expectedLanguage string
		expectedReadme   bool
		expectedIgnore   bool
	}{
		{
			name: "node_marker_wins_over_go_marker",
			files: map[string]string{
				"package.json": "{}",
				"go.mod":       "module demo",
				"main.go":      "package main",
				"cmd/tool.go":  "package main",
				"web/app.js":   "",
			},
			expectedType:     classifier.ProjectTypeNode,
			expectedLanguage: "Go",
		},
		{
			name: "python_by_source_file",
			files: map[string]string{
				"script.py": "",
				"readme.md": "",
			},
			expectedType:     classifier.ProjectTypePython,
			expectedLanguage: "Python",
			expectedReadme:   true,
		},
		{
			name: "tie_resolves_lexicographically",
			files: map[string]string{
				"a.rs":       "",
				"b.go":       "",
				".gitignore": "target",
			},
			expectedType:     classifier.ProjectTypeUnknown,
			expectedLanguage: "Go",
			expectedIgnore:   true,
		},
		{
			name: "pruned_directories_are_ignored",
			files: map[string]string{
				"Dockerfile":                "FROM scratch",
				"node_modules/lib/index.js": "",
				"node_modules/lib/util.js":  "",
				".cache/blob.js":            "",
				"src/Main.JAVA":             "",
			},
			expectedType:     classifier.ProjectTypeDocker,
			expectedLanguage: "Java",
		},
		{
			name:             "empty_directory",
			files:            map[string]string{},
			expectedType:     classifier.ProjectTypeUnknown,
			expectedLanguage: classifier.LanguageUnknown,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fileSystem := afero.NewMemMapFs()
			writeProjectFiles(testInstance, fileSystem, testCase.files)
			reader := &stubRemoteReader{}

			record := newTestClassifier(testInstance, fileSystem, reader, nil).Classify(context.Background(), testProjectPathConstant)

			require.Equal(testInstance, "demo", record.Name)
			require.Equal(testInstance, testProjectPathConstant, record.Path)
			require.Equal(testInstance, testCase.expectedType, record.ProjectType)
			require.Equal(testInstance, testCase.expectedLanguage, record.PrimaryLanguage)
			require.Equal(testInstance, testCase.expectedReadme, record.ReadmeExists)
			require.Equal(testInstance, testCase.expectedIgnore, record.GitignoreExists)
			require.Equal(testInstance, classifier.GitStateNoGit, record.GitState)
			require.False(testInstance, record.LastModified.IsZero())
			require.Zero(testInstance, reader.calls)
		})
	}
}

func TestClassifySkipsUnreadableSubdirectory(testInstance *testing.T) {
	memoryFs := afero.NewMemMapFs()
	writeProjectFiles(testInstance, memoryFs, map[string]string{
		"go.mod":             "module demo",
		"main.go":            "",
		"secret/a.py":        "",
		"secret/b.py":        "",
		"secret/nested/c.py": "",
	})
	fileSystem := deniedPathFs{Fs: memoryFs, deniedPath: filepath.Join(testProjectPathConstant, "secret")}

	record := newTestClassifier(testInstance, fileSystem, &stubRemoteReader{}, nil).Classify(context.Background(), testProjectPathConstant)

	require.Equal(testInstance, classifier.ProjectTypeGo, record.ProjectType)
	require.Equal(testInstance, "Go", record.PrimaryLanguage)
}

func TestClassifyUnreadableRootReturnsDefaults(testInstance *testing.T) {
	memoryFs := afero.NewMemMapFs()
	writeProjectFiles(testInstance, memoryFs, map[string]string{"go.mod": "module demo"})
	fileSystem := deniedPathFs{Fs: memoryFs, deniedPath: testProjectPathConstant}

	record := newTestClassifier(testInstance, fileSystem, &stubRemoteReader{}, nil).Classify(context.Background(), testProjectPathConstant)

	require.Equal(testInstance, classifier.ProjectTypeUnknown, record.ProjectType)
	require.Equal(testInstance, classifier.LanguageUnknown, record.PrimaryLanguage)
	require.Equal(testInstance, classifier.GitStateNoGit, record.GitState)
}

func TestClassifyGitFacts(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		reader               *stubRemoteReader
		resolver             *stubVisibilityResolver
		expectedState        classifier.GitState
		expectedRemote       string
		expectedVisibility   githubcli.RepositoryVisibility
		expectedRepositories []string
	}{
		{
			name:               "no_remote",
			reader:             &stubRemoteReader{},
			resolver:           &stubVisibilityResolver{visibility: githubcli.VisibilityPrivate},
			expectedState:      classifier.GitStateNoRemote,
			expectedVisibility: githubcli.VisibilityUnknown,
		},
		{
			name:               "remote_lookup_failure",
			reader:             &stubRemoteReader{err: errors.New("git missing")},
			resolver:           &stubVisibilityResolver{visibility: githubcli.VisibilityPrivate},
			expectedState:      classifier.GitStateNoRemote,
			expectedVisibility: githubcli.VisibilityUnknown,
		},
		{
			name:                 "github_private",
			reader:               &stubRemoteReader{remoteURL: testGitHubRemoteConstant, configured: true},
			resolver:             &stubVisibilityResolver{visibility: githubcli.VisibilityPrivate},
			expectedState:        classifier.GitStateWithRemote,
			expectedRemote:       testGitHubRemoteConstant,
			expectedVisibility:   githubcli.VisibilityPrivate,
			expectedRepositories: []string{"octo/demo"},
		},
		{
			name:                 "visibility_failure_is_unknown",
			reader:               &stubRemoteReader{remoteURL: testGitHubRemoteConstant, configured: true},
			resolver:             &stubVisibilityResolver{err: errors.New("rate limited")},
			expectedState:        classifier.GitStateWithRemote,
			expectedRemote:       testGitHubRemoteConstant,
			expectedVisibility:   githubcli.VisibilityUnknown,
			expectedRepositories: []string{"octo/demo"},
		},
		{
			name:               "other_host_is_not_probed",
			reader:             &stubRemoteReader{remoteURL: testGitLabRemoteConstant, configured: true},
			resolver:           &stubVisibilityResolver{visibility: githubcli.VisibilityPublic},
			expectedState:      classifier.GitStateWithRemote,
			expectedRemote:     testGitLabRemoteConstant,
			expectedVisibility: githubcli.VisibilityUnknown,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fileSystem := afero.NewMemMapFs()
			writeProjectFiles(testInstance, fileSystem, map[string]string{".git/HEAD": "ref: refs/heads/main"})

			record := newTestClassifier(testInstance, fileSystem, testCase.reader, testCase.resolver).Classify(context.Background(), testProjectPathConstant)

			require.True(testInstance, record.HasGit())
			require.Equal(testInstance, testCase.expectedState, record.GitState)
			require.Equal(testInstance, testCase.expectedRemote, record.RemoteURL)
			require.Equal(testInstance, testCase.expectedVisibility, record.RemoteVisibility)
			require.Equal(testInstance, testCase.expectedRepositories, testCase.resolver.repositories)
			require.Equal(testInstance, 1, testCase.reader.calls)
		})
	}
}

func TestLanguageForExtension(testInstance *testing.T) {
	testCases := []struct {
		extension        string
		expectedLanguage string
		expectedKnown    bool
	}{
		{extension: ".TS", expectedLanguage: "TypeScript", expectedKnown: true},
		{extension: ".pl", expectedLanguage: "Prolog", expectedKnown: true},
		{extension: ".pro", expectedLanguage: "Prolog", expectedKnown: true},
		{extension: ".circom", expectedLanguage: "Circom", expectedKnown: true},
		{extension: ".txt", expectedKnown: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.extension, func(testInstance *testing.T) {
			language, known := classifier.LanguageForExtension(testCase.extension)
			require.Equal(testInstance, testCase.expectedKnown, known)
			if testCase.expectedKnown {
				require.Equal(testInstance, testCase.expectedLanguage, language)
			}
		})
	}
}
