package classifier_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/projectdesk/internal/classifier"
	"github.com/temirov/projectdesk/internal/dependencies"
	"github.com/temirov/projectdesk/internal/githubcli"
	"github.com/temirov/projectdesk/internal/workspace"
)

func executeListCommand(testInstance *testing.T, fileSystem afero.Fs, arguments ...string) (string, error) {
	testInstance.Helper()
	builder := classifier.CommandBuilder{
		RuntimeProvider: func() dependencies.Runtime {
			return dependencies.Runtime{Workspace: workspace.Configuration{Root: "/workspace"}}
		},
		FileSystem:         fileSystem,
		RemoteReader:       &stubRemoteReader{remoteURL: testGitHubRemoteConstant, configured: true},
		VisibilityResolver: &stubVisibilityResolver{visibility: githubcli.VisibilityPrivate},
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	command.SetContext(context.Background())
	command.SetArgs(arguments)
	outputBuffer := &strings.Builder{}
	command.SetOut(outputBuffer)
	command.SetErr(outputBuffer)
	executionError := command.Execute()
	return outputBuffer.String(), executionError
}

func TestListCommandFormats(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	writeProjectFiles(testInstance, fileSystem, map[string]string{
		"go.mod":    "module demo",
		"main.go":   "package main",
		"README.md": "# demo",
		".git/HEAD": "ref: refs/heads/main",
	})

	tableOutput, tableError := executeListCommand(testInstance, fileSystem)
	require.NoError(testInstance, tableError)
	for _, expected := range []string{"NAME", "demo", "Go", "git-with-remote", "private", "yes"} {
		require.Contains(testInstance, tableOutput, expected)
	}

	jsonOutput, jsonError := executeListCommand(testInstance, fileSystem, "--format", "JSON", "demo")
	require.NoError(testInstance, jsonError)
	var records []classifier.ProjectRecord
	require.NoError(testInstance, json.Unmarshal([]byte(jsonOutput), &records))
	require.Len(testInstance, records, 1)
	require.Equal(testInstance, classifier.ProjectTypeGo, records[0].ProjectType)
	require.Equal(testInstance, githubcli.VisibilityPrivate, records[0].RemoteVisibility)
}

func TestListCommandRejectsUnknownFormat(testInstance *testing.T) {
	_, executionError := executeListCommand(testInstance, afero.NewMemMapFs(), "--format", "xml")
	require.EqualError(testInstance, executionError, `unsupported format "xml"`)
}
