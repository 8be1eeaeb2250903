package sweep_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/temirov/projectdesk/internal/dependencies"
	"github.com/temirov/projectdesk/internal/sweep"
	"github.com/temirov/projectdesk/internal/workspace"
)

const testProjectsFilePathConstant = "/etc/projectdesk/projects.yaml"

func executeSweepCommand(testInstance *testing.T, fileSystem afero.Fs, manager *fakeGitManager, configuration sweep.Configuration, arguments ...string) (string, error) {
	testInstance.Helper()
	builder := sweep.CommandBuilder{
		RuntimeProvider: func() dependencies.Runtime {
			return dependencies.Runtime{Workspace: workspace.Configuration{Root: testWorkspaceRootConstant}}
		},
		ConfigurationProvider: func() sweep.Configuration { return configuration },
		FileSystem:            fileSystem,
		GitManager:            manager,
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

func TestSweepCommandSelectsProjects(testInstance *testing.T) {
	testCases := []struct {
		name            string
		configuration   sweep.Configuration
		projectsFile    string
		arguments       []string
		expectedSwept   []string
		expectedSkipped []string
	}{
		{
			name:            "arguments",
			arguments:       []string{"alpha"},
			expectedSwept:   []string{"alpha"},
			expectedSkipped: []string{"beta"},
		},
		{
			name:            "projects_file",
			projectsFile:    "projects:\n  - beta\n",
			arguments:       []string{"--projects-file", testProjectsFilePathConstant},
			expectedSwept:   []string{"beta"},
			expectedSkipped: []string{"alpha"},
		},
		{
			name:            "configured_projects",
			configuration:   sweep.Configuration{Projects: []string{"beta"}},
			expectedSwept:   []string{"beta"},
			expectedSkipped: []string{"alpha"},
		},
		{
			name:          "whole_workspace",
			expectedSwept: []string{"alpha", "beta"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fileSystem := newWorkspace(testInstance, "alpha", "beta")
			if len(testCase.projectsFile) > 0 {
				require.NoError(testInstance, afero.WriteFile(fileSystem, testProjectsFilePathConstant, []byte(testCase.projectsFile), 0o644))
			}
			manager := &fakeGitManager{repositories: map[string]*fakeRepository{
				"/workspace/alpha": {branchStatus: trackingStatus(1)},
				"/workspace/beta":  {branchStatus: trackingStatus(1)},
			}}

			output, executionError := executeSweepCommand(testInstance, fileSystem, manager, testCase.configuration, testCase.arguments...)
			require.NoError(testInstance, executionError)
			for _, name := range testCase.expectedSwept {
				require.Len(testInstance, manager.repository("/workspace/"+name).pushes, 1)
				require.Contains(testInstance, output, name+"  pushed")
			}
			for _, name := range testCase.expectedSkipped {
				require.Empty(testInstance, manager.repository("/workspace/"+name).pushes)
			}
			require.Contains(testInstance, output, fmt.Sprintf("sweep: pushed %d", len(testCase.expectedSwept)))
		})
	}
}

func TestSweepCommandFlagsOverrideConfiguration(testInstance *testing.T) {
	fileSystem := newWorkspace(testInstance, "alpha")
	manager := &fakeGitManager{repositories: map[string]*fakeRepository{
		"/workspace/alpha": {dirty: true, branchStatus: trackingStatus(0)},
	}}

	_, executionError := executeSweepCommand(testInstance, fileSystem, manager,
		sweep.Configuration{CommitMessage: "configured message"},
		"--commit-message", testCommitMessageConstant, "--parallelism", "4", "alpha")
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, []string{testCommitMessageConstant}, manager.repository("/workspace/alpha").commits)
}

func TestSweepCommandReportsFailures(testInstance *testing.T) {
	fileSystem := newWorkspace(testInstance, "alpha")
	manager := &fakeGitManager{repositories: map[string]*fakeRepository{
		"/workspace/alpha": {branchStatus: trackingStatus(0)},
	}}

	output, executionError := executeSweepCommand(testInstance, fileSystem, manager, sweep.Configuration{}, "alpha", "ghost")
	require.EqualError(testInstance, executionError, "sweep finished with 0 failed and 1 errored projects")
	require.Contains(testInstance, output, "alpha  up-to-date")
	require.Contains(testInstance, output, "ghost  error")
}

func TestSweepCommandRejectsInvalidReference(testInstance *testing.T) {
	fileSystem := newWorkspace(testInstance, "alpha")
	_, executionError := executeSweepCommand(testInstance, fileSystem, &fakeGitManager{}, sweep.Configuration{}, ".hidden")
	require.Error(testInstance, executionError)
	require.Contains(testInstance, executionError.Error(), "select projects")
}
