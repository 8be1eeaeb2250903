package editor_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/projectdesk/internal/editor"
	"github.com/temirov/projectdesk/internal/execshell"
)

type recordingExecutor struct {
	failures map[execshell.CommandName]error
	commands []execshell.ShellCommand
}

func (executor *recordingExecutor) Execute(_ context.Context, command execshell.ShellCommand) (execshell.ExecutionResult, error) {
	executor.commands = append(executor.commands, command)
	if failure, failing := executor.failures[command.Name]; failing {
		return execshell.ExecutionResult{}, failure
	}
	return execshell.ExecutionResult{}, nil
}

func TestNewOpenerValidation(testInstance *testing.T) {
	_, executorError := editor.NewOpener(nil, editor.DefaultConfiguration(), nil)
	require.ErrorIs(testInstance, executorError, editor.ErrExecutorNotConfigured)

	_, candidatesError := editor.NewOpener(&recordingExecutor{}, editor.Configuration{Candidates: []string{" "}}, nil)
	require.ErrorIs(testInstance, candidatesError, editor.ErrNoCandidates)
}

func TestOpenerOpen(testInstance *testing.T) {
	missingBinary := errors.New("executable file not found in $PATH")

	testCases := []struct {
		name              string
		failures          map[execshell.CommandName]error
		expectedAttempted []execshell.CommandName
		expectError       bool
	}{
		{
			name:              "first_candidate_succeeds",
			expectedAttempted: []execshell.CommandName{"code"},
		},
		{
			name:              "falls_back_in_order",
			failures:          map[execshell.CommandName]error{"code": missingBinary},
			expectedAttempted: []execshell.CommandName{"code", "/usr/local/bin/code"},
		},
		{
			name: "all_candidates_fail",
			failures: map[execshell.CommandName]error{
				"code":                missingBinary,
				"/usr/local/bin/code": missingBinary,
				"/Applications/Visual Studio Code.app/Contents/Resources/app/bin/code": missingBinary,
			},
			expectedAttempted: []execshell.CommandName{"code", "/usr/local/bin/code", "/Applications/Visual Studio Code.app/Contents/Resources/app/bin/code"},
			expectError:       true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &recordingExecutor{failures: testCase.failures}
			opener, creationError := editor.NewOpener(executor, editor.DefaultConfiguration(), nil)
			require.NoError(testInstance, creationError)

			openError := opener.Open(context.Background(), "/workspace/demo")

			attempted := make([]execshell.CommandName, 0, len(executor.commands))
			for _, command := range executor.commands {
				require.Equal(testInstance, []string{"/workspace/demo"}, command.Details.Arguments)
				attempted = append(attempted, command.Name)
			}
			require.Equal(testInstance, testCase.expectedAttempted, attempted)

			if !testCase.expectError {
				require.NoError(testInstance, openError)
				return
			}
			var unavailableError editor.UnavailableError
			require.ErrorAs(testInstance, openError, &unavailableError)
			require.Len(testInstance, unavailableError.Attempts, 3)
			require.Contains(testInstance, openError.Error(), "/usr/local/bin/code (executable file not found in $PATH)")
		})
	}
}
