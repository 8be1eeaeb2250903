package githubcli_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/projectdesk/internal/execshell"
	"github.com/temirov/projectdesk/internal/githubcli"
)

const (
	testRepositoryIdentifierConstant = "octo/demo"
	testRepositoryNameConstant       = "demo"
	testSourceDirectoryConstant      = "/workspace/demo"
)

type stubGitHubExecutor struct {
	executeFunc     func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error)
	recordedDetails []execshell.CommandDetails
}

func (executor *stubGitHubExecutor) ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedDetails = append(executor.recordedDetails, details)
	if executor.executeFunc != nil {
		return executor.executeFunc(executionContext, details)
	}
	return execshell.ExecutionResult{}, nil
}

func failingGitHubCommand(standardError string) error {
	return execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGitHub},
		Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: standardError},
	}
}

func TestNewClientValidation(testInstance *testing.T) {
	client, creationError := githubcli.NewClient(nil)
	require.ErrorIs(testInstance, creationError, githubcli.ErrExecutorNotConfigured)
	require.Nil(testInstance, client)
}

func TestResolveAuthenticatedLogin(testInstance *testing.T) {
	testCases := []struct {
		name          string
		result        execshell.ExecutionResult
		err           error
		expectedLogin string
		errorType     any
	}{
		{
			name:          "success",
			result:        execshell.ExecutionResult{StandardOutput: "octo\n"},
			expectedLogin: "octo",
		},
		{
			name:      "empty_output",
			result:    execshell.ExecutionResult{StandardOutput: "  \n"},
			errorType: githubcli.ResponseDecodingError{},
		},
		{
			name:      "command_failure",
			err:       failingGitHubCommand("gh auth login required"),
			errorType: githubcli.OperationError{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return testCase.result, testCase.err
			}}
			client, creationError := githubcli.NewClient(executor)
			require.NoError(testInstance, creationError)

			login, resolveError := client.ResolveAuthenticatedLogin(context.Background())
			require.Len(testInstance, executor.recordedDetails, 1)
			require.Equal(testInstance, []string{"api", "user", "-q", ".login"}, executor.recordedDetails[0].Arguments)
			if testCase.errorType != nil {
				require.Error(testInstance, resolveError)
				require.IsType(testInstance, testCase.errorType, resolveError)
				return
			}
			require.NoError(testInstance, resolveError)
			require.Equal(testInstance, testCase.expectedLogin, login)
		})
	}
}

func TestResolveRepositoryVisibility(testInstance *testing.T) {
	testCases := []struct {
		name               string
		repository         string
		output             string
		err                error
		expectedVisibility githubcli.RepositoryVisibility
		errorType          any
	}{
		{
			name:               "private",
			repository:         testRepositoryIdentifierConstant,
			output:             "true\n",
			expectedVisibility: githubcli.VisibilityPrivate,
		},
		{
			name:               "public",
			repository:         testRepositoryIdentifierConstant,
			output:             "false",
			expectedVisibility: githubcli.VisibilityPublic,
		},
		{
			name:               "unparseable",
			repository:         testRepositoryIdentifierConstant,
			output:             "{\"message\":\"Not Found\"}",
			expectedVisibility: githubcli.VisibilityUnknown,
			errorType:          githubcli.ResponseDecodingError{},
		},
		{
			name:               "rate_limited",
			repository:         testRepositoryIdentifierConstant,
			err:                failingGitHubCommand("API rate limit exceeded"),
			expectedVisibility: githubcli.VisibilityUnknown,
			errorType:          githubcli.OperationError{},
		},
		{
			name:               "missing_repository",
			repository:         " ",
			expectedVisibility: githubcli.VisibilityUnknown,
			errorType:          githubcli.InvalidInputError{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{StandardOutput: testCase.output}, testCase.err
			}}
			client, creationError := githubcli.NewClient(executor)
			require.NoError(testInstance, creationError)

			visibility, resolveError := client.ResolveRepositoryVisibility(context.Background(), testCase.repository)
			require.Equal(testInstance, testCase.expectedVisibility, visibility)
			if testCase.errorType != nil {
				require.IsType(testInstance, testCase.errorType, resolveError)
				return
			}
			require.NoError(testInstance, resolveError)
			require.Equal(testInstance, []string{"api", "repos/octo/demo", "-q", ".private"}, executor.recordedDetails[0].Arguments)
		})
	}
}

func TestCreateRepository(testInstance *testing.T) {
	testCases := []struct {
		name              string
		options           githubcli.RepositoryCreationOptions
		err               error
		expectedArguments []string
		verifyError       func(testInstance *testing.T, creationError error)
	}{
		{
			name: "private_with_push",
			options: githubcli.RepositoryCreationOptions{
				Name:            testRepositoryNameConstant,
				Visibility:      githubcli.VisibilityPrivate,
				SourceDirectory: testSourceDirectoryConstant,
				RemoteName:      "origin",
				Push:            true,
			},
			expectedArguments: []string{"repo", "create", "demo", "--private", "--source", ".", "--remote", "origin", "--push"},
		},
		{
			name: "public_without_push",
			options: githubcli.RepositoryCreationOptions{
				Name:            testRepositoryNameConstant,
				Visibility:      githubcli.VisibilityPublic,
				SourceDirectory: testSourceDirectoryConstant,
			},
			expectedArguments: []string{"repo", "create", "demo", "--public", "--source", "."},
		},
		{
			name: "name_taken",
			options: githubcli.RepositoryCreationOptions{
				Name:            testRepositoryNameConstant,
				Visibility:      githubcli.VisibilityPrivate,
				SourceDirectory: testSourceDirectoryConstant,
			},
			err:               failingGitHubCommand("GraphQL: Name already exists on this account (createRepository)"),
			expectedArguments: []string{"repo", "create", "demo", "--private", "--source", "."},
			verifyError: func(testInstance *testing.T, creationError error) {
				var existsError githubcli.RepositoryExistsError
				require.ErrorAs(testInstance, creationError, &existsError)
				require.Equal(testInstance, testRepositoryNameConstant, existsError.Repository)
			},
		},
		{
			name: "other_failure",
			options: githubcli.RepositoryCreationOptions{
				Name:            testRepositoryNameConstant,
				Visibility:      githubcli.VisibilityPrivate,
				SourceDirectory: testSourceDirectoryConstant,
			},
			err:               failingGitHubCommand("HTTP 401: Bad credentials"),
			expectedArguments: []string{"repo", "create", "demo", "--private", "--source", "."},
			verifyError: func(testInstance *testing.T, creationError error) {
				var existsError githubcli.RepositoryExistsError
				require.False(testInstance, errors.As(creationError, &existsError))
				require.IsType(testInstance, githubcli.OperationError{}, creationError)
				require.Contains(testInstance, creationError.Error(), "Bad credentials")
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &stubGitHubExecutor{executeFunc: func(context.Context, execshell.CommandDetails) (execshell.ExecutionResult, error) {
				return execshell.ExecutionResult{}, testCase.err
			}}
			client, creationError := githubcli.NewClient(executor)
			require.NoError(testInstance, creationError)

			createError := client.CreateRepository(context.Background(), testCase.options)
			require.Len(testInstance, executor.recordedDetails, 1)
			require.Equal(testInstance, testCase.expectedArguments, executor.recordedDetails[0].Arguments)
			require.Equal(testInstance, testSourceDirectoryConstant, executor.recordedDetails[0].WorkingDirectory)
			if testCase.verifyError == nil {
				require.NoError(testInstance, createError)
				return
			}
			testCase.verifyError(testInstance, createError)
		})
	}
}

func TestCreateRepositoryValidatesInput(testInstance *testing.T) {
	executor := &stubGitHubExecutor{}
	client, creationError := githubcli.NewClient(executor)
	require.NoError(testInstance, creationError)

	createError := client.CreateRepository(context.Background(), githubcli.RepositoryCreationOptions{Name: testRepositoryNameConstant})
	require.IsType(testInstance, githubcli.InvalidInputError{}, createError)
	require.Empty(testInstance, executor.recordedDetails)
}
