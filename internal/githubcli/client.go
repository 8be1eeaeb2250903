package githubcli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/temirov/projectdesk/internal/execshell"
)

const (
	repoSubcommandConstant                   = "repo"
	createSubcommandConstant                 = "create"
	apiSubcommandConstant                    = "api"
	userEndpointConstant                     = "user"
	repositoryEndpointTemplateConstant       = "repos/%s"
	jqFlagConstant                           = "-q"
	loginQueryConstant                       = ".login"
	privateQueryConstant                     = ".private"
	privateFlagConstant                      = "--private"
	publicFlagConstant                       = "--public"
	sourceFlagConstant                       = "--source"
	remoteFlagConstant                       = "--remote"
	pushFlagConstant                         = "--push"
	currentDirectorySourceConstant           = "."
	repositoryFieldNameConstant              = "repository"
	sourceDirectoryFieldNameConstant         = "source_directory"
	requiredValueMessageConstant             = "value required"
	executorNotConfiguredMessageConstant     = "github cli executor not configured"
	emptyLoginMessageConstant                = "empty login returned"
	operationErrorMessageTemplateConstant    = "%s operation failed"
	operationErrorWithCauseTemplateConstant  = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant    = "%s response decoding failed: %s"
	invalidInputErrorTemplateConstant        = "%s: %s"
	repositoryExistsErrorTemplateConstant    = "repository %s already exists"
	resolveLoginOperationNameConstant        = OperationName("ResolveAuthenticatedLogin")
	resolveVisibilityOperationNameConstant   = OperationName("ResolveRepositoryVisibility")
	createRepositoryOperationNameConstant    = OperationName("CreateRepository")
	unknownVisibilityLabelConstant           = "unknown"
	privateVisibilityLabelConstant           = "private"
	publicVisibilityLabelConstant            = "public"
)

// repositoryExistsFragments are lowercase substrings gh prints when the name is taken.
var repositoryExistsFragments = []string{
	"already exists",
	"repository-exists",
	"name already exists",
}

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// RepositoryVisibility describes whether a hosted repository is private.
type RepositoryVisibility string

// Repository visibility values.
const (
	VisibilityUnknown RepositoryVisibility = RepositoryVisibility(unknownVisibilityLabelConstant)
	VisibilityPrivate RepositoryVisibility = RepositoryVisibility(privateVisibilityLabelConstant)
	VisibilityPublic  RepositoryVisibility = RepositoryVisibility(publicVisibilityLabelConstant)
)

// VisibilityFromPrivateFlag maps a boolean "make private" request to a visibility.
func VisibilityFromPrivateFlag(private bool) RepositoryVisibility {
	if private {
		return VisibilityPrivate
	}
	return VisibilityPublic
}

// RepositoryCreationOptions configure gh repo create.
type RepositoryCreationOptions struct {
	Name            string
	Visibility      RepositoryVisibility
	SourceDirectory string
	RemoteName      string
	Push            bool
}

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates gh returned output that could not be interpreted.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// RepositoryExistsError reports that repository creation failed because the name is taken.
type RepositoryExistsError struct {
	Repository string
	Cause      error
}

// Error describes the conflict.
func (existsError RepositoryExistsError) Error() string {
	return fmt.Sprintf(repositoryExistsErrorTemplateConstant, existsError.Repository)
}

// Unwrap exposes the underlying command failure.
func (existsError RepositoryExistsError) Unwrap() error {
	return existsError.Cause
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// ResolveAuthenticatedLogin returns the login of the account gh is authenticated as.
func (client *Client) ResolveAuthenticatedLogin(executionContext context.Context) (string, error) {
	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: []string{apiSubcommandConstant, userEndpointConstant, jqFlagConstant, loginQueryConstant},
	})
	if executionError != nil {
		return "", OperationError{Operation: resolveLoginOperationNameConstant, Cause: executionError}
	}

	login := strings.TrimSpace(executionResult.StandardOutput)
	if len(login) == 0 {
		return "", ResponseDecodingError{Operation: resolveLoginOperationNameConstant, Cause: errors.New(emptyLoginMessageConstant)}
	}
	return login, nil
}

// ResolveRepositoryVisibility reports whether owner/repository is private.
func (client *Client) ResolveRepositoryVisibility(executionContext context.Context, repository string) (RepositoryVisibility, error) {
	repositoryIdentifier := strings.TrimSpace(repository)
	if len(repositoryIdentifier) == 0 {
		return VisibilityUnknown, InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments: []string{apiSubcommandConstant, fmt.Sprintf(repositoryEndpointTemplateConstant, repositoryIdentifier), jqFlagConstant, privateQueryConstant},
	})
	if executionError != nil {
		return VisibilityUnknown, OperationError{Operation: resolveVisibilityOperationNameConstant, Cause: executionError}
	}

	private, parseError := strconv.ParseBool(strings.TrimSpace(executionResult.StandardOutput))
	if parseError != nil {
		return VisibilityUnknown, ResponseDecodingError{Operation: resolveVisibilityOperationNameConstant, Cause: parseError}
	}
	return VisibilityFromPrivateFlag(private), nil
}

// CreateRepository runs gh repo create from a local source directory, binding it as a remote
// and optionally pushing. A name conflict is reported as RepositoryExistsError.
func (client *Client) CreateRepository(executionContext context.Context, options RepositoryCreationOptions) error {
	repositoryName := strings.TrimSpace(options.Name)
	if len(repositoryName) == 0 {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	sourceDirectory := strings.TrimSpace(options.SourceDirectory)
	if len(sourceDirectory) == 0 {
		return InvalidInputError{FieldName: sourceDirectoryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	visibilityFlag := publicFlagConstant
	if options.Visibility == VisibilityPrivate {
		visibilityFlag = privateFlagConstant
	}

	arguments := []string{repoSubcommandConstant, createSubcommandConstant, repositoryName, visibilityFlag, sourceFlagConstant, currentDirectorySourceConstant}
	if remoteName := strings.TrimSpace(options.RemoteName); len(remoteName) > 0 {
		arguments = append(arguments, remoteFlagConstant, remoteName)
	}
	if options.Push {
		arguments = append(arguments, pushFlagConstant)
	}

	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: sourceDirectory,
	})
	if executionError == nil {
		return nil
	}

	var commandFailure execshell.CommandFailedError
	if errors.As(executionError, &commandFailure) && indicatesRepositoryExists(commandFailure.CombinedOutput()) {
		return RepositoryExistsError{Repository: repositoryName, Cause: executionError}
	}
	return OperationError{Operation: createRepositoryOperationNameConstant, Cause: executionError}
}

func indicatesRepositoryExists(output string) bool {
	normalized := strings.ToLower(output)
	for _, fragment := range repositoryExistsFragments {
		if strings.Contains(normalized, fragment) {
			return true
		}
	}
	return false
}
