package reconcile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/projectdesk/internal/execshell"
	"github.com/temirov/projectdesk/internal/gitrepo"
	"github.com/temirov/projectdesk/internal/githubcli"
	"github.com/temirov/projectdesk/internal/remoteprobe"
	"github.com/temirov/projectdesk/internal/shared"
)

const (
	gitManagerNotConfiguredMessage       = "git repository manager not configured"
	gitHubClientNotConfiguredMessage     = "github client not configured"
	repositoryAlreadyInitializedTemplate = "git repository already initialized in %s"
	projectDirectoryMissingTemplate      = "project directory %s does not exist"
	initializationFailedTemplate         = "initialize repository: %s"
	remoteReadFailedTemplate             = "read origin remote: %s"
	repositoryCreationFailedTemplate     = "create repository: %s"
	pushFailedTemplate                   = "push %s: %s"
	branchResolutionFailedTemplate       = "resolve current branch: %s"
	createdMessageTemplate               = "created %s repository %s"
	pushedMessageTemplate                = "pushed %s to %s"
	upToDateMessageTemplate              = "%s already matches %s"
	reconcileStartedLogMessage           = "reconciling project"
	reconcileFinishedLogMessage          = "reconciliation finished"
	createConflictLogMessage             = "repository already exists, linking instead"
	loginUnavailableLogMessage           = "authenticated login unavailable, matching origin by host and name"
	logFieldPathConstant                 = "path"
	logFieldRepositoryConstant           = "repository"
	logFieldStatusConstant               = "status"
	logFieldMessageConstant              = "message"
	logFieldRemoteURLConstant            = "remote_url"
)

// ErrGitManagerNotConfigured indicates the reconciler was built without git access.
var ErrGitManagerNotConfigured = errors.New(gitManagerNotConfiguredMessage)

// ErrGitHubClientNotConfigured indicates the reconciler was built without gh access.
var ErrGitHubClientNotConfigured = errors.New(gitHubClientNotConfiguredMessage)

// RepositoryAlreadyInitializedError is returned by InitializeRepository when .git exists.
type RepositoryAlreadyInitializedError struct {
	Path string
}

// Error describes the conflict.
func (initializedError RepositoryAlreadyInitializedError) Error() string {
	return fmt.Sprintf(repositoryAlreadyInitializedTemplate, initializedError.Path)
}

// Dependencies enumerates collaborators of the reconciler.
type Dependencies struct {
	FileSystem   afero.Fs
	GitManager   GitRepositoryManager
	GitHubClient GitHubClient
	Prober       RemoteProber
	PathLocker   *shared.PathLocker
	Logger       *zap.Logger
}

// Reconciler drives projects towards a published, in-sync state.
type Reconciler struct {
	fileSystem    afero.Fs
	gitManager    GitRepositoryManager
	gitHubClient  GitHubClient
	prober        RemoteProber
	pathLocker    *shared.PathLocker
	logger        *zap.Logger
	configuration Configuration
}

// NewReconciler validates dependencies and fills defaults for optional collaborators.
func NewReconciler(dependencies Dependencies, configuration Configuration) (*Reconciler, error) {
	if dependencies.GitManager == nil {
		return nil, ErrGitManagerNotConfigured
	}
	if dependencies.GitHubClient == nil {
		return nil, ErrGitHubClientNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	pathLocker := dependencies.PathLocker
	if pathLocker == nil {
		pathLocker = shared.NewPathLocker()
	}
	prober := dependencies.Prober
	if prober == nil {
		defaultProber, proberError := remoteprobe.NewProber(dependencies.GitManager, logger)
		if proberError != nil {
			return nil, proberError
		}
		prober = defaultProber
	}

	return &Reconciler{
		fileSystem:    fileSystem,
		gitManager:    dependencies.GitManager,
		gitHubClient:  dependencies.GitHubClient,
		prober:        prober,
		pathLocker:    pathLocker,
		logger:        logger,
		configuration: configuration.sanitize(),
	}, nil
}

// Reconcile brings the project in line with its hosted repository. It never returns an
// error; every failure is folded into a failed Outcome carrying the raw message.
func (reconciler *Reconciler) Reconcile(executionContext context.Context, request Request) Outcome {
	projectPath := filepath.Clean(request.ProjectPath)
	repositoryName := strings.TrimSpace(request.RepositoryName)
	if len(repositoryName) == 0 {
		repositoryName = filepath.Base(projectPath)
	}

	release, lockError := reconciler.pathLocker.TryLock(projectPath)
	if lockError != nil {
		return failedOutcome(lockError.Error())
	}
	defer release()

	reconciler.logger.Info(reconcileStartedLogMessage,
		zap.String(logFieldPathConstant, projectPath),
		zap.String(logFieldRepositoryConstant, repositoryName))

	outcome := reconciler.reconcile(executionContext, projectPath, repositoryName, request.Visibility)

	reconciler.logger.Info(reconcileFinishedLogMessage,
		zap.String(logFieldPathConstant, projectPath),
		zap.String(logFieldStatusConstant, string(outcome.Status)),
		zap.String(logFieldMessageConstant, outcome.Message))
	return outcome
}

func (reconciler *Reconciler) reconcile(executionContext context.Context, projectPath string, repositoryName string, visibility githubcli.RepositoryVisibility) Outcome {
	if !reconciler.directoryExists(projectPath) {
		return failedOutcome(fmt.Sprintf(projectDirectoryMissingTemplate, projectPath))
	}

	if !reconciler.hasGitDirectory(projectPath) {
		if initializationError := reconciler.initializeWithCommit(executionContext, projectPath); initializationError != nil {
			return failedOutcome(fmt.Sprintf(initializationFailedTemplate, describeFailure(initializationError)))
		}
	}

	remoteURL, remoteConfigured, lookupError := reconciler.gitManager.LookupRemoteURL(executionContext, projectPath, shared.OriginRemoteNameConstant)
	if lookupError != nil {
		return failedOutcome(fmt.Sprintf(remoteReadFailedTemplate, describeFailure(lookupError)))
	}

	if !remoteConfigured {
		return reconciler.createRepository(executionContext, projectPath, repositoryName, visibility)
	}

	if !reconciler.originMatches(executionContext, remoteURL, repositoryName) {
		return reconciler.link(executionContext, projectPath, repositoryName)
	}

	return reconciler.pushCurrentBranch(executionContext, projectPath, remoteURL)
}

// InitializeRepository runs git init and commits the existing contents when there are any.
func (reconciler *Reconciler) InitializeRepository(executionContext context.Context, projectPath string) error {
	cleanedPath := filepath.Clean(projectPath)
	release, lockError := reconciler.pathLocker.TryLock(cleanedPath)
	if lockError != nil {
		return lockError
	}
	defer release()

	if !reconciler.directoryExists(cleanedPath) {
		return fmt.Errorf(projectDirectoryMissingTemplate, cleanedPath)
	}
	if reconciler.hasGitDirectory(cleanedPath) {
		return RepositoryAlreadyInitializedError{Path: cleanedPath}
	}

	if initError := reconciler.gitManager.InitializeRepository(executionContext, cleanedPath, reconciler.configuration.DefaultBranch); initError != nil {
		return initError
	}

	clean, statusError := reconciler.gitManager.CheckCleanWorktree(executionContext, cleanedPath)
	if statusError != nil {
		return statusError
	}
	if clean {
		return nil
	}

	if stageError := reconciler.gitManager.StageAll(executionContext, cleanedPath); stageError != nil {
		return stageError
	}
	return reconciler.gitManager.Commit(executionContext, cleanedPath, gitrepo.CommitOptions{Message: reconciler.configuration.InitialCommitMessage})
}

func (reconciler *Reconciler) initializeWithCommit(executionContext context.Context, projectPath string) error {
	if initError := reconciler.gitManager.InitializeRepository(executionContext, projectPath, reconciler.configuration.DefaultBranch); initError != nil {
		return initError
	}
	if stageError := reconciler.gitManager.StageAll(executionContext, projectPath); stageError != nil {
		return stageError
	}
	return reconciler.gitManager.Commit(executionContext, projectPath, gitrepo.CommitOptions{
		Message:    reconciler.configuration.InitialCommitMessage,
		AllowEmpty: true,
	})
}

func (reconciler *Reconciler) createRepository(executionContext context.Context, projectPath string, repositoryName string, visibility githubcli.RepositoryVisibility) Outcome {
	if visibility != githubcli.VisibilityPrivate && visibility != githubcli.VisibilityPublic {
		visibility = githubcli.VisibilityFromPrivateFlag(reconciler.configuration.Private)
	}

	creationError := reconciler.gitHubClient.CreateRepository(executionContext, githubcli.RepositoryCreationOptions{
		Name:            repositoryName,
		Visibility:      visibility,
		SourceDirectory: projectPath,
		RemoteName:      shared.OriginRemoteNameConstant,
		Push:            true,
	})
	if creationError == nil {
		return Outcome{Status: StatusCreated, Message: fmt.Sprintf(createdMessageTemplate, visibility, repositoryName)}
	}

	var existsError githubcli.RepositoryExistsError
	if errors.As(creationError, &existsError) {
		reconciler.logger.Info(createConflictLogMessage,
			zap.String(logFieldPathConstant, projectPath),
			zap.String(logFieldRepositoryConstant, repositoryName))
		return reconciler.link(executionContext, projectPath, repositoryName)
	}

	return failedOutcome(fmt.Sprintf(repositoryCreationFailedTemplate, describeFailure(creationError)))
}

// originMatches reports whether the origin URL points at host/<login>/<repositoryName>.
// The owner is only compared when the authenticated login can be resolved.
func (reconciler *Reconciler) originMatches(executionContext context.Context, remoteURL string, repositoryName string) bool {
	parsedRemote, parseError := gitrepo.ParseRemoteURL(remoteURL)
	if parseError != nil {
		return false
	}
	if !parsedRemote.HostMatches(reconciler.configuration.GitHubHost) {
		return false
	}
	if !strings.EqualFold(parsedRemote.Repository, repositoryName) {
		return false
	}

	login, loginError := reconciler.gitHubClient.ResolveAuthenticatedLogin(executionContext)
	if loginError != nil {
		reconciler.logger.Debug(loginUnavailableLogMessage, zap.String(logFieldRemoteURLConstant, remoteURL), zap.Error(loginError))
		return true
	}
	return strings.EqualFold(parsedRemote.Owner, login)
}

func (reconciler *Reconciler) pushCurrentBranch(executionContext context.Context, projectPath string, remoteURL string) Outcome {
	branchName, branchError := reconciler.ensureBranch(executionContext, projectPath)
	if branchError != nil {
		return failedOutcome(fmt.Sprintf(branchResolutionFailedTemplate, describeFailure(branchError)))
	}

	pushResult, pushError := reconciler.gitManager.Push(executionContext, projectPath, gitrepo.PushOptions{
		RemoteName:  shared.OriginRemoteNameConstant,
		BranchName:  branchName,
		SetUpstream: true,
	})
	if pushError != nil {
		return failedOutcome(fmt.Sprintf(pushFailedTemplate, branchName, describeFailure(pushError)))
	}
	if pushResult.UpToDate {
		return Outcome{Status: StatusUpToDate, Message: fmt.Sprintf(upToDateMessageTemplate, branchName, remoteURL)}
	}
	return Outcome{Status: StatusPushed, Message: fmt.Sprintf(pushedMessageTemplate, branchName, remoteURL)}
}

// ensureBranch returns the current branch, creating the default branch when HEAD has none.
func (reconciler *Reconciler) ensureBranch(executionContext context.Context, projectPath string) (string, error) {
	branchName, branchError := reconciler.gitManager.GetCurrentBranch(executionContext, projectPath)
	if branchError != nil {
		return "", branchError
	}
	branchName = strings.TrimSpace(branchName)
	if len(branchName) > 0 {
		return branchName, nil
	}

	defaultBranch := reconciler.configuration.DefaultBranch
	if checkoutError := reconciler.gitManager.CreateAndCheckoutBranch(executionContext, projectPath, defaultBranch); checkoutError != nil {
		return "", checkoutError
	}
	return defaultBranch, nil
}

func (reconciler *Reconciler) hasGitDirectory(projectPath string) bool {
	_, statError := reconciler.fileSystem.Stat(filepath.Join(projectPath, shared.GitDirectoryNameConstant))
	return statError == nil
}

func (reconciler *Reconciler) directoryExists(projectPath string) bool {
	info, statError := reconciler.fileSystem.Stat(projectPath)
	if statError != nil {
		return !errors.Is(statError, os.ErrNotExist)
	}
	return info.IsDir()
}

func failedOutcome(message string) Outcome {
	return Outcome{Status: StatusFailed, Message: message}
}

// describeFailure prefers the raw command output of a failed git or gh invocation.
func describeFailure(err error) string {
	var commandFailure execshell.CommandFailedError
	if errors.As(err, &commandFailure) {
		if combinedOutput := commandFailure.CombinedOutput(); len(combinedOutput) > 0 {
			return combinedOutput
		}
	}
	return err.Error()
}
