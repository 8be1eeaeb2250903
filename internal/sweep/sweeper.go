package sweep

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/projectdesk/internal/execshell"
	"github.com/temirov/projectdesk/internal/gitrepo"
	"github.com/temirov/projectdesk/internal/shared"
)

const (
	gitManagerNotConfiguredMessage = "git repository manager not configured"
	projectMissingTemplate         = "project directory %s does not exist"
	projectNotDirectoryTemplate    = "%s is not a directory"
	projectNotRepositoryTemplate   = "%s is not a git repository"
	statusFailedTemplate           = "read status: %s"
	branchStatusFailedTemplate     = "read branch status: %s"
	pushFailedTemplate             = "push %s: %s"
	pushedMessageTemplate          = "pushed %s"
	upToDateMessageConstant        = "nothing to push"
	sweepStartedLogMessage         = "sweep started"
	sweepFinishedLogMessage        = "sweep finished"
	projectFinishedLogMessage      = "project swept"
	commitFailedLogMessage         = "commit failed, continuing"
	logFieldProjectConstant        = "project"
	logFieldPathConstant           = "path"
	logFieldStatusConstant         = "status"
	logFieldMessageConstant        = "message"
	logFieldCountConstant          = "projects"
	logFieldParallelismConstant    = "parallelism"
	logFieldPushedConstant         = "pushed"
	logFieldUpToDateConstant       = "up_to_date"
	logFieldFailedConstant         = "failed"
	logFieldErrorsConstant         = "errors"
)

// ErrGitManagerNotConfigured indicates the sweeper was built without git access.
var ErrGitManagerNotConfigured = errors.New(gitManagerNotConfiguredMessage)

// Dependencies enumerates collaborators of the sweeper.
type Dependencies struct {
	FileSystem afero.Fs
	GitManager GitRepositoryManager
	PathLocker *shared.PathLocker
	Logger     *zap.Logger
}

// Sweeper commits and pushes pending changes for a list of projects.
type Sweeper struct {
	fileSystem    afero.Fs
	gitManager    GitRepositoryManager
	pathLocker    *shared.PathLocker
	logger        *zap.Logger
	configuration Configuration
}

// NewSweeper validates dependencies and applies configuration defaults.
func NewSweeper(dependencies Dependencies, configuration Configuration) (*Sweeper, error) {
	if dependencies.GitManager == nil {
		return nil, ErrGitManagerNotConfigured
	}
	fileSystem := dependencies.FileSystem
	if fileSystem == nil {
		fileSystem = afero.NewOsFs()
	}
	pathLocker := dependencies.PathLocker
	if pathLocker == nil {
		pathLocker = shared.NewPathLocker()
	}
	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		fileSystem:    fileSystem,
		gitManager:    dependencies.GitManager,
		pathLocker:    pathLocker,
		logger:        logger,
		configuration: configuration.sanitize(),
	}, nil
}

// Sweep processes every project and returns the aggregated summary. A failing project never
// stops the sweep; once the context is cancelled the remaining projects are reported as errors.
func (sweeper *Sweeper) Sweep(executionContext context.Context, projects []shared.Project) Summary {
	sweeper.logger.Info(sweepStartedLogMessage,
		zap.Int(logFieldCountConstant, len(projects)),
		zap.Int(logFieldParallelismConstant, sweeper.configuration.Parallelism))

	results := make([]Result, len(projects))
	summary := Summary{}
	var summaryMutex sync.Mutex

	group := errgroup.Group{}
	group.SetLimit(sweeper.configuration.Parallelism)

	for index := range projects {
		project := projects[index]
		if contextError := executionContext.Err(); contextError != nil {
			results[index] = Result{Project: project, Status: StatusError, Message: contextError.Error()}
			summaryMutex.Lock()
			summary.add(results[index])
			summaryMutex.Unlock()
			continue
		}
		group.Go(func() error {
			result := sweeper.sweepProject(executionContext, project)
			results[index] = result
			sweeper.logger.Info(projectFinishedLogMessage,
				zap.String(logFieldProjectConstant, project.Name),
				zap.String(logFieldStatusConstant, string(result.Status)),
				zap.String(logFieldMessageConstant, result.Message))

			summaryMutex.Lock()
			summary.add(result)
			summaryMutex.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	summary.Results = results
	sweeper.logger.Info(sweepFinishedLogMessage,
		zap.Int(logFieldPushedConstant, summary.Pushed),
		zap.Int(logFieldUpToDateConstant, summary.UpToDate),
		zap.Int(logFieldFailedConstant, summary.Failed),
		zap.Int(logFieldErrorsConstant, summary.Errors))
	return summary
}

func (sweeper *Sweeper) sweepProject(executionContext context.Context, project shared.Project) Result {
	projectPath := filepath.Clean(project.Path)
	errorResult := func(message string) Result {
		return Result{Project: project, Status: StatusError, Message: message}
	}

	info, statError := sweeper.fileSystem.Stat(projectPath)
	if statError != nil {
		return errorResult(fmt.Sprintf(projectMissingTemplate, projectPath))
	}
	if !info.IsDir() {
		return errorResult(fmt.Sprintf(projectNotDirectoryTemplate, projectPath))
	}
	// A project without its own .git must never fall through to an enclosing repository.
	if _, gitDirectoryError := sweeper.fileSystem.Stat(filepath.Join(projectPath, shared.GitDirectoryNameConstant)); gitDirectoryError != nil {
		return errorResult(fmt.Sprintf(projectNotRepositoryTemplate, projectPath))
	}

	release, lockError := sweeper.pathLocker.TryLock(projectPath)
	if lockError != nil {
		return errorResult(lockError.Error())
	}
	defer release()

	clean, statusError := sweeper.gitManager.CheckCleanWorktree(executionContext, projectPath)
	if statusError != nil {
		return errorResult(fmt.Sprintf(statusFailedTemplate, describeFailure(statusError)))
	}
	if !clean {
		sweeper.commitPendingChanges(executionContext, project, projectPath)
	}

	branchStatus, branchError := sweeper.gitManager.ReadBranchStatus(executionContext, projectPath)
	if branchError != nil {
		return errorResult(fmt.Sprintf(branchStatusFailedTemplate, describeFailure(branchError)))
	}
	if branchStatus.Ahead == 0 && branchStatus.HasUpstream() && hasOriginUpstream(branchStatus) {
		return Result{Project: project, Status: StatusUpToDate, Message: upToDateMessageConstant}
	}

	branchName := strings.TrimSpace(branchStatus.Branch)
	if len(branchName) == 0 || branchStatus.Detached {
		branchName = shared.DefaultBranchNameConstant
	}

	_, pushError := sweeper.gitManager.Push(executionContext, projectPath, gitrepo.PushOptions{
		RemoteName:  shared.OriginRemoteNameConstant,
		BranchName:  branchName,
		SetUpstream: true,
	})
	if pushError == nil {
		return Result{Project: project, Status: StatusPushed, Message: fmt.Sprintf(pushedMessageTemplate, branchName)}
	}

	message := fmt.Sprintf(pushFailedTemplate, branchName, describeFailure(pushError))
	var commandFailure execshell.CommandFailedError
	if errors.As(pushError, &commandFailure) {
		return Result{Project: project, Status: StatusFailed, Message: message}
	}
	return errorResult(message)
}

func (sweeper *Sweeper) commitPendingChanges(executionContext context.Context, project shared.Project, projectPath string) {
	commitError := sweeper.gitManager.StageAll(executionContext, projectPath)
	if commitError == nil {
		commitError = sweeper.gitManager.Commit(executionContext, projectPath, gitrepo.CommitOptions{Message: sweeper.configuration.CommitMessage})
	}
	if commitError != nil {
		sweeper.logger.Warn(commitFailedLogMessage,
			zap.String(logFieldProjectConstant, project.Name),
			zap.String(logFieldPathConstant, projectPath),
			zap.Error(commitError))
	}
}

// hasOriginUpstream reports whether the tracked upstream lives on origin.
func hasOriginUpstream(status gitrepo.BranchStatus) bool {
	return strings.HasPrefix(status.Upstream, shared.OriginRemoteNameConstant+"/")
}

func describeFailure(err error) string {
	var commandFailure execshell.CommandFailedError
	if errors.As(err, &commandFailure) {
		if combinedOutput := commandFailure.CombinedOutput(); len(combinedOutput) > 0 {
			return combinedOutput
		}
	}
	return err.Error()
}
