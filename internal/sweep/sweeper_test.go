package sweep_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/projectdesk/internal/execshell"
	"github.com/temirov/projectdesk/internal/gitrepo"
	"github.com/temirov/projectdesk/internal/shared"
	"github.com/temirov/projectdesk/internal/sweep"
)

const (
	testWorkspaceRootConstant = "/workspace"
	testCommitMessageConstant = "Sweep changes"
)

type fakeRepository struct {
	dirty        bool
	statusError  error
	commitError  error
	branchStatus gitrepo.BranchStatus
	pushError    error
	pushes       []gitrepo.PushOptions
	commits      []string
}

type fakeGitManager struct {
	mutex        sync.Mutex
	repositories map[string]*fakeRepository
	touchedPaths []string
}

func (manager *fakeGitManager) repository(path string) *fakeRepository {
	manager.mutex.Lock()
	defer manager.mutex.Unlock()
	manager.touchedPaths = append(manager.touchedPaths, path)
	repository, known := manager.repositories[path]
	if !known {
		if manager.repositories == nil {
			manager.repositories = map[string]*fakeRepository{}
		}
		repository = &fakeRepository{}
		manager.repositories[path] = repository
	}
	return repository
}

func (manager *fakeGitManager) CheckCleanWorktree(_ context.Context, repositoryPath string) (bool, error) {
	repository := manager.repository(repositoryPath)
	return !repository.dirty, repository.statusError
}

func (manager *fakeGitManager) StageAll(context.Context, string) error {
	return nil
}

func (manager *fakeGitManager) Commit(_ context.Context, repositoryPath string, options gitrepo.CommitOptions) error {
	repository := manager.repository(repositoryPath)
	repository.commits = append(repository.commits, options.Message)
	if repository.commitError != nil {
		return repository.commitError
	}
	repository.dirty = false
	repository.branchStatus.Ahead++
	return nil
}

func (manager *fakeGitManager) ReadBranchStatus(_ context.Context, repositoryPath string) (gitrepo.BranchStatus, error) {
	return manager.repository(repositoryPath).branchStatus, nil
}

func (manager *fakeGitManager) Push(_ context.Context, repositoryPath string, options gitrepo.PushOptions) (gitrepo.PushResult, error) {
	repository := manager.repository(repositoryPath)
	repository.pushes = append(repository.pushes, options)
	return gitrepo.PushResult{}, repository.pushError
}

func trackingStatus(ahead int) gitrepo.BranchStatus {
	return gitrepo.BranchStatus{Branch: "main", Upstream: "origin/main", Ahead: ahead}
}

func newWorkspace(testInstance *testing.T, names ...string) afero.Fs {
	testInstance.Helper()
	fileSystem := afero.NewMemMapFs()
	for _, name := range names {
		require.NoError(testInstance, fileSystem.MkdirAll(testWorkspaceRootConstant+"/"+name+"/.git", 0o755))
	}
	return fileSystem
}

func project(name string) shared.Project {
	return shared.Project{Name: name, Path: testWorkspaceRootConstant + "/" + name}
}

func newTestSweeper(testInstance *testing.T, fileSystem afero.Fs, manager *fakeGitManager, configuration sweep.Configuration, logger *zap.Logger) *sweep.Sweeper {
	testInstance.Helper()
	sweeper, creationError := sweep.NewSweeper(sweep.Dependencies{FileSystem: fileSystem, GitManager: manager, Logger: logger}, configuration)
	require.NoError(testInstance, creationError)
	return sweeper
}

func TestNewSweeperRequiresGitManager(testInstance *testing.T) {
	sweeper, creationError := sweep.NewSweeper(sweep.Dependencies{}, sweep.Configuration{})
	require.ErrorIs(testInstance, creationError, sweep.ErrGitManagerNotConfigured)
	require.Nil(testInstance, sweeper)
}

func TestSweepThreeProjects(testInstance *testing.T) {
	fileSystem := newWorkspace(testInstance, "alpha", "beta")
	manager := &fakeGitManager{repositories: map[string]*fakeRepository{
		"/workspace/alpha": {dirty: true, branchStatus: trackingStatus(0)},
		"/workspace/beta":  {branchStatus: trackingStatus(0)},
	}}

	summary := newTestSweeper(testInstance, fileSystem, manager, sweep.Configuration{CommitMessage: testCommitMessageConstant}, nil).
		Sweep(context.Background(), []shared.Project{project("alpha"), project("beta"), project("gamma")})

	require.Equal(testInstance, 1, summary.Pushed)
	require.Equal(testInstance, 1, summary.UpToDate)
	require.Equal(testInstance, 1, summary.Errors)
	require.Equal(testInstance, 0, summary.Failed)

	require.Len(testInstance, summary.Results, 3)
	require.Equal(testInstance, sweep.StatusPushed, summary.Results[0].Status)
	require.Equal(testInstance, sweep.StatusUpToDate, summary.Results[1].Status)
	require.Equal(testInstance, sweep.StatusError, summary.Results[2].Status)
	require.Equal(testInstance, "gamma", summary.Results[2].Project.Name)

	alpha := manager.repositories["/workspace/alpha"]
	require.Equal(testInstance, []string{testCommitMessageConstant}, alpha.commits)
	require.Equal(testInstance, []gitrepo.PushOptions{{RemoteName: "origin", BranchName: "main", SetUpstream: true}}, alpha.pushes)
	require.Empty(testInstance, manager.repositories["/workspace/beta"].pushes)
}

func TestSweepProjectOutcomes(testInstance *testing.T) {
	testCases := []struct {
		name           string
		repository     *fakeRepository
		expectedStatus sweep.Status
		expectedBranch string
		expectedPushes int
	}{
		{
			name:           "no_upstream_pushes_current_branch",
			repository:     &fakeRepository{branchStatus: gitrepo.BranchStatus{Branch: "trunk"}},
			expectedStatus: sweep.StatusPushed,
			expectedBranch: "trunk",
			expectedPushes: 1,
		},
		{
			name:           "upstream_on_other_remote_pushes_to_origin",
			repository:     &fakeRepository{branchStatus: gitrepo.BranchStatus{Branch: "main", Upstream: "backup/main"}},
			expectedStatus: sweep.StatusPushed,
			expectedBranch: "main",
			expectedPushes: 1,
		},
		{
			name:           "undetected_branch_defaults_to_main",
			repository:     &fakeRepository{branchStatus: gitrepo.BranchStatus{Detached: true}},
			expectedStatus: sweep.StatusPushed,
			expectedBranch: "main",
			expectedPushes: 1,
		},
		{
			name: "rejected_push_is_failed",
			repository: &fakeRepository{
				branchStatus: trackingStatus(2),
				pushError: execshell.CommandFailedError{
					Command: execshell.ShellCommand{Name: execshell.CommandGit},
					Result:  execshell.ExecutionResult{ExitCode: 1, StandardError: "! [rejected] main -> main (fetch first)"},
				},
			},
			expectedStatus: sweep.StatusFailed,
			expectedBranch: "main",
			expectedPushes: 1,
		},
		{
			name: "push_that_cannot_run_is_error",
			repository: &fakeRepository{
				branchStatus: trackingStatus(1),
				pushError:    execshell.CommandExecutionError{Command: execshell.ShellCommand{Name: execshell.CommandGit}, Cause: context.DeadlineExceeded},
			},
			expectedStatus: sweep.StatusError,
			expectedBranch: "main",
			expectedPushes: 1,
		},
		{
			name:           "status_failure_is_error",
			repository:     &fakeRepository{statusError: errors.New("not a git repository")},
			expectedStatus: sweep.StatusError,
		},
		{
			name:           "commit_failure_still_pushes",
			repository:     &fakeRepository{dirty: true, commitError: errors.New("hook rejected"), branchStatus: trackingStatus(1)},
			expectedStatus: sweep.StatusPushed,
			expectedBranch: "main",
			expectedPushes: 1,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fileSystem := newWorkspace(testInstance, "demo")
			manager := &fakeGitManager{repositories: map[string]*fakeRepository{"/workspace/demo": testCase.repository}}

			summary := newTestSweeper(testInstance, fileSystem, manager, sweep.Configuration{}, nil).
				Sweep(context.Background(), []shared.Project{project("demo")})

			require.Len(testInstance, summary.Results, 1)
			require.Equal(testInstance, testCase.expectedStatus, summary.Results[0].Status)
			require.Len(testInstance, testCase.repository.pushes, testCase.expectedPushes)
			if testCase.expectedPushes > 0 {
				require.Equal(testInstance, testCase.expectedBranch, testCase.repository.pushes[0].BranchName)
			}
		})
	}
}

func TestSweepCommitFailureIsLogged(testInstance *testing.T) {
	fileSystem := newWorkspace(testInstance, "demo")
	manager := &fakeGitManager{repositories: map[string]*fakeRepository{
		"/workspace/demo": {dirty: true, commitError: errors.New("hook rejected"), branchStatus: trackingStatus(0)},
	}}
	core, logs := observer.New(zapcore.WarnLevel)

	summary := newTestSweeper(testInstance, fileSystem, manager, sweep.Configuration{}, zap.New(core)).
		Sweep(context.Background(), []shared.Project{project("demo")})

	require.Equal(testInstance, 1, summary.UpToDate)
	require.Equal(testInstance, 1, logs.FilterMessage("commit failed, continuing").Len())
	require.Equal(testInstance, []string{"Update project files"}, manager.repositories["/workspace/demo"].commits)
}

func TestSweepRejectsFilePath(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(fileSystem, "/workspace/notes.txt", []byte("todo"), 0o644))
	manager := &fakeGitManager{repositories: map[string]*fakeRepository{}}

	summary := newTestSweeper(testInstance, fileSystem, manager, sweep.Configuration{}, nil).
		Sweep(context.Background(), []shared.Project{project("notes.txt")})

	require.Equal(testInstance, 1, summary.Errors)
	require.Contains(testInstance, summary.Results[0].Message, "is not a directory")
}

func TestSweepSkipsDirectoryWithoutOwnRepository(testInstance *testing.T) {
	fileSystem := newWorkspace(testInstance, "alpha")
	require.NoError(testInstance, fileSystem.MkdirAll("/.git", 0o755))
	require.NoError(testInstance, fileSystem.MkdirAll("/workspace/plain", 0o755))
	require.NoError(testInstance, afero.WriteFile(fileSystem, "/workspace/plain/notes.txt", []byte("draft"), 0o644))
	require.NoError(testInstance, afero.WriteFile(fileSystem, "/workspace/unrelated.txt", []byte("keep out"), 0o644))
	manager := &fakeGitManager{repositories: map[string]*fakeRepository{
		"/workspace/alpha": {dirty: true, branchStatus: trackingStatus(0)},
	}}

	summary := newTestSweeper(testInstance, fileSystem, manager, sweep.Configuration{}, nil).
		Sweep(context.Background(), []shared.Project{project("plain"), project("alpha")})

	require.Equal(testInstance, 1, summary.Errors)
	require.Equal(testInstance, 1, summary.Pushed)
	require.Equal(testInstance, sweep.StatusError, summary.Results[0].Status)
	require.Equal(testInstance, "/workspace/plain is not a git repository", summary.Results[0].Message)
	require.NotContains(testInstance, manager.touchedPaths, "/workspace/plain")
	require.Contains(testInstance, manager.touchedPaths, "/workspace/alpha")
}

func TestSweepParallelKeepsInputOrder(testInstance *testing.T) {
	names := []string{"a", "b", "c", "d", "e", "f"}
	fileSystem := newWorkspace(testInstance, names...)
	repositories := map[string]*fakeRepository{}
	projects := make([]shared.Project, 0, len(names))
	for index, name := range names {
		repositories["/workspace/"+name] = &fakeRepository{branchStatus: trackingStatus(index % 2)}
		projects = append(projects, project(name))
	}
	manager := &fakeGitManager{repositories: repositories}

	summary := newTestSweeper(testInstance, fileSystem, manager, sweep.Configuration{Parallelism: 3}, nil).
		Sweep(context.Background(), projects)

	require.Equal(testInstance, 3, summary.Pushed)
	require.Equal(testInstance, 3, summary.UpToDate)
	for index, result := range summary.Results {
		require.Equal(testInstance, names[index], result.Project.Name)
	}
}

func TestSweepCancelledContextReportsErrors(testInstance *testing.T) {
	fileSystem := newWorkspace(testInstance, "alpha", "beta")
	manager := &fakeGitManager{repositories: map[string]*fakeRepository{
		"/workspace/alpha": {branchStatus: trackingStatus(1)},
		"/workspace/beta":  {branchStatus: trackingStatus(1)},
	}}
	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()

	summary := newTestSweeper(testInstance, fileSystem, manager, sweep.Configuration{}, nil).
		Sweep(cancelledContext, []shared.Project{project("alpha"), project("beta")})

	require.Equal(testInstance, 2, summary.Errors)
	require.Equal(testInstance, context.Canceled.Error(), summary.Results[0].Message)
	require.Empty(testInstance, manager.repositories["/workspace/alpha"].pushes)
}

func TestSweepRejectsBusyPath(testInstance *testing.T) {
	fileSystem := newWorkspace(testInstance, "demo")
	manager := &fakeGitManager{repositories: map[string]*fakeRepository{"/workspace/demo": {branchStatus: trackingStatus(1)}}}
	locker := shared.NewPathLocker()
	release, lockError := locker.TryLock("/workspace/demo")
	require.NoError(testInstance, lockError)
	defer release()

	sweeper, creationError := sweep.NewSweeper(sweep.Dependencies{FileSystem: fileSystem, GitManager: manager, PathLocker: locker}, sweep.Configuration{})
	require.NoError(testInstance, creationError)

	summary := sweeper.Sweep(context.Background(), []shared.Project{project("demo")})
	require.Equal(testInstance, sweep.StatusError, summary.Results[0].Status)
	require.Equal(testInstance, "operation already in progress for /workspace/demo", summary.Results[0].Message)
}

func TestLoadProjectsFile(testInstance *testing.T) {
	testCases := []struct {
		name     string
		contents string
		expected []string
	}{
		{name: "mapping", contents: "projects:\n  - alpha\n  - ' ~/dev/beta '\n", expected: []string{"alpha", "~/dev/beta"}},
		{name: "sequence", contents: "- alpha\n- \"\"\n- gamma\n", expected: []string{"alpha", "gamma"}},
		{name: "empty", contents: "", expected: nil},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fileSystem := afero.NewMemMapFs()
			require.NoError(testInstance, afero.WriteFile(fileSystem, "/projects.yaml", []byte(testCase.contents), 0o644))

			projects, loadError := sweep.LoadProjectsFile(fileSystem, "/projects.yaml")
			require.NoError(testInstance, loadError)
			require.Equal(testInstance, testCase.expected, projects)
		})
	}
}

func TestLoadProjectsFileErrors(testInstance *testing.T) {
	fileSystem := afero.NewMemMapFs()
	require.NoError(testInstance, afero.WriteFile(fileSystem, "/broken.yaml", []byte("projects: [alpha"), 0o644))

	_, missingError := sweep.LoadProjectsFile(fileSystem, "/absent.yaml")
	require.Error(testInstance, missingError)

	_, parseError := sweep.LoadProjectsFile(fileSystem, "/broken.yaml")
	require.Error(testInstance, parseError)
}
