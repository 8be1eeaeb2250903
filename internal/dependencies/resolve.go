package dependencies

import (
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/temirov/projectdesk/internal/annotations"
	"github.com/temirov/projectdesk/internal/execshell"
	"github.com/temirov/projectdesk/internal/githubcli"
	"github.com/temirov/projectdesk/internal/gitrepo"
	"github.com/temirov/projectdesk/internal/shared"
	"github.com/temirov/projectdesk/internal/workspace"
)

// Runtime carries the application-wide settings every command resolves its collaborators from.
type Runtime struct {
	Logger         *zap.Logger
	CommandEvents  execshell.CommandEventObserver
	CommandTimeout time.Duration
	Workspace      workspace.Configuration
	GitHubHost     string
}

// RuntimeProvider returns the runtime of the running application.
type RuntimeProvider func() Runtime

// ResolveRuntime invokes provider when present and fills a no-op logger.
func ResolveRuntime(provider RuntimeProvider) Runtime {
	runtime := Runtime{}
	if provider != nil {
		runtime = provider()
	}
	if runtime.Logger == nil {
		runtime.Logger = zap.NewNop()
	}
	return runtime
}

// ResolveFileSystem returns the provided filesystem or an OS-backed default.
func ResolveFileSystem(existing afero.Fs) afero.Fs {
	if existing != nil {
		return existing
	}
	return afero.NewOsFs()
}

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default.
func ResolveGitExecutor(existing shared.GitExecutor, runtime Runtime) (shared.GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}
	return newShellExecutor(runtime)
}

// ResolveCommandExecutor returns the provided executor or constructs a shell-backed default.
func ResolveCommandExecutor(existing shared.CommandExecutor, runtime Runtime) (shared.CommandExecutor, error) {
	if existing != nil {
		return existing, nil
	}
	return newShellExecutor(runtime)
}

// ResolveGitRepositoryManager constructs a repository manager over the executor.
func ResolveGitRepositoryManager(executor shared.GitExecutor) (*gitrepo.RepositoryManager, error) {
	return gitrepo.NewRepositoryManager(executor)
}

// ResolveGitHubClient constructs a gh-backed client over the executor.
func ResolveGitHubClient(executor shared.GitExecutor) (*githubcli.Client, error) {
	return githubcli.NewClient(executor)
}

// ResolveWorkspace opens the configured workspace root.
func ResolveWorkspace(fileSystem afero.Fs, runtime Runtime) (*workspace.Workspace, error) {
	return workspace.NewWorkspace(ResolveFileSystem(fileSystem), runtime.Workspace.Root)
}

// ResolveAnnotationStore opens the configured annotations file.
func ResolveAnnotationStore(fileSystem afero.Fs, runtime Runtime) (*annotations.Store, error) {
	return annotations.NewStore(ResolveFileSystem(fileSystem), runtime.Workspace.AnnotationsFile)
}

func newShellExecutor(runtime Runtime) (*execshell.ShellExecutor, error) {
	options := []execshell.ShellExecutorOption{}
	if runtime.CommandTimeout > 0 {
		options = append(options, execshell.WithCommandTimeout(runtime.CommandTimeout))
	}
	if runtime.CommandEvents != nil {
		options = append(options, execshell.WithCommandEventObserver(runtime.CommandEvents))
	}
	logger := runtime.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), options...)
}
