package reconcile

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/projectdesk/internal/dependencies"
	"github.com/temirov/projectdesk/internal/githubcli"
	"github.com/temirov/projectdesk/internal/shared"
	"github.com/temirov/projectdesk/internal/ui"
	"github.com/temirov/projectdesk/internal/utils/flags"
)

const (
	publishCommandUseConstant      = "publish <project> [project...]"
	publishCommandShortConstant    = "Create or link the GitHub repository for projects and push them"
	publishCommandLongConstant     = "publish initializes git when needed, creates the GitHub repository or links an existing one, and pushes the current branch. Projects are workspace names or paths."
	initCommandUseConstant         = "init <project>"
	initCommandShortConstant       = "Initialize a git repository in a project"
	privateFlagNameConstant        = "private"
	privateFlagUsageConstant       = "Create private repositories"
	initializedMessageTemplate     = "initialized git repository in %s"
	initializedStatusConstant      = "initialized"
	markPublishedFailedLogMessage  = "unable to record github_created annotation"
	logFieldProjectConstant        = "project"
	projectSelectionErrorTemplate  = "select projects: %w"
	executorCreationErrorTemplate  = "unable to construct command executor: %w"
	repositoryManagerErrorTemplate = "unable to construct repository manager: %w"
	gitHubClientErrorTemplate      = "unable to construct GitHub client: %w"
	annotationStoreErrorTemplate   = "unable to open annotation store: %w"
	publishIncompleteErrorTemplate = "publish failed for %d of %d projects"
)

// CommandBuilder assembles the publish command.
type CommandBuilder struct {
	RuntimeProvider       dependencies.RuntimeProvider
	ConfigurationProvider func() Configuration
	FileSystem            afero.Fs
	GitExecutor           shared.GitExecutor
	GitManager            GitRepositoryManager
	GitHubClient          GitHubClient
	PathLocker            *shared.PathLocker
}

// Build constructs the publish command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           publishCommandUseConstant,
		Short:         publishCommandShortConstant,
		Long:          publishCommandLongConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.MinimumNArgs(1),
		RunE:          builder.run,
	}

	var private bool
	flags.AddToggleFlag(command.Flags(), &private, privateFlagNameConstant, DefaultConfiguration().Private, privateFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	runtime := dependencies.ResolveRuntime(builder.RuntimeProvider)
	fileSystem := dependencies.ResolveFileSystem(builder.FileSystem)

	visibility := githubcli.RepositoryVisibility("")
	if command.Flags().Changed(privateFlagNameConstant) {
		private, flagError := command.Flags().GetBool(privateFlagNameConstant)
		if flagError != nil {
			return flagError
		}
		visibility = githubcli.VisibilityFromPrivateFlag(private)
	}

	projects, selectionError := selectProjects(fileSystem, runtime, arguments)
	if selectionError != nil {
		return selectionError
	}
	store, storeError := dependencies.ResolveAnnotationStore(fileSystem, runtime)
	if storeError != nil {
		return fmt.Errorf(annotationStoreErrorTemplate, storeError)
	}
	reconciler, reconcilerError := builder.resolveReconciler(fileSystem, runtime)
	if reconcilerError != nil {
		return reconcilerError
	}

	printer := ui.NewReportPrinter(command.OutOrStdout())
	failures := 0
	for _, project := range projects {
		outcome := reconciler.Reconcile(command.Context(), Request{
			ProjectPath:    project.Path,
			RepositoryName: project.Name,
			Visibility:     visibility,
		})
		if outcome.Published() {
			if markError := store.MarkGitHubCreated(project.Name); markError != nil {
				runtime.Logger.Warn(markPublishedFailedLogMessage,
					zap.String(logFieldProjectConstant, project.Name),
					zap.Error(markError))
			}
		}
		if !outcome.Succeeded() {
			failures++
		}
		printer.PrintStatusLine(project.Name, string(outcome.Status), toneForOutcome(outcome), outcome.Message)
	}

	if failures > 0 {
		return fmt.Errorf(publishIncompleteErrorTemplate, failures, len(projects))
	}
	return nil
}

func (builder *CommandBuilder) resolveReconciler(fileSystem afero.Fs, runtime dependencies.Runtime) (*Reconciler, error) {
	return newReconcilerFromRuntime(reconcilerSources{
		configurationProvider: builder.ConfigurationProvider,
		gitExecutor:           builder.GitExecutor,
		gitManager:            builder.GitManager,
		gitHubClient:          builder.GitHubClient,
		pathLocker:            builder.PathLocker,
	}, fileSystem, runtime)
}

// InitCommandBuilder assembles the init command.
type InitCommandBuilder struct {
	RuntimeProvider       dependencies.RuntimeProvider
	ConfigurationProvider func() Configuration
	FileSystem            afero.Fs
	GitExecutor           shared.GitExecutor
	GitManager            GitRepositoryManager
	PathLocker            *shared.PathLocker
}

// Build constructs the init command.
func (builder *InitCommandBuilder) Build() (*cobra.Command, error) {
	return &cobra.Command{
		Use:           initCommandUseConstant,
		Short:         initCommandShortConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ExactArgs(1),
		RunE:          builder.run,
	}, nil
}

func (builder *InitCommandBuilder) run(command *cobra.Command, arguments []string) error {
	runtime := dependencies.ResolveRuntime(builder.RuntimeProvider)
	fileSystem := dependencies.ResolveFileSystem(builder.FileSystem)

	projects, selectionError := selectProjects(fileSystem, runtime, arguments)
	if selectionError != nil {
		return selectionError
	}
	reconciler, reconcilerError := newReconcilerFromRuntime(reconcilerSources{
		configurationProvider: builder.ConfigurationProvider,
		gitExecutor:           builder.GitExecutor,
		gitManager:            builder.GitManager,
		pathLocker:            builder.PathLocker,
	}, fileSystem, runtime)
	if reconcilerError != nil {
		return reconcilerError
	}

	project := projects[0]
	if initError := reconciler.InitializeRepository(command.Context(), project.Path); initError != nil {
		return initError
	}
	ui.NewReportPrinter(command.OutOrStdout()).PrintStatusLine(project.Name, initializedStatusConstant, ui.ToneSuccess, fmt.Sprintf(initializedMessageTemplate, project.Path))
	return nil
}

type reconcilerSources struct {
	configurationProvider func() Configuration
	gitExecutor           shared.GitExecutor
	gitManager            GitRepositoryManager
	gitHubClient          GitHubClient
	pathLocker            *shared.PathLocker
}

func newReconcilerFromRuntime(sources reconcilerSources, fileSystem afero.Fs, runtime dependencies.Runtime) (*Reconciler, error) {
	configuration := DefaultConfiguration()
	if sources.configurationProvider != nil {
		configuration = sources.configurationProvider()
	}
	if len(strings.TrimSpace(configuration.GitHubHost)) == 0 {
		configuration.GitHubHost = runtime.GitHubHost
	}

	gitManager := sources.gitManager
	gitHubClient := sources.gitHubClient
	if gitManager == nil || gitHubClient == nil {
		executor, executorError := dependencies.ResolveGitExecutor(sources.gitExecutor, runtime)
		if executorError != nil {
			return nil, fmt.Errorf(executorCreationErrorTemplate, executorError)
		}
		if gitManager == nil {
			manager, managerError := dependencies.ResolveGitRepositoryManager(executor)
			if managerError != nil {
				return nil, fmt.Errorf(repositoryManagerErrorTemplate, managerError)
			}
			gitManager = manager
		}
		if gitHubClient == nil {
			client, clientError := dependencies.ResolveGitHubClient(executor)
			if clientError != nil {
				return nil, fmt.Errorf(gitHubClientErrorTemplate, clientError)
			}
			gitHubClient = client
		}
	}

	return NewReconciler(Dependencies{
		FileSystem:   fileSystem,
		GitManager:   gitManager,
		GitHubClient: gitHubClient,
		PathLocker:   sources.pathLocker,
		Logger:       runtime.Logger,
	}, configuration)
}

func selectProjects(fileSystem afero.Fs, runtime dependencies.Runtime, references []string) ([]shared.Project, error) {
	workspace, workspaceError := dependencies.ResolveWorkspace(fileSystem, runtime)
	if workspaceError != nil {
		return nil, fmt.Errorf(projectSelectionErrorTemplate, workspaceError)
	}
	projects, selectionError := workspace.ProjectsForReferences(references)
	if selectionError != nil {
		return nil, fmt.Errorf(projectSelectionErrorTemplate, selectionError)
	}
	return projects, nil
}

func toneForOutcome(outcome Outcome) ui.Tone {
	switch outcome.Status {
	case StatusCreated, StatusLinkedExisting, StatusPushed:
		return ui.ToneSuccess
	case StatusFailed:
		return ui.ToneFailure
	default:
		return ui.ToneNeutral
	}
}
