package dashboard

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/temirov/projectdesk/internal/classifier"
	"github.com/temirov/projectdesk/internal/dependencies"
	"github.com/temirov/projectdesk/internal/editor"
	"github.com/temirov/projectdesk/internal/reconcile"
	"github.com/temirov/projectdesk/internal/shared"
	"github.com/temirov/projectdesk/internal/sweep"
)

const (
	commandUseConstant              = "serve"
	commandShortDescriptionConstant = "Serve the project dashboard"
	commandLongDescriptionConstant  = "serve starts the local dashboard that lists workspace projects and exposes annotation, publish, init, editor, file browsing and sweep endpoints."
	listenAddressFlagNameConstant   = "listen-address"
	listenAddressFlagUsageConstant  = "Address the dashboard listens on"
	executorCreationErrorTemplate   = "unable to construct command executor: %w"
	repositoryManagerErrorTemplate  = "unable to construct repository manager: %w"
	gitHubClientErrorTemplate       = "unable to construct GitHub client: %w"
	workspaceErrorTemplate          = "unable to open workspace: %w"
	annotationStoreErrorTemplate    = "unable to open annotation store: %w"
	collaboratorErrorTemplate       = "unable to construct %s: %w"
	classifierComponentName         = "classifier"
	reconcilerComponentName         = "reconciler"
	sweeperComponentName            = "sweeper"
	editorComponentName             = "editor opener"
)

// CommandBuilder assembles the serve command.
type CommandBuilder struct {
	RuntimeProvider                 dependencies.RuntimeProvider
	ConfigurationProvider           func() Configuration
	ClassifierConfigurationProvider func() classifier.Configuration
	ReconcileConfigurationProvider  func() reconcile.Configuration
	SweepConfigurationProvider      func() sweep.Configuration
	EditorConfigurationProvider     func() editor.Configuration
	FileSystem                      afero.Fs
	GitExecutor                     shared.GitExecutor
	CommandExecutor                 shared.CommandExecutor
}

// Build constructs the serve command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.run,
	}
	command.Flags().String(listenAddressFlagNameConstant, "", listenAddressFlagUsageConstant)
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, _ []string) error {
	runtime := dependencies.ResolveRuntime(builder.RuntimeProvider)
	fileSystem := dependencies.ResolveFileSystem(builder.FileSystem)

	configuration := DefaultConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	if command.Flags().Changed(listenAddressFlagNameConstant) {
		listenAddress, flagError := command.Flags().GetString(listenAddressFlagNameConstant)
		if flagError != nil {
			return flagError
		}
		configuration.ListenAddress = strings.TrimSpace(listenAddress)
	}

	serverDependencies, dependencyError := builder.resolveDependencies(fileSystem, runtime)
	if dependencyError != nil {
		return dependencyError
	}
	server, serverError := NewServer(serverDependencies, configuration)
	if serverError != nil {
		return serverError
	}
	return server.ListenAndServe(command.Context())
}

// resolveDependencies builds every collaborator over one executor and one path locker so
// that dashboard operations on the same project never overlap.
func (builder *CommandBuilder) resolveDependencies(fileSystem afero.Fs, runtime dependencies.Runtime) (Dependencies, error) {
	catalog, workspaceError := dependencies.ResolveWorkspace(fileSystem, runtime)
	if workspaceError != nil {
		return Dependencies{}, fmt.Errorf(workspaceErrorTemplate, workspaceError)
	}
	store, storeError := dependencies.ResolveAnnotationStore(fileSystem, runtime)
	if storeError != nil {
		return Dependencies{}, fmt.Errorf(annotationStoreErrorTemplate, storeError)
	}

	gitExecutor, gitExecutorError := dependencies.ResolveGitExecutor(builder.GitExecutor, runtime)
	if gitExecutorError != nil {
		return Dependencies{}, fmt.Errorf(executorCreationErrorTemplate, gitExecutorError)
	}
	commandExecutor, commandExecutorError := dependencies.ResolveCommandExecutor(builder.CommandExecutor, runtime)
	if commandExecutorError != nil {
		return Dependencies{}, fmt.Errorf(executorCreationErrorTemplate, commandExecutorError)
	}
	gitManager, managerError := dependencies.ResolveGitRepositoryManager(gitExecutor)
	if managerError != nil {
		return Dependencies{}, fmt.Errorf(repositoryManagerErrorTemplate, managerError)
	}
	gitHubClient, clientError := dependencies.ResolveGitHubClient(gitExecutor)
	if clientError != nil {
		return Dependencies{}, fmt.Errorf(gitHubClientErrorTemplate, clientError)
	}
	pathLocker := shared.NewPathLocker()

	classifierConfiguration := classifier.DefaultConfiguration()
	if builder.ClassifierConfigurationProvider != nil {
		classifierConfiguration = builder.ClassifierConfigurationProvider()
	}
	if len(strings.TrimSpace(classifierConfiguration.GitHubHost)) == 0 {
		classifierConfiguration.GitHubHost = runtime.GitHubHost
	}
	projectClassifier, classifierError := classifier.NewClassifier(classifier.Dependencies{
		FileSystem:         fileSystem,
		RemoteReader:       gitManager,
		VisibilityResolver: gitHubClient,
		Logger:             runtime.Logger,
	}, classifierConfiguration)
	if classifierError != nil {
		return Dependencies{}, fmt.Errorf(collaboratorErrorTemplate, classifierComponentName, classifierError)
	}

	reconcileConfiguration := reconcile.DefaultConfiguration()
	if builder.ReconcileConfigurationProvider != nil {
		reconcileConfiguration = builder.ReconcileConfigurationProvider()
	}
	if len(strings.TrimSpace(reconcileConfiguration.GitHubHost)) == 0 {
		reconcileConfiguration.GitHubHost = runtime.GitHubHost
	}
	reconciler, reconcilerError := reconcile.NewReconciler(reconcile.Dependencies{
		FileSystem:   fileSystem,
		GitManager:   gitManager,
		GitHubClient: gitHubClient,
		PathLocker:   pathLocker,
		Logger:       runtime.Logger,
	}, reconcileConfiguration)
	if reconcilerError != nil {
		return Dependencies{}, fmt.Errorf(collaboratorErrorTemplate, reconcilerComponentName, reconcilerError)
	}

	sweepConfiguration := sweep.DefaultConfiguration()
	if builder.SweepConfigurationProvider != nil {
		sweepConfiguration = builder.SweepConfigurationProvider()
	}
	sweeper, sweeperError := sweep.NewSweeper(sweep.Dependencies{
		FileSystem: fileSystem,
		GitManager: gitManager,
		PathLocker: pathLocker,
		Logger:     runtime.Logger,
	}, sweepConfiguration)
	if sweeperError != nil {
		return Dependencies{}, fmt.Errorf(collaboratorErrorTemplate, sweeperComponentName, sweeperError)
	}

	editorConfiguration := editor.DefaultConfiguration()
	if builder.EditorConfigurationProvider != nil {
		editorConfiguration = builder.EditorConfigurationProvider()
	}
	opener, openerError := editor.NewOpener(commandExecutor, editorConfiguration, runtime.Logger)
	if openerError != nil {
		return Dependencies{}, fmt.Errorf(collaboratorErrorTemplate, editorComponentName, openerError)
	}

	return Dependencies{
		Catalog:     catalog,
		Annotations: store,
		Classifier:  projectClassifier,
		Reconciler:  reconciler,
		Sweeper:     sweeper,
		Editor:      opener,
		FileSystem:  fileSystem,
		Logger:      runtime.Logger,
	}, nil
}
