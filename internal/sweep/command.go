package sweep

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/temirov/projectdesk/internal/dependencies"
	"github.com/temirov/projectdesk/internal/shared"
	"github.com/temirov/projectdesk/internal/ui"
)

const (
	commandUseConstant              = "sweep [project...]"
	commandShortDescriptionConstant = "Commit and push pending changes across projects"
	commandLongDescriptionConstant  = "sweep commits uncommitted changes and pushes every listed project to origin. Projects come from arguments, --projects-file, or sweep.projects; with none of them every workspace project is swept."
	projectsFileFlagNameConstant    = "projects-file"
	projectsFileFlagUsageConstant   = "YAML file listing project names or paths"
	commitMessageFlagNameConstant   = "commit-message"
	commitMessageFlagUsageConstant  = "Commit message for pending changes"
	parallelismFlagNameConstant     = "parallelism"
	parallelismFlagUsageConstant    = "Number of projects swept concurrently"
	summaryTitleConstant            = "sweep"
	summaryPushedLabelConstant      = "pushed"
	summaryUpToDateLabelConstant    = "up-to-date"
	summaryFailedLabelConstant      = "failed"
	summaryErrorsLabelConstant      = "errors"
	projectSelectionErrorTemplate   = "select projects: %w"
	executorCreationErrorTemplate   = "unable to construct command executor: %w"
	repositoryManagerErrorTemplate  = "unable to construct repository manager: %w"
	sweepIncompleteErrorTemplate    = "sweep finished with %d failed and %d errored projects"
)

// CommandBuilder assembles the sweep command.
type CommandBuilder struct {
	RuntimeProvider       dependencies.RuntimeProvider
	ConfigurationProvider func() Configuration
	FileSystem            afero.Fs
	GitExecutor           shared.GitExecutor
	GitManager            GitRepositoryManager
	PathLocker            *shared.PathLocker
}

// Build constructs the sweep command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          builder.run,
	}

	defaults := DefaultConfiguration()
	command.Flags().String(projectsFileFlagNameConstant, "", projectsFileFlagUsageConstant)
	command.Flags().String(commitMessageFlagNameConstant, defaults.CommitMessage, commitMessageFlagUsageConstant)
	command.Flags().Int(parallelismFlagNameConstant, defaults.Parallelism, parallelismFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	runtime := dependencies.ResolveRuntime(builder.RuntimeProvider)
	fileSystem := dependencies.ResolveFileSystem(builder.FileSystem)
	configuration, configurationError := builder.resolveConfiguration(command)
	if configurationError != nil {
		return configurationError
	}

	references, referencesError := builder.resolveReferences(command, fileSystem, arguments, configuration)
	if referencesError != nil {
		return referencesError
	}
	workspace, workspaceError := dependencies.ResolveWorkspace(fileSystem, runtime)
	if workspaceError != nil {
		return fmt.Errorf(projectSelectionErrorTemplate, workspaceError)
	}
	projects, selectionError := workspace.ProjectsForReferences(references)
	if selectionError != nil {
		return fmt.Errorf(projectSelectionErrorTemplate, selectionError)
	}

	gitManager, managerError := builder.resolveGitManager(runtime)
	if managerError != nil {
		return managerError
	}

	sweeper, sweeperError := NewSweeper(Dependencies{
		FileSystem: fileSystem,
		GitManager: gitManager,
		PathLocker: builder.PathLocker,
		Logger:     runtime.Logger,
	}, configuration)
	if sweeperError != nil {
		return sweeperError
	}

	summary := sweeper.Sweep(command.Context(), projects)
	printSummary(ui.NewReportPrinter(command.OutOrStdout()), summary)

	if summary.Failed+summary.Errors > 0 {
		return fmt.Errorf(sweepIncompleteErrorTemplate, summary.Failed, summary.Errors)
	}
	return nil
}

func (builder *CommandBuilder) resolveConfiguration(command *cobra.Command) (Configuration, error) {
	configuration := DefaultConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}

	flagSet := command.Flags()
	if flagSet.Changed(commitMessageFlagNameConstant) {
		commitMessage, flagError := flagSet.GetString(commitMessageFlagNameConstant)
		if flagError != nil {
			return Configuration{}, flagError
		}
		configuration.CommitMessage = commitMessage
	}
	if flagSet.Changed(parallelismFlagNameConstant) {
		parallelism, flagError := flagSet.GetInt(parallelismFlagNameConstant)
		if flagError != nil {
			return Configuration{}, flagError
		}
		configuration.Parallelism = parallelism
	}
	return configuration.sanitize(), nil
}

// resolveReferences prefers arguments and the projects file, falling back to sweep.projects.
func (builder *CommandBuilder) resolveReferences(command *cobra.Command, fileSystem afero.Fs, arguments []string, configuration Configuration) ([]string, error) {
	references := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		if trimmed := strings.TrimSpace(argument); len(trimmed) > 0 {
			references = append(references, trimmed)
		}
	}

	projectsFile, flagError := command.Flags().GetString(projectsFileFlagNameConstant)
	if flagError != nil {
		return nil, flagError
	}
	if trimmedPath := strings.TrimSpace(projectsFile); len(trimmedPath) > 0 {
		fileReferences, loadError := LoadProjectsFile(fileSystem, trimmedPath)
		if loadError != nil {
			return nil, loadError
		}
		references = append(references, fileReferences...)
	}

	if len(references) == 0 {
		references = append(references, configuration.Projects...)
	}
	return references, nil
}

func (builder *CommandBuilder) resolveGitManager(runtime dependencies.Runtime) (GitRepositoryManager, error) {
	if builder.GitManager != nil {
		return builder.GitManager, nil
	}
	executor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, runtime)
	if executorError != nil {
		return nil, fmt.Errorf(executorCreationErrorTemplate, executorError)
	}
	manager, managerError := dependencies.ResolveGitRepositoryManager(executor)
	if managerError != nil {
		return nil, fmt.Errorf(repositoryManagerErrorTemplate, managerError)
	}
	return manager, nil
}

func printSummary(printer *ui.ReportPrinter, summary Summary) {
	for _, result := range summary.Results {
		printer.PrintStatusLine(result.Project.Name, string(result.Status), toneForStatus(result.Status), result.Message)
	}
	printer.PrintSummary(summaryTitleConstant, []ui.SummaryCount{
		{Label: summaryPushedLabelConstant, Count: summary.Pushed, Tone: ui.ToneSuccess},
		{Label: summaryUpToDateLabelConstant, Count: summary.UpToDate, Tone: ui.ToneNeutral},
		{Label: summaryFailedLabelConstant, Count: summary.Failed, Tone: ui.ToneWarning},
		{Label: summaryErrorsLabelConstant, Count: summary.Errors, Tone: ui.ToneFailure},
	})
}

func toneForStatus(status Status) ui.Tone {
	switch status {
	case StatusPushed:
		return ui.ToneSuccess
	case StatusFailed:
		return ui.ToneWarning
	case StatusError:
		return ui.ToneFailure
	default:
		return ui.ToneNeutral
	}
}
