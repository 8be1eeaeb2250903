package protocol

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/temirov/projectdesk/internal/dependencies"
	"github.com/temirov/projectdesk/internal/shared"
	"github.com/temirov/projectdesk/internal/ui"
	"github.com/temirov/projectdesk/internal/utils/flags"
)

const (
	commandUseConstant              = "convert-ssh [project...]"
	commandShortDescriptionConstant = "Rewrite HTTPS origin remotes to SSH"
	commandLongDescriptionConstant  = "convert-ssh switches the origin remote of each project from the HTTPS form to the SSH form. Without project arguments every workspace project is converted."
	dryRunFlagNameConstant          = "dry-run"
	dryRunFlagUsageConstant         = "Report planned conversions without changing remotes"
	summaryTitleConstant            = "convert-ssh"
	remoteChangeTemplate            = "%s -> %s"
	projectSelectionErrorTemplate   = "select projects: %w"
	executorCreationErrorTemplate   = "unable to construct command executor: %w"
	repositoryManagerErrorTemplate  = "unable to construct repository manager: %w"
	conversionErrorsTemplate        = "conversion failed for %d projects"
)

// CommandBuilder assembles the convert-ssh command.
type CommandBuilder struct {
	RuntimeProvider dependencies.RuntimeProvider
	FileSystem      afero.Fs
	GitExecutor     shared.GitExecutor
	GitManager      GitRepositoryManager
}

// Build constructs the convert-ssh command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          builder.run,
	}

	var dryRun bool
	flags.AddToggleFlag(command.Flags(), &dryRun, dryRunFlagNameConstant, false, dryRunFlagUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	runtime := dependencies.ResolveRuntime(builder.RuntimeProvider)
	fileSystem := dependencies.ResolveFileSystem(builder.FileSystem)

	dryRun, flagError := command.Flags().GetBool(dryRunFlagNameConstant)
	if flagError != nil {
		return flagError
	}

	workspace, workspaceError := dependencies.ResolveWorkspace(fileSystem, runtime)
	if workspaceError != nil {
		return fmt.Errorf(projectSelectionErrorTemplate, workspaceError)
	}
	projects, selectionError := workspace.ProjectsForReferences(arguments)
	if selectionError != nil {
		return fmt.Errorf(projectSelectionErrorTemplate, selectionError)
	}

	gitManager := builder.GitManager
	if gitManager == nil {
		executor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, runtime)
		if executorError != nil {
			return fmt.Errorf(executorCreationErrorTemplate, executorError)
		}
		manager, managerError := dependencies.ResolveGitRepositoryManager(executor)
		if managerError != nil {
			return fmt.Errorf(repositoryManagerErrorTemplate, managerError)
		}
		gitManager = manager
	}

	converter, converterError := NewConverter(Dependencies{FileSystem: fileSystem, GitManager: gitManager, Logger: runtime.Logger})
	if converterError != nil {
		return converterError
	}

	summary := converter.ConvertAll(command.Context(), projects, Options{DryRun: dryRun, GitHubHost: strings.TrimSpace(runtime.GitHubHost)})

	printer := ui.NewReportPrinter(command.OutOrStdout())
	for _, result := range summary.Results {
		printer.PrintStatusLine(result.Project.Name, string(result.Status), toneForStatus(result.Status), describeResult(result))
	}
	printer.PrintSummary(summaryTitleConstant, []ui.SummaryCount{
		{Label: string(StatusConverted), Count: summary.Converted, Tone: ui.ToneSuccess},
		{Label: string(StatusPlanned), Count: summary.Planned, Tone: ui.ToneWarning},
		{Label: string(StatusAlreadySSH), Count: summary.AlreadySSH, Tone: ui.ToneNeutral},
		{Label: string(StatusNoRemote), Count: summary.NoRemote, Tone: ui.ToneNeutral},
		{Label: string(StatusError), Count: summary.Errors, Tone: ui.ToneFailure},
	})

	if summary.Errors > 0 {
		return fmt.Errorf(conversionErrorsTemplate, summary.Errors)
	}
	return nil
}

func describeResult(result Result) string {
	switch result.Status {
	case StatusConverted, StatusPlanned:
		return fmt.Sprintf(remoteChangeTemplate, result.PreviousURL, result.RemoteURL)
	case StatusAlreadySSH:
		return result.RemoteURL
	default:
		return result.Message
	}
}

func toneForStatus(status Status) ui.Tone {
	switch status {
	case StatusConverted:
		return ui.ToneSuccess
	case StatusPlanned:
		return ui.ToneWarning
	case StatusError:
		return ui.ToneFailure
	default:
		return ui.ToneNeutral
	}
}
