package largefiles

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/projectdesk/internal/dependencies"
	"github.com/temirov/projectdesk/internal/shared"
	"github.com/temirov/projectdesk/internal/ui"
)

const (
	commandUseConstant              = "large-files [project...]"
	commandShortDescriptionConstant = "List tracked files above a size limit"
	commandLongDescriptionConstant  = "large-files reports git-tracked files larger than large_files.limit_mb in each project, biggest first. Without project arguments every workspace project with a git repository is scanned."
	limitFlagNameConstant           = "limit-mb"
	limitFlagUsageConstant          = "Size limit in megabytes"
	projectHeaderConstant           = "PROJECT"
	fileHeaderConstant              = "FILE"
	sizeHeaderConstant              = "SIZE"
	scanFailedStatusConstant        = "error"
	nonGitProjectSkippedLogMessage  = "skipping project without git repository"
	logFieldProjectConstant         = "project"
	projectSelectionErrorTemplate   = "select projects: %w"
	executorCreationErrorTemplate   = "unable to construct command executor: %w"
	repositoryManagerErrorTemplate  = "unable to construct repository manager: %w"
	scanFailuresTemplate            = "large file scan failed for %d projects"
)

// CommandBuilder assembles the large-files command.
type CommandBuilder struct {
	RuntimeProvider       dependencies.RuntimeProvider
	ConfigurationProvider func() Configuration
	FileSystem            afero.Fs
	GitExecutor           shared.GitExecutor
	GitManager            GitRepositoryManager
}

// Build constructs the large-files command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          builder.run,
	}
	command.Flags().Int(limitFlagNameConstant, DefaultConfiguration().LimitMegabytes, limitFlagUsageConstant)
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	runtime := dependencies.ResolveRuntime(builder.RuntimeProvider)
	fileSystem := dependencies.ResolveFileSystem(builder.FileSystem)

	configuration := DefaultConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	if command.Flags().Changed(limitFlagNameConstant) {
		limit, flagError := command.Flags().GetInt(limitFlagNameConstant)
		if flagError != nil {
			return flagError
		}
		configuration.LimitMegabytes = limit
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

	scanner, scannerError := NewScanner(fileSystem, gitManager, runtime.Logger)
	if scannerError != nil {
		return scannerError
	}

	printer := ui.NewReportPrinter(command.OutOrStdout())
	rows := [][]string{}
	failures := 0
	scanningWorkspace := len(arguments) == 0
	for _, project := range projects {
		if scanningWorkspace && !hasGitDirectory(fileSystem, project) {
			runtime.Logger.Debug(nonGitProjectSkippedLogMessage, zap.String(logFieldProjectConstant, project.Name))
			continue
		}
		report, scanError := scanner.Scan(command.Context(), project, configuration.LimitBytes())
		if scanError != nil {
			failures++
			printer.PrintStatusLine(project.Name, scanFailedStatusConstant, ui.ToneFailure, scanError.Error())
			continue
		}
		for _, file := range report.Files {
			rows = append(rows, []string{project.Name, file.Path, file.HumanSize()})
		}
	}
	printer.PrintTable([]string{projectHeaderConstant, fileHeaderConstant, sizeHeaderConstant}, rows)

	if failures > 0 {
		return fmt.Errorf(scanFailuresTemplate, failures)
	}
	return nil
}

func hasGitDirectory(fileSystem afero.Fs, project shared.Project) bool {
	exists, _ := afero.DirExists(fileSystem, filepath.Join(project.Path, shared.GitDirectoryNameConstant))
	return exists
}
