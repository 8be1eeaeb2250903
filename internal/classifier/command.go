package classifier

import (
	"encoding/json"
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
	commandUseConstant              = "list [project...]"
	commandShortDescriptionConstant = "Classify workspace projects"
	commandLongDescriptionConstant  = "list reports the project type, primary language, git state and remote visibility of each project. Without project arguments every workspace project is listed."
	formatFlagNameConstant          = "format"
	formatFlagDescriptionConstant   = "Output format."
	formatTableConstant             = "table"
	formatJSONConstant              = "json"
	yesLabelConstant                = "yes"
	noLabelConstant                 = "no"
	jsonIndentConstant              = "  "
	unsupportedFormatTemplate       = "unsupported format %q"
	projectSelectionErrorTemplate   = "select projects: %w"
	executorCreationErrorTemplate   = "unable to construct command executor: %w"
	repositoryManagerErrorTemplate  = "unable to construct repository manager: %w"
	gitHubClientErrorTemplate       = "unable to construct GitHub client: %w"
)

var tableHeaders = []string{"NAME", "TYPE", "LANGUAGE", "GIT", "VISIBILITY", "README", "MODIFIED"}

// CommandBuilder assembles the list command.
type CommandBuilder struct {
	RuntimeProvider       dependencies.RuntimeProvider
	ConfigurationProvider func() Configuration
	FileSystem            afero.Fs
	GitExecutor           shared.GitExecutor
	RemoteReader          RemoteURLReader
	VisibilityResolver    VisibilityResolver
}

// Build constructs the list command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           commandUseConstant,
		Short:         commandShortDescriptionConstant,
		Long:          commandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE:          builder.run,
	}
	command.Flags().String(formatFlagNameConstant, formatTableConstant,
		flags.FormatChoiceUsage(formatTableConstant, []string{formatTableConstant, formatJSONConstant}, formatFlagDescriptionConstant))
	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	format, flagError := command.Flags().GetString(formatFlagNameConstant)
	if flagError != nil {
		return flagError
	}
	format = strings.ToLower(strings.TrimSpace(format))
	if format != formatTableConstant && format != formatJSONConstant {
		return fmt.Errorf(unsupportedFormatTemplate, format)
	}

	runtime := dependencies.ResolveRuntime(builder.RuntimeProvider)
	fileSystem := dependencies.ResolveFileSystem(builder.FileSystem)

	workspace, workspaceError := dependencies.ResolveWorkspace(fileSystem, runtime)
	if workspaceError != nil {
		return fmt.Errorf(projectSelectionErrorTemplate, workspaceError)
	}
	projects, selectionError := workspace.ProjectsForReferences(arguments)
	if selectionError != nil {
		return fmt.Errorf(projectSelectionErrorTemplate, selectionError)
	}

	classifier, classifierError := builder.resolveClassifier(fileSystem, runtime)
	if classifierError != nil {
		return classifierError
	}

	records := make([]ProjectRecord, 0, len(projects))
	for _, project := range projects {
		records = append(records, classifier.Classify(command.Context(), project.Path))
	}

	if format == formatJSONConstant {
		encoder := json.NewEncoder(command.OutOrStdout())
		encoder.SetIndent("", jsonIndentConstant)
		return encoder.Encode(records)
	}

	rows := make([][]string, 0, len(records))
	for _, record := range records {
		rows = append(rows, []string{
			record.Name,
			string(record.ProjectType),
			record.PrimaryLanguage,
			string(record.GitState),
			string(record.RemoteVisibility),
			yesNo(record.ReadmeExists),
			record.LastModified.Format("2006-01-02"),
		})
	}
	ui.NewReportPrinter(command.OutOrStdout()).PrintTable(tableHeaders, rows)
	return nil
}

func (builder *CommandBuilder) resolveClassifier(fileSystem afero.Fs, runtime dependencies.Runtime) (*Classifier, error) {
	configuration := DefaultConfiguration()
	if builder.ConfigurationProvider != nil {
		configuration = builder.ConfigurationProvider()
	}
	if len(strings.TrimSpace(configuration.GitHubHost)) == 0 {
		configuration.GitHubHost = runtime.GitHubHost
	}

	remoteReader := builder.RemoteReader
	visibilityResolver := builder.VisibilityResolver
	if remoteReader == nil || visibilityResolver == nil {
		executor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, runtime)
		if executorError != nil {
			return nil, fmt.Errorf(executorCreationErrorTemplate, executorError)
		}
		if remoteReader == nil {
			manager, managerError := dependencies.ResolveGitRepositoryManager(executor)
			if managerError != nil {
				return nil, fmt.Errorf(repositoryManagerErrorTemplate, managerError)
			}
			remoteReader = manager
		}
		if visibilityResolver == nil {
			client, clientError := dependencies.ResolveGitHubClient(executor)
			if clientError != nil {
				return nil, fmt.Errorf(gitHubClientErrorTemplate, clientError)
			}
			visibilityResolver = client
		}
	}

	return NewClassifier(Dependencies{
		FileSystem:         fileSystem,
		RemoteReader:       remoteReader,
		VisibilityResolver: visibilityResolver,
		Logger:             runtime.Logger,
	}, configuration)
}

func yesNo(value bool) string {
	if value {
		return yesLabelConstant
	}
	return noLabelConstant
}
