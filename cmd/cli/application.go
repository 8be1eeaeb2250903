package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/projectdesk/internal/classifier"
	"github.com/temirov/projectdesk/internal/dashboard"
	"github.com/temirov/projectdesk/internal/dependencies"
	"github.com/temirov/projectdesk/internal/editor"
	"github.com/temirov/projectdesk/internal/execshell"
	"github.com/temirov/projectdesk/internal/largefiles"
	"github.com/temirov/projectdesk/internal/protocol"
	"github.com/temirov/projectdesk/internal/reconcile"
	"github.com/temirov/projectdesk/internal/sweep"
	"github.com/temirov/projectdesk/internal/ui"
	"github.com/temirov/projectdesk/internal/utils"
	pathutils "github.com/temirov/projectdesk/internal/utils/path"
	"github.com/temirov/projectdesk/internal/workspace"
)

const (
	applicationNameConstant                 = "projectdesk"
	applicationShortDescriptionConstant     = "Browse a workspace of projects and keep them in sync with GitHub"
	applicationLongDescriptionConstant      = "projectdesk classifies the projects in a workspace directory, publishes them to GitHub, sweeps pending changes and serves a local dashboard."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	workspaceRootFlagNameConstant           = "root"
	workspaceRootFlagUsageConstant          = "Override the configured workspace root."
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	workspaceConfigurationKeyConstant       = "workspace"
	executionCommandTimeoutConfigKey        = "execution.command_timeout"
	gitHubHostConfigKeyConstant             = "github.host"
	publishConfigurationKeyConstant         = "publish"
	sweepConfigurationKeyConstant           = "sweep"
	classifierConfigurationKeyConstant      = "classifier"
	largeFilesConfigurationKeyConstant      = "large_files"
	editorConfigurationKeyConstant          = "editor"
	dashboardConfigurationKeyConstant       = "dashboard"
	defaultCommandTimeoutConstant           = 2 * time.Minute
	defaultGitHubHostConstant               = "github.com"
	environmentPrefixConstant               = "PROJECTDESK"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationWorkspaceFieldConstant     = "workspace_root"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	unknownSubcommandMessageConstant        = "unknown subcommand"
	unknownSubcommandErrorTemplateConstant  = "unknown command %q for %q"
	logFieldArgumentsConstant               = "arguments"
	loggerNotInitializedMessageConstant     = "logger not initialized"
	defaultConfigurationSearchPathConstant  = "."
)

// ApplicationConfiguration mirrors default_config.yaml section by section.
type ApplicationConfiguration struct {
	Common     ApplicationCommonConfiguration    `mapstructure:"common"`
	Workspace  workspace.Configuration           `mapstructure:"workspace"`
	Execution  ApplicationExecutionConfiguration `mapstructure:"execution"`
	GitHub     ApplicationGitHubConfiguration    `mapstructure:"github"`
	Publish    reconcile.Configuration           `mapstructure:"publish"`
	Sweep      sweep.Configuration               `mapstructure:"sweep"`
	Classifier classifier.Configuration          `mapstructure:"classifier"`
	LargeFiles largefiles.Configuration          `mapstructure:"large_files"`
	Editor     editor.Configuration              `mapstructure:"editor"`
	Dashboard  dashboard.Configuration           `mapstructure:"dashboard"`
}

// ApplicationCommonConfiguration holds the logging settings.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationExecutionConfiguration bounds every external git and gh invocation.
type ApplicationExecutionConfiguration struct {
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
}

// ApplicationGitHubConfiguration names the host whose remotes are treated as GitHub.
type ApplicationGitHubConfiguration struct {
	Host string `mapstructure:"host"`
}

// Application is the projectdesk root command together with its configuration and loggers.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	homeExpander          *pathutils.HomeExpander
	fileSystem            afero.Fs
	logger                *zap.Logger
	consoleLogger         *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	workspaceRootOverride string
}

// ApplicationOption customizes an Application before its commands are registered.
type ApplicationOption func(*Application)

// WithFileSystem backs configuration loading and every command with fileSystem.
func WithFileSystem(fileSystem afero.Fs) ApplicationOption {
	return func(application *Application) {
		application.fileSystem = fileSystem
		application.configurationLoader.SetFileSystem(fileSystem)
	}
}

// WithHomeDirectory fixes the directory "~" expands to in workspace paths.
func WithHomeDirectory(homeDirectory string) ApplicationOption {
	return func(application *Application) {
		application.homeExpander = pathutils.NewHomeExpanderWithProvider(func() (string, error) {
			return homeDirectory, nil
		})
	}
}

// NewApplication registers every projectdesk subcommand on a new root command.
func NewApplication(options ...ApplicationOption) *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration(), configurationTypeConstant)

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		homeExpander:        pathutils.NewHomeExpander(),
		logger:              zap.NewNop(),
		consoleLogger:       zap.NewNop(),
	}
	for _, option := range options {
		option(application)
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.workspaceRootOverride, workspaceRootFlagNameConstant, "", workspaceRootFlagUsageConstant)

	application.rootCommand = cobraCommand
	application.registerCommands()

	return application
}

type commandBuilder interface {
	Build() (*cobra.Command, error)
}

func (application *Application) registerCommands() {
	builders := []commandBuilder{
		&classifier.CommandBuilder{
			RuntimeProvider:       application.runtime,
			ConfigurationProvider: func() classifier.Configuration { return application.configuration.Classifier },
			FileSystem:            application.fileSystem,
		},
		&reconcile.CommandBuilder{
			RuntimeProvider:       application.runtime,
			ConfigurationProvider: func() reconcile.Configuration { return application.configuration.Publish },
			FileSystem:            application.fileSystem,
		},
		&reconcile.InitCommandBuilder{
			RuntimeProvider:       application.runtime,
			ConfigurationProvider: func() reconcile.Configuration { return application.configuration.Publish },
			FileSystem:            application.fileSystem,
		},
		&sweep.CommandBuilder{
			RuntimeProvider:       application.runtime,
			ConfigurationProvider: func() sweep.Configuration { return application.configuration.Sweep },
			FileSystem:            application.fileSystem,
		},
		&protocol.CommandBuilder{
			RuntimeProvider: application.runtime,
			FileSystem:      application.fileSystem,
		},
		&largefiles.CommandBuilder{
			RuntimeProvider:       application.runtime,
			ConfigurationProvider: func() largefiles.Configuration { return application.configuration.LargeFiles },
			FileSystem:            application.fileSystem,
		},
		&dashboard.CommandBuilder{
			RuntimeProvider:                 application.runtime,
			ConfigurationProvider:           func() dashboard.Configuration { return application.configuration.Dashboard },
			ClassifierConfigurationProvider: func() classifier.Configuration { return application.configuration.Classifier },
			ReconcileConfigurationProvider:  func() reconcile.Configuration { return application.configuration.Publish },
			SweepConfigurationProvider:      func() sweep.Configuration { return application.configuration.Sweep },
			EditorConfigurationProvider:     func() editor.Configuration { return application.configuration.Editor },
			FileSystem:                      application.fileSystem,
		},
	}

	for _, builder := range builders {
		command, buildError := builder.Build()
		if buildError == nil {
			application.rootCommand.AddCommand(command)
		}
	}
}

// runtime exposes the loaded configuration to command builders. It is evaluated when a
// command runs, after PersistentPreRunE populated the configuration and loggers.
func (application *Application) runtime() dependencies.Runtime {
	var commandEvents execshell.CommandEventObserver
	if application.humanReadableLoggingEnabled() {
		commandEvents = ui.NewConsoleCommandEventLogger(application.consoleLogger)
	}
	return dependencies.Runtime{
		Logger:         application.logger,
		CommandEvents:  commandEvents,
		CommandTimeout: application.configuration.Execution.CommandTimeout,
		Workspace:      application.configuration.Workspace,
		GitHubHost:     application.configuration.GitHub.Host,
	}
}

// Execute runs the root command and flushes both loggers afterwards.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy until
// it finishes or the process receives an interrupt.
func Execute() error {
	signalContext, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := NewApplication()
	application.rootCommand.SetContext(signalContext)
	return application.Execute()
}

// defaultConfigurationValues collects the defaults of every configuration section.
func defaultConfigurationValues() map[string]any {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:  string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant: string(utils.LogFormatStructured),
		executionCommandTimeoutConfigKey: defaultCommandTimeoutConstant.String(),
		gitHubHostConfigKeyConstant:      defaultGitHubHostConstant,
	}
	sections := []map[string]any{
		workspace.DefaultConfigurationValues(workspaceConfigurationKeyConstant),
		reconcile.DefaultConfigurationValues(publishConfigurationKeyConstant),
		sweep.DefaultConfigurationValues(sweepConfigurationKeyConstant),
		classifier.DefaultConfigurationValues(classifierConfigurationKeyConstant),
		largefiles.DefaultConfigurationValues(largeFilesConfigurationKeyConstant),
		editor.DefaultConfigurationValues(editorConfigurationKeyConstant),
		dashboard.DefaultConfigurationValues(dashboardConfigurationKeyConstant),
	}
	for _, section := range sections {
		for configurationKey, configurationValue := range section {
			defaultValues[configurationKey] = configurationValue
		}
	}
	return defaultValues
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultConfigurationValues(), &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	if application.persistentFlagChanged(command, workspaceRootFlagNameConstant) {
		application.configuration.Workspace.Root = application.workspaceRootOverride
	}
	application.configuration.Workspace = application.configuration.Workspace.Resolve(application.homeExpander)

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = loggerOutputs.DiagnosticLogger
	application.consoleLogger = loggerOutputs.ConsoleLogger

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(configurationWorkspaceFieldConstant, application.configuration.Workspace.Root),
	)

	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

// runRootCommand prints help; a bare positional argument is a mistyped subcommand.
func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}
	if len(arguments) > 0 {
		application.logger.Debug(unknownSubcommandMessageConstant, zap.Strings(logFieldArgumentsConstant, arguments))
		return fmt.Errorf(unknownSubcommandErrorTemplateConstant, arguments[0], command.CommandPath())
	}
	return command.Help()
}

func (application *Application) flushLogger() error {
	for _, logger := range []*zap.Logger{application.logger, application.consoleLogger} {
		if syncError := syncLoggerInstance(logger); syncError != nil {
			return syncError
		}
	}
	return nil
}

func syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
