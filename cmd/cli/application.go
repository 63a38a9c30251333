package cli

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/leakaudit/internal/audit"
	"github.com/temirov/leakaudit/internal/utils"
	"github.com/temirov/leakaudit/internal/utils/flags"
)

const (
	applicationNameConstant             = "leakaudit"
	applicationShortDescriptionConstant = "Forensic audit of git history for leaked secrets"
	applicationLongDescriptionConstant  = "leakaudit scans a repository's full history for named or valued secrets, reconstructs the exposure timeline, classifies severity, and prints an ordered remediation plan without ever modifying history."

	configFileFlagNameConstant   = "config"
	configFileFlagUsageConstant  = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant     = "log-level"
	logLevelFlagDescription      = "Override the configured log level."
	logFormatFlagNameConstant    = "log-format"
	logFormatFlagDescription     = "Override the configured log format."
	commonConfigurationKey       = "common"
	commonLogLevelConfigKey      = commonConfigurationKey + ".log_level"
	commonLogFormatConfigKey     = commonConfigurationKey + ".log_format"
	auditConfigurationKey        = "audit"
	environmentPrefixConstant    = "LEAKAUDIT"
	configurationNameConstant    = "config"
	configurationTypeConstant    = "yaml"
	configurationInitializedMsg  = "configuration initialized"
	configurationLogLevelField   = "log_level"
	configurationLogFormatField  = "log_format"
	configurationFileField       = "config_file"
	configurationLoadErrorFormat = "unable to load configuration: %w"
	loggerCreationErrorFormat    = "unable to create logger: %w"
	loggerSyncErrorFormat        = "unable to flush logger: %w"
	loggerNotInitializedMessage  = "logger not initialized"
	defaultConfigurationSearch   = "."
)

// ApplicationConfiguration describes the persisted configuration for the CLI
// entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Audit  audit.CommandConfiguration     `mapstructure:"audit"`
}

// ApplicationCommonConfiguration stores logging configuration shared across
// commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// Application wires the Cobra root command, configuration loader, and
// structured logger.
type Application struct {
	rootCommand            *cobra.Command
	configurationLoader    *utils.ConfigurationLoader
	loggerFactory          *utils.LoggerFactory
	logger                 *zap.Logger
	configuration          ApplicationConfiguration
	configurationMetadata  utils.LoadedConfiguration
	configurationFilePath  string
	logLevelFlagValue      string
	logFormatFlagValue     string
	commandContextAccessor utils.CommandContextAccessor
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearch},
	)
	embeddedConfiguration, embeddedConfigurationType := EmbeddedDefaultConfiguration()
	configurationLoader.SetEmbeddedConfiguration(embeddedConfiguration, embeddedConfigurationType)

	application := &Application{
		configurationLoader:    configurationLoader,
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
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
			return application.runRootCommand(command)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(
		&application.logLevelFlagValue,
		logLevelFlagNameConstant,
		"",
		flags.FormatChoiceUsage(string(utils.LogLevelInfo), supportedLogLevels(), logLevelFlagDescription),
	)
	cobraCommand.PersistentFlags().StringVar(
		&application.logFormatFlagValue,
		logFormatFlagNameConstant,
		"",
		flags.FormatChoiceUsage(string(utils.LogFormatConsole), supportedLogFormats(), logFormatFlagDescription),
	)

	auditBuilder := audit.CommandBuilder{
		LoggerProvider: func() *zap.Logger {
			return application.logger
		},
		ConfigurationProvider: func() audit.CommandConfiguration {
			return application.configuration.Audit
		},
	}
	auditCommand, auditBuildError := auditBuilder.Build()
	if auditBuildError == nil {
		cobraCommand.AddCommand(auditCommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger
// flushing.
func (application *Application) Execute() error {
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorFormat, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command
// hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

// ExitCodeForError maps an Execute failure onto the process exit code.
func ExitCodeForError(executionError error) int {
	return audit.ExitCodeForError(executionError)
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKey:  string(utils.LogLevelInfo),
		commonLogFormatConfigKey: string(utils.LogFormatConsole),
	}
	for configurationKey, configurationValue := range audit.DefaultConfigurationValues(auditConfigurationKey) {
		defaultValues[configurationKey] = configurationValue
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorFormat, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}
	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	logger, loggerCreationError := application.loggerFactory.CreateLogger(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorFormat, loggerCreationError)
	}

	application.logger = logger

	application.logger.Debug(
		configurationInitializedMsg,
		zap.String(configurationLogLevelField, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatField, application.configuration.Common.LogFormat),
		zap.String(configurationFileField, application.configurationMetadata.ConfigFileUsed),
	)

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)
		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) runRootCommand(command *cobra.Command) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessage)
	}
	return command.Help()
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
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
	if rootCommand := command.Root(); rootCommand != nil {
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

func supportedLogLevels() []string {
	return []string{
		string(utils.LogLevelDebug),
		string(utils.LogLevelInfo),
		string(utils.LogLevelWarn),
		string(utils.LogLevelError),
	}
}

func supportedLogFormats() []string {
	return []string{
		string(utils.LogFormatConsole),
		string(utils.LogFormatStructured),
	}
}
