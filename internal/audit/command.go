package audit

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/leakaudit/internal/execshell"
	"github.com/temirov/leakaudit/internal/gitrepo"
	"github.com/temirov/leakaudit/internal/remediation"
	pathutils "github.com/temirov/leakaudit/internal/utils/path"
)

const (
	commandShortDescriptionConstant = "Audit git history for leaked secrets"
	commandLongDescriptionConstant  = "Scans the repository's full history for the named secrets, reconstructs an exposure timeline, classifies severity, and prints an ordered remediation plan. History is never modified."
	commandUsageTemplateConstant    = "audit SECRET_NAME [SECRET_NAME...]"

	flagValueNameConstant        = "value"
	flagValueUsageConstant       = "Exact secret value to search for (more precise than name matching)."
	flagMaxCommitsNameConstant   = "max-commits"
	flagMaxCommitsUsageConstant  = "Upper bound on scanned candidate commits."
	flagRepositoryNameConstant   = "repo"
	flagRepositoryUsageConstant  = "Path to the repository to audit."
	flagJSONNameConstant         = "json"
	flagJSONUsageConstant        = "Emit the report as JSON instead of text."
	flagStrictNameConstant       = "strict"
	flagStrictUsageConstant      = "Exit non-zero when any audited secret leaked."
	flagCatalogNameConstant      = "rotation-catalog"
	flagCatalogUsageConstant     = "Path to a YAML file overriding the built-in rotation command catalog."
	missingSecretMessageConstant = "at least one secret name is required"
	catalogReadErrorTemplate     = "unable to read rotation catalog %s: %w"
)

// LoggerProvider supplies a zap logger for command execution.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider supplies persisted audit settings.
type ConfigurationProvider func() CommandConfiguration

// CommandBuilder assembles the audit cobra command with configurable
// dependencies; nil fields fall back to production wiring.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	GitExecutor           GitExecutor
	ServiceOverrides      ServiceDependencies
	Clock                 Clock
}

// Build constructs the cobra command for history audits.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUsageTemplateConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		Args:  cobra.MinimumNArgs(1),
		RunE:  builder.run,
	}

	command.Flags().String(flagValueNameConstant, "", flagValueUsageConstant)
	command.Flags().Int(flagMaxCommitsNameConstant, 0, flagMaxCommitsUsageConstant)
	command.Flags().String(flagRepositoryNameConstant, "", flagRepositoryUsageConstant)
	command.Flags().Bool(flagJSONNameConstant, false, flagJSONUsageConstant)
	command.Flags().Bool(flagStrictNameConstant, false, flagStrictUsageConstant)
	command.Flags().String(flagCatalogNameConstant, "", flagCatalogUsageConstant)

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	secretNames := []string{}
	for _, secretArgument := range arguments {
		trimmedName := strings.TrimSpace(secretArgument)
		if len(trimmedName) > 0 {
			secretNames = append(secretNames, trimmedName)
		}
	}
	if len(secretNames) == 0 {
		return errors.New(missingSecretMessageConstant)
	}

	configuration := builder.resolveConfiguration()
	exactValue, _ := command.Flags().GetString(flagValueNameConstant)
	jsonOutput, _ := command.Flags().GetBool(flagJSONNameConstant)
	strictMode, _ := command.Flags().GetBool(flagStrictNameConstant)

	if command.Flags().Changed(flagMaxCommitsNameConstant) {
		configuration.MaxCommits, _ = command.Flags().GetInt(flagMaxCommitsNameConstant)
	}
	if command.Flags().Changed(flagRepositoryNameConstant) {
		configuration.Repository, _ = command.Flags().GetString(flagRepositoryNameConstant)
	}
	if command.Flags().Changed(flagCatalogNameConstant) {
		configuration.RotationCatalog, _ = command.Flags().GetString(flagCatalogNameConstant)
	}
	configuration = configuration.sanitize()
	configuration.Repository = pathutils.NewRepositoryPathResolver().Resolve(configuration.Repository)
	jsonOutput = jsonOutput || configuration.JSONOutput
	strictMode = strictMode || configuration.Strict

	logger := builder.resolveLogger()
	gitExecutor, executorError := builder.resolveGitExecutor(logger)
	if executorError != nil {
		return executorError
	}

	planBuilder, plannerError := builder.resolvePlanBuilder(configuration)
	if plannerError != nil {
		return plannerError
	}

	serviceDependencies := builder.ServiceOverrides
	serviceDependencies.GitExecutor = gitExecutor
	serviceDependencies.Logger = logger
	serviceDependencies.PublicHosts = configuration.PublicHosts
	if serviceDependencies.PlanBuilder == nil {
		serviceDependencies.PlanBuilder = planBuilder
	}
	if serviceDependencies.Clock == nil {
		serviceDependencies.Clock = builder.Clock
	}

	auditService := NewService(serviceDependencies)
	batchReport, runError := auditService.Run(command.Context(), Request{
		SecretNames:    secretNames,
		ExactValue:     exactValue,
		MaximumCommits: configuration.MaxCommits,
		RepositoryPath: configuration.Repository,
	})
	if runError != nil {
		return runError
	}

	if jsonOutput {
		if renderError := RenderJSON(command.OutOrStdout(), batchReport); renderError != nil {
			return renderError
		}
	} else {
		if renderError := RenderText(command.OutOrStdout(), batchReport); renderError != nil {
			return renderError
		}
	}

	if strictMode && batchReport.HasLeaks() {
		return LeakedSecretsError{LeakedCount: batchReport.Summary.LeakedCount}
	}
	return nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().sanitize()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

func (builder *CommandBuilder) resolveGitExecutor(logger *zap.Logger) (GitExecutor, error) {
	if builder.GitExecutor != nil {
		return builder.GitExecutor, nil
	}
	return execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner())
}

func (builder *CommandBuilder) resolvePlanBuilder(configuration CommandConfiguration) (PlanBuilder, error) {
	rotationCatalog := remediation.DefaultRotationCatalog()
	if len(configuration.RotationCatalog) > 0 {
		catalogData, readError := os.ReadFile(configuration.RotationCatalog)
		if readError != nil {
			return nil, fmt.Errorf(catalogReadErrorTemplate, configuration.RotationCatalog, readError)
		}
		parsedCatalog, parseError := remediation.ParseCatalogOverrides(catalogData)
		if parseError != nil {
			return nil, parseError
		}
		rotationCatalog = parsedCatalog
	}
	return remediation.NewPlanner(rotationCatalog), nil
}

// ExitCodeForError maps command failures onto the automation exit-code
// contract: 2 for an invalid repository, 1 for everything else including the
// strict-mode leak signal.
func ExitCodeForError(commandError error) int {
	if commandError == nil {
		return 0
	}
	notRepository := gitrepo.NotRepositoryError{}
	if errors.As(commandError, &notRepository) {
		return 2
	}
	return 1
}
