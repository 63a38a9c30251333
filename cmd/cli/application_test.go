package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/leakaudit/internal/audit"
	"github.com/temirov/leakaudit/internal/gitrepo"
)

const (
	testConfigurationFileNameConstant = "config.yaml"
	testConfigurationContentConstant  = "common:\n  log_level: debug\n  log_format: structured\naudit:\n  max_commits: 250\n  repository: /srv/checkouts/app\n  strict: true\n"
	testAuditCommandUsePrefixConstant = "audit"
)

func writeConfigurationFile(testInstance *testing.T, configurationPath string, configurationContent string) {
	testInstance.Helper()
	require.NoError(testInstance, os.WriteFile(configurationPath, []byte(configurationContent), 0o600))
}

func TestNewApplicationRegistersAuditCommand(testInstance *testing.T) {
	application := NewApplication()

	auditCommandRegistered := false
	for _, registeredCommand := range application.rootCommand.Commands() {
		if strings.HasPrefix(registeredCommand.Use, testAuditCommandUsePrefixConstant) {
			auditCommandRegistered = true
		}
	}
	require.True(testInstance, auditCommandRegistered)
}

func TestApplicationInitializeConfigurationEmbeddedDefaults(testInstance *testing.T) {
	application := NewApplication()

	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))

	require.Equal(testInstance, "info", application.configuration.Common.LogLevel)
	require.Equal(testInstance, "console", application.configuration.Common.LogFormat)
	require.Equal(testInstance, 1000, application.configuration.Audit.MaxCommits)
	require.Contains(testInstance, application.configuration.Audit.PublicHosts, "github.com")
	require.False(testInstance, application.configuration.Audit.Strict)
	require.NotNil(testInstance, application.logger)
}

func TestApplicationInitializeConfigurationFromFile(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	configurationPath := filepath.Join(temporaryDirectory, testConfigurationFileNameConstant)
	writeConfigurationFile(testInstance, configurationPath, testConfigurationContentConstant)

	application := NewApplication()
	application.configurationFilePath = configurationPath

	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))

	require.Equal(testInstance, "debug", application.configuration.Common.LogLevel)
	require.Equal(testInstance, "structured", application.configuration.Common.LogFormat)
	require.Equal(testInstance, 250, application.configuration.Audit.MaxCommits)
	require.Equal(testInstance, "/srv/checkouts/app", application.configuration.Audit.Repository)
	require.True(testInstance, application.configuration.Audit.Strict)
	require.Equal(testInstance, configurationPath, application.configurationMetadata.ConfigFileUsed)
}

func TestApplicationLogFlagOverridesConfiguration(testInstance *testing.T) {
	application := NewApplication()
	require.NoError(testInstance, application.rootCommand.PersistentFlags().Set(logLevelFlagNameConstant, "warn"))

	require.NoError(testInstance, application.initializeConfiguration(application.rootCommand))

	require.Equal(testInstance, "warn", application.configuration.Common.LogLevel)
}

func TestApplicationInitializeConfigurationRejectsUnknownLogLevel(testInstance *testing.T) {
	application := NewApplication()
	require.NoError(testInstance, application.rootCommand.PersistentFlags().Set(logLevelFlagNameConstant, "verbose"))

	initializationError := application.initializeConfiguration(application.rootCommand)

	require.Error(testInstance, initializationError)
	require.Contains(testInstance, initializationError.Error(), "unsupported log level")
}

func TestApplicationRootCommandPrintsHelp(testInstance *testing.T) {
	application := NewApplication()
	outputBuffer := &bytes.Buffer{}
	application.rootCommand.SetOut(outputBuffer)
	application.rootCommand.SetErr(outputBuffer)
	application.rootCommand.SetArgs([]string{})

	require.NoError(testInstance, application.Execute())
	require.Contains(testInstance, outputBuffer.String(), testAuditCommandUsePrefixConstant)
}

func TestExitCodeForError(testInstance *testing.T) {
	testCases := []struct {
		name             string
		executionError   error
		expectedExitCode int
	}{
		{name: "no_error", executionError: nil, expectedExitCode: 0},
		{name: "not_a_repository", executionError: gitrepo.NotRepositoryError{Path: "/tmp/elsewhere"}, expectedExitCode: 2},
		{name: "strict_mode_leak", executionError: audit.LeakedSecretsError{LeakedCount: 2}, expectedExitCode: 1},
		{name: "generic_failure", executionError: errors.New("scan interrupted"), expectedExitCode: 1},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedExitCode, ExitCodeForError(testCase.executionError))
		})
	}
}
