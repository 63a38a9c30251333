package audit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/leakaudit/internal/audit"
	"github.com/temirov/leakaudit/internal/gitrepo"
)

func buildCommandFixture() (serviceFixture, *audit.CommandBuilder) {
	fixture := newServiceFixture()
	commandBuilder := &audit.CommandBuilder{
		GitExecutor: &stubGitExecutor{},
		ServiceOverrides: audit.ServiceDependencies{
			TopologyFactory: func(repositoryPath string) audit.RepositoryTopology {
				return fixture.topology
			},
			MetadataFactory: func(repositoryPath string) audit.CommitMetadataResolver {
				return fixture.metadata
			},
			ScannerFactory: func(repositoryPath string, maximumCommits int) audit.HistoryScanner {
				return fixture.scanner
			},
			Clock: fixedClock{},
		},
	}
	return fixture, commandBuilder
}

func executeCommand(testInstance *testing.T, commandBuilder *audit.CommandBuilder, arguments ...string) (string, error) {
	auditCommand, buildError := commandBuilder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	auditCommand.SetOut(outputBuffer)
	auditCommand.SetErr(outputBuffer)
	auditCommand.SetArgs(arguments)
	auditCommand.SetContext(context.Background())

	executionError := auditCommand.Execute()
	return outputBuffer.String(), executionError
}

func TestCommandRendersTextReport(testInstance *testing.T) {
	fixture, commandBuilder := buildCommandFixture()
	fixture.seedLeak(testSecretNameConstant, testFirstHashConstant, testEpoch, ".env")
	fixture.scanner.presentAtHead[testSecretNameConstant] = true

	commandOutput, executionError := executeCommand(testInstance, commandBuilder, testSecretNameConstant)

	require.NoError(testInstance, executionError)
	require.Contains(testInstance, commandOutput, "DATABASE_URL: LEAKED")
	require.Contains(testInstance, commandOutput, "severity: HIGH")
	require.Contains(testInstance, commandOutput, "Rotate the leaked credential")
	require.Contains(testInstance, commandOutput, "1 leaked, 0 clean, 0 failed")
}

func TestCommandRendersJSONReport(testInstance *testing.T) {
	fixture, commandBuilder := buildCommandFixture()
	fixture.seedLeak(testSecretNameConstant, testFirstHashConstant, testEpoch, ".env")

	commandOutput, executionError := executeCommand(testInstance, commandBuilder, "--json", testSecretNameConstant)

	require.NoError(testInstance, executionError)

	decodedReport := audit.BatchReport{}
	require.NoError(testInstance, json.Unmarshal([]byte(commandOutput), &decodedReport))
	require.Len(testInstance, decodedReport.Results, 1)
	require.Equal(testInstance, audit.SecretStatusLeaked, decodedReport.Results[0].Status)
	require.Equal(testInstance, []string{".env"}, decodedReport.Results[0].FilesAffected)
}

func TestCommandStrictModeSignalsLeaks(testInstance *testing.T) {
	fixture, commandBuilder := buildCommandFixture()
	fixture.seedLeak(testSecretNameConstant, testFirstHashConstant, testEpoch, ".env")

	_, executionError := executeCommand(testInstance, commandBuilder, "--strict", testSecretNameConstant)

	require.Error(testInstance, executionError)
	leakFailure := audit.LeakedSecretsError{}
	require.ErrorAs(testInstance, executionError, &leakFailure)
	require.Equal(testInstance, 1, leakFailure.LeakedCount)
}

func TestCommandStrictModePassesWhenClean(testInstance *testing.T) {
	_, commandBuilder := buildCommandFixture()

	_, executionError := executeCommand(testInstance, commandBuilder, "--strict", testSecretNameConstant)

	require.NoError(testInstance, executionError)
}

func TestCommandRequiresSecretArgument(testInstance *testing.T) {
	_, commandBuilder := buildCommandFixture()

	_, executionError := executeCommand(testInstance, commandBuilder)

	require.Error(testInstance, executionError)
}

func TestCommandPropagatesInvalidRepository(testInstance *testing.T) {
	fixture, commandBuilder := buildCommandFixture()
	fixture.topology.validationError = gitrepo.NotRepositoryError{Path: testRepositoryPathConstant}

	_, executionError := executeCommand(testInstance, commandBuilder, testSecretNameConstant)

	require.Error(testInstance, executionError)
	require.Equal(testInstance, 2, audit.ExitCodeForError(executionError))
}

func TestExitCodeForErrorContract(testInstance *testing.T) {
	require.Equal(testInstance, 0, audit.ExitCodeForError(nil))
	require.Equal(testInstance, 2, audit.ExitCodeForError(gitrepo.NotRepositoryError{Path: "/tmp/not-a-repo"}))
	require.Equal(testInstance, 1, audit.ExitCodeForError(audit.LeakedSecretsError{LeakedCount: 3}))
	require.Equal(testInstance, 1, audit.ExitCodeForError(errors.New("anything else")))
}
