package gitrepo_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/leakaudit/internal/execshell"
	"github.com/temirov/leakaudit/internal/gitrepo"
)

const (
	testRepositoryPathConstant = "/tmp/audited-repository"
	testCommitHashConstant     = "0a1b2c3d4e5f60718293a4b5c6d7e8f901234567"
)

type scriptedGitExecutor struct {
	resultsBySubcommand map[string]execshell.ExecutionResult
	errorsBySubcommand  map[string]error
	recordedDetails     []execshell.CommandDetails
}

func newScriptedGitExecutor() *scriptedGitExecutor {
	return &scriptedGitExecutor{
		resultsBySubcommand: map[string]execshell.ExecutionResult{},
		errorsBySubcommand:  map[string]error{},
	}
}

func (executor *scriptedGitExecutor) ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedDetails = append(executor.recordedDetails, details)
	subcommand := details.Arguments[0]
	if scriptedError, found := executor.errorsBySubcommand[subcommand]; found {
		return execshell.ExecutionResult{}, scriptedError
	}
	return executor.resultsBySubcommand[subcommand], nil
}

func (executor *scriptedGitExecutor) ExecuteGitTolerant(executionContext context.Context, details execshell.CommandDetails, toleratedExitCode int) (execshell.ExecutionResult, error) {
	return executor.ExecuteGit(executionContext, details)
}

func TestTopologyResolverValidateRepository(testInstance *testing.T) {
	testCases := []struct {
		name           string
		revParseOutput string
		revParseError  error
		expectValid    bool
	}{
		{name: "work_tree", revParseOutput: "true\n", expectValid: true},
		{name: "bare_repository_output", revParseOutput: "false\n"},
		{name: "command_failure", revParseError: execshell.CommandFailedError{Result: execshell.ExecutionResult{ExitCode: 128}}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			scriptedExecutor := newScriptedGitExecutor()
			scriptedExecutor.resultsBySubcommand["rev-parse"] = execshell.ExecutionResult{StandardOutput: testCase.revParseOutput}
			if testCase.revParseError != nil {
				scriptedExecutor.errorsBySubcommand["rev-parse"] = testCase.revParseError
			}

			topologyResolver := gitrepo.NewTopologyResolver(scriptedExecutor, testRepositoryPathConstant, nil)
			validationError := topologyResolver.ValidateRepository(context.Background())

			if testCase.expectValid {
				require.NoError(testInstance, validationError)
			} else {
				require.Error(testInstance, validationError)
				notRepository := gitrepo.NotRepositoryError{}
				require.ErrorAs(testInstance, validationError, &notRepository)
				require.Equal(testInstance, testRepositoryPathConstant, notRepository.Path)
			}
		})
	}
}

func TestTopologyResolverListRemotesKeepsFetchEntries(testInstance *testing.T) {
	scriptedExecutor := newScriptedGitExecutor()
	scriptedExecutor.resultsBySubcommand["remote"] = execshell.ExecutionResult{
		StandardOutput: strings.Join([]string{
			"origin\tgit@github.com:temirov/leakaudit.git (fetch)",
			"origin\tgit@github.com:temirov/leakaudit.git (push)",
			"mirror\thttps://git.corp.example/mirror/leakaudit.git (fetch)",
			"mirror\thttps://git.corp.example/mirror/leakaudit.git (push)",
			"",
		}, "\n"),
	}

	topologyResolver := gitrepo.NewTopologyResolver(scriptedExecutor, testRepositoryPathConstant, nil)
	remotes, listError := topologyResolver.ListRemotes(context.Background())

	require.NoError(testInstance, listError)
	require.Equal(testInstance, map[string]string{
		"origin": "git@github.com:temirov/leakaudit.git",
		"mirror": "https://git.corp.example/mirror/leakaudit.git",
	}, remotes)
}

func TestTopologyResolverIsPublic(testInstance *testing.T) {
	testCases := []struct {
		name           string
		remotes        map[string]string
		expectedPublic bool
	}{
		{
			name:           "github_origin",
			remotes:        map[string]string{"origin": "git@github.com:temirov/leakaudit.git"},
			expectedPublic: true,
		},
		{
			name:           "internal_only",
			remotes:        map[string]string{"origin": "https://git.corp.example/team/repo.git"},
			expectedPublic: false,
		},
		{
			name:           "spoofed_host_stays_private",
			remotes:        map[string]string{"origin": "https://evilgithub.com/team/repo.git"},
			expectedPublic: false,
		},
		{
			name:           "mixed_remotes",
			remotes:        map[string]string{"backup": "https://git.corp.example/team/repo.git", "public": "https://gitlab.com/team/repo.git"},
			expectedPublic: true,
		},
		{
			name:           "no_remotes",
			remotes:        map[string]string{},
			expectedPublic: false,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			topologyResolver := gitrepo.NewTopologyResolver(newScriptedGitExecutor(), testRepositoryPathConstant, nil)
			require.Equal(testInstance, testCase.expectedPublic, topologyResolver.IsPublic(testCase.remotes))
		})
	}
}

func TestTopologyResolverBranchesContaining(testInstance *testing.T) {
	scriptedExecutor := newScriptedGitExecutor()
	scriptedExecutor.resultsBySubcommand["branch"] = execshell.ExecutionResult{
		StandardOutput: strings.Join([]string{
			"main",
			"origin/main",
			"origin/HEAD -> origin/main",
			"feature/rotate-keys",
			"main",
			"",
		}, "\n"),
	}

	topologyResolver := gitrepo.NewTopologyResolver(scriptedExecutor, testRepositoryPathConstant, nil)
	branches, lookupError := topologyResolver.BranchesContaining(context.Background(), testCommitHashConstant)

	require.NoError(testInstance, lookupError)
	require.Equal(testInstance, []string{"feature/rotate-keys", "main", "origin/main"}, branches)
	require.Contains(testInstance, scriptedExecutor.recordedDetails[0].Arguments, testCommitHashConstant)
}

func TestTopologyResolverBranchesContainingEmptyOutput(testInstance *testing.T) {
	scriptedExecutor := newScriptedGitExecutor()
	scriptedExecutor.resultsBySubcommand["branch"] = execshell.ExecutionResult{ExitCode: 1}

	topologyResolver := gitrepo.NewTopologyResolver(scriptedExecutor, testRepositoryPathConstant, nil)
	branches, lookupError := topologyResolver.BranchesContaining(context.Background(), testCommitHashConstant)

	require.NoError(testInstance, lookupError)
	require.Empty(testInstance, branches)
}
