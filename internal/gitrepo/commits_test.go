package gitrepo_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/leakaudit/internal/execshell"
	"github.com/temirov/leakaudit/internal/gitrepo"
)

const (
	testMergeCommitHashConstant = "fedcba9876543210fedcba9876543210fedcba98"
	commitRecordSeparator       = "\x1f"
)

func buildCommitRecord(fields ...string) string {
	record := fields[0]
	for _, field := range fields[1:] {
		record += commitRecordSeparator + field
	}
	return record + "\n"
}

func TestCommitResolverParsesMetadataRecord(testInstance *testing.T) {
	testCases := []struct {
		name              string
		recordOutput      string
		expectedReference gitrepo.CommitRef
		expectError       bool
	}{
		{
			name: "root_commit",
			recordOutput: buildCommitRecord(
				testCommitHashConstant,
				"0a1b2c3",
				"Ada Lovelace",
				"ada@example.com",
				"2024-03-01T10:15:00+02:00",
				"",
				"Initial commit",
			),
			expectedReference: gitrepo.CommitRef{
				Hash:        testCommitHashConstant,
				ShortHash:   "0a1b2c3",
				AuthorName:  "Ada Lovelace",
				AuthorEmail: "ada@example.com",
				Timestamp:   time.Date(2024, 3, 1, 10, 15, 0, 0, time.FixedZone("", 2*60*60)),
				Subject:     "Initial commit",
			},
		},
		{
			name: "merge_commit_with_hostile_subject",
			recordOutput: buildCommitRecord(
				testMergeCommitHashConstant,
				"fedcba9",
				"Grace Hopper",
				"grace@example.com",
				"2024-04-02T08:00:00Z",
				testCommitHashConstant+" 1111111111111111111111111111111111111111",
				"Merge branch 'x'"+commitRecordSeparator+"with a separator inside",
			),
			expectedReference: gitrepo.CommitRef{
				Hash:         testMergeCommitHashConstant,
				ShortHash:    "fedcba9",
				AuthorName:   "Grace Hopper",
				AuthorEmail:  "grace@example.com",
				Timestamp:    time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC),
				Subject:      "Merge branch 'x'" + commitRecordSeparator + "with a separator inside",
				ParentHashes: []string{testCommitHashConstant, "1111111111111111111111111111111111111111"},
			},
		},
		{
			name:         "malformed_record",
			recordOutput: "only-one-field\n",
			expectError:  true,
		},
		{
			name: "unparseable_timestamp",
			recordOutput: buildCommitRecord(
				testCommitHashConstant,
				"0a1b2c3",
				"Ada Lovelace",
				"ada@example.com",
				"yesterday",
				"",
				"Initial commit",
			),
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			scriptedExecutor := newScriptedGitExecutor()
			scriptedExecutor.resultsBySubcommand["show"] = execshell.ExecutionResult{StandardOutput: testCase.recordOutput}

			commitResolver := gitrepo.NewCommitResolver(scriptedExecutor, testRepositoryPathConstant)
			commitReference, resolveError := commitResolver.Get(context.Background(), testCase.expectedReference.Hash)

			if testCase.expectError {
				require.Error(testInstance, resolveError)
				return
			}
			require.NoError(testInstance, resolveError)
			require.True(testInstance, testCase.expectedReference.Timestamp.Equal(commitReference.Timestamp))
			commitReference.Timestamp = testCase.expectedReference.Timestamp
			require.Equal(testInstance, testCase.expectedReference, commitReference)
		})
	}
}

func TestCommitResolverCachesLookups(testInstance *testing.T) {
	scriptedExecutor := newScriptedGitExecutor()
	scriptedExecutor.resultsBySubcommand["show"] = execshell.ExecutionResult{
		StandardOutput: buildCommitRecord(
			testCommitHashConstant,
			"0a1b2c3",
			"Ada Lovelace",
			"ada@example.com",
			"2024-03-01T10:15:00Z",
			"",
			"Initial commit",
		),
	}

	commitResolver := gitrepo.NewCommitResolver(scriptedExecutor, testRepositoryPathConstant)

	firstReference, firstError := commitResolver.Get(context.Background(), testCommitHashConstant)
	require.NoError(testInstance, firstError)
	secondReference, secondError := commitResolver.Get(context.Background(), testCommitHashConstant)
	require.NoError(testInstance, secondError)

	require.Equal(testInstance, firstReference, secondReference)
	require.Len(testInstance, scriptedExecutor.recordedDetails, 1)
}

func TestCommitResolverWrapsLookupFailures(testInstance *testing.T) {
	scriptedExecutor := newScriptedGitExecutor()
	scriptedExecutor.errorsBySubcommand["show"] = execshell.CommandFailedError{Result: execshell.ExecutionResult{ExitCode: 128}}

	commitResolver := gitrepo.NewCommitResolver(scriptedExecutor, testRepositoryPathConstant)
	_, resolveError := commitResolver.Get(context.Background(), "deadbeef")

	require.Error(testInstance, resolveError)
	require.Contains(testInstance, resolveError.Error(), "deadbeef")
}

func TestCommitRefIsMerge(testInstance *testing.T) {
	require.False(testInstance, gitrepo.CommitRef{}.IsMerge())
	require.False(testInstance, gitrepo.CommitRef{ParentHashes: []string{"a"}}.IsMerge())
	require.True(testInstance, gitrepo.CommitRef{ParentHashes: []string{"a", "b"}}.IsMerge())
}
