package timeline_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/leakaudit/internal/timeline"
)

func buildLeakTimeline(public bool, atHead bool, commitCount int) timeline.SecretTimeline {
	occurrences := []timeline.FileOccurrence{}
	hashes := []string{testFirstHashConstant, testSecondHashConstant, testThirdHashConstant}
	for commitIndex := 0; commitIndex < commitCount; commitIndex++ {
		occurrences = append(occurrences, timeline.FileOccurrence{
			Commit:     commitAt(hashes[commitIndex], time.Duration(commitIndex)*time.Hour),
			FilePath:   ".env",
			LineNumber: 1,
		})
	}
	return timeline.Aggregate(timeline.AggregationInput{
		SecretIdentifier:   testSecretIdentifierConstant,
		Occurrences:        occurrences,
		StillPresentAtHead: atHead,
		IsPublicRepository: public,
	})
}

func TestClassifyDecisionTable(testInstance *testing.T) {
	testCases := []struct {
		name             string
		secretTimeline   timeline.SecretTimeline
		expectedSeverity timeline.Severity
	}{
		{
			name:             "still_present_private_single_commit",
			secretTimeline:   buildLeakTimeline(false, true, 1),
			expectedSeverity: timeline.SeverityHigh,
		},
		{
			name:             "public_outranks_head_presence",
			secretTimeline:   buildLeakTimeline(true, true, 1),
			expectedSeverity: timeline.SeverityCritical,
		},
		{
			name:             "public_removed_leak",
			secretTimeline:   buildLeakTimeline(true, false, 2),
			expectedSeverity: timeline.SeverityCritical,
		},
		{
			name:             "removed_private_leak",
			secretTimeline:   buildLeakTimeline(false, false, 2),
			expectedSeverity: timeline.SeverityMedium,
		},
		{
			name:             "single_commit_removed_private_leak",
			secretTimeline:   buildLeakTimeline(false, false, 1),
			expectedSeverity: timeline.SeverityMedium,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			classifiedTimeline := timeline.Classify(testCase.secretTimeline)
			require.Equal(testInstance, testCase.expectedSeverity, classifiedTimeline.Severity)
		})
	}
}

func TestClassifyLeavesCleanTimelineUnranked(testInstance *testing.T) {
	cleanTimeline := timeline.Classify(timeline.Aggregate(timeline.AggregationInput{SecretIdentifier: testSecretIdentifierConstant}))
	require.Empty(testInstance, cleanTimeline.Severity)
}

// Making a repository public must never decrease severity, all else equal.
func TestClassifySeverityMonotonicUnderPublication(testInstance *testing.T) {
	fixtures := []struct {
		atHead      bool
		commitCount int
	}{
		{atHead: true, commitCount: 1},
		{atHead: true, commitCount: 3},
		{atHead: false, commitCount: 1},
		{atHead: false, commitCount: 3},
	}

	for _, fixture := range fixtures {
		privateSeverity := timeline.Classify(buildLeakTimeline(false, fixture.atHead, fixture.commitCount)).Severity
		publicSeverity := timeline.Classify(buildLeakTimeline(true, fixture.atHead, fixture.commitCount)).Severity
		require.GreaterOrEqual(testInstance, publicSeverity.Rank(), privateSeverity.Rank())
	}
}

func TestSeverityRankOrdering(testInstance *testing.T) {
	require.Less(testInstance, timeline.SeverityLow.Rank(), timeline.SeverityMedium.Rank())
	require.Less(testInstance, timeline.SeverityMedium.Rank(), timeline.SeverityHigh.Rank())
	require.Less(testInstance, timeline.SeverityHigh.Rank(), timeline.SeverityCritical.Rank())
	require.Zero(testInstance, timeline.Severity("").Rank())
}
