package timeline

import "sort"

// AggregationInput carries everything the fold needs. Head presence and
// public classification are point facts supplied by the scanner and topology
// resolver; the fold never infers them from occurrence data.
type AggregationInput struct {
	SecretIdentifier   string
	Occurrences        []FileOccurrence
	BranchesByCommit   map[string][]string
	StillPresentAtHead bool
	IsPublicRepository bool
	Truncated          bool
}

// Aggregate folds occurrences into a SecretTimeline.
//
// Occurrences are deduplicated on (commit, file, line) identity and sorted by
// commit timestamp, with hash, path, and line as tiebreakers so equal-time
// commits fold deterministically. Severity is left unset; classification is a
// separate pass.
func Aggregate(input AggregationInput) SecretTimeline {
	dedupedOccurrences := deduplicateOccurrences(input.Occurrences)
	sortOccurrencesChronologically(dedupedOccurrences)

	secretTimeline := SecretTimeline{
		SecretIdentifier:   input.SecretIdentifier,
		AllOccurrences:     dedupedOccurrences,
		StillPresentAtHead: input.StillPresentAtHead,
		IsPublicRepository: input.IsPublicRepository,
		Truncated:          input.Truncated,
	}

	if secretTimeline.IsClean() {
		return secretTimeline
	}

	secretTimeline.DistinctFiles = collectDistinctFiles(dedupedOccurrences)
	secretTimeline.AffectedCommitCount = len(secretTimeline.DistinctCommitHashes())
	secretTimeline.AffectedBranches = collectBranchUnion(secretTimeline.DistinctCommitHashes(), input.BranchesByCommit)
	secretTimeline.ExposureDays = exposureFloorDays(secretTimeline)
	return secretTimeline
}

func deduplicateOccurrences(occurrences []FileOccurrence) []FileOccurrence {
	seenIdentities := map[string]struct{}{}
	dedupedOccurrences := []FileOccurrence{}
	for _, occurrence := range occurrences {
		occurrenceIdentity := occurrence.identity()
		if _, alreadySeen := seenIdentities[occurrenceIdentity]; alreadySeen {
			continue
		}
		seenIdentities[occurrenceIdentity] = struct{}{}
		dedupedOccurrences = append(dedupedOccurrences, occurrence)
	}
	return dedupedOccurrences
}

// sortOccurrencesChronologically orders oldest first. Search result order is
// not guaranteed chronological, so the fold always re-sorts.
func sortOccurrencesChronologically(occurrences []FileOccurrence) {
	sort.SliceStable(occurrences, func(firstIndex int, secondIndex int) bool {
		firstOccurrence := occurrences[firstIndex]
		secondOccurrence := occurrences[secondIndex]
		if !firstOccurrence.Commit.Timestamp.Equal(secondOccurrence.Commit.Timestamp) {
			return firstOccurrence.Commit.Timestamp.Before(secondOccurrence.Commit.Timestamp)
		}
		if firstOccurrence.Commit.Hash != secondOccurrence.Commit.Hash {
			return firstOccurrence.Commit.Hash < secondOccurrence.Commit.Hash
		}
		if firstOccurrence.FilePath != secondOccurrence.FilePath {
			return firstOccurrence.FilePath < secondOccurrence.FilePath
		}
		return firstOccurrence.LineNumber < secondOccurrence.LineNumber
	})
}

func collectDistinctFiles(occurrences []FileOccurrence) []string {
	fileSet := map[string]struct{}{}
	for _, occurrence := range occurrences {
		fileSet[occurrence.FilePath] = struct{}{}
	}
	distinctFiles := make([]string, 0, len(fileSet))
	for filePath := range fileSet {
		distinctFiles = append(distinctFiles, filePath)
	}
	sort.Strings(distinctFiles)
	return distinctFiles
}

func collectBranchUnion(commitHashes []string, branchesByCommit map[string][]string) []string {
	branchSet := map[string]struct{}{}
	for _, commitHash := range commitHashes {
		for _, branchName := range branchesByCommit[commitHash] {
			branchSet[branchName] = struct{}{}
		}
	}
	affectedBranches := make([]string, 0, len(branchSet))
	for branchName := range branchSet {
		affectedBranches = append(affectedBranches, branchName)
	}
	sort.Strings(affectedBranches)
	return affectedBranches
}

func exposureFloorDays(secretTimeline SecretTimeline) int {
	exposureWindow := secretTimeline.LastOccurrence().Commit.Timestamp.Sub(secretTimeline.FirstOccurrence().Commit.Timestamp)
	return int(exposureWindow.Hours() / 24)
}
