package timeline

import (
	"fmt"

	"github.com/temirov/leakaudit/internal/gitrepo"
)

const occurrenceIdentityTemplateConstant = "%s\x00%s\x00%d"

// Severity is the qualitative risk tier of an exposure.
type Severity string

// Severity tiers ordered from least to most urgent.
const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

var severityRankByTier = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns an ordinal for comparing severities; unknown tiers rank zero.
func (severity Severity) Rank() int {
	return severityRankByTier[severity]
}

// FileOccurrence is one sighting of a secret at a file and line within a
// commit. Line numbers are 1-based; zero means the line is unknown.
type FileOccurrence struct {
	Commit       gitrepo.CommitRef
	FilePath     string
	LineNumber   int
	RedactedText string
}

// identity keys deduplication: the same line of the same file in the same
// commit is one occurrence no matter how many times the scan surfaced it.
func (occurrence FileOccurrence) identity() string {
	return fmt.Sprintf(occurrenceIdentityTemplateConstant, occurrence.Commit.Hash, occurrence.FilePath, occurrence.LineNumber)
}

// SecretTimeline is the deduplicated, chronologically ordered exposure record
// for one secret, immutable once built.
type SecretTimeline struct {
	SecretIdentifier    string
	AllOccurrences      []FileOccurrence
	DistinctFiles       []string
	AffectedCommitCount int
	AffectedBranches    []string
	StillPresentAtHead  bool
	IsPublicRepository  bool
	Severity            Severity
	ExposureDays        int
	Truncated           bool
}

// IsClean reports whether the secret never appeared in the scanned window.
func (secretTimeline SecretTimeline) IsClean() bool {
	return len(secretTimeline.AllOccurrences) == 0
}

// FirstOccurrence returns the oldest occurrence; only meaningful when the
// timeline is not clean.
func (secretTimeline SecretTimeline) FirstOccurrence() FileOccurrence {
	return secretTimeline.AllOccurrences[0]
}

// LastOccurrence returns the newest occurrence; only meaningful when the
// timeline is not clean.
func (secretTimeline SecretTimeline) LastOccurrence() FileOccurrence {
	return secretTimeline.AllOccurrences[len(secretTimeline.AllOccurrences)-1]
}

// DistinctCommitHashes returns the unique commit hashes among occurrences in
// chronological order.
func (secretTimeline SecretTimeline) DistinctCommitHashes() []string {
	seenHashes := map[string]struct{}{}
	distinctHashes := []string{}
	for _, occurrence := range secretTimeline.AllOccurrences {
		if _, alreadySeen := seenHashes[occurrence.Commit.Hash]; alreadySeen {
			continue
		}
		seenHashes[occurrence.Commit.Hash] = struct{}{}
		distinctHashes = append(distinctHashes, occurrence.Commit.Hash)
	}
	return distinctHashes
}
