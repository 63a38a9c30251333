package audit

import (
	"fmt"
	"time"
)

// SecretStatus reports whether a secret appeared anywhere in the scanned
// window.
type SecretStatus string

// Secret statuses emitted in audit reports.
const (
	SecretStatusLeaked SecretStatus = "LEAKED"
	SecretStatusClean  SecretStatus = "CLEAN"
	// SecretStatusInconclusive marks a secret whose audit failed part-way;
	// it counts toward neither the leaked nor the clean tally.
	SecretStatusInconclusive SecretStatus = "INCONCLUSIVE"
)

const defaultMaximumCommitsConstant = 1000

// Request captures the configurable parameters for one audit run, immutable
// once submitted.
type Request struct {
	SecretNames    []string
	ExactValue     string
	MaximumCommits int
	RepositoryPath string
}

// sanitize applies defaults to unset request values.
func (request Request) sanitize() Request {
	sanitized := request
	if sanitized.MaximumCommits <= 0 {
		sanitized.MaximumCommits = defaultMaximumCommitsConstant
	}
	if len(sanitized.RepositoryPath) == 0 {
		sanitized.RepositoryPath = "."
	}
	return sanitized
}

// RemediationStepRecord is the wire form of one remediation step.
type RemediationStepRecord struct {
	Order       int     `json:"order"`
	Title       string  `json:"title"`
	Urgency     string  `json:"urgency"`
	Description string  `json:"description"`
	Command     *string `json:"command"`
	Warning     *string `json:"warning"`
}

// ErrorRecord describes a per-secret failure in structured output.
type ErrorRecord struct {
	Step    string `json:"step"`
	Message string `json:"message"`
}

// SecretReport is the wire form of one audited secret's outcome.
type SecretReport struct {
	SecretName           string                  `json:"secret_name"`
	Status               SecretStatus            `json:"status"`
	FirstSeen            *string                 `json:"first_seen"`
	LastSeen             *string                 `json:"last_seen"`
	ExposureDurationDays int                     `json:"exposure_duration_days"`
	CommitsAffected      int                     `json:"commits_affected"`
	FilesAffected        []string                `json:"files_affected"`
	IsPublic             bool                    `json:"is_public"`
	IsCurrent            bool                    `json:"is_current"`
	Severity             *string                 `json:"severity"`
	BranchesAffected     []string                `json:"branches_affected"`
	RemediationSteps     []RemediationStepRecord `json:"remediation_steps"`
	Truncated            bool                    `json:"truncated"`
	Error                *ErrorRecord            `json:"error,omitempty"`

	// distinct commit hashes backing CommitsAffected, kept for the batch
	// summary rather than the wire format.
	affectedCommitHashes []string
}

// BatchSummary aggregates outcomes across every audited secret.
type BatchSummary struct {
	LeakedCount          int `json:"leaked_count"`
	CleanCount           int `json:"clean_count"`
	FailedCount          int `json:"failed_count"`
	TotalCommitsAffected int `json:"total_commits_affected"`
}

// BatchReport is the complete response for one audit request.
type BatchReport struct {
	RepositoryPath string         `json:"repository_path"`
	GeneratedAt    time.Time      `json:"generated_at"`
	Results        []SecretReport `json:"results"`
	Summary        BatchSummary   `json:"summary"`
}

// HasLeaks reports whether any audited secret leaked.
func (report BatchReport) HasLeaks() bool {
	return report.Summary.LeakedCount > 0
}

// LeakedSecretsError signals the strict exit-code contract: at least one
// audited secret leaked.
type LeakedSecretsError struct {
	LeakedCount int
}

// Error describes the strict-mode failure.
func (leakFailure LeakedSecretsError) Error() string {
	return fmt.Sprintf("%d leaked secret(s) detected", leakFailure.LeakedCount)
}

// Clock abstracts time for deterministic report timestamps in tests.
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock using the standard library.
type SystemClock struct{}

// Now returns the current system time.
func (SystemClock) Now() time.Time {
	return time.Now()
}
