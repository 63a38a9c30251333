package audit

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/temirov/leakaudit/internal/remediation"
	"github.com/temirov/leakaudit/internal/timeline"
)

const (
	reportHeaderTemplateConstant         = "Secret leak audit for %s\n\n"
	reportSecretHeaderTemplateConstant   = "=== %s: %s%s ===\n"
	reportTruncatedSuffixConstant        = " (window truncated)"
	reportSeverityLineTemplateConstant   = "  severity: %s\n"
	reportWindowLineTemplateConstant     = "  first seen: %s   last seen: %s   exposure: %d day(s)\n"
	reportCommitsLineTemplateConstant    = "  commits affected: %d   files: %v\n"
	reportBranchesLineTemplateConstant   = "  branches: %v\n"
	reportVisibilityLineTemplateConstant = "  public repository: %t   present at head: %t\n"
	reportErrorLineTemplateConstant      = "  error during %s: %s\n"
	reportStepLineTemplateConstant       = "  %d. [%s] %s\n"
	reportStepDetailTemplateConstant     = "     %s\n"
	reportStepCommandTemplateConstant    = "     $ %s\n"
	reportStepWarningTemplateConstant    = "     ! %s\n"
	reportRemediationHeaderConstant      = "  remediation:\n"
	reportSummaryTemplateConstant        = "\n%d leaked, %d clean, %d failed; %d distinct commit(s) affected across all secrets\n"
	jsonIndentConstant                   = "  "
)

func buildSecretReport(secretTimeline timeline.SecretTimeline, remediationSteps []remediation.RemediationStep) SecretReport {
	secretReport := SecretReport{
		SecretName:           secretTimeline.SecretIdentifier,
		Status:               SecretStatusClean,
		ExposureDurationDays: secretTimeline.ExposureDays,
		CommitsAffected:      secretTimeline.AffectedCommitCount,
		FilesAffected:        emptyWhenNil(secretTimeline.DistinctFiles),
		IsPublic:             secretTimeline.IsPublicRepository,
		IsCurrent:            secretTimeline.StillPresentAtHead,
		BranchesAffected:     emptyWhenNil(secretTimeline.AffectedBranches),
		RemediationSteps:     []RemediationStepRecord{},
		Truncated:            secretTimeline.Truncated,
	}

	if secretTimeline.IsClean() {
		return secretReport
	}

	secretReport.Status = SecretStatusLeaked
	secretReport.FirstSeen = timestampPointer(secretTimeline.FirstOccurrence().Commit.Timestamp)
	secretReport.LastSeen = timestampPointer(secretTimeline.LastOccurrence().Commit.Timestamp)
	severityValue := string(secretTimeline.Severity)
	secretReport.Severity = &severityValue
	secretReport.affectedCommitHashes = secretTimeline.DistinctCommitHashes()

	for _, remediationStep := range remediationSteps {
		secretReport.RemediationSteps = append(secretReport.RemediationSteps, RemediationStepRecord{
			Order:       remediationStep.Order,
			Title:       remediationStep.Title,
			Urgency:     string(remediationStep.Urgency),
			Description: remediationStep.Description,
			Command:     optionalString(remediationStep.Command),
			Warning:     optionalString(remediationStep.Warning),
		})
	}

	return secretReport
}

func failedSecretReport(secretName string, failedStep string, failure error) SecretReport {
	return SecretReport{
		SecretName:       secretName,
		Status:           SecretStatusInconclusive,
		FilesAffected:    []string{},
		BranchesAffected: []string{},
		RemediationSteps: []RemediationStepRecord{},
		Error: &ErrorRecord{
			Step:    failedStep,
			Message: failure.Error(),
		},
	}
}

func timestampPointer(timestamp time.Time) *string {
	formattedTimestamp := timestamp.UTC().Format(time.RFC3339)
	return &formattedTimestamp
}

func optionalString(value string) *string {
	if len(value) == 0 {
		return nil
	}
	return &value
}

func emptyWhenNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// RenderJSON writes the batch report as indented JSON.
func RenderJSON(outputWriter io.Writer, batchReport BatchReport) error {
	jsonEncoder := json.NewEncoder(outputWriter)
	jsonEncoder.SetIndent("", jsonIndentConstant)
	return jsonEncoder.Encode(batchReport)
}

// RenderText writes a human-readable rendition of the batch report.
func RenderText(outputWriter io.Writer, batchReport BatchReport) error {
	if _, writeError := fmt.Fprintf(outputWriter, reportHeaderTemplateConstant, batchReport.RepositoryPath); writeError != nil {
		return writeError
	}

	for _, secretReport := range batchReport.Results {
		truncatedSuffix := ""
		if secretReport.Truncated {
			truncatedSuffix = reportTruncatedSuffixConstant
		}
		fmt.Fprintf(outputWriter, reportSecretHeaderTemplateConstant, secretReport.SecretName, secretReport.Status, truncatedSuffix)

		if secretReport.Error != nil {
			fmt.Fprintf(outputWriter, reportErrorLineTemplateConstant, secretReport.Error.Step, secretReport.Error.Message)
			continue
		}

		if secretReport.Status == SecretStatusClean {
			continue
		}

		fmt.Fprintf(outputWriter, reportSeverityLineTemplateConstant, severityFieldValue(secretReport.Severity))
		fmt.Fprintf(outputWriter, reportWindowLineTemplateConstant, stringOrDash(secretReport.FirstSeen), stringOrDash(secretReport.LastSeen), secretReport.ExposureDurationDays)
		fmt.Fprintf(outputWriter, reportCommitsLineTemplateConstant, secretReport.CommitsAffected, secretReport.FilesAffected)
		fmt.Fprintf(outputWriter, reportBranchesLineTemplateConstant, secretReport.BranchesAffected)
		fmt.Fprintf(outputWriter, reportVisibilityLineTemplateConstant, secretReport.IsPublic, secretReport.IsCurrent)

		if len(secretReport.RemediationSteps) > 0 {
			fmt.Fprint(outputWriter, reportRemediationHeaderConstant)
		}
		for _, remediationStep := range secretReport.RemediationSteps {
			fmt.Fprintf(outputWriter, reportStepLineTemplateConstant, remediationStep.Order, remediationStep.Urgency, remediationStep.Title)
			fmt.Fprintf(outputWriter, reportStepDetailTemplateConstant, remediationStep.Description)
			if remediationStep.Command != nil {
				fmt.Fprintf(outputWriter, reportStepCommandTemplateConstant, *remediationStep.Command)
			}
			if remediationStep.Warning != nil {
				fmt.Fprintf(outputWriter, reportStepWarningTemplateConstant, *remediationStep.Warning)
			}
		}
	}

	_, writeError := fmt.Fprintf(outputWriter, reportSummaryTemplateConstant,
		batchReport.Summary.LeakedCount,
		batchReport.Summary.CleanCount,
		batchReport.Summary.FailedCount,
		batchReport.Summary.TotalCommitsAffected,
	)
	return writeError
}

func stringOrDash(value *string) string {
	if value == nil {
		return "-"
	}
	return *value
}
