package remediation

import (
	"fmt"
	"strings"

	"github.com/temirov/leakaudit/internal/timeline"
)

const (
	rotateStepTitleConstant             = "Rotate the leaked credential"
	rotateStepDescriptionTemplate       = "The value of %s circulated in version-control history and must be treated as compromised. %s"
	historyStepTitleConstant            = "Remove the secret from history"
	historyStepDescriptionConstant      = "Rewrite history so the leaked content is no longer reachable from any ref. Rotation comes first: rewriting alone does not revoke a credential that was already exposed."
	historyRewriteWarningConstant       = "History rewriting changes every descendant commit hash. Coordinate with the whole team before running this and have everyone re-clone afterwards."
	filterRepoCommandPrefixConstant     = "git filter-repo"
	filterRepoInvertPathsFlagConstant   = "--invert-paths"
	filterRepoPathFlagConstant          = "--path"
	filterBranchCommandTemplate         = "git filter-branch --force --index-filter 'git rm --cached --ignore-unmatch %s' --prune-empty --tag-name-filter cat -- --all"
	forcePushStepTitleConstant          = "Force-update every remote"
	forcePushStepDescriptionConstant    = "Publish the rewritten history so the leaked content disappears from shared remotes. Forks and clones made before the rewrite still hold the old history."
	forcePushCommandConstant            = "git push origin --force --all && git push origin --force --tags"
	forcePushWarningConstant            = "Force-pushing rewrites the remote's history. Announce a freeze window and make sure nobody pushes in parallel."
	ignoreStepTitleConstant             = "Harden the ignore file"
	ignoreStepDescriptionConstant       = "Make sure the files that carried the secret are ignored so they cannot be committed again. Re-running this step is safe."
	ignoreCommandTemplateConstant       = "grep -qxF '%s' .gitignore || echo '%s' >> .gitignore"
	secretManagerStepTitleConstant      = "Move the secret into a secret manager"
	secretManagerStepDescription        = "Store the replacement value in a dedicated secret manager (Vault, AWS Secrets Manager, SOPS) and inject it at runtime instead of committing configuration files."
	preventionStepTitleConstant         = "Install preventive scanning"
	preventionStepDescriptionConstant   = "Add a pre-commit secret scanner so the next leak is caught before it reaches history."
	preventionCommandConstant           = "pre-commit install && pre-commit autoupdate"
	defaultIgnoreCandidateConstant      = ".env"
)

// RemediationStep is one ordered action in the plan. Order is consecutive
// among the steps actually included.
type RemediationStep struct {
	Order       int
	Title       string
	Urgency     timeline.Severity
	Description string
	Command     string
	Warning     string
}

// PlanInput captures the facts the skeleton's conditions depend on.
type PlanInput struct {
	Timeline         timeline.SecretTimeline
	HasRemotes       bool
	FilterRepoProbed bool
}

// Planner builds remediation plans using a rotation catalog.
type Planner struct {
	rotationCatalog RotationCatalog
}

// NewPlanner constructs a planner around a rotation catalog.
func NewPlanner(rotationCatalog RotationCatalog) *Planner {
	return &Planner{rotationCatalog: rotationCatalog}
}

// BuildPlan produces the ordered action plan for a timeline. Clean timelines
// yield an empty plan.
//
// The skeleton is fixed: rotate, rewrite history, force-push, ignore-file
// hardening, secret-manager migration, preventive tooling. Conditional steps
// drop out without disturbing the relative order of the rest; only the
// rotation step inherits the timeline's overall severity as its urgency.
func (planner *Planner) BuildPlan(input PlanInput) []RemediationStep {
	if input.Timeline.IsClean() {
		return []RemediationStep{}
	}

	plannedSteps := []RemediationStep{planner.buildRotationStep(input.Timeline)}

	if input.Timeline.AffectedCommitCount >= 1 {
		plannedSteps = append(plannedSteps, buildHistoryRemovalStep(input))
	}
	if input.HasRemotes || input.Timeline.IsPublicRepository {
		plannedSteps = append(plannedSteps, RemediationStep{
			Title:       forcePushStepTitleConstant,
			Urgency:     timeline.SeverityHigh,
			Description: forcePushStepDescriptionConstant,
			Command:     forcePushCommandConstant,
			Warning:     forcePushWarningConstant,
		})
	}

	plannedSteps = append(plannedSteps, buildIgnoreHardeningStep(input.Timeline))

	if input.Timeline.Severity.Rank() >= timeline.SeverityMedium.Rank() {
		plannedSteps = append(plannedSteps, RemediationStep{
			Title:       secretManagerStepTitleConstant,
			Urgency:     timeline.SeverityMedium,
			Description: secretManagerStepDescription,
		})
	}

	plannedSteps = append(plannedSteps, RemediationStep{
		Title:       preventionStepTitleConstant,
		Urgency:     timeline.SeverityLow,
		Description: preventionStepDescriptionConstant,
		Command:     preventionCommandConstant,
	})

	for stepIndex := range plannedSteps {
		plannedSteps[stepIndex].Order = stepIndex + 1
	}
	return plannedSteps
}

func (planner *Planner) buildRotationStep(secretTimeline timeline.SecretTimeline) RemediationStep {
	rotationRule := planner.rotationCatalog.Lookup(secretTimeline.SecretIdentifier)
	return RemediationStep{
		Title:       rotateStepTitleConstant,
		Urgency:     secretTimeline.Severity,
		Description: fmt.Sprintf(rotateStepDescriptionTemplate, secretTimeline.SecretIdentifier, rotationRule.Instruction),
		Command:     rotationRule.Command,
	}
}

// buildHistoryRemovalStep synthesizes one command covering every affected
// path, preferring git filter-repo when the probe found it installed.
func buildHistoryRemovalStep(input PlanInput) RemediationStep {
	removalCommand := ""
	if input.FilterRepoProbed {
		commandParts := []string{filterRepoCommandPrefixConstant, filterRepoInvertPathsFlagConstant}
		for _, affectedPath := range input.Timeline.DistinctFiles {
			commandParts = append(commandParts, filterRepoPathFlagConstant, affectedPath)
		}
		removalCommand = strings.Join(commandParts, " ")
	} else {
		removalCommand = fmt.Sprintf(filterBranchCommandTemplate, strings.Join(input.Timeline.DistinctFiles, " "))
	}

	return RemediationStep{
		Title:       historyStepTitleConstant,
		Urgency:     timeline.SeverityHigh,
		Description: historyStepDescriptionConstant,
		Command:     removalCommand,
		Warning:     historyRewriteWarningConstant,
	}
}

func buildIgnoreHardeningStep(secretTimeline timeline.SecretTimeline) RemediationStep {
	ignoreCandidate := defaultIgnoreCandidateConstant
	if len(secretTimeline.DistinctFiles) > 0 {
		ignoreCandidate = secretTimeline.DistinctFiles[0]
	}
	return RemediationStep{
		Title:       ignoreStepTitleConstant,
		Urgency:     timeline.SeverityMedium,
		Description: ignoreStepDescriptionConstant,
		Command:     fmt.Sprintf(ignoreCommandTemplateConstant, ignoreCandidate, ignoreCandidate),
	}
}
