package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/temirov/leakaudit/internal/execshell"
	"github.com/temirov/leakaudit/internal/remediation"
	"github.com/temirov/leakaudit/internal/scan"
	"github.com/temirov/leakaudit/internal/timeline"
)

const (
	gitFilterRepoSubcommandConstant     = "filter-repo"
	gitVersionFlagConstant              = "--version"
	filterRepoProbeToleratedExit        = 1
	validationStepNameConstant          = "request validation"
	scanStepNameConstant                = "history scan"
	metadataStepNameConstant            = "commit metadata lookup"
	branchLookupStepNameConstant        = "branch membership lookup"
	headLookupStepNameConstant          = "head presence lookup"
	auditStartedMessageConstant         = "secret audit started"
	auditFinishedMessageConstant        = "secret audit finished"
	secretFailedMessageConstant         = "secret audit failed"
	logFieldSecretNameConstant          = "secret_name"
	logFieldRepositoryConstant          = "repository"
	logFieldStatusConstant              = "status"
	logFieldSeverityConstant            = "severity"
	logFieldCommitCountConstant         = "commits_affected"
	logFieldFailedStepConstant          = "failed_step"
)

// Service runs audits against one repository per request.
type Service struct {
	gitExecutor     GitExecutor
	logger          *zap.Logger
	topologyFactory TopologyFactory
	metadataFactory MetadataFactory
	scannerFactory  ScannerFactory
	planBuilder     PlanBuilder
	clock           Clock
}

// ServiceDependencies configures a Service; nil entries fall back to the
// concrete wiring over the shared git executor.
type ServiceDependencies struct {
	GitExecutor     GitExecutor
	Logger          *zap.Logger
	PublicHosts     []string
	TopologyFactory TopologyFactory
	MetadataFactory MetadataFactory
	ScannerFactory  ScannerFactory
	PlanBuilder     PlanBuilder
	Clock           Clock
}

// NewService constructs a Service from the provided dependencies.
func NewService(dependencies ServiceDependencies) *Service {
	resolvedLogger := dependencies.Logger
	if resolvedLogger == nil {
		resolvedLogger = zap.NewNop()
	}
	resolvedTopologyFactory := dependencies.TopologyFactory
	if resolvedTopologyFactory == nil {
		resolvedTopologyFactory = defaultTopologyFactory(dependencies.GitExecutor, dependencies.PublicHosts)
	}
	resolvedMetadataFactory := dependencies.MetadataFactory
	if resolvedMetadataFactory == nil {
		resolvedMetadataFactory = defaultMetadataFactory(dependencies.GitExecutor)
	}
	resolvedScannerFactory := dependencies.ScannerFactory
	if resolvedScannerFactory == nil {
		resolvedScannerFactory = defaultScannerFactory(dependencies.GitExecutor)
	}
	resolvedPlanBuilder := dependencies.PlanBuilder
	if resolvedPlanBuilder == nil {
		resolvedPlanBuilder = remediation.NewPlanner(remediation.DefaultRotationCatalog())
	}
	resolvedClock := dependencies.Clock
	if resolvedClock == nil {
		resolvedClock = SystemClock{}
	}

	return &Service{
		gitExecutor:     dependencies.GitExecutor,
		logger:          resolvedLogger,
		topologyFactory: resolvedTopologyFactory,
		metadataFactory: resolvedMetadataFactory,
		scannerFactory:  resolvedScannerFactory,
		planBuilder:     resolvedPlanBuilder,
		clock:           resolvedClock,
	}
}

// Run audits every requested secret against the repository.
//
// An invalid repository is fatal and yields no partial report. Per-secret
// failures are isolated: the failing secret carries an error record and the
// remaining secrets are still audited.
func (service *Service) Run(executionContext context.Context, request Request) (BatchReport, error) {
	sanitizedRequest := request.sanitize()

	repositoryTopology := service.topologyFactory(sanitizedRequest.RepositoryPath)
	if validationError := repositoryTopology.ValidateRepository(executionContext); validationError != nil {
		return BatchReport{}, validationError
	}

	remotes, remotesError := repositoryTopology.ListRemotes(executionContext)
	if remotesError != nil {
		return BatchReport{}, remotesError
	}
	repositoryIsPublic := repositoryTopology.IsPublic(remotes)
	filterRepoAvailable := service.probeFilterRepo(executionContext, sanitizedRequest.RepositoryPath)

	metadataResolver := service.metadataFactory(sanitizedRequest.RepositoryPath)
	historyScanner := service.scannerFactory(sanitizedRequest.RepositoryPath, sanitizedRequest.MaximumCommits)

	batchReport := BatchReport{
		RepositoryPath: sanitizedRequest.RepositoryPath,
		GeneratedAt:    service.clock.Now().UTC(),
		Results:        []SecretReport{},
	}

	totalCommitHashes := map[string]struct{}{}
	for _, secretName := range sanitizedRequest.SecretNames {
		service.logger.Info(auditStartedMessageConstant,
			zap.String(logFieldSecretNameConstant, secretName),
			zap.String(logFieldRepositoryConstant, sanitizedRequest.RepositoryPath),
		)

		secretReport := service.auditSecret(executionContext, auditSecretInput{
			secretName:          secretName,
			exactValue:          sanitizedRequest.ExactValue,
			topology:            repositoryTopology,
			metadataResolver:    metadataResolver,
			historyScanner:      historyScanner,
			hasRemotes:          len(remotes) > 0,
			repositoryIsPublic:  repositoryIsPublic,
			filterRepoAvailable: filterRepoAvailable,
		})

		if secretReport.Error != nil {
			batchReport.Summary.FailedCount++
			service.logger.Warn(secretFailedMessageConstant,
				zap.String(logFieldSecretNameConstant, secretName),
				zap.String(logFieldFailedStepConstant, secretReport.Error.Step),
			)
		} else if secretReport.Status == SecretStatusLeaked {
			batchReport.Summary.LeakedCount++
		} else {
			batchReport.Summary.CleanCount++
		}

		service.logger.Info(auditFinishedMessageConstant,
			zap.String(logFieldSecretNameConstant, secretName),
			zap.String(logFieldStatusConstant, string(secretReport.Status)),
			zap.Int(logFieldCommitCountConstant, secretReport.CommitsAffected),
			zap.String(logFieldSeverityConstant, severityFieldValue(secretReport.Severity)),
		)

		batchReport.Results = append(batchReport.Results, secretReport)
	}

	for _, secretReport := range batchReport.Results {
		if secretReport.Status != SecretStatusLeaked {
			continue
		}
		for _, commitHash := range secretReport.affectedCommitHashes {
			totalCommitHashes[commitHash] = struct{}{}
		}
	}
	batchReport.Summary.TotalCommitsAffected = len(totalCommitHashes)

	return batchReport, nil
}

type auditSecretInput struct {
	secretName          string
	exactValue          string
	topology            RepositoryTopology
	metadataResolver    CommitMetadataResolver
	historyScanner      HistoryScanner
	hasRemotes          bool
	repositoryIsPublic  bool
	filterRepoAvailable bool
}

func (service *Service) auditSecret(executionContext context.Context, input auditSecretInput) SecretReport {
	searchQuery, queryError := buildSearchQuery(input.secretName, input.exactValue)
	if queryError != nil {
		return failedSecretReport(input.secretName, validationStepNameConstant, queryError)
	}

	scanResult, scanError := input.historyScanner.Scan(executionContext, searchQuery)
	if scanError != nil {
		return failedSecretReport(input.secretName, scanStepNameConstant, scanError)
	}

	presentAtHead, headError := input.historyScanner.PresentAtHead(executionContext, searchQuery)
	if headError != nil {
		return failedSecretReport(input.secretName, headLookupStepNameConstant, headError)
	}

	occurrences := make([]timeline.FileOccurrence, 0, len(scanResult.Occurrences))
	branchesByCommit := map[string][]string{}
	for _, rawOccurrence := range scanResult.Occurrences {
		commitReference, metadataError := input.metadataResolver.Get(executionContext, rawOccurrence.CommitHash)
		if metadataError != nil {
			return failedSecretReport(input.secretName, metadataStepNameConstant, metadataError)
		}
		if _, alreadyResolved := branchesByCommit[rawOccurrence.CommitHash]; !alreadyResolved {
			containingBranches, branchesError := input.topology.BranchesContaining(executionContext, rawOccurrence.CommitHash)
			if branchesError != nil {
				return failedSecretReport(input.secretName, branchLookupStepNameConstant, branchesError)
			}
			branchesByCommit[rawOccurrence.CommitHash] = containingBranches
		}
		occurrences = append(occurrences, timeline.FileOccurrence{
			Commit:       commitReference,
			FilePath:     rawOccurrence.FilePath,
			LineNumber:   rawOccurrence.LineNumber,
			RedactedText: rawOccurrence.RedactedText,
		})
	}

	secretTimeline := timeline.Classify(timeline.Aggregate(timeline.AggregationInput{
		SecretIdentifier:   input.secretName,
		Occurrences:        occurrences,
		BranchesByCommit:   branchesByCommit,
		StillPresentAtHead: presentAtHead,
		IsPublicRepository: input.repositoryIsPublic,
		Truncated:          scanResult.Truncated,
	}))

	remediationSteps := service.planBuilder.BuildPlan(remediation.PlanInput{
		Timeline:         secretTimeline,
		HasRemotes:       input.hasRemotes,
		FilterRepoProbed: input.filterRepoAvailable,
	})

	return buildSecretReport(secretTimeline, remediationSteps)
}

func buildSearchQuery(secretName string, exactValue string) (scan.SearchQuery, error) {
	if validationError := execshell.ValidateArgument(secretName); validationError != nil {
		return scan.SearchQuery{}, validationError
	}
	if len(exactValue) > 0 {
		if validationError := execshell.ValidateArgument(exactValue); validationError != nil {
			return scan.SearchQuery{}, validationError
		}
		return scan.ByValue(secretName, exactValue)
	}
	return scan.ByName(secretName)
}

// probeFilterRepo checks whether the non-destructive rewrite tool is
// installed; the probe result only shapes remediation text and never fails
// the audit.
func (service *Service) probeFilterRepo(executionContext context.Context, repositoryPath string) bool {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitFilterRepoSubcommandConstant, gitVersionFlagConstant},
		WorkingDirectory: repositoryPath,
	}
	executionResult, executionError := service.gitExecutor.ExecuteGitTolerant(executionContext, commandDetails, filterRepoProbeToleratedExit)
	if executionError != nil {
		return false
	}
	return executionResult.ExitCode == 0
}

func severityFieldValue(severity *string) string {
	if severity == nil {
		return ""
	}
	return *severity
}
