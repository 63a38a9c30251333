package audit

import (
	"context"

	"github.com/temirov/leakaudit/internal/execshell"
	"github.com/temirov/leakaudit/internal/gitrepo"
	"github.com/temirov/leakaudit/internal/remediation"
	"github.com/temirov/leakaudit/internal/scan"
)

// GitExecutor exposes the subset of shell execution used by the audit
// pipeline.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteGitTolerant(executionContext context.Context, details execshell.CommandDetails, toleratedExitCode int) (execshell.ExecutionResult, error)
}

// RepositoryTopology answers structural questions about the audited
// repository.
type RepositoryTopology interface {
	ValidateRepository(executionContext context.Context) error
	ListRemotes(executionContext context.Context) (map[string]string, error)
	IsPublic(remotes map[string]string) bool
	BranchesContaining(executionContext context.Context, commitHash string) ([]string, error)
}

// CommitMetadataResolver resolves cached commit metadata.
type CommitMetadataResolver interface {
	Get(executionContext context.Context, commitHash string) (gitrepo.CommitRef, error)
}

// HistoryScanner walks bounded history for one query.
type HistoryScanner interface {
	Scan(executionContext context.Context, query scan.SearchQuery) (scan.Result, error)
	PresentAtHead(executionContext context.Context, query scan.SearchQuery) (bool, error)
}

// PlanBuilder turns a classified timeline into remediation steps.
type PlanBuilder interface {
	BuildPlan(input remediation.PlanInput) []remediation.RemediationStep
}

// TopologyFactory builds a topology resolver bound to a repository path.
type TopologyFactory func(repositoryPath string) RepositoryTopology

// MetadataFactory builds a per-run commit metadata resolver.
type MetadataFactory func(repositoryPath string) CommitMetadataResolver

// ScannerFactory builds a scanner bound to a repository path and commit cap.
type ScannerFactory func(repositoryPath string, maximumCommits int) HistoryScanner

// defaultTopologyFactory wires the concrete resolver over the shared
// executor.
func defaultTopologyFactory(gitExecutor GitExecutor, publicHosts []string) TopologyFactory {
	return func(repositoryPath string) RepositoryTopology {
		return gitrepo.NewTopologyResolver(gitExecutor, repositoryPath, publicHosts)
	}
}

func defaultMetadataFactory(gitExecutor GitExecutor) MetadataFactory {
	return func(repositoryPath string) CommitMetadataResolver {
		return gitrepo.NewCommitResolver(gitExecutor, repositoryPath)
	}
}

func defaultScannerFactory(gitExecutor GitExecutor) ScannerFactory {
	return func(repositoryPath string, maximumCommits int) HistoryScanner {
		return scan.NewScanner(gitExecutor, repositoryPath, maximumCommits)
	}
}
