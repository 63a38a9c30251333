package gitrepo

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/temirov/leakaudit/internal/execshell"
)

const (
	gitRevParseSubcommandConstant       = "rev-parse"
	gitIsInsideWorkTreeFlagConstant     = "--is-inside-work-tree"
	gitRemoteSubcommandConstant         = "remote"
	gitRemoteVerboseFlagConstant        = "-v"
	gitBranchSubcommandConstant         = "branch"
	gitAllBranchesFlagConstant          = "--all"
	gitContainsFlagConstant             = "--contains"
	gitBranchShortNameFormatConstant    = "--format=%(refname:short)"
	gitTrueOutputConstant               = "true"
	remoteFetchDirectionSuffixConstant  = "(fetch)"
	symbolicReferenceMarkerConstant     = "->"
	notRepositoryErrorTemplateConstant  = "not a git repository: %s"
	branchLookupToleratedExitConstant   = 1
	remoteRecordMinimumFieldsConstant   = 2
	defaultPublicHostGitHubConstant     = "github.com"
	defaultPublicHostGitLabConstant     = "gitlab.com"
	defaultPublicHostBitbucketConstant  = "bitbucket.org"
	defaultPublicHostCodebergConstant   = "codeberg.org"
	defaultPublicHostSourcehutConstant  = "git.sr.ht"
	defaultPublicHostSourceforgeSuffix  = "sourceforge.net"
)

// NotRepositoryError indicates a path that does not contain a git work tree.
type NotRepositoryError struct {
	Path string
}

// Error describes the invalid repository path.
func (failure NotRepositoryError) Error() string {
	return fmt.Sprintf(notRepositoryErrorTemplateConstant, failure.Path)
}

// GitExecutor exposes the subset of shell execution used by repository lookups.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteGitTolerant(executionContext context.Context, details execshell.CommandDetails, toleratedExitCode int) (execshell.ExecutionResult, error)
}

// DefaultPublicHosts returns the built-in allow-list of public hosting providers.
func DefaultPublicHosts() []string {
	return []string{
		defaultPublicHostGitHubConstant,
		defaultPublicHostGitLabConstant,
		defaultPublicHostBitbucketConstant,
		defaultPublicHostCodebergConstant,
		defaultPublicHostSourcehutConstant,
		defaultPublicHostSourceforgeSuffix,
	}
}

// TopologyResolver answers structural questions about one repository.
type TopologyResolver struct {
	gitExecutor     GitExecutor
	repositoryPath  string
	publicHostsList []string
}

// NewTopologyResolver constructs a resolver bound to a repository path.
//
// An empty publicHosts slice falls back to DefaultPublicHosts.
func NewTopologyResolver(gitExecutor GitExecutor, repositoryPath string, publicHosts []string) *TopologyResolver {
	resolvedHosts := publicHosts
	if len(resolvedHosts) == 0 {
		resolvedHosts = DefaultPublicHosts()
	}
	return &TopologyResolver{
		gitExecutor:     gitExecutor,
		repositoryPath:  repositoryPath,
		publicHostsList: resolvedHosts,
	}
}

// ValidateRepository confirms the configured path is inside a git work tree.
func (resolver *TopologyResolver) ValidateRepository(executionContext context.Context) error {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitRevParseSubcommandConstant, gitIsInsideWorkTreeFlagConstant},
		WorkingDirectory: resolver.repositoryPath,
	}

	executionResult, executionError := resolver.gitExecutor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return NotRepositoryError{Path: resolver.repositoryPath}
	}
	if strings.TrimSpace(executionResult.StandardOutput) != gitTrueOutputConstant {
		return NotRepositoryError{Path: resolver.repositoryPath}
	}
	return nil
}

// ListRemotes returns configured remotes keyed by name.
//
// Only fetch entries are recorded; a remote with distinct push URLs still maps
// to its fetch URL because exposure is about where history was pulled from.
func (resolver *TopologyResolver) ListRemotes(executionContext context.Context) (map[string]string, error) {
	commandDetails := execshell.CommandDetails{
		Arguments:        []string{gitRemoteSubcommandConstant, gitRemoteVerboseFlagConstant},
		WorkingDirectory: resolver.repositoryPath,
	}

	executionResult, executionError := resolver.gitExecutor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return nil, executionError
	}

	remotes := map[string]string{}
	for _, remoteLine := range strings.Split(executionResult.StandardOutput, "\n") {
		trimmedLine := strings.TrimSpace(remoteLine)
		if len(trimmedLine) == 0 {
			continue
		}
		if !strings.HasSuffix(trimmedLine, remoteFetchDirectionSuffixConstant) {
			continue
		}
		remoteFields := strings.Fields(trimmedLine)
		if len(remoteFields) < remoteRecordMinimumFieldsConstant {
			continue
		}
		remotes[remoteFields[0]] = remoteFields[1]
	}
	return remotes, nil
}

// IsPublic reports whether any remote resolves to a recognized public host.
//
// Hosts are compared by exact match or dot-boundary subdomain against the
// allow-list; substring matching is deliberately avoided so spoofed URLs do
// not classify a private repository as public.
func (resolver *TopologyResolver) IsPublic(remotes map[string]string) bool {
	for _, remoteURL := range remotes {
		remoteHost, hostError := RemoteHost(remoteURL)
		if hostError != nil {
			continue
		}
		if HostMatchesAllowList(remoteHost, resolver.publicHostsList) {
			return true
		}
	}
	return false
}

// BranchesContaining returns the sorted set of branches reachable from a commit.
//
// An empty result is valid: the commit may be unreachable after pruning.
func (resolver *TopologyResolver) BranchesContaining(executionContext context.Context, commitHash string) ([]string, error) {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			gitBranchSubcommandConstant,
			gitAllBranchesFlagConstant,
			gitContainsFlagConstant,
			commitHash,
			gitBranchShortNameFormatConstant,
		},
		WorkingDirectory: resolver.repositoryPath,
	}

	executionResult, executionError := resolver.gitExecutor.ExecuteGitTolerant(executionContext, commandDetails, branchLookupToleratedExitConstant)
	if executionError != nil {
		return nil, executionError
	}

	branchSet := map[string]struct{}{}
	for _, branchLine := range strings.Split(executionResult.StandardOutput, "\n") {
		branchName := strings.TrimSpace(branchLine)
		if len(branchName) == 0 {
			continue
		}
		if strings.Contains(branchName, symbolicReferenceMarkerConstant) {
			continue
		}
		branchSet[branchName] = struct{}{}
	}

	branches := make([]string, 0, len(branchSet))
	for branchName := range branchSet {
		branches = append(branches, branchName)
	}
	sort.Strings(branches)
	return branches, nil
}
