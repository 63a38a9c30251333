package gitrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/temirov/leakaudit/internal/execshell"
)

const (
	gitShowSubcommandConstant            = "show"
	gitNoPatchFlagConstant               = "--no-patch"
	commitRecordFormatFlagConstant       = "--format=%H%x1f%h%x1f%an%x1f%ae%x1f%aI%x1f%P%x1f%s"
	commitRecordFieldSeparatorConstant   = "\x1f"
	commitRecordFieldCountConstant       = 7
	commitRecordHashFieldIndexConstant   = 0
	commitRecordShortFieldIndexConstant  = 1
	commitRecordAuthorFieldIndexConstant = 2
	commitRecordEmailFieldIndexConstant  = 3
	commitRecordTimeFieldIndexConstant   = 4
	commitRecordParentFieldIndexConstant = 5
	commitRecordSubjectFieldIndex        = 6
	commitLookupErrorTemplateConstant    = "unable to resolve commit %s: %w"
	commitRecordErrorTemplateConstant    = "malformed commit record for %s"
	commitTimestampErrorTemplateConstant = "unparseable author timestamp for %s: %w"
)

// CommitRef captures immutable metadata about one commit.
type CommitRef struct {
	Hash         string
	ShortHash    string
	AuthorName   string
	AuthorEmail  string
	Timestamp    time.Time
	Subject      string
	ParentHashes []string
}

// IsMerge reports whether the commit has more than one parent.
func (reference CommitRef) IsMerge() bool {
	return len(reference.ParentHashes) > 1
}

// CommitResolver resolves commit metadata with a per-run cache.
//
// The resolver is not safe for concurrent use; each audit run owns its own
// instance for the lifetime of the run only.
type CommitResolver struct {
	gitExecutor    GitExecutor
	repositoryPath string
	cache          map[string]CommitRef
}

// NewCommitResolver constructs a resolver bound to a repository path.
func NewCommitResolver(gitExecutor GitExecutor, repositoryPath string) *CommitResolver {
	return &CommitResolver{
		gitExecutor:    gitExecutor,
		repositoryPath: repositoryPath,
		cache:          map[string]CommitRef{},
	}
}

// Get resolves the metadata for a commit hash, consulting the cache first.
//
// The record is requested in a unit-separator-delimited machine format with
// the subject field last, so commit subjects containing arbitrary characters
// cannot shift the earlier fields.
func (resolver *CommitResolver) Get(executionContext context.Context, commitHash string) (CommitRef, error) {
	if cachedReference, cacheHit := resolver.cache[commitHash]; cacheHit {
		return cachedReference, nil
	}

	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			gitShowSubcommandConstant,
			gitNoPatchFlagConstant,
			commitRecordFormatFlagConstant,
			commitHash,
		},
		WorkingDirectory: resolver.repositoryPath,
	}

	executionResult, executionError := resolver.gitExecutor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return CommitRef{}, fmt.Errorf(commitLookupErrorTemplateConstant, commitHash, executionError)
	}

	commitReference, parseError := parseCommitRecord(commitHash, executionResult.StandardOutput)
	if parseError != nil {
		return CommitRef{}, parseError
	}

	resolver.cache[commitHash] = commitReference
	return commitReference, nil
}

func parseCommitRecord(requestedHash string, rawRecord string) (CommitRef, error) {
	trimmedRecord := strings.TrimRight(rawRecord, "\n")
	recordFields := strings.SplitN(trimmedRecord, commitRecordFieldSeparatorConstant, commitRecordFieldCountConstant)
	if len(recordFields) != commitRecordFieldCountConstant {
		return CommitRef{}, fmt.Errorf(commitRecordErrorTemplateConstant, requestedHash)
	}

	authorTimestamp, timestampError := time.Parse(time.RFC3339, strings.TrimSpace(recordFields[commitRecordTimeFieldIndexConstant]))
	if timestampError != nil {
		return CommitRef{}, fmt.Errorf(commitTimestampErrorTemplateConstant, requestedHash, timestampError)
	}

	return CommitRef{
		Hash:         strings.TrimSpace(recordFields[commitRecordHashFieldIndexConstant]),
		ShortHash:    strings.TrimSpace(recordFields[commitRecordShortFieldIndexConstant]),
		AuthorName:   recordFields[commitRecordAuthorFieldIndexConstant],
		AuthorEmail:  recordFields[commitRecordEmailFieldIndexConstant],
		Timestamp:    authorTimestamp,
		Subject:      recordFields[commitRecordSubjectFieldIndex],
		ParentHashes: strings.Fields(recordFields[commitRecordParentFieldIndexConstant]),
	}, nil
}
