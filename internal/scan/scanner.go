package scan

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/temirov/leakaudit/internal/execshell"
)

const (
	gitLogSubcommandConstant              = "log"
	gitAllRefsFlagConstant                = "--all"
	gitHashOnlyFormatFlagConstant         = "--format=%H"
	gitMaxCountFlagTemplateConstant       = "--max-count=%d"
	gitDiffTreeSubcommandConstant         = "diff-tree"
	gitRootFlagConstant                   = "--root"
	gitMergeParentsFlagConstant           = "-m"
	gitRecursiveFlagConstant              = "-r"
	gitNoCommitIDFlagConstant             = "--no-commit-id"
	gitNameOnlyFlagConstant               = "--name-only"
	gitFindRenamesFlagConstant            = "--find-renames"
	gitShowSubcommandConstant             = "show"
	gitGrepSubcommandConstant             = "grep"
	gitLineNumberFlagConstant             = "-n"
	gitHeadReferenceConstant              = "HEAD"
	gitPathspecSeparatorConstant          = "--"
	commitPathSpecTemplateConstant        = "%s:%s"
	missingFileToleratedExitConstant      = 128
	headGrepToleratedExitConstant         = 1
	binarySniffWindowBytesConstant        = 8000
	binaryNonTextRatioThresholdConstant   = 0.30
	redactedPlaceholderConstant           = "***REDACTED***"
	redactedTextMaximumRunesConstant      = 100
	scanStepErrorTemplateConstant         = "%s failed while scanning %s: %v"
	scanCancelledErrorTemplateConstant    = "scan of %s interrupted: %w"
	candidateListStepNameConstant         = "candidate commit listing"
	changedFilesStepNameConstant          = "changed file listing"
	headLookupStepNameConstant            = "head presence lookup"
)

// Occurrence is one redacted sighting of the secret at a file and line within
// a commit. Metadata for the commit hash is resolved downstream.
type Occurrence struct {
	CommitHash   string
	FilePath     string
	LineNumber   int
	RedactedText string
}

// Result carries every occurrence found inside the bounded window and whether
// the window was capped before history was exhausted.
type Result struct {
	Occurrences []Occurrence
	Truncated   bool
}

// StepError identifies which scan step failed so callers can name it in
// human-readable output.
type StepError struct {
	Step       string
	SecretName string
	Cause      error
}

// Error describes the failing step and the underlying cause.
func (stepError StepError) Error() string {
	return fmt.Sprintf(scanStepErrorTemplateConstant, stepError.Step, stepError.SecretName, stepError.Cause)
}

// Unwrap exposes the underlying cause.
func (stepError StepError) Unwrap() error {
	return stepError.Cause
}

// GitExecutor exposes the subset of shell execution the scanner relies on.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
	ExecuteGitTolerant(executionContext context.Context, details execshell.CommandDetails, toleratedExitCode int) (execshell.ExecutionResult, error)
}

// Scanner performs the bounded history walk for one repository.
type Scanner struct {
	gitExecutor    GitExecutor
	repositoryPath string
	maximumCommits int
}

// NewScanner constructs a scanner bound to a repository path with a commit cap.
func NewScanner(gitExecutor GitExecutor, repositoryPath string, maximumCommits int) *Scanner {
	return &Scanner{
		gitExecutor:    gitExecutor,
		repositoryPath: repositoryPath,
		maximumCommits: maximumCommits,
	}
}

// Scan walks candidate commits for the query and yields every matching line
// in every changed text file. Binary files are skipped silently. The context
// is polled between per-commit iterations so a cancelled audit stops without
// finishing the window.
func (scanner *Scanner) Scan(executionContext context.Context, query SearchQuery) (Result, error) {
	candidateHashes, listError := scanner.listCandidateCommits(executionContext, query)
	if listError != nil {
		return Result{}, StepError{Step: candidateListStepNameConstant, SecretName: query.SecretName(), Cause: listError}
	}

	scanResult := Result{Truncated: len(candidateHashes) == scanner.maximumCommits && scanner.maximumCommits > 0}

	for _, commitHash := range candidateHashes {
		if contextError := executionContext.Err(); contextError != nil {
			return Result{}, fmt.Errorf(scanCancelledErrorTemplateConstant, query.SecretName(), contextError)
		}

		changedFiles, filesError := scanner.listChangedFiles(executionContext, commitHash)
		if filesError != nil {
			return Result{}, StepError{Step: changedFilesStepNameConstant, SecretName: query.SecretName(), Cause: filesError}
		}

		for _, filePath := range changedFiles {
			fileContent, contentAvailable := scanner.fileContentAtCommit(executionContext, commitHash, filePath)
			if !contentAvailable {
				continue
			}
			if isBinaryContent(fileContent) {
				continue
			}
			for lineIndex, fileLine := range strings.Split(fileContent, "\n") {
				if !query.MatchesLine(fileLine) {
					continue
				}
				scanResult.Occurrences = append(scanResult.Occurrences, Occurrence{
					CommitHash:   commitHash,
					FilePath:     filePath,
					LineNumber:   lineIndex + 1,
					RedactedText: redactMatchedLine(fileLine, query),
				})
			}
		}
	}

	return scanResult, nil
}

// PresentAtHead reports whether the query matches current tip content. This is
// a point lookup, deliberately separate from the history walk: a secret can be
// absent at head while present in history.
func (scanner *Scanner) PresentAtHead(executionContext context.Context, query SearchQuery) (bool, error) {
	grepArguments := append([]string{gitGrepSubcommandConstant, gitLineNumberFlagConstant}, query.GrepArguments()...)
	grepArguments = append(grepArguments, gitHeadReferenceConstant, gitPathspecSeparatorConstant)

	commandDetails := execshell.CommandDetails{
		Arguments:        grepArguments,
		WorkingDirectory: scanner.repositoryPath,
	}

	executionResult, executionError := scanner.gitExecutor.ExecuteGitTolerant(executionContext, commandDetails, headGrepToleratedExitConstant)
	if executionError != nil {
		return false, StepError{Step: headLookupStepNameConstant, SecretName: query.SecretName(), Cause: executionError}
	}
	return len(strings.TrimSpace(executionResult.StandardOutput)) > 0, nil
}

func (scanner *Scanner) listCandidateCommits(executionContext context.Context, query SearchQuery) ([]string, error) {
	logArguments := []string{
		gitLogSubcommandConstant,
		gitAllRefsFlagConstant,
		gitHashOnlyFormatFlagConstant,
		fmt.Sprintf(gitMaxCountFlagTemplateConstant, scanner.maximumCommits),
		query.LogSelectionArgument(),
	}

	commandDetails := execshell.CommandDetails{
		Arguments:        logArguments,
		WorkingDirectory: scanner.repositoryPath,
	}

	executionResult, executionError := scanner.gitExecutor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return nil, executionError
	}

	candidateHashes := []string{}
	for _, outputLine := range strings.Split(executionResult.StandardOutput, "\n") {
		commitHash := strings.TrimSpace(outputLine)
		if len(commitHash) > 0 {
			candidateHashes = append(candidateHashes, commitHash)
		}
	}
	return candidateHashes, nil
}

func (scanner *Scanner) listChangedFiles(executionContext context.Context, commitHash string) ([]string, error) {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			gitDiffTreeSubcommandConstant,
			gitRootFlagConstant,
			gitMergeParentsFlagConstant,
			gitRecursiveFlagConstant,
			gitNoCommitIDFlagConstant,
			gitNameOnlyFlagConstant,
			gitFindRenamesFlagConstant,
			commitHash,
		},
		WorkingDirectory: scanner.repositoryPath,
	}

	executionResult, executionError := scanner.gitExecutor.ExecuteGit(executionContext, commandDetails)
	if executionError != nil {
		return nil, executionError
	}

	fileSet := map[string]struct{}{}
	for _, outputLine := range strings.Split(executionResult.StandardOutput, "\n") {
		filePath := strings.TrimSpace(outputLine)
		if len(filePath) > 0 {
			fileSet[filePath] = struct{}{}
		}
	}

	changedFiles := make([]string, 0, len(fileSet))
	for filePath := range fileSet {
		changedFiles = append(changedFiles, filePath)
	}
	sort.Strings(changedFiles)
	return changedFiles, nil
}

// fileContentAtCommit returns the file's content at the commit, or false when
// the path does not exist there (deleted or renamed away); absence is not an
// error.
func (scanner *Scanner) fileContentAtCommit(executionContext context.Context, commitHash string, filePath string) (string, bool) {
	commandDetails := execshell.CommandDetails{
		Arguments: []string{
			gitShowSubcommandConstant,
			fmt.Sprintf(commitPathSpecTemplateConstant, commitHash, filePath),
		},
		WorkingDirectory: scanner.repositoryPath,
	}

	executionResult, executionError := scanner.gitExecutor.ExecuteGitTolerant(executionContext, commandDetails, missingFileToleratedExitConstant)
	if executionError != nil {
		return "", false
	}
	if executionResult.ExitCode != 0 {
		return "", false
	}
	return executionResult.StandardOutput, true
}

func isBinaryContent(content string) bool {
	sniffWindow := content
	if len(sniffWindow) > binarySniffWindowBytesConstant {
		sniffWindow = sniffWindow[:binarySniffWindowBytesConstant]
	}
	if strings.ContainsRune(sniffWindow, 0) {
		return true
	}
	if len(sniffWindow) == 0 {
		return false
	}

	nonTextCount := 0
	for _, contentByte := range []byte(sniffWindow) {
		if contentByte < 0x07 || (contentByte > 0x0D && contentByte < 0x20 && contentByte != 0x1B) {
			nonTextCount++
		}
	}
	return float64(nonTextCount)/float64(len(sniffWindow)) > binaryNonTextRatioThresholdConstant
}

// redactMatchedLine replaces the sensitive portion of a matched line with a
// placeholder and trims the result to a bounded rune count.
func redactMatchedLine(matchedLine string, query SearchQuery) string {
	redactedLine := matchedLine
	if query.IsValueBound() {
		redactedLine = strings.ReplaceAll(matchedLine, query.exactValue, redactedPlaceholderConstant)
	} else if matchLocation := query.lineExpression.FindStringIndex(matchedLine); matchLocation != nil {
		redactedLine = matchedLine[:matchLocation[1]] + redactedPlaceholderConstant
	}

	redactedLine = strings.TrimSpace(redactedLine)
	if utf8.RuneCountInString(redactedLine) <= redactedTextMaximumRunesConstant {
		return redactedLine
	}
	lineRunes := []rune(redactedLine)
	return string(lineRunes[:redactedTextMaximumRunesConstant])
}
