package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	messageStandardErrorSuffixTemplate      = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
)

const (
	gitRevParseSubcommandNameConstant = "rev-parse"
	gitRemoteSubcommandNameConstant   = "remote"
	gitLogSubcommandNameConstant      = "log"
	gitShowSubcommandNameConstant     = "show"
	gitDiffTreeSubcommandNameConstant = "diff-tree"
	gitBranchSubcommandNameConstant   = "branch"
	gitGrepSubcommandNameConstant     = "grep"
	gitWorkTreeFlagConstant           = "--is-inside-work-tree"
	gitContainsFlagConstant           = "--contains"
	gitVerboseFlagConstant            = "-v"
)

const (
	gitWorkTreeStartTemplateConstant            = "Analyzing repository at %s"
	gitWorkTreeSuccessTemplateConstant          = "%s is a Git repository"
	gitWorkTreeFailureTemplateConstant          = "Could not confirm %s is a Git repository (exit code %d%s)"
	gitWorkTreeExecutionFailureTemplateConstant = "Could not analyze %s: %s"
	gitRemoteListStartTemplateConstant          = "Listing remotes for %s"
	gitRemoteListSuccessTemplateConstant        = "Listed remotes for %s"
	gitRemoteListFailureTemplateConstant        = "Failed to list remotes for %s (exit code %d%s)"
	gitRemoteListExecutionFailureTemplate       = "Unable to list remotes for %s: %s"
	gitLogSearchStartTemplateConstant           = "Searching commit history in %s"
	gitLogSearchSuccessTemplateConstant         = "Searched commit history in %s"
	gitLogSearchFailureTemplateConstant         = "Failed to search commit history in %s (exit code %d%s)"
	gitLogSearchExecutionFailureTemplate        = "Unable to search commit history in %s: %s"
	gitShowStartTemplateConstant                = "Reading %s in %s"
	gitShowSuccessTemplateConstant              = "Read %s in %s"
	gitShowFailureTemplateConstant              = "Failed to read %s in %s (exit code %d%s)"
	gitShowExecutionFailureTemplateConstant     = "Unable to read %s in %s: %s"
	gitDiffTreeStartTemplateConstant            = "Listing changed files for %s in %s"
	gitDiffTreeSuccessTemplateConstant          = "Listed changed files for %s in %s"
	gitDiffTreeFailureTemplateConstant          = "Failed to list changed files for %s in %s (exit code %d%s)"
	gitDiffTreeExecutionFailureTemplate         = "Unable to list changed files for %s in %s: %s"
	gitBranchContainsStartTemplateConstant      = "Resolving branches containing %s in %s"
	gitBranchContainsSuccessTemplateConstant    = "Resolved branches containing %s in %s"
	gitBranchContainsFailureTemplateConstant    = "Failed to resolve branches containing %s in %s (exit code %d%s)"
	gitBranchContainsExecutionFailureTemplate   = "Unable to resolve branches containing %s in %s: %s"
	gitGrepStartTemplateConstant                = "Inspecting current tip content in %s"
	gitGrepSuccessTemplateConstant              = "Inspected current tip content in %s"
	gitGrepFailureTemplateConstant              = "Failed to inspect current tip content in %s (exit code %d%s)"
	gitGrepExecutionFailureTemplateConstant     = "Unable to inspect current tip content in %s: %s"
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	subcommand := strings.TrimSpace(command.Details.Arguments[0])
	switch subcommand {
	case gitRevParseSubcommandNameConstant:
		return formatter.describeGitRevParseMessage(command, result, failure, stage)
	case gitRemoteSubcommandNameConstant:
		return formatter.describeGitRemoteMessage(command, result, failure, stage)
	case gitLogSubcommandNameConstant:
		return formatter.describeSubjectlessMessage(command, result, failure, stage, gitLogSearchStartTemplateConstant, gitLogSearchSuccessTemplateConstant, gitLogSearchFailureTemplateConstant, gitLogSearchExecutionFailureTemplate)
	case gitShowSubcommandNameConstant:
		return formatter.describeGitShowMessage(command, result, failure, stage)
	case gitDiffTreeSubcommandNameConstant:
		return formatter.describeSubjectMessage(command, result, failure, stage, gitDiffTreeStartTemplateConstant, gitDiffTreeSuccessTemplateConstant, gitDiffTreeFailureTemplateConstant, gitDiffTreeExecutionFailureTemplate)
	case gitBranchSubcommandNameConstant:
		return formatter.describeGitBranchMessage(command, result, failure, stage)
	case gitGrepSubcommandNameConstant:
		return formatter.describeSubjectlessMessage(command, result, failure, stage, gitGrepStartTemplateConstant, gitGrepSuccessTemplateConstant, gitGrepFailureTemplateConstant, gitGrepExecutionFailureTemplateConstant)
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeGitRevParseMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if containsArgument(command.Details.Arguments, gitWorkTreeFlagConstant) {
		return formatter.describeSubjectlessMessage(command, result, failure, stage, gitWorkTreeStartTemplateConstant, gitWorkTreeSuccessTemplateConstant, gitWorkTreeFailureTemplateConstant, gitWorkTreeExecutionFailureTemplateConstant)
	}
	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitRemoteMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if containsArgument(command.Details.Arguments, gitVerboseFlagConstant) {
		return formatter.describeSubjectlessMessage(command, result, failure, stage, gitRemoteListStartTemplateConstant, gitRemoteListSuccessTemplateConstant, gitRemoteListFailureTemplateConstant, gitRemoteListExecutionFailureTemplate)
	}
	return formatter.buildGenericMessage(command, result, failure, stage)
}

func (formatter CommandMessageFormatter) describeGitShowMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	return formatter.describeSubjectMessage(command, result, failure, stage, gitShowStartTemplateConstant, gitShowSuccessTemplateConstant, gitShowFailureTemplateConstant, gitShowExecutionFailureTemplateConstant)
}

func (formatter CommandMessageFormatter) describeGitBranchMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if !containsArgument(command.Details.Arguments, gitContainsFlagConstant) {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
	reference := formatter.ensureValue(formatter.argumentAfterFlag(command.Details.Arguments, gitContainsFlagConstant))
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(gitBranchContainsStartTemplateConstant, reference, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(gitBranchContainsSuccessTemplateConstant, reference, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(gitBranchContainsFailureTemplateConstant, reference, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(gitBranchContainsExecutionFailureTemplate, reference, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeSubjectlessMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage, startTemplate string, successTemplate string, failureTemplate string, executionFailureTemplate string) string {
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplate, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplate, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(executionFailureTemplate, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) describeSubjectMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage, startTemplate string, successTemplate string, failureTemplate string, executionFailureTemplate string) string {
	subject := formatter.ensureValue(formatter.lastNonFlagArgument(command.Details.Arguments[1:]))
	workingDirectory := formatter.describeWorkingDirectory(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(startTemplate, subject, workingDirectory)
	case messageStageSuccess:
		return fmt.Sprintf(successTemplate, subject, workingDirectory)
	case messageStageFailure:
		return fmt.Sprintf(failureTemplate, subject, workingDirectory, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(executionFailureTemplate, subject, workingDirectory, formatter.describeFailure(failure))
	default:
		return formatter.buildGenericMessage(command, result, failure, stage)
	}
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf("%s %s", commandLabel, strings.Join(command.Details.Arguments, argumentsJoinSeparatorConstant))
	}
	workingDirectorySuffix := emptyStringConstant
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) > 0 {
		workingDirectorySuffix = fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, workingDirectorySuffix)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(messageStandardErrorSuffixTemplate, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func (formatter CommandMessageFormatter) argumentAfterFlag(arguments []string, flag string) string {
	for argumentIndex := 0; argumentIndex < len(arguments); argumentIndex++ {
		if strings.TrimSpace(arguments[argumentIndex]) == flag && argumentIndex+1 < len(arguments) {
			return arguments[argumentIndex+1]
		}
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) lastNonFlagArgument(arguments []string) string {
	for argumentIndex := len(arguments) - 1; argumentIndex >= 0; argumentIndex-- {
		trimmed := strings.TrimSpace(arguments[argumentIndex])
		if len(trimmed) == 0 {
			continue
		}
		if strings.HasPrefix(trimmed, "-") {
			continue
		}
		return trimmed
	}
	return emptyStringConstant
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}
