package execshell

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"
)

const (
	commandStartedMessageConstant          = "command started"
	commandCompletedMessageConstant        = "command completed"
	commandFailedMessageConstant           = "command failed"
	logFieldCommandConstant                = "command"
	logFieldArgumentsConstant              = "arguments"
	logFieldWorkingDirectoryConstant       = "working_directory"
	logFieldExitCodeConstant               = "exit_code"
	commandFailedErrorTemplateConstant     = "%s %s failed with exit code %d%s"
	commandExecutionErrorTemplateConstant  = "%s %s could not be executed: %v"
	unsafeArgumentErrorTemplateConstant    = "argument %q contains disallowed character %q"
	standardErrorSuffixTemplateConstant    = ": %s"
	argumentsJoinSeparatorConstant         = " "
	emptyStandardErrorSuffixConstant       = ""
	disallowedArgumentCharactersConstant   = "`$;|&<>"
)

// CommandName identifies the external binary to execute.
type CommandName string

// Supported command names.
const (
	CommandGit CommandName = "git"
)

// CommandDetails captures the argument vector and execution environment for one invocation.
type CommandDetails struct {
	Arguments        []string
	WorkingDirectory string
}

// ShellCommand couples a binary name with its invocation details.
type ShellCommand struct {
	Name    CommandName
	Details CommandDetails
}

// ExecutionResult describes the observable outcome of a completed process.
type ExecutionResult struct {
	StandardOutput string
	StandardError  string
	ExitCode       int
}

// CommandRunner executes a shell command and reports its result.
type CommandRunner interface {
	Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error)
}

// Initialization sentinels returned by NewShellExecutor.
var (
	ErrLoggerNotConfigured        = errors.New("shell executor requires a logger")
	ErrCommandRunnerNotConfigured = errors.New("shell executor requires a command runner")
)

// CommandFailedError reports a process that ran to completion with a non-zero exit code.
type CommandFailedError struct {
	Command ShellCommand
	Result  ExecutionResult
}

// Error describes the failed command including trimmed standard error output.
func (failure CommandFailedError) Error() string {
	standardErrorSuffix := emptyStandardErrorSuffixConstant
	trimmedStandardError := strings.TrimSpace(failure.Result.StandardError)
	if len(trimmedStandardError) > 0 {
		standardErrorSuffix = fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
	}
	return fmt.Sprintf(
		commandFailedErrorTemplateConstant,
		failure.Command.Name,
		strings.Join(failure.Command.Details.Arguments, argumentsJoinSeparatorConstant),
		failure.Result.ExitCode,
		standardErrorSuffix,
	)
}

// CommandExecutionError reports a process that could not be started or observed.
type CommandExecutionError struct {
	Command ShellCommand
	Cause   error
}

// Error describes the execution failure.
func (failure CommandExecutionError) Error() string {
	return fmt.Sprintf(
		commandExecutionErrorTemplateConstant,
		failure.Command.Name,
		strings.Join(failure.Command.Details.Arguments, argumentsJoinSeparatorConstant),
		failure.Cause,
	)
}

// Unwrap exposes the underlying cause for errors.Is and errors.As inspection.
func (failure CommandExecutionError) Unwrap() error {
	return failure.Cause
}

// UnsafeArgumentError reports a user-influenced argument rejected before execution.
type UnsafeArgumentError struct {
	Argument  string
	Character rune
}

// Error describes the rejected argument.
func (failure UnsafeArgumentError) Error() string {
	return fmt.Sprintf(unsafeArgumentErrorTemplateConstant, failure.Argument, failure.Character)
}

// ValidateArgument rejects values containing shell metacharacters or control characters.
//
// The executor never passes arguments through a shell, so validation exists to
// keep hostile input out of the argument vector entirely rather than to quote it.
func ValidateArgument(argument string) error {
	for _, character := range argument {
		if strings.ContainsRune(disallowedArgumentCharactersConstant, character) {
			return UnsafeArgumentError{Argument: argument, Character: character}
		}
		if character != '\t' && unicode.IsControl(character) {
			return UnsafeArgumentError{Argument: argument, Character: character}
		}
	}
	return nil
}

// ShellExecutor runs external commands with structured logging around each invocation.
type ShellExecutor struct {
	logger           *zap.Logger
	commandRunner    CommandRunner
	messageFormatter CommandMessageFormatter
}

// NewShellExecutor constructs a ShellExecutor after validating its dependencies.
func NewShellExecutor(logger *zap.Logger, commandRunner CommandRunner) (*ShellExecutor, error) {
	if logger == nil {
		return nil, ErrLoggerNotConfigured
	}
	if commandRunner == nil {
		return nil, ErrCommandRunnerNotConfigured
	}
	return &ShellExecutor{
		logger:           logger,
		commandRunner:    commandRunner,
		messageFormatter: CommandMessageFormatter{},
	}, nil
}

// ExecuteGit runs the git binary with the supplied details.
func (executor *ShellExecutor) ExecuteGit(executionContext context.Context, details CommandDetails) (ExecutionResult, error) {
	return executor.execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
}

// ExecuteGitTolerant runs git and treats the supplied exit code as an empty success.
//
// Several git subcommands signal "no results" through exit code 1 (grep, log
// pickaxe on pruned refs); callers that expect that behavior opt in here.
func (executor *ShellExecutor) ExecuteGitTolerant(executionContext context.Context, details CommandDetails, toleratedExitCode int) (ExecutionResult, error) {
	executionResult, executionError := executor.execute(executionContext, ShellCommand{Name: CommandGit, Details: details})
	if executionError == nil {
		return executionResult, nil
	}

	commandFailure := CommandFailedError{}
	if errors.As(executionError, &commandFailure) && commandFailure.Result.ExitCode == toleratedExitCode {
		return commandFailure.Result, nil
	}
	return executionResult, executionError
}

func (executor *ShellExecutor) execute(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	executor.logger.Debug(
		commandStartedMessageConstant,
		zap.String(logFieldCommandConstant, executor.messageFormatter.BuildStartedMessage(command)),
		zap.Strings(logFieldArgumentsConstant, command.Details.Arguments),
		zap.String(logFieldWorkingDirectoryConstant, command.Details.WorkingDirectory),
	)

	executionResult, runError := executor.commandRunner.Run(executionContext, command)
	if runError != nil {
		executionFailure := CommandExecutionError{Command: command, Cause: runError}
		executor.logger.Debug(
			commandFailedMessageConstant,
			zap.String(logFieldCommandConstant, executor.messageFormatter.BuildExecutionFailureMessage(command, runError)),
		)
		return ExecutionResult{}, executionFailure
	}

	if executionResult.ExitCode != 0 {
		executor.logger.Debug(
			commandFailedMessageConstant,
			zap.String(logFieldCommandConstant, executor.messageFormatter.BuildFailureMessage(command, executionResult)),
			zap.Int(logFieldExitCodeConstant, executionResult.ExitCode),
		)
		return ExecutionResult{}, CommandFailedError{Command: command, Result: executionResult}
	}

	executor.logger.Debug(
		commandCompletedMessageConstant,
		zap.String(logFieldCommandConstant, executor.messageFormatter.BuildSuccessMessage(command)),
	)
	return executionResult, nil
}
