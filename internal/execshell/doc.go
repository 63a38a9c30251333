// Package execshell provides structured helpers for invoking the git binary.
//
// It wraps os/exec with zap lifecycle logging via ShellExecutor, exposes
// OSCommandRunner for default process execution, and validates user-influenced
// arguments before they enter the argument vector so the audit engine can run
// git in a testable, injection-safe manner.
package execshell
