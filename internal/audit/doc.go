// Package audit composes the secret-leak audit pipeline and owns the
// externally visible request/response contract.
//
// One audit runs as a strict sequential pipeline: repository validation,
// remote enumeration and public classification, bounded history scan,
// per-occurrence metadata and branch lookups, timeline fold, severity
// classification, remediation planning. Batch requests isolate per-secret
// failures so one broken scan never blanks the rest of the report.
package audit
