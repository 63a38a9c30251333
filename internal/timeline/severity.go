package timeline

// Classify assigns a severity tier to a non-clean timeline and returns the
// updated copy. Clean timelines pass through without a tier.
//
// The decision table is ordered; the first matching rule wins:
//  1. public repository with any affected commit → CRITICAL
//  2. still present at head → HIGH
//  3. everything else (leaked, absent at head, private) → MEDIUM
//
// MEDIUM is the floor for any confirmed leak: even a single-commit exposure
// that was already removed still means the value circulated in history.
// SeverityLow is reserved for advisory remediation steps.
func Classify(secretTimeline SecretTimeline) SecretTimeline {
	if secretTimeline.IsClean() {
		return secretTimeline
	}

	switch {
	case secretTimeline.IsPublicRepository:
		secretTimeline.Severity = SeverityCritical
	case secretTimeline.StillPresentAtHead:
		secretTimeline.Severity = SeverityHigh
	default:
		secretTimeline.Severity = SeverityMedium
	}
	return secretTimeline
}
