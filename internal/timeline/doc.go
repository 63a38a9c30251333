// Package timeline folds scanner occurrences into an exposure timeline and
// classifies its severity.
//
// Aggregation is a pure fold: occurrences are deduplicated on their
// (commit, file, line) identity and re-sorted by commit timestamp before any
// derived metric is computed, so repeated audits of an unchanged repository
// produce identical timelines.
package timeline
