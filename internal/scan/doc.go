// Package scan walks bounded git history looking for secret occurrences.
//
// A SearchQuery selects between permissive name-bound matching and exact
// value-bound matching. The Scanner asks git for candidate commits, inspects
// each commit's changed text files, skips binary content, and yields redacted
// per-line occurrences along with a truncation flag and a head-presence
// point lookup.
package scan
