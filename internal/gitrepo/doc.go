// Package gitrepo contains helpers for interrogating Git repositories.
//
// It exposes TopologyResolver for validating repositories, enumerating
// remotes, classifying public hosting, and resolving branch membership, along
// with CommitResolver for cached commit metadata lookups consumed by the
// audit pipeline.
package gitrepo
