package pathutils

import (
	"path/filepath"
	"strings"
)

const currentDirectoryPathConstant = "."

// RepositoryPathResolver normalizes the repository path supplied to the audit
// command.
type RepositoryPathResolver struct {
	homeExpander *HomeExpander
}

// NewRepositoryPathResolver constructs a resolver with the default home
// expansion behavior.
func NewRepositoryPathResolver() *RepositoryPathResolver {
	return NewRepositoryPathResolverWithExpander(nil)
}

// NewRepositoryPathResolverWithExpander constructs a resolver using the
// provided expander.
func NewRepositoryPathResolverWithExpander(homeExpander *HomeExpander) *RepositoryPathResolver {
	resolvedExpander := homeExpander
	if resolvedExpander == nil {
		resolvedExpander = NewHomeExpander()
	}
	return &RepositoryPathResolver{homeExpander: resolvedExpander}
}

// Resolve trims whitespace, expands a leading tilde, and cleans the path. An
// empty input resolves to the current directory.
func (resolver *RepositoryPathResolver) Resolve(candidatePath string) string {
	trimmedPath := strings.TrimSpace(candidatePath)
	if len(trimmedPath) == 0 {
		return currentDirectoryPathConstant
	}

	expandedPath := resolver.homeExpander.Expand(trimmedPath)
	return filepath.Clean(expandedPath)
}
