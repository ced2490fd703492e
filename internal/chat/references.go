package chat

import (
	"strings"

	"github.com/docsage/docsage/internal/backend"
)

// uniqueBasenames reduces raw backend references to distinct display names.
//
// Each reference's source path is cut at the last separator, accepting both
// forward and back slashes since the backend echoes paths from whatever
// filesystem ingested the document. Order is first appearance in the input;
// duplicates collapse to one entry via a set-backed membership check.
func uniqueBasenames(refs []backend.Reference) []string {
	seen := make(map[string]struct{}, len(refs))
	names := make([]string, 0, len(refs))

	for _, ref := range refs {
		name := basename(ref.Source)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	return names
}

// basename returns the final segment of a path using either separator.
func basename(path string) string {
	if i := strings.LastIndexAny(path, `/\`); i >= 0 {
		return path[i+1:]
	}
	return path
}
