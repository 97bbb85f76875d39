package observer

import (
	"path/filepath"
	"strings"
)

// matchesAny reports whether rel (workspace-relative, slash-separated)
// matches any of the given glob patterns. A pattern containing "**" treats
// it as "any number of path segments", since filepath.Match alone does not
// cross separators.
func matchesAny(patterns []string, rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, p := range patterns {
		if matchesOne(filepath.ToSlash(p), rel) {
			return true
		}
	}
	return false
}

func matchesOne(pattern, rel string) bool {
	if !strings.Contains(pattern, "**") {
		if ok, _ := filepath.Match(pattern, rel); ok {
			return true
		}
		ok, _ := filepath.Match(pattern, filepath.Base(rel))
		return ok
	}

	parts := strings.SplitN(pattern, "**", 2)
	prefix := strings.TrimSuffix(parts[0], "/")
	suffix := strings.TrimPrefix(parts[1], "/")

	if prefix != "" && !strings.HasPrefix(rel, prefix) {
		return false
	}
	remainder := strings.TrimPrefix(rel, prefix)
	remainder = strings.TrimPrefix(remainder, "/")

	if suffix == "" {
		return true
	}
	if ok, _ := filepath.Match(suffix, remainder); ok {
		return true
	}
	ok, _ := filepath.Match(suffix, filepath.Base(remainder))
	return ok
}
