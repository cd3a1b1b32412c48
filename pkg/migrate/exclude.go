package migrate

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// matchAny reports whether name matches any of the doublestar patterns.
// Patterns without a separator also match against the base name, so
// "build.rs" excludes every build script in the workspace.
func matchAny(patterns []string, name string) bool {
	name = filepath.ToSlash(name)
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
		if strings.Contains(pattern, "/") {
			continue
		}
		if ok, _ := doublestar.Match(pattern, path.Base(name)); ok {
			return true
		}
	}
	return false
}

func validatePatterns(patterns []string) error {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	return nil
}
