// Package workspace guards the working tree the migration rewrites.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultVCSMarker is the metadata directory whose presence marks a tree
// under version control.
const DefaultVCSMarker = ".git"

// ErrNoVCS is returned when the working directory is not under version control.
var ErrNoVCS = errors.New("no version control metadata found")

// RequireVCS reports ErrNoVCS unless dir contains marker. Rewrites are not
// backed up, so reverting a bad run relies on version control.
func RequireVCS(dir, marker string) error {
	if marker == "" {
		marker = DefaultVCSMarker
	}
	path := filepath.Join(dir, marker)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, ErrNoVCS)
		}
		return fmt.Errorf("checking %s: %w", path, err)
	}
	return nil
}
