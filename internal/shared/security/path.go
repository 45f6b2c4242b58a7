// Package security confines file access to a storage root
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscape is returned when a path resolves outside its storage root
var ErrPathEscape = errors.New("path escapes storage root")

// Root is an absolute, cleaned storage directory. Relative directories such
// as "../scans" are resolved once against the working directory, so later
// joins and containment checks never depend on how the directory was spelled.
type Root string

// NewRoot resolves dir to an absolute storage root
func NewRoot(dir string) (Root, error) {
	if dir == "" {
		return "", errors.New("storage directory is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve storage directory: %w", err)
	}
	if abs == filepath.VolumeName(abs)+string(os.PathSeparator) {
		return "", fmt.Errorf("refusing to use filesystem root %q as storage directory", abs)
	}
	return Root(abs), nil
}

// String returns the absolute directory
func (r Root) String() string {
	return string(r)
}

// Join resolves elems under the root
func (r Root) Join(elems ...string) (string, error) {
	target := filepath.Join(append([]string{string(r)}, elems...)...)
	if !r.Contains(target) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, target)
	}
	return target, nil
}

// Contains reports whether path lies strictly inside the root. Relative
// paths are resolved against the working directory first.
func (r Root) Contains(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(string(r), abs)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(os.PathSeparator))
}
