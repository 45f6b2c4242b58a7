// Package artifacts stores binary scan artifacts such as screenshots and
// returns the URL they are served from.
package artifacts

import (
	"context"
	"fmt"
	"os"
	"path"

	"github.com/ARYAN-095/GuardianWeb/internal/shared/constants"
	"github.com/ARYAN-095/GuardianWeb/internal/shared/security"
)

// LocalURLPrefix is the path the API serves local artifacts under
const LocalURLPrefix = "/static/screenshots/"

// LocalStore writes artifacts into a directory
type LocalStore struct {
	root security.Root
}

// NewLocalStore creates the directory if needed. dir may be relative.
func NewLocalStore(dir string) (*LocalStore, error) {
	root, err := security.NewRoot(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid artifact directory: %w", err)
	}
	if err := os.MkdirAll(root.String(), constants.DefaultDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Dir returns the absolute storage directory
func (s *LocalStore) Dir() string {
	return s.root.String()
}

// Save writes data under name and returns its public URL path
func (s *LocalStore) Save(ctx context.Context, name string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || path.Base(name) != name {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	target, err := s.root.Join(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(target, data, constants.DefaultFilePerm); err != nil {
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	return LocalURLPrefix + name, nil
}
