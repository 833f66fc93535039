package attachments

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps attachments under a directory on disk.
type LocalStore struct {
	root string
}

// NewLocalStore creates the root directory if needed.
func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		return nil, fmt.Errorf("attachment directory is required")
	}
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("failed to create attachment directory: %w", err)
	}
	return &LocalStore{root: root}, nil
}

// Put writes data and returns its absolute path.
func (s *LocalStore) Put(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := validateKey(key); err != nil {
		return "", err
	}

	target := filepath.Join(s.root, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return "", fmt.Errorf("failed to create attachment directory: %w", err)
	}
	if err := os.WriteFile(target, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write attachment: %w", err)
	}

	abs, err := filepath.Abs(target)
	if err != nil {
		return target, nil
	}
	return abs, nil
}

// Get reads an attachment previously returned by Put.
func (s *LocalStore) Get(ctx context.Context, location string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root, err := filepath.Abs(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve attachment directory: %w", err)
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve attachment path: %w", err)
	}
	if !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return nil, fmt.Errorf("attachment %q is outside %s", location, s.root)
	}

	data, err := os.ReadFile(abs) // #nosec G304 -- path is confined to the store root
	if err != nil {
		return nil, fmt.Errorf("failed to read attachment: %w", err)
	}
	return data, nil
}
