// internal/covers/store.go
package covers

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Store keeps book cover images. The catalog only ever holds the reference
// string a Store hands back.
type Store interface {
	Save(ctx context.Context, filename string, r io.Reader) (ref string, err error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
	Remove(ctx context.Context, ref string) error
}

// DiskStore is the local-filesystem implementation used by the single-binary
// deployment.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create cover dir: %w", err)
	}
	return &DiskStore{root: root}, nil
}

// Save writes the image under a fresh name, keeping the original extension.
func (s *DiskStore) Save(_ context.Context, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	ref := uuid.NewString() + ext

	f, err := os.Create(filepath.Join(s.root, ref))
	if err != nil {
		return "", fmt.Errorf("create cover file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("write cover file: %w", err)
	}
	return ref, nil
}

func (s *DiskStore) Open(_ context.Context, ref string) (io.ReadCloser, error) {
	// Refs are generated names; reject anything trying to climb out.
	if ref != filepath.Base(ref) {
		return nil, fmt.Errorf("invalid cover reference %q", ref)
	}
	f, err := os.Open(filepath.Join(s.root, ref))
	if err != nil {
		return nil, fmt.Errorf("open cover %q: %w", ref, err)
	}
	return f, nil
}

func (s *DiskStore) Remove(_ context.Context, ref string) error {
	if ref != filepath.Base(ref) {
		return fmt.Errorf("invalid cover reference %q", ref)
	}
	if err := os.Remove(filepath.Join(s.root, ref)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cover %q: %w", ref, err)
	}
	return nil
}
