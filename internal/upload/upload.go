// AngelaMos | 2026
// upload.go

package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/angelamos/shelfmark/internal/core"
)

// Asset is the stored representation of an uploaded file.
type Asset struct {
	ID  string
	URL string
}

// Store persists uploaded files. The disk implementation below is the only
// one wired in; swapping in an object-store implementation is a matter of
// satisfying this interface.
type Store interface {
	Save(ctx context.Context, contentType string, r io.Reader) (*Asset, error)
	Remove(ctx context.Context, id string) error
}

var extByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// AllowedImageType reports whether the content type is an accepted avatar
// format.
func AllowedImageType(contentType string) bool {
	_, ok := extByContentType[contentType]
	return ok
}

type DiskStore struct {
	dir      string
	maxBytes int64
}

func NewDiskStore(dir string, maxBytes int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &DiskStore{dir: dir, maxBytes: maxBytes}, nil
}

func (s *DiskStore) Save(
	ctx context.Context,
	contentType string,
	r io.Reader,
) (*Asset, error) {
	ext, ok := extByContentType[contentType]
	if !ok {
		return nil, fmt.Errorf("save upload: unsupported content type %q: %w",
			contentType, core.ErrInvalidInput)
	}

	id := uuid.New().String()
	name := id + ext
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}

	written, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		//nolint:errcheck // best-effort cleanup of the partial file
		_ = os.Remove(path)
		return nil, fmt.Errorf("save upload: %w", err)
	}

	if written > s.maxBytes {
		//nolint:errcheck // best-effort cleanup of the oversized file
		_ = os.Remove(path)
		return nil, fmt.Errorf("save upload: file exceeds %d bytes: %w",
			s.maxBytes, core.ErrInvalidInput)
	}

	return &Asset{
		ID:  name,
		URL: "/uploads/" + name,
	}, nil
}

func (s *DiskStore) Remove(ctx context.Context, id string) error {
	path := filepath.Join(s.dir, filepath.Base(id))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

var _ Store = (*DiskStore)(nil)
