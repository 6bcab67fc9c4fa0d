// Package media stores uploaded files on the local filesystem and sniffs
// image content.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"

	_ "golang.org/x/image/webp" // register WebP decoder
)

// ErrMissing means the stored bytes for a media record are gone.
var ErrMissing = errors.New("media file missing")

// Store persists media bytes under an opaque relative path.
type Store interface {
	Save(ctx context.Context, id string, data []byte) (string, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// FSStore keeps files in a single directory.
type FSStore struct {
	dir string
}

// NewFSStore returns a store rooted at dir, creating it if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if dir == "" {
		return nil, errors.New("media location is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) resolve(path string) (string, error) {
	clean := filepath.Clean(path)
	if clean == "." || filepath.IsAbs(clean) || strings.HasPrefix(clean, "..") {
		return "", fmt.Errorf("invalid media path %q", path)
	}
	return filepath.Join(s.dir, clean), nil
}

// Save writes data for id and returns the path to record.
func (s *FSStore) Save(ctx context.Context, id string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	full, err := s.resolve(id)
	if err != nil {
		return "", err
	}
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write media: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("commit media: %w", err)
	}
	return id, nil
}

// Open returns the stored bytes, or ErrMissing if they no longer exist.
func (s *FSStore) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrMissing
	}
	if err != nil {
		return nil, fmt.Errorf("open media: %w", err)
	}
	return f, nil
}

// NormalizeContentType strips parameters and lowercases a Content-Type value.
// It returns "" when the value is absent or unparsable.
func NormalizeContentType(contentType string) string {
	if strings.TrimSpace(contentType) == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return strings.ToLower(mediaType)
}

// IsImageType reports whether a normalized content type names an image.
func IsImageType(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}

// SniffImage reports the decoded format of data, or false if it is not an
// image any registered decoder understands.
func SniffImage(data []byte) (string, bool) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", false
	}
	return format, true
}
