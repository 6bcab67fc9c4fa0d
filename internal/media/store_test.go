package media

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"hearth/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	return testutil.TinyPNG(t, 2, 2)
}

func TestFSStore_SaveOpen(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewFSStore(dir)
	require.NoError(t, err)
	ctx := context.Background()

	path, err := s.Save(ctx, "abc", []byte("hello"))
	require.NoError(t, err)

	rc, err := s.Open(ctx, path)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "hello", string(data))

	require.NoError(t, os.Remove(filepath.Join(dir, path)))
	_, err = s.Open(ctx, path)
	assert.ErrorIs(t, err, ErrMissing)
}

func TestFSStore_RejectsEscapes(t *testing.T) {
	t.Parallel()

	s, err := NewFSStore(t.TempDir())
	require.NoError(t, err)

	_, err = s.Save(context.Background(), "../evil", []byte("x"))
	assert.Error(t, err)
	_, err = s.Open(context.Background(), "/etc/passwd")
	assert.Error(t, err)

	_, err = NewFSStore("")
	assert.Error(t, err)
}

func TestNormalizeContentType(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "image/png", NormalizeContentType("Image/PNG; charset=binary"))
	assert.Equal(t, "", NormalizeContentType(""))
	assert.Equal(t, "", NormalizeContentType(";;;"))
	assert.True(t, IsImageType("image/webp"))
	assert.False(t, IsImageType("text/plain"))
}

func TestSniffImage(t *testing.T) {
	t.Parallel()

	format, ok := SniffImage(pngBytes(t))
	assert.True(t, ok)
	assert.Equal(t, "png", format)

	_, ok = SniffImage([]byte("definitely not an image"))
	assert.False(t, ok)
}
