package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer_Render(t *testing.T) {
	t.Parallel()

	r, err := NewRenderer(8)
	require.NoError(t, err)

	out, err := r.Render("**bold** and _em_")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<em>em</em>")
}

func TestRenderer_StripsScripts(t *testing.T) {
	t.Parallel()

	r, err := NewRenderer(8)
	require.NoError(t, err)

	out, err := r.Render("hi <script>alert(1)</script> [x](javascript:alert(1))")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script")
	assert.NotContains(t, out, "javascript:")
}

func TestRenderer_LinksGetNoReferrer(t *testing.T) {
	t.Parallel()

	r, err := NewRenderer(8)
	require.NoError(t, err)

	out, err := r.Render("[site](https://example.com)")
	require.NoError(t, err)
	assert.Contains(t, out, `href="https://example.com"`)
	assert.Contains(t, out, "noreferrer")
}

func TestRenderer_Memoizes(t *testing.T) {
	t.Parallel()

	r, err := NewRenderer(2)
	require.NoError(t, err)

	first, err := r.Render("# title")
	require.NoError(t, err)
	second, err := r.Render("# title")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, r.Len())

	_, _ = r.Render("a")
	_, _ = r.Render("b")
	assert.Equal(t, 2, r.Len())
}
