package fonts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
)

func TestFacesCacheBySize(t *testing.T) {
	f := NewFaces()
	defer f.Close()

	a, err := f.Get(12)
	require.NoError(t, err)
	b, err := f.Get(12)
	require.NoError(t, err)
	assert.Same(t, a, b)

	big, err := f.Get(24)
	require.NoError(t, err)
	assert.NotSame(t, a, big)

	small := font.MeasureString(a, "treepack")
	large := font.MeasureString(big, "treepack")
	assert.Greater(t, large, small)
}

func TestRegularParsedOnce(t *testing.T) {
	a, err := Regular()
	require.NoError(t, err)
	b, err := Regular()
	require.NoError(t, err)
	assert.Same(t, a, b)
}
