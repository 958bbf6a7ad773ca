package framesource

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swdee/go-rkiva"
)

func TestSingle(t *testing.T) {
	src := NewSingle("/data/frame.yuv")

	assert.Equal(t, Single, src.Mode())
	assert.Equal(t, 1, src.Len())

	for i := 0; i < 5; i++ {
		assert.Equal(t, "/data/frame.yuv", src.Next())
		assert.Equal(t, "/data/frame.yuv", src.Previous())
	}
}

func TestDirectoryCycles(t *testing.T) {
	files := []string{"a.yuv", "b.yuv", "c.yuv"}

	src, err := NewDirectory(files)
	require.NoError(t, err)
	assert.Equal(t, Directory, src.Mode())
	assert.Equal(t, 3, src.Len())

	var got []string

	for i := 0; i < len(files); i++ {
		got = append(got, src.Next())
	}

	assert.Equal(t, files, got)

	// after N calls the cursor is back at the start
	assert.Equal(t, 0, src.Index())
	assert.Equal(t, "a.yuv", src.Next())
}

func TestDirectoryPrevious(t *testing.T) {
	src, err := NewDirectory([]string{"a.yuv", "b.yuv"})
	require.NoError(t, err)

	// wraps to the last file before anything was returned
	assert.Equal(t, "b.yuv", src.Previous())

	src.Next()
	assert.Equal(t, "a.yuv", src.Previous())

	src.Next()
	assert.Equal(t, "b.yuv", src.Previous())

	src.Next()
	assert.Equal(t, "a.yuv", src.Previous())
}

func TestDirectoryCopiesList(t *testing.T) {
	files := []string{"a.yuv", "b.yuv"}

	src, err := NewDirectory(files)
	require.NoError(t, err)

	files[0] = "changed.yuv"
	assert.Equal(t, "a.yuv", src.Next())
	assert.Equal(t, []string{"a.yuv", "b.yuv"}, src.Files())
}

func TestDirectoryEmpty(t *testing.T) {
	_, err := NewDirectory(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, rkiva.ErrConfig))
}
