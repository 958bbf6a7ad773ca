package rkiva

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeapPool(t *testing.T) {
	pool, err := NewHeapPool(1024, 1)
	require.NoError(t, err)

	blk, err := pool.Get()
	require.NoError(t, err)
	assert.Len(t, blk.Bytes(), 1024)
	assert.Equal(t, -1, blk.Fd())
	assert.NoError(t, blk.FlushCache())

	// only one block in the pool
	_, err = pool.Get()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResource))

	require.NoError(t, pool.Put(blk))

	again, err := pool.Get()
	require.NoError(t, err)
	assert.Same(t, blk, again)

	require.NoError(t, pool.Close())
	require.NoError(t, pool.Close())

	_, err = pool.Get()
	assert.True(t, errors.Is(err, ErrPoolClosed))
}

func TestHeapPoolInvalidSize(t *testing.T) {
	_, err := NewHeapPool(0, 1)
	assert.True(t, errors.Is(err, ErrResource))

	_, err = NewHeapPool(16, 0)
	assert.True(t, errors.Is(err, ErrResource))
}

func TestHeapPoolForeignBlock(t *testing.T) {
	pool, err := NewHeapPool(16, 1)
	require.NoError(t, err)
	defer pool.Close()

	assert.Error(t, pool.Put(&heapBlock{buf: make([]byte, 8)}))
}
