package alloc_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funny-falcon/allocstr/alloc"
)

func TestBump(t *testing.T) {
	testAllocator(t, alloc.NewBump(make([]byte, 1<<16)))
	testDistinct(t, alloc.NewBump(make([]byte, 1<<16)), 100, 24)
}

func TestBump_inPlace(t *testing.T) {
	b := alloc.NewBump(make([]byte, 64))
	r, err := b.Allocate(10, 1)
	require.NoError(t, err)
	addr := alloc.Addr(r)
	g, err := b.Grow(r, 20, 1)
	require.NoError(t, err)
	assert.Equal(t, addr, alloc.Addr(g))
	assert.Equal(t, 20, b.Used())

	s, err := b.Allocate(4, 1)
	require.NoError(t, err)
	// g is no longer on top and has to move
	g2, err := b.Grow(g, 30, 1)
	require.NoError(t, err)
	assert.NotEqual(t, addr, alloc.Addr(g2))
	assert.Equal(t, 54, b.Used())

	b.Deallocate(g2, 1)
	assert.Equal(t, 24, b.Used())
	b.Deallocate(s, 1)
	assert.Equal(t, 20, b.Used())

	b.Reset()
	assert.Equal(t, 0, b.Used())
	assert.Equal(t, 54, b.Peak)
}

func TestBump_exhausted(t *testing.T) {
	b := alloc.NewBump(make([]byte, 16))
	r, err := b.Allocate(12, 1)
	require.NoError(t, err)
	_, err = b.Allocate(5, 1)
	require.ErrorIs(t, err, alloc.ErrOutOfMemory)
	_, err = b.Grow(r, 17, 1)
	require.ErrorIs(t, err, alloc.ErrOutOfMemory)
	g, err := b.Grow(r, 16, 1)
	require.NoError(t, err)
	assert.Equal(t, 16, len(g))

	var empty alloc.Bump
	_, err = empty.Allocate(1, 1)
	require.ErrorIs(t, err, alloc.ErrOutOfMemory)
}

func TestBump_foreign(t *testing.T) {
	b := alloc.NewBump(make([]byte, 16))
	assert.Panics(t, func() { b.Deallocate(make([]byte, 4), 1) })
}

func TestBump_realign(t *testing.T) {
	mem := make([]byte, 256)
	off := (17 - int(alloc.Addr(mem)%16)) % 16
	b := alloc.NewBump(mem[off:])
	r, err := b.Allocate(3, 1)
	require.NoError(t, err)
	require.False(t, alloc.Aligned(r, 16))
	fill(r, 9)

	g, err := b.Grow(r, 16, 16)
	require.NoError(t, err)
	assert.True(t, alloc.Aligned(g, 16))
	assert.NotEqual(t, alloc.Addr(r), alloc.Addr(g))
	checkFill(t, g[:3], 9)

	r2, err := b.Allocate(5, 1)
	require.NoError(t, err)
	fill(r2, 1)
	s, err := b.Shrink(r2, 2, 64)
	require.NoError(t, err)
	assert.True(t, alloc.Aligned(s, 64))
	checkFill(t, s, 1)
}
