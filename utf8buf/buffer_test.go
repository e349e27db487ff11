package utf8buf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funny-falcon/allocstr/alloc"
	"github.com/funny-falcon/allocstr/utf8buf"
)

func TestBuffer_pushStr(t *testing.T) {
	b, err := utf8buf.WithCapacityIn(0, alloc.Heap{})
	require.NoError(t, err)
	assert.Equal(t, 0, b.Cap())
	require.NoError(t, b.PushStr("hello"))
	require.NoError(t, b.PushStr(" world"))
	assert.Equal(t, []byte("hello world"), b.Bytes())
	assert.Equal(t, 11, b.Len())
	assert.GreaterOrEqual(t, b.Cap(), 11)
}

func TestBuffer_fromUTF8Invalid(t *testing.T) {
	c := alloc.NewCounting(alloc.Heap{})
	b, err := utf8buf.FromUTF8In([]byte{0x68, 0x69, 0xFF}, c)
	require.Nil(t, b)
	require.ErrorIs(t, err, utf8buf.ErrInvalidUTF8)
	var e *utf8buf.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 2, e.ValidUpTo)
	assert.Equal(t, alloc.Stats{}, c.Stats())
}

func TestBuffer_removeMultibyte(t *testing.T) {
	b, err := utf8buf.FromStringIn("héllo", alloc.Heap{})
	require.NoError(t, err)
	require.Equal(t, 6, b.Len())

	r, err := b.Remove(1)
	require.NoError(t, err)
	assert.Equal(t, 'é', r)
	assert.Equal(t, []byte("hllo"), b.Bytes())
	assert.Equal(t, 4, b.Len())

	r, err = b.Remove(2)
	require.NoError(t, err)
	assert.Equal(t, 'l', r)
	assert.Equal(t, "hlo", b.String())
}

func TestBuffer_insertMidChar(t *testing.T) {
	b, err := utf8buf.FromStringIn("héllo", alloc.Heap{})
	require.NoError(t, err)
	capBefore := b.Cap()
	err = b.Insert(1, 'x')
	require.Error(t, err)
	require.ErrorIs(t, err, utf8buf.ErrNotCharBoundary)
	err = b.Insert(2, 'x')
	require.ErrorIs(t, err, utf8buf.ErrNotCharBoundary)
	assert.Equal(t, "héllo", b.String())
	assert.Equal(t, capBefore, b.Cap())
}

func TestBuffer_growFailure(t *testing.T) {
	a := &alloc.Faulty{A: alloc.Heap{}, Fail: alloc.OpGrow}
	b, err := utf8buf.WithCapacityIn(1, a)
	require.NoError(t, err)
	require.Equal(t, 1, b.Cap())

	err = b.PushStr("ab")
	require.ErrorIs(t, err, utf8buf.ErrOutOfMemory)
	require.ErrorIs(t, err, alloc.ErrOutOfMemory)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 1, b.Cap())

	require.NoError(t, b.Push('a'))
	assert.Equal(t, "a", b.String())
	require.ErrorIs(t, b.Push('b'), utf8buf.ErrOutOfMemory)
	assert.Equal(t, "a", b.String())
}

func TestBuffer_withCapacityFailure(t *testing.T) {
	a := &alloc.Faulty{A: alloc.Heap{}, Fail: alloc.OpAllocate}
	b, err := utf8buf.WithCapacityIn(16, a)
	require.ErrorIs(t, err, utf8buf.ErrOutOfMemory)
	assert.Nil(t, b)

	b, err = utf8buf.WithCapacityIn(0, a)
	require.NoError(t, err)
	require.ErrorIs(t, b.PushStr("x"), utf8buf.ErrOutOfMemory)
	assert.Equal(t, 0, b.Cap())
}

func TestBuffer_growthBound(t *testing.T) {
	c := alloc.NewCounting(alloc.Heap{})
	b := utf8buf.NewIn(c)
	const n = 100000
	for i := 0; i < n; i++ {
		require.NoError(t, b.Push('ж'))
	}
	assert.Equal(t, 2*n, b.Len())
	assert.Equal(t, n, b.RuneCount())
	st := c.Stats()
	assert.Equal(t, 1, st.Allocs)
	// 8 << 15 covers 200000 bytes
	assert.LessOrEqual(t, st.Grows, 16)
	assert.Equal(t, b.Cap(), st.Live)
}

func TestBuffer_growthConfig(t *testing.T) {
	c := alloc.NewCounting(alloc.Heap{})
	cfg := utf8buf.Config{InitialCapacity: 64, GrowthFactor: 3, MinCapacity: 1}
	b := cfg.NewIn(c)
	require.NoError(t, b.Push('a'))
	assert.Equal(t, 64, b.Cap())
	require.NoError(t, b.Reserve(64))
	assert.Equal(t, 192, b.Cap())

	exact := utf8buf.Config{GrowthFactor: 1}.NewIn(c)
	for i := 0; i < 10; i++ {
		require.NoError(t, exact.Push('a'))
		assert.Equal(t, i+1, exact.Cap())
	}
}

func TestBuffer_reserveExactFallback(t *testing.T) {
	mem := make([]byte, 20)
	a := alloc.NewBump(mem)
	b, err := utf8buf.WithCapacityIn(12, a)
	require.NoError(t, err)
	require.NoError(t, b.PushStr("hello world!"))
	// doubling to 24 does not fit, the exact 13 does
	require.NoError(t, b.Push('?'))
	assert.Equal(t, 13, b.Cap())
	assert.Equal(t, "hello world!?", b.String())

	require.ErrorIs(t, b.PushStr("12345678"), utf8buf.ErrOutOfMemory)
	assert.Equal(t, "hello world!?", b.String())
}

func TestBuffer_reserve(t *testing.T) {
	b, err := utf8buf.FromStringIn("hello", alloc.Heap{})
	require.NoError(t, err)
	require.NoError(t, b.Reserve(0))
	assert.Equal(t, 5, b.Cap())
	require.NoError(t, b.Reserve(1000))
	assert.GreaterOrEqual(t, b.Cap(), 1005)
	capBefore := b.Cap()
	require.NoError(t, b.ReserveExact(100))
	assert.Equal(t, capBefore, b.Cap())
	require.NoError(t, b.ReserveExact(capBefore))
	assert.Equal(t, 5+capBefore, b.Cap())
	assert.Equal(t, "hello", b.String())
}

func TestBuffer_shrinkToFit(t *testing.T) {
	c := alloc.NewCounting(alloc.Heap{})
	b, err := utf8buf.WithCapacityIn(100, c)
	require.NoError(t, err)
	require.NoError(t, b.PushStr("grüße"))

	b.ShrinkToFit()
	assert.Equal(t, "grüße", b.String())
	assert.Equal(t, b.Len(), b.Cap())
	b.ShrinkToFit()
	assert.Equal(t, "grüße", b.String())
	assert.Equal(t, b.Len(), b.Cap())
	assert.Equal(t, 1, c.Stats().Shrinks)

	b.Clear()
	b.ShrinkToFit()
	assert.Equal(t, 0, b.Cap())
	assert.Equal(t, 0, c.Stats().Live)
}

func TestBuffer_shrinkFailure(t *testing.T) {
	a := &alloc.Faulty{A: alloc.Heap{}, Fail: alloc.OpShrink}
	b, err := utf8buf.WithCapacityIn(32, a)
	require.NoError(t, err)
	require.NoError(t, b.PushStr("abc"))

	b.ShrinkToFit()
	assert.Equal(t, 32, b.Cap())
	assert.Equal(t, "abc", b.String())

	err = b.TryShrinkToFit()
	require.ErrorIs(t, err, utf8buf.ErrOutOfMemory)
	assert.Equal(t, 32, b.Cap())
}

func TestBuffer_release(t *testing.T) {
	c := alloc.NewCounting(alloc.Heap{})
	b, err := utf8buf.FromStringIn("text", c)
	require.NoError(t, err)
	b.Release()
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 0, b.Cap())
	st := c.Stats()
	assert.Equal(t, 1, st.Deallocs)
	assert.Equal(t, 0, st.Live)

	b.Release()
	assert.Equal(t, 1, c.Stats().Deallocs)
	require.NoError(t, b.PushStr("again"))
	assert.Equal(t, "again", b.String())
}

func TestBuffer_rawParts(t *testing.T) {
	c := alloc.NewCounting(alloc.Heap{})
	b, err := utf8buf.WithCapacityIn(16, c)
	require.NoError(t, err)
	require.NoError(t, b.PushStr("añb"))
	addr := alloc.Addr(b.Bytes())

	p := b.IntoBytes()
	assert.Equal(t, 0, b.Cap())
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, 16, len(p.Region))
	assert.Equal(t, 4, p.Len)
	assert.Equal(t, []byte("añb"), p.Bytes())
	assert.Equal(t, addr, alloc.Addr(p.Region))
	assert.Same(t, c, p.Allocator)

	back := utf8buf.FromRawParts(p)
	assert.Equal(t, "añb", back.String())
	assert.Equal(t, 16, back.Cap())
	require.NoError(t, back.PushStr("!"))
	assert.Equal(t, addr, alloc.Addr(back.Bytes()))
	back.Release()
	assert.Equal(t, 0, c.Stats().Live)
	assert.Equal(t, 1, c.Stats().Allocs)
}

func TestBuffer_zeroValue(t *testing.T) {
	var b utf8buf.Buffer
	assert.True(t, b.IsEmpty())
	assert.Equal(t, "", b.Str())
	require.NoError(t, b.PushStr("zero"))
	assert.Equal(t, "zero", b.Str())
	assert.Equal(t, alloc.Default, b.Allocator())
	assert.Equal(t, utf8buf.DefaultConfig.MinCapacity, b.Cap())
}

func TestBuffer_roundTrip(t *testing.T) {
	for _, s := range []string{"", "a", "héllo", "日本語", "🙂🙃", "mixed ascii и кириллица"} {
		b, err := utf8buf.FromStringIn(s, alloc.Heap{})
		require.NoError(t, err)
		c, err := utf8buf.FromUTF8In(b.Bytes(), alloc.Heap{})
		require.NoError(t, err)
		assert.True(t, b.Equal(c))
		assert.Equal(t, b.Hash(), c.Hash())
		assert.Equal(t, 0, b.Compare(c))
		assert.True(t, c.EqualString(s))
	}
}

func TestBuffer_clone(t *testing.T) {
	src, err := utf8buf.FromStringIn("copy me", alloc.Heap{})
	require.NoError(t, err)
	bump := alloc.NewBump(make([]byte, 64))
	dst, err := src.CloneIn(bump)
	require.NoError(t, err)
	assert.Equal(t, src.String(), dst.String())
	assert.Same(t, bump, dst.Allocator())
	require.NoError(t, dst.PushStr("!"))
	assert.Equal(t, "copy me", src.String())

	same, err := src.Clone()
	require.NoError(t, err)
	assert.Equal(t, alloc.Heap{}, same.Allocator())
	assert.NotEqual(t, alloc.Addr(src.Bytes()), alloc.Addr(same.Bytes()))
}

func TestBuffer_compare(t *testing.T) {
	a, _ := utf8buf.FromStringIn("abc", alloc.Heap{})
	b, _ := utf8buf.FromStringIn("abd", alloc.Heap{})
	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.False(t, a.Equal(b))
}

func TestConfig_validate(t *testing.T) {
	assert.NoError(t, utf8buf.DefaultConfig.Validate())
	assert.NoError(t, utf8buf.Config{}.Validate())
	assert.Error(t, utf8buf.Config{GrowthFactor: -1}.Validate())
	assert.Error(t, utf8buf.Config{Align: 3}.Validate())
	assert.Error(t, utf8buf.Config{InitialCapacity: -5}.Validate())
	assert.Panics(t, func() { utf8buf.Config{Align: 6}.NewIn(nil) })
}

func TestConfig_align(t *testing.T) {
	cfg := utf8buf.Config{GrowthFactor: 2, Align: 64}
	for i := 0; i < 10; i++ {
		b := cfg.NewIn(alloc.Heap{})
		require.NoError(t, b.PushStr("aligned"))
		assert.True(t, alloc.Aligned(b.Bytes(), 64))
	}
}
