// Package utf8buf implements a growable text buffer whose storage comes from
// a pluggable alloc.Allocator. The bytes in use are well-formed UTF-8 at
// every point a caller can observe the buffer.
//
// A Buffer is owned by one goroutine at a time. Views returned by Bytes,
// Str, Chars and CharIndices alias the buffer's region and are valid only
// until the next mutating call or Release. The zero value is an empty
// buffer over alloc.Default.
package utf8buf

import (
	"math"
	"unsafe"

	"github.com/funny-falcon/allocstr/alloc"
)

type Buffer struct {
	a   alloc.Allocator
	cfg Config
	// buf is the region; len(buf) is the capacity.
	buf []byte
	n   int
	// borrowed is set while a Drain or Retain holds the buffer.
	borrowed bool
}

// RawParts is the ownership token produced by IntoBytes.
type RawParts struct {
	Region    []byte
	Len       int
	Allocator alloc.Allocator
	Align     int
}

// Bytes returns the text held in the region.
func (p RawParts) Bytes() []byte {
	return p.Region[:p.Len:p.Len]
}

// Release hands the region back to its allocator.
func (p RawParts) Release() {
	if len(p.Region) == 0 || p.Allocator == nil {
		return
	}
	align := p.Align
	if align == 0 {
		align = 1
	}
	p.Allocator.Deallocate(p.Region, align)
}

func (b *Buffer) allocator() alloc.Allocator {
	if b.a == nil {
		b.a = alloc.Default
	}
	return b.a
}

func (b *Buffer) config() Config {
	return b.cfg.withDefaults()
}

// Allocator returns the allocator every region of b comes from.
func (b *Buffer) Allocator() alloc.Allocator {
	return b.allocator()
}

func (b *Buffer) Len() int {
	return b.n
}

func (b *Buffer) Cap() int {
	return len(b.buf)
}

func (b *Buffer) IsEmpty() bool {
	return b.n == 0
}

// Bytes returns the text as a read-only view of the region.
func (b *Buffer) Bytes() []byte {
	return b.buf[:b.n:b.n]
}

// Str returns the text as a string sharing the region's memory. It must not
// be used after the next mutation of b.
func (b *Buffer) Str() string {
	if b.n == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b.buf), b.n)
}

// String returns a copy of the text on the Go heap.
func (b *Buffer) String() string {
	return string(b.Bytes())
}

func (b *Buffer) own(op string) {
	if b.borrowed {
		panic("utf8buf: " + op + " while the buffer is borrowed")
	}
}

// Reserve makes room for at least additional more bytes. Capacity grows
// geometrically by Config.GrowthFactor, never below the exact request. On
// failure b is left as it was.
func (b *Buffer) Reserve(additional int) error {
	b.own("reserve")
	return b.reserve("reserve", additional, false)
}

// ReserveExact makes room for exactly additional more bytes if b has to grow.
func (b *Buffer) ReserveExact(additional int) error {
	b.own("reserve_exact")
	return b.reserve("reserve_exact", additional, true)
}

func (b *Buffer) reserve(op string, additional int, exact bool) error {
	if additional < 0 {
		panic("utf8buf: negative reserve")
	}
	if additional <= len(b.buf)-b.n {
		return nil
	}
	if additional > math.MaxInt-b.n {
		return oomError(op, math.MaxInt, alloc.ErrOutOfMemory)
	}
	required := b.n + additional
	if exact {
		return b.resize(op, required)
	}
	want := b.grownCap(required)
	err := b.resize(op, want)
	if err != nil && want > required {
		// geometric growth may be refused by a tight allocator while the
		// exact request still fits
		err = b.resize(op, required)
	}
	return err
}

func (b *Buffer) grownCap(required int) int {
	cfg := b.config()
	capacity := len(b.buf)
	want := required
	if capacity == 0 && cfg.InitialCapacity > want {
		want = cfg.InitialCapacity
	}
	if cfg.GrowthFactor > 1 && capacity <= math.MaxInt/cfg.GrowthFactor {
		if g := capacity * cfg.GrowthFactor; g > want {
			want = g
		}
	}
	if cfg.MinCapacity > want {
		want = cfg.MinCapacity
	}
	return want
}

// resize moves b to a region of exactly capacity bytes, capacity >= b.n.
func (b *Buffer) resize(op string, capacity int) error {
	a, align := b.allocator(), b.config().Align
	var (
		region []byte
		err    error
	)
	switch {
	case capacity == len(b.buf):
		return nil
	case len(b.buf) == 0:
		region, err = a.Allocate(capacity, align)
	case capacity == 0:
		a.Deallocate(b.buf, align)
		b.buf = nil
		return nil
	case capacity > len(b.buf):
		region, err = a.Grow(b.buf, capacity, align)
	default:
		region, err = a.Shrink(b.buf, capacity, align)
	}
	if err != nil {
		return oomError(op, capacity, err)
	}
	b.buf = region
	return nil
}

// ShrinkToFit asks the allocator to cut capacity down to the length. A
// refusal is ignored and capacity stays as it was; use TryShrinkToFit to see
// it.
func (b *Buffer) ShrinkToFit() {
	_ = b.TryShrinkToFit()
}

// TryShrinkToFit is ShrinkToFit reporting the allocator's refusal. An empty
// buffer gives its region back and holds no allocation afterwards.
func (b *Buffer) TryShrinkToFit() error {
	b.own("shrink_to_fit")
	return b.resize("shrink_to_fit", b.n)
}

// Release gives the region back to the allocator and leaves b empty. It is
// the counterpart of every constructor: defer b.Release().
func (b *Buffer) Release() {
	b.own("release")
	if len(b.buf) > 0 {
		b.allocator().Deallocate(b.buf, b.config().Align)
	}
	b.buf = nil
	b.n = 0
}

// IntoBytes transfers the region to the caller without copying. b is left
// empty and holds no allocation.
func (b *Buffer) IntoBytes() RawParts {
	b.own("into_bytes")
	p := RawParts{
		Region:    b.buf,
		Len:       b.n,
		Allocator: b.allocator(),
		Align:     b.config().Align,
	}
	b.buf = nil
	b.n = 0
	return p
}

// Clone copies b into a new buffer over the same allocator.
func (b *Buffer) Clone() (*Buffer, error) {
	return b.CloneIn(b.allocator())
}

// CloneIn copies b into a new buffer over a.
func (b *Buffer) CloneIn(a alloc.Allocator) (*Buffer, error) {
	return b.config().FromUTF8UncheckedIn(b.Bytes(), a)
}
