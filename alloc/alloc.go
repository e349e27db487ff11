// Package alloc defines the memory provider contract used by utf8buf and a
// handful of providers: the Go heap, a bump allocator over caller memory, an
// mmap backed chunk arena and wrappers for limiting, counting, tracing and
// fault injection.
//
// A region is a []byte whose len and cap both equal the requested size. The
// address of its first byte is its location. Regions handed out by one
// allocator instance never overlap while live.
package alloc

import (
	"unsafe"

	"github.com/pkg/errors"
)

// ErrOutOfMemory is returned when a request cannot be satisfied.
var ErrOutOfMemory = errors.New("alloc: out of memory")

type Allocator interface {
	// Allocate returns a fresh region of exactly size bytes aligned to align.
	Allocate(size, align int) ([]byte, error)
	// Grow returns a region of newSize bytes whose first len(region) bytes
	// equal those of region. The old region must not be used afterwards,
	// unless an error is returned, in which case it stays valid.
	Grow(region []byte, newSize, align int) ([]byte, error)
	// Shrink returns a region of newSize bytes holding the first newSize
	// bytes of region. On error region stays valid.
	Shrink(region []byte, newSize, align int) ([]byte, error)
	// Deallocate returns region to the allocator. It never fails: a region
	// the allocator does not recognize is a fatal error and panics.
	Deallocate(region []byte, align int)
}

// Default is the allocator used when none is supplied.
var Default Allocator = Heap{}

func checkAlign(align int) {
	if align <= 0 || align&(align-1) != 0 {
		panic("alloc: alignment must be a power of two")
	}
}

func oom(op string, size int) error {
	return errors.Wrapf(ErrOutOfMemory, "%s %d bytes", op, size)
}

// Addr returns the location of region, or 0 for an empty region.
func Addr(region []byte) uintptr {
	if cap(region) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(region)))
}

// Aligned reports whether region starts at a multiple of align.
func Aligned(region []byte, align int) bool {
	return Addr(region)&uintptr(align-1) == 0
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

func exact(region []byte, size int) []byte {
	return region[:size:size]
}
