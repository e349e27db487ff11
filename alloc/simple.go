package alloc

import (
	"sync"
)

// Bump hands out regions from a fixed caller supplied block, for
// environments without a runtime heap. Only the topmost region can grow or
// shrink in place and be reclaimed by Deallocate; everything else is
// reclaimed by Reset.
type Bump struct {
	sync.Mutex
	Mem    []byte
	CurOff int
	Peak   int
}

func NewBump(mem []byte) *Bump {
	return &Bump{Mem: mem}
}

func (b *Bump) Allocate(size, align int) ([]byte, error) {
	checkAlign(align)
	if size < 0 {
		return nil, oom("allocate", size)
	}
	if size == 0 {
		return []byte{}, nil
	}
	b.Lock()
	defer b.Unlock()
	return b.alloc(size, align)
}

func (b *Bump) alloc(size, align int) ([]byte, error) {
	base := Addr(b.Mem)
	if base == 0 {
		return nil, oom("allocate", size)
	}
	pad := int(-(base + uintptr(b.CurOff)) & uintptr(align-1))
	start := b.CurOff + pad
	if start > len(b.Mem) || size > len(b.Mem)-start {
		return nil, oom("allocate", size)
	}
	b.CurOff = start + size
	if b.CurOff > b.Peak {
		b.Peak = b.CurOff
	}
	return b.Mem[start:b.CurOff:b.CurOff], nil
}

func (b *Bump) offset(region []byte) int {
	base, addr := Addr(b.Mem), Addr(region)
	if addr < base || addr+uintptr(len(region)) > base+uintptr(len(b.Mem)) {
		panic("alloc: region does not belong to this bump allocator")
	}
	return int(addr - base)
}

func (b *Bump) Grow(region []byte, newSize, align int) ([]byte, error) {
	checkAlign(align)
	if newSize < len(region) {
		panic("alloc: grow to a smaller size")
	}
	if len(region) == 0 {
		return b.Allocate(newSize, align)
	}
	b.Lock()
	defer b.Unlock()
	start := b.offset(region)
	if start+len(region) == b.CurOff && Aligned(region, align) {
		if newSize > len(b.Mem)-start {
			return nil, oom("grow", newSize)
		}
		b.CurOff = start + newSize
		if b.CurOff > b.Peak {
			b.Peak = b.CurOff
		}
		return b.Mem[start:b.CurOff:b.CurOff], nil
	}
	res, err := b.alloc(newSize, align)
	if err != nil {
		return nil, err
	}
	copy(res, region)
	return res, nil
}

func (b *Bump) Shrink(region []byte, newSize, align int) ([]byte, error) {
	checkAlign(align)
	if newSize > len(region) || newSize < 0 {
		panic("alloc: shrink to a larger size")
	}
	if len(region) == 0 {
		return region, nil
	}
	b.Lock()
	defer b.Unlock()
	start := b.offset(region)
	if newSize != 0 && !Aligned(region, align) {
		res, err := b.alloc(newSize, align)
		if err != nil {
			return nil, err
		}
		copy(res, region)
		return res, nil
	}
	if start+len(region) == b.CurOff {
		b.CurOff = start + newSize
	}
	if newSize == 0 {
		return []byte{}, nil
	}
	return exact(region, newSize), nil
}

func (b *Bump) Deallocate(region []byte, align int) {
	checkAlign(align)
	if len(region) == 0 {
		return
	}
	b.Lock()
	defer b.Unlock()
	start := b.offset(region)
	if start+len(region) == b.CurOff {
		b.CurOff = start
	}
}

// Reset forgets every region handed out so far.
func (b *Bump) Reset() {
	b.Lock()
	b.CurOff = 0
	b.Unlock()
}

// Used returns the number of bytes between the block start and the top.
func (b *Bump) Used() int {
	b.Lock()
	defer b.Unlock()
	return b.CurOff
}
