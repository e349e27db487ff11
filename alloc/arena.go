//go:build unix

package alloc

import (
	"sync"

	"golang.org/x/sys/unix"
)

// LargeSize is the smallest request served by a dedicated mapping instead of
// a chunk.
const LargeSize = ChunkSize / 4

// Arena serves small regions by bumping inside mmapped chunks and large ones
// from dedicated mappings. A chunk whose live bytes drop to zero is recycled.
// The zero value is ready to use; Release unmaps everything.
type Arena struct {
	sync.Mutex
	Gen    ChunkGen
	Cur    *chunk
	Free   []*chunk
	chunks map[uintptr]*chunk
	large  map[uintptr][]byte

	TotalAlloc int
	TotalLarge int
}

type chunk struct {
	mem  []byte
	off  int
	live int
}

// ArenaStats is a snapshot of arena bookkeeping.
type ArenaStats struct {
	Live       int
	Large      int
	Mapped     int
	Chunks     int
	FreeChunks int
}

func NewArena() *Arena {
	return &Arena{}
}

func (s *Arena) Allocate(size, align int) ([]byte, error) {
	checkAlign(align)
	if size < 0 {
		return nil, oom("allocate", size)
	}
	if size == 0 {
		return []byte{}, nil
	}
	s.Lock()
	defer s.Unlock()
	return s.alloc(size, align)
}

func (s *Arena) alloc(size, align int) ([]byte, error) {
	if size >= LargeSize || align > ChunkSize/2 {
		return s.allocLarge(size, align)
	}
	if s.Cur == nil || alignUp(s.Cur.off, align)+size > ChunkSize {
		if err := s.nextChunk(); err != nil {
			return nil, err
		}
	}
	c := s.Cur
	start := alignUp(c.off, align)
	c.off = start + size
	c.live += size
	s.TotalAlloc += size
	return c.mem[start:c.off:c.off], nil
}

func (s *Arena) nextChunk() error {
	if s.Cur != nil && s.Cur.live == 0 {
		s.Cur.off = 0
		return nil
	}
	if len(s.Free) > 0 {
		s.Cur = s.Free[len(s.Free)-1]
		s.Free = s.Free[:len(s.Free)-1]
		return nil
	}
	mem, err := s.Gen.Gen()
	if err != nil {
		return err
	}
	if s.chunks == nil {
		s.chunks = make(map[uintptr]*chunk)
	}
	c := &chunk{mem: mem}
	s.chunks[Addr(mem)] = c
	s.Cur = c
	return nil
}

func (s *Arena) allocLarge(size, align int) ([]byte, error) {
	page := unix.Getpagesize()
	extra := 0
	if align > page {
		extra = align
	}
	m, err := mmap(alignUp(size+extra, page))
	if err != nil {
		return nil, err
	}
	off := 0
	if rem := int(Addr(m) & uintptr(align-1)); rem != 0 {
		off = align - rem
	}
	res := exact(m[off:], size)
	if s.large == nil {
		s.large = make(map[uintptr][]byte)
	}
	s.large[Addr(res)] = m
	s.TotalAlloc += size
	s.TotalLarge += size
	return res, nil
}

func (s *Arena) owner(region []byte) *chunk {
	c := s.chunks[Addr(region)&^ChunkMask]
	if c == nil {
		panic("alloc: region does not belong to this arena")
	}
	return c
}

func (s *Arena) dealloc(region []byte) {
	addr := Addr(region)
	if m, ok := s.large[addr]; ok {
		delete(s.large, addr)
		s.TotalAlloc -= len(region)
		s.TotalLarge -= len(region)
		if err := munmap(m); err != nil {
			panic(err)
		}
		return
	}
	c := s.owner(region)
	start := int(addr & ChunkMask)
	if start+len(region) == c.off {
		c.off = start
	}
	c.live -= len(region)
	s.TotalAlloc -= len(region)
	if c.live == 0 {
		c.off = 0
		if c != s.Cur {
			s.Free = append(s.Free, c)
		}
	}
}

func (s *Arena) Grow(region []byte, newSize, align int) ([]byte, error) {
	checkAlign(align)
	if newSize < len(region) {
		panic("alloc: grow to a smaller size")
	}
	if len(region) == 0 {
		return s.Allocate(newSize, align)
	}
	s.Lock()
	defer s.Unlock()
	addr := Addr(region)
	if _, ok := s.large[addr]; !ok && newSize < LargeSize && Aligned(region, align) {
		c := s.owner(region)
		start := int(addr & ChunkMask)
		if c == s.Cur && start+len(region) == c.off && start+newSize <= ChunkSize {
			c.off = start + newSize
			c.live += newSize - len(region)
			s.TotalAlloc += newSize - len(region)
			return c.mem[start:c.off:c.off], nil
		}
	}
	res, err := s.alloc(newSize, align)
	if err != nil {
		return nil, err
	}
	copy(res, region)
	s.dealloc(region)
	return res, nil
}

func (s *Arena) Shrink(region []byte, newSize, align int) ([]byte, error) {
	checkAlign(align)
	if newSize > len(region) || newSize < 0 {
		panic("alloc: shrink to a larger size")
	}
	if len(region) == 0 {
		return region, nil
	}
	s.Lock()
	defer s.Unlock()
	if newSize == 0 {
		s.dealloc(region)
		return []byte{}, nil
	}
	addr := Addr(region)
	if _, ok := s.large[addr]; ok || !Aligned(region, align) {
		res, err := s.alloc(newSize, align)
		if err != nil {
			return nil, err
		}
		copy(res, region)
		s.dealloc(region)
		return res, nil
	}
	c := s.owner(region)
	start := int(addr & ChunkMask)
	if start+len(region) == c.off {
		c.off = start + newSize
	}
	c.live -= len(region) - newSize
	s.TotalAlloc -= len(region) - newSize
	return exact(region, newSize), nil
}

func (s *Arena) Deallocate(region []byte, align int) {
	checkAlign(align)
	if len(region) == 0 {
		return
	}
	s.Lock()
	defer s.Unlock()
	s.dealloc(region)
}

func (s *Arena) Stats() ArenaStats {
	s.Lock()
	defer s.Unlock()
	st := ArenaStats{
		Live:       s.TotalAlloc,
		Large:      s.TotalLarge,
		Mapped:     s.Gen.Mapped(),
		Chunks:     len(s.chunks),
		FreeChunks: len(s.Free),
	}
	for _, m := range s.large {
		st.Mapped += len(m)
	}
	return st
}

// Release unmaps all memory. Every region handed out becomes invalid.
func (s *Arena) Release() error {
	s.Lock()
	defer s.Unlock()
	var first error
	for _, m := range s.large {
		if err := munmap(m); err != nil && first == nil {
			first = err
		}
	}
	if err := s.Gen.Release(); err != nil && first == nil {
		first = err
	}
	s.large = nil
	s.chunks = nil
	s.Free = nil
	s.Cur = nil
	s.TotalAlloc = 0
	s.TotalLarge = 0
	return first
}
