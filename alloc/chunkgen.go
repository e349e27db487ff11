//go:build unix

package alloc

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const SlabSize = 1 << 24
const ChunkSizeShift = 18
const ChunkSize = 1 << ChunkSizeShift
const ChunkMask = ChunkSize - 1

// ChunkGen carves ChunkSize aligned chunks out of anonymous mappings of
// SlabSize bytes.
type ChunkGen struct {
	CurSlab []byte
	Maps    [][]byte
}

func (g *ChunkGen) Gen() ([]byte, error) {
	if len(g.CurSlab) == 0 {
		m, err := mmap(SlabSize + ChunkSize)
		if err != nil {
			return nil, err
		}
		g.Maps = append(g.Maps, m)
		off := 0
		if rem := int(Addr(m) & ChunkMask); rem != 0 {
			off = ChunkSize - rem
		}
		g.CurSlab = m[off : off+SlabSize]
	}
	res := exact(g.CurSlab, ChunkSize)
	g.CurSlab = g.CurSlab[ChunkSize:]
	return res, nil
}

// Mapped returns the number of bytes currently mapped by g.
func (g *ChunkGen) Mapped() int {
	n := 0
	for _, m := range g.Maps {
		n += len(m)
	}
	return n
}

func (g *ChunkGen) Release() error {
	var first error
	for _, m := range g.Maps {
		if err := munmap(m); err != nil && first == nil {
			first = err
		}
	}
	g.Maps = nil
	g.CurSlab = nil
	return first
}

func mmap(size int) ([]byte, error) {
	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_PRIVATE|unix.MAP_ANON)
	if err != nil {
		return nil, errors.Wrapf(ErrOutOfMemory, "mmap %d bytes: %v", size, err)
	}
	return buf, nil
}

func munmap(buf []byte) error {
	return errors.Wrap(unix.Munmap(buf), "munmap")
}
