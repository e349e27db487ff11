// Package intern deduplicates UTF-8 strings whose bytes live in allocator
// regions. Ids start at 1; 0 stands for the empty string.
package intern

import (
	"github.com/cespare/xxhash/v2"

	"github.com/funny-falcon/allocstr/alloc"
	"github.com/funny-falcon/allocstr/utf8buf"
)

var exactConfig = utf8buf.Config{GrowthFactor: 1, Align: 1}

type Table struct {
	Alloc  alloc.Allocator
	Tbl    []uint32
	Arr    []*utf8buf.Buffer
	Hashes []uint32
}

func New(a alloc.Allocator) *Table {
	return &Table{Alloc: a}
}

func hash(s string) uint32 {
	h := xxhash.Sum64String(s)
	return uint32(h) ^ uint32(h>>32)
}

func (t *Table) lookup(s string, h uint32) (pos uint32, id uint32) {
	mask := uint32(len(t.Tbl) - 1)
	pos, d := h&mask, uint32(1)
	for t.Tbl[pos] != 0 {
		apos := t.Tbl[pos]
		if t.Hashes[apos-1] == h && t.Arr[apos-1].EqualString(s) {
			return pos, apos
		}
		pos = (pos + d) & mask
		d++
	}
	return pos, 0
}

// Insert returns the id of s, storing a copy if s is new. An s that is not
// valid UTF-8 is rejected with utf8buf.ErrInvalidUTF8.
func (t *Table) Insert(s string) (uint32, bool, error) {
	if s == "" {
		return 0, false, nil
	}
	if len(t.Arr) >= len(t.Tbl)*5/8 {
		t.Rebalance()
	}
	h := hash(s)
	pos, id := t.lookup(s, h)
	if id != 0 {
		return id, false, nil
	}
	b, err := exactConfig.FromStringIn(s, t.Alloc)
	if err != nil {
		return 0, false, err
	}
	t.Arr = append(t.Arr, b)
	t.Hashes = append(t.Hashes, h)
	id = uint32(len(t.Arr))
	t.Tbl[pos] = id
	return id, true, nil
}

func (t *Table) Find(s string) uint32 {
	if s == "" || len(t.Tbl) == 0 {
		return 0
	}
	_, id := t.lookup(s, hash(s))
	return id
}

// Get returns the string for id. The result shares the stored region and is
// valid until Release.
func (t *Table) Get(id uint32) string {
	if id == 0 {
		return ""
	}
	return t.Arr[id-1].Str()
}

func (t *Table) Len() int {
	return len(t.Arr)
}

// Bytes returns the number of text bytes held.
func (t *Table) Bytes() int {
	n := 0
	for _, b := range t.Arr {
		n += b.Len()
	}
	return n
}

func (t *Table) Rebalance() {
	newcapa := len(t.Tbl) * 2
	if newcapa == 0 {
		newcapa = 256
	}
	mask := uint32(newcapa - 1)
	newTbl := make([]uint32, newcapa)
	for i, h := range t.Hashes {
		pos, d := h&mask, uint32(1)
		for newTbl[pos] != 0 {
			pos = (pos + d) & mask
			d++
		}
		newTbl[pos] = uint32(i) + 1
	}
	t.Tbl = newTbl
}

// Release frees every stored string.
func (t *Table) Release() {
	for _, b := range t.Arr {
		b.Release()
	}
	t.Arr = nil
	t.Hashes = nil
	t.Tbl = nil
}
