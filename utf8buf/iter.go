package utf8buf

import (
	"iter"
	"unicode/utf8"
)

// CharIter decodes characters front to back.
type CharIter struct {
	p   []byte
	off int
}

func (b *Buffer) Chars() CharIter {
	return CharIter{p: b.Bytes()}
}

func (it *CharIter) Next() (rune, bool) {
	if it.off >= len(it.p) {
		return 0, false
	}
	r, size := utf8.DecodeRune(it.p[it.off:])
	it.off += size
	return r, true
}

// CharIndexIter is CharIter that also reports byte offsets.
type CharIndexIter struct {
	p   []byte
	off int
}

func (b *Buffer) CharIndices() CharIndexIter {
	return CharIndexIter{p: b.Bytes()}
}

func (it *CharIndexIter) Next() (int, rune, bool) {
	if it.off >= len(it.p) {
		return 0, 0, false
	}
	off := it.off
	r, size := utf8.DecodeRune(it.p[off:])
	it.off += size
	return off, r, true
}

// Runes ranges over the characters of b.
func (b *Buffer) Runes() iter.Seq[rune] {
	return func(yield func(rune) bool) {
		it := b.Chars()
		for r, ok := it.Next(); ok; r, ok = it.Next() {
			if !yield(r) {
				return
			}
		}
	}
}

// All ranges over byte offsets and characters of b.
func (b *Buffer) All() iter.Seq2[int, rune] {
	return func(yield func(int, rune) bool) {
		it := b.CharIndices()
		for i, r, ok := it.Next(); ok; i, r, ok = it.Next() {
			if !yield(i, r) {
				return
			}
		}
	}
}

// RuneCount returns the number of characters in b.
func (b *Buffer) RuneCount() int {
	return utf8.RuneCount(b.Bytes())
}
