package utf8buf

import (
	"unicode/utf8"
)

// Push appends the UTF-8 encoding of r.
func (b *Buffer) Push(r rune) error {
	b.own("push")
	if uint32(r) < utf8.RuneSelf {
		if err := b.reserve("push", 1, false); err != nil {
			return err
		}
		b.buf[b.n] = byte(r)
		b.n++
		return nil
	}
	if !utf8.ValidRune(r) {
		return runeError("push", r)
	}
	var tmp [utf8.UTFMax]byte
	k := utf8.EncodeRune(tmp[:], r)
	return b.appendBytes("push", tmp[:k])
}

// PushStr appends s. Go strings may hold arbitrary bytes, so s is validated
// first and an invalid s fails with KindInvalidUTF8.
func (b *Buffer) PushStr(s string) error {
	b.own("push_str")
	p := stringBytes(s)
	if err := validate("push_str", p); err != nil {
		return err
	}
	return b.appendBytes("push_str", p)
}

// PushStrUnchecked appends s without validation. The caller guarantees s is
// well-formed UTF-8.
func (b *Buffer) PushStrUnchecked(s string) error {
	b.own("push_str")
	return b.appendBytes("push_str", stringBytes(s))
}

func (b *Buffer) appendBytes(op string, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if overlaps(b.buf, p) {
		p = append([]byte(nil), p...)
	}
	if err := b.reserve(op, len(p), false); err != nil {
		return err
	}
	b.n += copy(b.buf[b.n:], p)
	return nil
}

// Insert inserts r at byte offset i, which must be a char boundary.
func (b *Buffer) Insert(i int, r rune) error {
	b.own("insert")
	if !utf8.ValidRune(r) {
		return runeError("insert", r)
	}
	if err := b.checkIndex("insert", i); err != nil {
		return err
	}
	var tmp [utf8.UTFMax]byte
	k := utf8.EncodeRune(tmp[:], r)
	return b.insertBytes("insert", i, tmp[:k])
}

// InsertStr inserts s at byte offset i, which must be a char boundary.
func (b *Buffer) InsertStr(i int, s string) error {
	b.own("insert_str")
	p := stringBytes(s)
	if err := validate("insert_str", p); err != nil {
		return err
	}
	if err := b.checkIndex("insert_str", i); err != nil {
		return err
	}
	return b.insertBytes("insert_str", i, p)
}

func (b *Buffer) insertBytes(op string, i int, p []byte) error {
	if len(p) == 0 {
		return nil
	}
	if overlaps(b.buf, p) {
		p = append([]byte(nil), p...)
	}
	if err := b.reserve(op, len(p), false); err != nil {
		return err
	}
	copy(b.buf[i+len(p):b.n+len(p)], b.buf[i:b.n])
	copy(b.buf[i:], p)
	b.n += len(p)
	return nil
}

// Remove deletes the character starting at byte offset i and returns it.
func (b *Buffer) Remove(i int) (rune, error) {
	b.own("remove")
	if i < 0 || i >= b.n {
		return 0, boundsError("remove", i, b.n)
	}
	if !utf8.RuneStart(b.buf[i]) {
		return 0, boundaryError("remove", i, b.n)
	}
	r, size := utf8.DecodeRune(b.buf[i:b.n])
	copy(b.buf[i:], b.buf[i+size:b.n])
	b.n -= size
	return r, nil
}

// Pop removes the last character.
func (b *Buffer) Pop() (rune, bool) {
	b.own("pop")
	if b.n == 0 {
		return 0, false
	}
	r, size := utf8.DecodeLastRune(b.buf[:b.n])
	b.n -= size
	return r, true
}

// Truncate shortens b to i bytes. An i at or past the length does nothing.
// Capacity is kept.
func (b *Buffer) Truncate(i int) error {
	b.own("truncate")
	if i >= b.n {
		return nil
	}
	if err := b.checkIndex("truncate", i); err != nil {
		return err
	}
	b.n = i
	return nil
}

// Clear drops the text and keeps the capacity.
func (b *Buffer) Clear() {
	b.own("clear")
	b.n = 0
}

// ReplaceRange replaces bytes [start, end) with s in a single shift.
func (b *Buffer) ReplaceRange(start, end int, s string) error {
	b.own("replace_range")
	p := stringBytes(s)
	if err := validate("replace_range", p); err != nil {
		return err
	}
	if err := b.checkRange("replace_range", start, end); err != nil {
		return err
	}
	return b.replace("replace_range", start, end, p)
}

func (b *Buffer) replace(op string, start, end int, p []byte) error {
	if overlaps(b.buf, p) {
		p = append([]byte(nil), p...)
	}
	delta := len(p) - (end - start)
	if delta > 0 {
		if err := b.reserve(op, delta, false); err != nil {
			return err
		}
	}
	copy(b.buf[start+len(p):b.n+delta], b.buf[end:b.n])
	copy(b.buf[start:], p)
	b.n += delta
	return nil
}

// SplitOff moves bytes [i, Len) into a new buffer over the same allocator
// and truncates b to i.
func (b *Buffer) SplitOff(i int) (*Buffer, error) {
	b.own("split_off")
	if err := b.checkIndex("split_off", i); err != nil {
		return nil, err
	}
	tail, err := b.config().FromUTF8UncheckedIn(b.buf[i:b.n], b.allocator())
	if err != nil {
		return nil, err
	}
	b.n = i
	return tail, nil
}

// Retain keeps only the characters for which keep returns true. keep must
// not touch b.
func (b *Buffer) Retain(keep func(rune) bool) {
	b.own("retain")
	b.borrowed = true
	w, r := 0, 0
	defer func() {
		if r < b.n {
			// keep panicked: close the gap so the text stays valid
			b.n = w + copy(b.buf[w:], b.buf[r:b.n])
		}
		b.borrowed = false
	}()
	for r < b.n {
		c, size := utf8.DecodeRune(b.buf[r:b.n])
		if keep(c) {
			if w != r {
				copy(b.buf[w:], b.buf[r:r+size])
			}
			w += size
		}
		r += size
	}
	b.n = w
}
