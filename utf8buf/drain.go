package utf8buf

import (
	"iter"
	"unicode/utf8"
)

// Drain yields the characters of a removed byte range. The buffer is
// borrowed until the Drain is exhausted or closed: meanwhile it shows only
// the text before the range and every mutating call, Release included,
// panics. Abandoning a Drain without Close keeps the buffer borrowed for
// good, so close it, usually with defer.
type Drain struct {
	b     *Buffer
	start int
	pos   int
	end   int
	tail  int
}

// Drain removes bytes [start, end) and returns their characters lazily.
func (b *Buffer) Drain(start, end int) (*Drain, error) {
	b.own("drain")
	if err := b.checkRange("drain", start, end); err != nil {
		return nil, err
	}
	d := &Drain{b: b, start: start, pos: start, end: end, tail: b.n - end}
	b.n = start
	b.borrowed = true
	return d, nil
}

// Next returns the next drained character. After the last one it closes d.
func (d *Drain) Next() (rune, bool) {
	if d.b == nil {
		return 0, false
	}
	if d.pos >= d.end {
		d.Close()
		return 0, false
	}
	r, size := utf8.DecodeRune(d.b.buf[d.pos:d.end])
	d.pos += size
	return r, true
}

// Rest returns the characters not yet yielded.
func (d *Drain) Rest() string {
	if d.b == nil {
		return ""
	}
	return string(d.b.buf[d.pos:d.end])
}

// Close discards what is left, shifts the tail into place and gives the
// buffer back. It may be called more than once.
func (d *Drain) Close() {
	b := d.b
	if b == nil {
		return
	}
	copy(b.buf[d.start:], b.buf[d.end:d.end+d.tail])
	b.n = d.start + d.tail
	b.borrowed = false
	d.b = nil
}

// All ranges over the remaining characters and closes d afterwards, also
// when the loop breaks early.
func (d *Drain) All() iter.Seq[rune] {
	return func(yield func(rune) bool) {
		defer d.Close()
		for {
			r, ok := d.Next()
			if !ok || !yield(r) {
				return
			}
		}
	}
}
