package utf8buf

import (
	"fmt"
	"io"

	"github.com/funny-falcon/allocstr/alloc"
)

var (
	_ io.Writer       = (*Buffer)(nil)
	_ io.StringWriter = (*Buffer)(nil)
	_ io.WriterTo     = (*Buffer)(nil)
	_ fmt.Stringer    = (*Buffer)(nil)
)

// Write appends p if it is well-formed UTF-8. Either all of p is written or
// nothing is.
func (b *Buffer) Write(p []byte) (int, error) {
	b.own("write")
	if err := validate("write", p); err != nil {
		return 0, err
	}
	if err := b.appendBytes("write", p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (b *Buffer) WriteString(s string) (int, error) {
	if err := b.PushStr(s); err != nil {
		return 0, err
	}
	return len(s), nil
}

func (b *Buffer) WriteRune(r rune) (int, error) {
	n := b.n
	if err := b.Push(r); err != nil {
		return 0, err
	}
	return b.n - n, nil
}

func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b.Bytes())
	return int64(n), err
}

// Appendf formats according to format and appends the result in one write.
func (b *Buffer) Appendf(format string, args ...any) error {
	_, err := fmt.Fprintf(b, format, args...)
	return err
}

// FormatIn formats into a new buffer over a.
func FormatIn(a alloc.Allocator, format string, args ...any) (*Buffer, error) {
	b := NewIn(a)
	if err := b.Appendf(format, args...); err != nil {
		b.Release()
		return nil, err
	}
	return b, nil
}
