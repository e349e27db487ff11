package utf8buf

import (
	"unicode/utf8"
	"unsafe"
)

// IsCharBoundary reports whether i is 0, len(p), or the offset of the first
// byte of an encoded scalar value in p.
func IsCharBoundary(p []byte, i int) bool {
	if i == 0 || i == len(p) {
		return true
	}
	if i < 0 || i > len(p) {
		return false
	}
	return utf8.RuneStart(p[i])
}

// ValidUpTo returns the length of the longest prefix of p that is
// well-formed UTF-8.
func ValidUpTo(p []byte) int {
	if utf8.Valid(p) {
		return len(p)
	}
	i := 0
	for i < len(p) {
		if p[i] < utf8.RuneSelf {
			i++
			continue
		}
		r, size := utf8.DecodeRune(p[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return i
}

// Validate returns a KindInvalidUTF8 error if p is not well-formed UTF-8.
func Validate(p []byte) error {
	return validate("validate", p)
}

func validate(op string, p []byte) error {
	if utf8.Valid(p) {
		return nil
	}
	return &Error{Kind: KindInvalidUTF8, Op: op, ValidUpTo: ValidUpTo(p), Len: len(p)}
}

func (b *Buffer) IsCharBoundary(i int) bool {
	return IsCharBoundary(b.Bytes(), i)
}

// checkIndex validates an insertion or truncation point.
func (b *Buffer) checkIndex(op string, i int) error {
	if i < 0 || i > b.n {
		return boundsError(op, i, b.n)
	}
	if !IsCharBoundary(b.buf[:b.n], i) {
		return boundaryError(op, i, b.n)
	}
	return nil
}

func (b *Buffer) checkRange(op string, start, end int) error {
	if start < 0 || end < start || end > b.n {
		if start >= 0 && start <= b.n {
			return boundsError(op, end, b.n)
		}
		return boundsError(op, start, b.n)
	}
	if !IsCharBoundary(b.buf[:b.n], start) {
		return boundaryError(op, start, b.n)
	}
	if !IsCharBoundary(b.buf[:b.n], end) {
		return boundaryError(op, end, b.n)
	}
	return nil
}

func stringBytes(s string) []byte {
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

// overlaps reports whether p points into region.
func overlaps(region, p []byte) bool {
	if len(region) == 0 || len(p) == 0 {
		return false
	}
	lo := uintptr(unsafe.Pointer(unsafe.SliceData(region)))
	hi := lo + uintptr(len(region))
	q := uintptr(unsafe.Pointer(unsafe.SliceData(p)))
	return q+uintptr(len(p)) > lo && q < hi
}
