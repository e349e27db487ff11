package utf8buf

import (
	"strconv"
	"strings"
)

// Kind categorizes an Error.
type Kind uint8

const (
	KindOutOfMemory     Kind = iota + 1 // allocator refused a request
	KindInvalidUTF8                     // input is not well-formed UTF-8
	KindNotCharBoundary                 // offset splits a multi-byte sequence
	KindOutOfBounds                     // offset or range exceeds the length
	KindInvalidRune                     // surrogate or value above MaxRune
)

func (k Kind) String() string {
	switch k {
	case KindOutOfMemory:
		return "out of memory"
	case KindInvalidUTF8:
		return "invalid utf-8"
	case KindNotCharBoundary:
		return "index not on a char boundary"
	case KindOutOfBounds:
		return "index out of bounds"
	case KindInvalidRune:
		return "invalid rune"
	}
	return "unknown kind " + strconv.Itoa(int(k))
}

// Error is returned by every fallible Buffer operation. A failed operation
// leaves the Buffer unchanged.
type Error struct {
	Kind Kind
	// Op names the operation that failed.
	Op string
	// Index is the offending byte offset, or the requested capacity for
	// KindOutOfMemory.
	Index int
	// Len is the buffer length when the operation failed.
	Len int
	// ValidUpTo is the length of the longest valid prefix for
	// KindInvalidUTF8.
	ValidUpTo int
	Rune      rune
	Cause     error
}

var (
	ErrOutOfMemory     = &Error{Kind: KindOutOfMemory}
	ErrInvalidUTF8     = &Error{Kind: KindInvalidUTF8}
	ErrNotCharBoundary = &Error{Kind: KindNotCharBoundary}
	ErrOutOfBounds     = &Error{Kind: KindOutOfBounds}
	ErrInvalidRune     = &Error{Kind: KindInvalidRune}
)

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("utf8buf: ")
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Kind.String())
	if e.Op == "" {
		return b.String()
	}
	switch e.Kind {
	case KindOutOfMemory:
		b.WriteString(" (capacity ")
		b.WriteString(strconv.Itoa(e.Index))
		b.WriteByte(')')
	case KindInvalidUTF8:
		b.WriteString(" after ")
		b.WriteString(strconv.Itoa(e.ValidUpTo))
		b.WriteString(" valid bytes")
	case KindNotCharBoundary, KindOutOfBounds:
		b.WriteString(": index ")
		b.WriteString(strconv.Itoa(e.Index))
		b.WriteString(", len ")
		b.WriteString(strconv.Itoa(e.Len))
	case KindInvalidRune:
		b.WriteString(" U+")
		b.WriteString(strings.ToUpper(strconv.FormatInt(int64(e.Rune), 16)))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same Kind, so the Err* values work with
// errors.Is.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	return false
}

func oomError(op string, capacity int, cause error) error {
	return &Error{Kind: KindOutOfMemory, Op: op, Index: capacity, Cause: cause}
}

func boundsError(op string, i, n int) error {
	return &Error{Kind: KindOutOfBounds, Op: op, Index: i, Len: n}
}

func boundaryError(op string, i, n int) error {
	return &Error{Kind: KindNotCharBoundary, Op: op, Index: i, Len: n}
}

func runeError(op string, r rune) error {
	return &Error{Kind: KindInvalidRune, Op: op, Rune: r}
}
