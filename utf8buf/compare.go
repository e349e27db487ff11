package utf8buf

import (
	"bytes"

	"github.com/cespare/xxhash/v2"
)

func (b *Buffer) Equal(o *Buffer) bool {
	return bytes.Equal(b.Bytes(), o.Bytes())
}

func (b *Buffer) EqualString(s string) bool {
	return b.Str() == s
}

// Compare orders buffers bytewise, which for UTF-8 is code point order.
func (b *Buffer) Compare(o *Buffer) int {
	return bytes.Compare(b.Bytes(), o.Bytes())
}

// Hash returns the xxhash of the text; equal buffers hash equally whatever
// their allocators.
func (b *Buffer) Hash() uint64 {
	return xxhash.Sum64(b.Bytes())
}
