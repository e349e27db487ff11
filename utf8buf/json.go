package utf8buf

import (
	"unsafe"

	jsoniter "github.com/json-iterator/go"
	"github.com/modern-go/reflect2"

	"github.com/funny-falcon/allocstr/alloc"
)

var jsonConfig = jsoniter.ConfigCompatibleWithStandardLibrary

// MarshalJSON encodes the text as a JSON string. It has a value receiver so
// Buffer fields held by value encode too.
func (b Buffer) MarshalJSON() ([]byte, error) {
	stream := jsonConfig.BorrowStream(nil)
	defer jsonConfig.ReturnStream(stream)
	stream.WriteString(b.Str())
	if stream.Error != nil {
		return nil, stream.Error
	}
	return append([]byte(nil), stream.Buffer()...), nil
}

// UnmarshalJSON replaces the text with a decoded JSON string, keeping the
// allocator. null clears the buffer.
func (b *Buffer) UnmarshalJSON(data []byte) error {
	iter := jsonConfig.BorrowIterator(data)
	defer jsonConfig.ReturnIterator(iter)
	decodeBuffer(b, iter)
	return iter.Error
}

func decodeBuffer(b *Buffer, iter *jsoniter.Iterator) {
	if iter.ReadNil() {
		b.Clear()
		return
	}
	s := iter.ReadString()
	if iter.Error != nil {
		return
	}
	if err := b.assign(s); err != nil {
		iter.ReportError("decode utf8buf.Buffer", err.Error())
	}
}

// assign replaces the whole text; on failure b is unchanged.
func (b *Buffer) assign(s string) error {
	b.own("assign")
	p := stringBytes(s)
	if err := validate("assign", p); err != nil {
		return err
	}
	return b.replace("assign", 0, b.n, p)
}

var bufferType = reflect2.TypeOfPtr((*Buffer)(nil)).Elem()

// JSONConfig returns a jsoniter API that decodes Buffer values, including
// struct fields and pointers, into regions taken from a. Buffers that already
// have an allocator keep it.
func JSONConfig(a alloc.Allocator) jsoniter.API {
	api := jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
	}.Froze()
	api.RegisterExtension(&jsonExtension{codec: &bufferCodec{a: a}})
	return api
}

type jsonExtension struct {
	jsoniter.DummyExtension
	codec *bufferCodec
}

func (e *jsonExtension) CreateDecoder(typ reflect2.Type) jsoniter.ValDecoder {
	if typ.Type1() == bufferType.Type1() {
		return e.codec
	}
	return nil
}

func (e *jsonExtension) CreateEncoder(typ reflect2.Type) jsoniter.ValEncoder {
	if typ.Type1() == bufferType.Type1() {
		return e.codec
	}
	return nil
}

type bufferCodec struct {
	a alloc.Allocator
}

func (c *bufferCodec) Decode(ptr unsafe.Pointer, iter *jsoniter.Iterator) {
	b := (*Buffer)(ptr)
	if b.a == nil {
		b.a = c.a
	}
	decodeBuffer(b, iter)
}

func (c *bufferCodec) IsEmpty(ptr unsafe.Pointer) bool {
	return (*Buffer)(ptr).n == 0
}

func (c *bufferCodec) Encode(ptr unsafe.Pointer, stream *jsoniter.Stream) {
	stream.WriteString((*Buffer)(ptr).Str())
}
