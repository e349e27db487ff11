package utf8buf

import (
	"github.com/pkg/errors"

	"github.com/funny-falcon/allocstr/alloc"
)

// Config tunes how buffers grow. The zero value means DefaultConfig.
type Config struct {
	// InitialCapacity is the lower bound of the first allocation made by
	// a growing operation.
	InitialCapacity int
	// GrowthFactor multiplies the current capacity when an append does not
	// fit. 1 grows exactly to the request.
	GrowthFactor int
	// MinCapacity is the smallest non-zero capacity a growing operation
	// asks for.
	MinCapacity int
	// Align is the alignment requested from the allocator.
	Align int
}

var DefaultConfig = Config{
	GrowthFactor: 2,
	MinCapacity:  8,
	Align:        1,
}

func (c Config) Validate() error {
	switch {
	case c.InitialCapacity < 0:
		return errors.Errorf("utf8buf: negative initial capacity %d", c.InitialCapacity)
	case c.GrowthFactor < 0:
		return errors.Errorf("utf8buf: negative growth factor %d", c.GrowthFactor)
	case c.MinCapacity < 0:
		return errors.Errorf("utf8buf: negative min capacity %d", c.MinCapacity)
	case c.Align < 0 || c.Align&(c.Align-1) != 0:
		return errors.Errorf("utf8buf: alignment %d is not a power of two", c.Align)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c == (Config{}) {
		return DefaultConfig
	}
	if c.GrowthFactor == 0 {
		c.GrowthFactor = DefaultConfig.GrowthFactor
	}
	if c.Align == 0 {
		c.Align = 1
	}
	return c
}

func (c Config) checked() Config {
	if err := c.Validate(); err != nil {
		panic(err)
	}
	return c.withDefaults()
}

// NewIn returns an empty buffer that allocates from a on first growth.
func (c Config) NewIn(a alloc.Allocator) *Buffer {
	if a == nil {
		a = alloc.Default
	}
	return &Buffer{a: a, cfg: c.checked()}
}

// WithCapacityIn returns an empty buffer holding at least n bytes of
// capacity. On failure nothing is held.
func (c Config) WithCapacityIn(n int, a alloc.Allocator) (*Buffer, error) {
	b := c.NewIn(a)
	if n < 0 {
		return nil, oomError("with_capacity", n, alloc.ErrOutOfMemory)
	}
	if n == 0 {
		return b, nil
	}
	region, err := b.a.Allocate(n, b.cfg.Align)
	if err != nil {
		return nil, oomError("with_capacity", n, err)
	}
	b.buf = region
	return b, nil
}

// FromUTF8In validates p and copies it into a region sized to fit. An
// invalid p fails with KindInvalidUTF8 before the allocator is touched.
func (c Config) FromUTF8In(p []byte, a alloc.Allocator) (*Buffer, error) {
	if err := validate("from_utf8", p); err != nil {
		return nil, err
	}
	return c.FromUTF8UncheckedIn(p, a)
}

// FromUTF8UncheckedIn copies p without validation. The caller guarantees p
// is well-formed UTF-8; every later operation assumes so.
func (c Config) FromUTF8UncheckedIn(p []byte, a alloc.Allocator) (*Buffer, error) {
	b, err := c.WithCapacityIn(len(p), a)
	if err != nil {
		return nil, err
	}
	b.n = copy(b.buf, p)
	return b, nil
}

func (c Config) FromStringIn(s string, a alloc.Allocator) (*Buffer, error) {
	return c.FromUTF8In(stringBytes(s), a)
}

// FromRawParts rebuilds a buffer from parts obtained by IntoBytes. Nothing
// is checked.
func (c Config) FromRawParts(p RawParts) *Buffer {
	cfg := c.checked()
	if p.Align != 0 {
		cfg.Align = p.Align
	}
	a := p.Allocator
	if a == nil {
		a = alloc.Default
	}
	return &Buffer{a: a, cfg: cfg, buf: p.Region, n: p.Len}
}

func NewIn(a alloc.Allocator) *Buffer {
	return DefaultConfig.NewIn(a)
}

func WithCapacityIn(n int, a alloc.Allocator) (*Buffer, error) {
	return DefaultConfig.WithCapacityIn(n, a)
}

func FromUTF8In(p []byte, a alloc.Allocator) (*Buffer, error) {
	return DefaultConfig.FromUTF8In(p, a)
}

func FromUTF8UncheckedIn(p []byte, a alloc.Allocator) (*Buffer, error) {
	return DefaultConfig.FromUTF8UncheckedIn(p, a)
}

func FromStringIn(s string, a alloc.Allocator) (*Buffer, error) {
	return DefaultConfig.FromStringIn(s, a)
}

func FromRawParts(p RawParts) *Buffer {
	return DefaultConfig.FromRawParts(p)
}
