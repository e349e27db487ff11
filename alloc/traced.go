package alloc

import (
	"go.uber.org/zap"
)

// Traced logs every call at debug level. A nil Log discards output.
type Traced struct {
	A   Allocator
	Log *zap.Logger
}

func NewTraced(a Allocator, log *zap.Logger) *Traced {
	if log == nil {
		log = zap.NewNop()
	}
	return &Traced{A: a, Log: log}
}

func (t *Traced) logger() *zap.Logger {
	if t.Log == nil {
		return zap.NewNop()
	}
	return t.Log
}

func (t *Traced) Allocate(size, align int) ([]byte, error) {
	res, err := t.A.Allocate(size, align)
	t.logger().Debug("allocate",
		zap.Int("size", size),
		zap.Int("align", align),
		zap.Uintptr("addr", Addr(res)),
		zap.Error(err))
	return res, err
}

func (t *Traced) Grow(region []byte, newSize, align int) ([]byte, error) {
	res, err := t.A.Grow(region, newSize, align)
	t.logger().Debug("grow",
		zap.Int("old_size", len(region)),
		zap.Int("new_size", newSize),
		zap.Uintptr("old_addr", Addr(region)),
		zap.Uintptr("addr", Addr(res)),
		zap.Bool("in_place", err == nil && Addr(res) == Addr(region)),
		zap.Error(err))
	return res, err
}

func (t *Traced) Shrink(region []byte, newSize, align int) ([]byte, error) {
	res, err := t.A.Shrink(region, newSize, align)
	t.logger().Debug("shrink",
		zap.Int("old_size", len(region)),
		zap.Int("new_size", newSize),
		zap.Uintptr("addr", Addr(res)),
		zap.Error(err))
	return res, err
}

func (t *Traced) Deallocate(region []byte, align int) {
	t.A.Deallocate(region, align)
	t.logger().Debug("deallocate",
		zap.Int("size", len(region)),
		zap.Uintptr("addr", Addr(region)))
}
