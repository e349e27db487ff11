package alloc

import "sync"

type Op uint8

const (
	OpAllocate Op = 1 << iota
	OpGrow
	OpShrink
)

// Faulty forwards to A but fails the operations selected by Fail with
// ErrOutOfMemory once After of them have succeeded.
type Faulty struct {
	A     Allocator
	Fail  Op
	After int

	mu sync.Mutex
	n  int
}

func (f *Faulty) fault(op Op, name string, size int) error {
	if f.Fail&op == 0 {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.n < f.After {
		f.n++
		return nil
	}
	return oom(name, size)
}

func (f *Faulty) Allocate(size, align int) ([]byte, error) {
	if err := f.fault(OpAllocate, "allocate", size); err != nil {
		return nil, err
	}
	return f.A.Allocate(size, align)
}

func (f *Faulty) Grow(region []byte, newSize, align int) ([]byte, error) {
	if err := f.fault(OpGrow, "grow", newSize); err != nil {
		return nil, err
	}
	return f.A.Grow(region, newSize, align)
}

func (f *Faulty) Shrink(region []byte, newSize, align int) ([]byte, error) {
	if err := f.fault(OpShrink, "shrink", newSize); err != nil {
		return nil, err
	}
	return f.A.Shrink(region, newSize, align)
}

func (f *Faulty) Deallocate(region []byte, align int) {
	f.A.Deallocate(region, align)
}
