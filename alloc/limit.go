package alloc

import "sync"

// Limit caps the number of live bytes obtained through it.
type Limit struct {
	A   Allocator
	Max int

	mu   sync.Mutex
	live int
}

func NewLimit(a Allocator, max int) *Limit {
	return &Limit{A: a, Max: max}
}

func (l *Limit) take(op string, n int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if n > l.Max-l.live {
		return oom(op, n)
	}
	l.live += n
	return nil
}

func (l *Limit) give(n int) {
	l.mu.Lock()
	l.live -= n
	l.mu.Unlock()
}

// Live returns the number of bytes currently held by callers.
func (l *Limit) Live() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.live
}

func (l *Limit) Allocate(size, align int) ([]byte, error) {
	if err := l.take("allocate", size); err != nil {
		return nil, err
	}
	res, err := l.A.Allocate(size, align)
	if err != nil {
		l.give(size)
	}
	return res, err
}

func (l *Limit) Grow(region []byte, newSize, align int) ([]byte, error) {
	delta := newSize - len(region)
	if err := l.take("grow", delta); err != nil {
		return nil, err
	}
	res, err := l.A.Grow(region, newSize, align)
	if err != nil {
		l.give(delta)
	}
	return res, err
}

func (l *Limit) Shrink(region []byte, newSize, align int) ([]byte, error) {
	res, err := l.A.Shrink(region, newSize, align)
	if err == nil {
		l.give(len(region) - newSize)
	}
	return res, err
}

func (l *Limit) Deallocate(region []byte, align int) {
	l.A.Deallocate(region, align)
	l.give(len(region))
}
