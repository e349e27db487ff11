package alloc

import "sync"

// Stats counts calls made through a Counting allocator.
type Stats struct {
	Allocs   int
	Grows    int
	Shrinks  int
	Deallocs int
	Failures int
	Live     int
	Peak     int
}

// Counting forwards to A and records what passed through it.
type Counting struct {
	A Allocator

	mu sync.Mutex
	st Stats
}

func NewCounting(a Allocator) *Counting {
	return &Counting{A: a}
}

func (c *Counting) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.st
}

func (c *Counting) record(counter *int, delta int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	*counter++
	if err != nil {
		c.st.Failures++
		return
	}
	c.st.Live += delta
	if c.st.Live > c.st.Peak {
		c.st.Peak = c.st.Live
	}
}

func (c *Counting) Allocate(size, align int) ([]byte, error) {
	res, err := c.A.Allocate(size, align)
	c.record(&c.st.Allocs, size, err)
	return res, err
}

func (c *Counting) Grow(region []byte, newSize, align int) ([]byte, error) {
	res, err := c.A.Grow(region, newSize, align)
	c.record(&c.st.Grows, newSize-len(region), err)
	return res, err
}

func (c *Counting) Shrink(region []byte, newSize, align int) ([]byte, error) {
	res, err := c.A.Shrink(region, newSize, align)
	c.record(&c.st.Shrinks, newSize-len(region), err)
	return res, err
}

func (c *Counting) Deallocate(region []byte, align int) {
	c.A.Deallocate(region, align)
	c.record(&c.st.Deallocs, -len(region), nil)
}
