package alloc

// maxHeapSize bounds single requests to the Go heap: above it the runtime
// would abort the process instead of reporting failure.
const maxHeapSize uint64 = 1 << 40

// Heap allocates from the Go runtime heap. Deallocate leaves the memory to
// the garbage collector.
type Heap struct{}

func (Heap) Allocate(size, align int) ([]byte, error) {
	checkAlign(align)
	if size < 0 || uint64(size) > maxHeapSize {
		return nil, oom("allocate", size)
	}
	if size == 0 {
		return []byte{}, nil
	}
	return heapAlloc(size, align), nil
}

func (h Heap) Grow(region []byte, newSize, align int) ([]byte, error) {
	checkAlign(align)
	if newSize < len(region) {
		panic("alloc: grow to a smaller size")
	}
	if len(region) == 0 {
		return h.Allocate(newSize, align)
	}
	if uint64(newSize) > maxHeapSize {
		return nil, oom("grow", newSize)
	}
	res := heapAlloc(newSize, align)
	copy(res, region)
	return res, nil
}

func (Heap) Shrink(region []byte, newSize, align int) ([]byte, error) {
	checkAlign(align)
	if newSize > len(region) || newSize < 0 {
		panic("alloc: shrink to a larger size")
	}
	if newSize == 0 {
		return []byte{}, nil
	}
	res := heapAlloc(newSize, align)
	copy(res, region)
	return res, nil
}

func (Heap) Deallocate(region []byte, align int) {
	checkAlign(align)
}

func heapAlloc(size, align int) []byte {
	buf := make([]byte, size)
	if Aligned(buf, align) {
		return buf
	}
	buf = make([]byte, size+align-1)
	off := 0
	if rem := int(Addr(buf) & uintptr(align-1)); rem != 0 {
		off = align - rem
	}
	return exact(buf[off:], size)
}
