package allocator

import (
	"fmt"
	"sync"
	"unsafe"

	"modernc.org/memory"

	"github.com/enigma-ml/enigma/internal/device"
)

// cpuAllocator wraps the modernc.org/memory malloc. Allocations live off the
// Go heap, so the raw addresses it hands out stay stable and must be released
// explicitly through Deallocate.
//
// The underlying memory.Allocator is not safe for concurrent use; a mutex
// serializes it.
type cpuAllocator struct {
	mu  sync.Mutex
	mem memory.Allocator
}

func newCPUAllocator() *cpuAllocator {
	return &cpuAllocator{}
}

// Allocate returns a zeroed buffer of n bytes.
// Allocate(0) returns a nil pointer and no error.
func (a *cpuAllocator) Allocate(n int) (unsafe.Pointer, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrAllocationFailure, n)
	}
	if n == 0 {
		return nil, nil
	}

	a.mu.Lock()
	r, err := a.mem.UnsafeCalloc(n)
	a.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: calloc %d bytes: %v", ErrAllocationFailure, n, err)
	}
	return unsafe.Pointer(r), nil
}

// Deallocate releases a buffer obtained from Allocate. Safe on nil.
func (a *cpuAllocator) Deallocate(p unsafe.Pointer) {
	if p == nil {
		return
	}

	a.mu.Lock()
	_ = a.mem.UnsafeFree(p)
	a.mu.Unlock()
}

// Device reports the canonical CPU device.
func (a *cpuAllocator) Device() device.Device {
	return device.CPU0()
}
