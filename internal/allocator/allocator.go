// Package allocator provides device-aware byte allocators for storage buffers.
package allocator

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/enigma-ml/enigma/internal/device"
)

var (
	// ErrAllocationFailure is returned when the underlying allocator cannot
	// satisfy a request.
	ErrAllocationFailure = errors.New("allocation failure")

	// ErrUnsupportedDevice is returned by For when no allocator exists for
	// the requested device.
	ErrUnsupportedDevice = errors.New("unsupported device")
)

// Allocator hands out raw byte buffers on a specific device.
//
// Buffers returned by Allocate live outside the Go heap; every successful
// Allocate must be paired with exactly one Deallocate on the same allocator.
type Allocator interface {
	// Allocate returns a zeroed, aligned buffer of n bytes.
	Allocate(n int) (unsafe.Pointer, error)

	// Deallocate releases a buffer previously returned by Allocate.
	// Passing nil is safe and does nothing.
	Deallocate(p unsafe.Pointer)

	// Device reports where this allocator's buffers live.
	Device() device.Device
}

var cpuOnce = sync.OnceValue(func() Allocator {
	return newCPUAllocator()
})

// For returns the process-wide allocator for the given device.
// CUDA devices are recognized but not implemented yet.
func For(d device.Device) (Allocator, error) {
	switch {
	case d.IsCPU():
		return cpuOnce(), nil
	case d.IsCUDA():
		return nil, fmt.Errorf("%w: cuda allocator not implemented", ErrUnsupportedDevice)
	default:
		return nil, fmt.Errorf("%w: %s", device.ErrInvalidDevice, d)
	}
}
