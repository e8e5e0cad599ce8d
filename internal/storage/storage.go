// Package storage implements the byte-buffer layer under tensors: sized
// device buffers behind single-owner pointers, with copy-on-write sharing.
package storage

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/enigma-ml/enigma/internal/allocator"
	"github.com/enigma-ml/enigma/internal/device"
)

var (
	// ErrInvalidArgument is returned for nil external data and misuse of the
	// copy-on-write operations.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrCowState is returned when a copy-on-write context is observed in a
	// state that forbids the requested operation.
	ErrCowState = errors.New("copy-on-write state error")
)

// Storage owns one contiguous byte buffer on one device.
//
// The buffer is held through an OwnedPtr and allocated through the device's
// allocator. Storage is not safe for concurrent use by multiple goroutines;
// move it between goroutines, do not alias it.
type Storage struct {
	ptr       *OwnedPtr
	sizeBytes int
	dev       device.Device
	alloc     allocator.Allocator
}

// allocDeleter returns the plain deleter for allocator-owned buffers.
func allocDeleter(a allocator.Allocator) Deleter {
	return func(p *OwnedPtr) {
		a.Deallocate(p.Data())
	}
}

// New constructs a Storage of sizeBytes on dev, allocating when sizeBytes > 0.
// The buffer starts zeroed.
func New(sizeBytes int, dev device.Device) (*Storage, error) {
	if sizeBytes < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrInvalidArgument, sizeBytes)
	}
	alloc, err := allocator.For(dev)
	if err != nil {
		return nil, err
	}

	s := &Storage{sizeBytes: sizeBytes, dev: dev, alloc: alloc}
	if err := s.allocate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NewFromData wraps an externally-owned buffer of sizeBytes. The storage does
// not take ownership: releasing it leaves the buffer untouched.
func NewFromData(sizeBytes int, data unsafe.Pointer, dev device.Device) (*Storage, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: nil external data", ErrInvalidArgument)
	}
	if sizeBytes <= 0 {
		return nil, fmt.Errorf("%w: external buffer size must be positive, got %d", ErrInvalidArgument, sizeBytes)
	}
	alloc, err := allocator.For(dev)
	if err != nil {
		return nil, err
	}

	return &Storage{
		ptr:       NewOwnedPtr(data, nil, nil, dev),
		sizeBytes: sizeBytes,
		dev:       dev,
		alloc:     alloc,
	}, nil
}

func (s *Storage) allocate() error {
	if s.sizeBytes == 0 {
		s.ptr = &OwnedPtr{device: s.dev}
		return nil
	}

	data, err := s.alloc.Allocate(s.sizeBytes)
	if err != nil {
		return err
	}
	s.ptr = NewOwnedPtr(data, nil, allocDeleter(s.alloc), s.dev)
	return nil
}

// Data returns the buffer address, nil for empty storage.
func (s *Storage) Data() unsafe.Pointer {
	if s.ptr == nil {
		return nil
	}
	return s.ptr.Data()
}

// Bytes returns a zero-copy byte view of the buffer. The view stays valid
// only while the storage is alive and unreleased.
func (s *Storage) Bytes() []byte {
	data := s.Data()
	if data == nil {
		return nil
	}
	return unsafe.Slice((*byte)(data), s.sizeBytes)
}

// SizeBytes returns the buffer size.
func (s *Storage) SizeBytes() int { return s.sizeBytes }

// Device returns the device the buffer lives on.
func (s *Storage) Device() device.Device { return s.dev }

// Allocator returns the allocator this storage allocates through.
func (s *Storage) Allocator() allocator.Allocator { return s.alloc }

// Ptr returns the internal handle. Mutating it is the business of the
// copy-on-write operations.
func (s *Storage) Ptr() *OwnedPtr { return s.ptr }

// SetPtr replaces the internal handle. The previous handle is released
// normally.
func (s *Storage) SetPtr(p *OwnedPtr) {
	if s.ptr != nil {
		s.ptr.Release()
	}
	s.ptr = p
}

// Resize discards the current buffer and allocates a fresh one of n bytes.
// Resizing to the current size is a no-op. Contents are not preserved.
// Resize refuses copy-on-write storage: materialize first.
func (s *Storage) Resize(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative size %d", ErrInvalidArgument, n)
	}
	if n == s.sizeBytes {
		return nil
	}
	if s.IsCow() {
		return fmt.Errorf("%w: resize on copy-on-write storage; materialize first", ErrInvalidArgument)
	}

	old := s.ptr
	oldSize := s.sizeBytes
	s.sizeBytes = n
	if err := s.allocate(); err != nil {
		s.ptr = old
		s.sizeBytes = oldSize
		return err
	}
	old.Release()
	return nil
}

// LazyClone returns a sibling storage sharing this buffer copy-on-write.
func (s *Storage) LazyClone() (*Storage, error) {
	return LazyClone(s)
}

// Materialize breaks this storage out of copy-on-write sharing.
func (s *Storage) Materialize() error {
	return Materialize(s)
}

// IsCow reports whether the storage holds its buffer through a copy-on-write
// handle. It stays true until this storage materializes, even after every
// sibling has materialized or been released.
func (s *Storage) IsCow() bool {
	return s.ptr != nil && IsCow(s.ptr)
}

// Release frees the buffer (or drops this holder's share of it). The storage
// is empty afterwards; Release on an empty storage does nothing.
func (s *Storage) Release() {
	if s.ptr != nil {
		s.ptr.Release()
	}
}
