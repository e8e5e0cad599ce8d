// Copyright 2025 Enigma ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package storage exposes the byte-buffer layer under tensors.
//
// A Storage owns one contiguous device buffer behind a single-owner pointer.
// Buffers can be shared copy-on-write: LazyClone is O(1), and Materialize
// gives a storage back a private buffer before it is written.
//
// Example:
//
//	s, _ := storage.New(1024, device.CPU0())
//	defer s.Release()
//
//	clone, _ := s.LazyClone()
//	defer clone.Release()
//
//	_ = clone.Materialize() // private copy, s keeps its bytes
package storage

import (
	"unsafe"

	"github.com/enigma-ml/enigma/internal/device"
	"github.com/enigma-ml/enigma/internal/storage"
)

// Storage owns one contiguous byte buffer on one device.
type Storage = storage.Storage

// OwnedPtr is the move-only handle a Storage holds its buffer through.
type OwnedPtr = storage.OwnedPtr

// Deleter frees the payload behind an OwnedPtr.
type Deleter = storage.Deleter

// CowContext is the reference-counted control block behind a shared buffer.
type CowContext = storage.CowContext

// Errors returned by the storage layer.
var (
	ErrInvalidArgument = storage.ErrInvalidArgument
	ErrCowState        = storage.ErrCowState
)

// New constructs a zeroed Storage of sizeBytes on dev.
func New(sizeBytes int, dev device.Device) (*Storage, error) {
	return storage.New(sizeBytes, dev)
}

// NewFromData wraps an externally-owned buffer without taking ownership.
func NewFromData(sizeBytes int, data unsafe.Pointer, dev device.Device) (*Storage, error) {
	return storage.NewFromData(sizeBytes, data, dev)
}

// IsCow reports whether p carries the copy-on-write deleter.
func IsCow(p *OwnedPtr) bool {
	return storage.IsCow(p)
}

// ContextOf returns the CowContext behind a copy-on-write handle, nil
// otherwise.
func ContextOf(p *OwnedPtr) *CowContext {
	return storage.ContextOf(p)
}
