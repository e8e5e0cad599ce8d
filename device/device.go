// Copyright 2025 Enigma ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package device identifies the compute device a buffer or scalar lives on.
//
// A Device pairs a type (CPU, CUDA) with an ordinal index. CPU devices
// accept only index 0 (or -1 for the default); CUDA devices may carry any
// non-negative ordinal.
//
// Example:
//
//	dev := device.CPU0()
//	gpu, err := device.Parse("cuda:1")
package device

import "github.com/enigma-ml/enigma/internal/device"

// Type enumerates the supported device kinds.
type Type = device.Type

// Supported device types.
const (
	Invalid Type = device.Invalid
	CPU     Type = device.CPU
	CUDA    Type = device.CUDA
)

// Device identifies one compute device.
type Device = device.Device

// ErrInvalidDevice is returned for unknown types, out-of-range indices and
// unparseable device strings.
var ErrInvalidDevice = device.ErrInvalidDevice

// New constructs a device, validating the type and index.
func New(t Type, index int) (Device, error) {
	return device.New(t, index)
}

// MustNew is New, panicking on invalid input.
func MustNew(t Type, index int) Device {
	return device.MustNew(t, index)
}

// CPU0 returns the default CPU device.
func CPU0() Device {
	return device.CPU0()
}

// Parse reads a device from its string form, e.g. "cpu", "cuda", "cuda:1".
func Parse(s string) (Device, error) {
	return device.Parse(s)
}
