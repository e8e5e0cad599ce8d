// Copyright 2025 Enigma ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor exposes dense n-dimensional arrays over the storage layer.
package tensor

import (
	"github.com/enigma-ml/enigma/internal/device"
	"github.com/enigma-ml/enigma/internal/scalar"
	"github.com/enigma-ml/enigma/internal/tensor"
)

// Shape holds the dimensions of a tensor.
type Shape = tensor.Shape

// Tensor is a dense row-major array of one element type on one device.
//
// Tensors share buffers copy-on-write:
//
//	a, _ := tensor.New(tensor.Shape{2, 3}, scalar.Float64, device.CPU0())
//	b, _ := a.Clone()              // O(1), shares a's buffer
//	_ = b.Fill(scalar.FromInt(1))  // materializes b; a is unchanged
type Tensor = tensor.Tensor

// Errors returned by tensor operations.
var (
	ErrShape = tensor.ErrShape
	ErrDType = tensor.ErrDType
)

// New allocates a zeroed tensor of the given shape and element type.
func New(shape Shape, dtype scalar.Type, dev device.Device) (*Tensor, error) {
	return tensor.New(shape, dtype, dev)
}

// NewFromFloat64 allocates a Float64 tensor initialized from data.
func NewFromFloat64(shape Shape, data []float64, dev device.Device) (*Tensor, error) {
	return tensor.NewFromFloat64(shape, data, dev)
}
