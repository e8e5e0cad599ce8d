// Copyright 2025 Enigma ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package scalar provides the tagged numeric value used for tensor element
// types and scalar arguments.
//
// Scalars store their value canonically (floats as Float64, signed integers
// as Int64, unsigned as UInt64, complex as Complex128) and convert between
// representations with range and integrality checks. Arithmetic follows the
// promotion lattice: complex wins over float, float wins over integer, and
// integer operations are overflow-checked.
//
// Example:
//
//	a := scalar.FromInt64(2)
//	b := scalar.FromFloat64(0.5)
//	sum, _ := a.Add(b) // Float64 2.5
package scalar

import "github.com/enigma-ml/enigma/internal/scalar"

// Type is runtime type information for scalars and tensor elements.
type Type = scalar.Type

// Supported scalar types.
const (
	Int8       Type = scalar.Int8
	Int16      Type = scalar.Int16
	Int32      Type = scalar.Int32
	Int64      Type = scalar.Int64
	UInt8      Type = scalar.UInt8
	UInt16     Type = scalar.UInt16
	UInt32     Type = scalar.UInt32
	UInt64     Type = scalar.UInt64
	Float32    Type = scalar.Float32
	Float64    Type = scalar.Float64
	Complex64  Type = scalar.Complex64
	Complex128 Type = scalar.Complex128
	Bool       Type = scalar.Bool
	Invalid    Type = scalar.Invalid
)

// Scalar is a tagged numeric value.
type Scalar = scalar.Scalar

// ErrType is returned for conversions and operations a scalar's type cannot
// support.
var ErrType = scalar.ErrType

// Zero returns the default scalar: Float64 zero on CPU.
func Zero() Scalar { return scalar.Zero() }

// FromFloat64 builds a Float64 scalar.
func FromFloat64(v float64) Scalar { return scalar.FromFloat64(v) }

// FromFloat32 builds a Float64 scalar from a narrow float.
func FromFloat32(v float32) Scalar { return scalar.FromFloat32(v) }

// FromInt64 builds an Int64 scalar.
func FromInt64(v int64) Scalar { return scalar.FromInt64(v) }

// FromInt builds an Int64 scalar.
func FromInt(v int) Scalar { return scalar.FromInt(v) }

// FromUint64 builds a UInt64 scalar.
func FromUint64(v uint64) Scalar { return scalar.FromUint64(v) }

// FromBool builds a Bool scalar.
func FromBool(v bool) Scalar { return scalar.FromBool(v) }

// FromComplex128 builds a Complex128 scalar.
func FromComplex128(v complex128) Scalar { return scalar.FromComplex128(v) }

// Promote returns the common type two scalar types combine into.
func Promote(a, b Type) Type { return scalar.Promote(a, b) }

// CanCast reports whether from may convert to to without an explicit
// narrowing cast.
func CanCast(from, to Type) bool { return scalar.CanCast(from, to) }
