// Package scalar provides the numeric sum type used for tensor element types
// and scalar arguments, with checked conversion and type promotion.
package scalar

// Type is runtime type information for scalars and tensor elements.
type Type int8

// Supported scalar types.
const (
	Int8 Type = iota
	Int16
	Int32
	Int64
	UInt8
	UInt16
	UInt32
	UInt64
	Float32
	Float64
	Complex64
	Complex128
	Bool
	Invalid
)

// Size returns the byte size of one value of this type.
func (t Type) Size() int {
	switch t {
	case Int8, UInt8, Bool:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Int64, UInt64, Float64, Complex64:
		return 8
	case Complex128:
		return 16
	default:
		return 0
	}
}

// String returns the display name of the type.
func (t Type) String() string {
	switch t {
	case Int8:
		return "Int8"
	case Int16:
		return "Int16"
	case Int32:
		return "Int32"
	case Int64:
		return "Int64"
	case UInt8:
		return "UInt8"
	case UInt16:
		return "UInt16"
	case UInt32:
		return "UInt32"
	case UInt64:
		return "UInt64"
	case Float32:
		return "Float32"
	case Float64:
		return "Float64"
	case Complex64:
		return "Complex64"
	case Complex128:
		return "Complex128"
	case Bool:
		return "Bool"
	default:
		return "Invalid"
	}
}

// IsIntegral reports whether t is a signed or unsigned integer type.
func (t Type) IsIntegral() bool {
	switch t {
	case Int8, Int16, Int32, Int64, UInt8, UInt16, UInt32, UInt64:
		return true
	default:
		return false
	}
}

// IsUnsigned reports whether t is an unsigned integer type.
func (t Type) IsUnsigned() bool {
	switch t {
	case UInt8, UInt16, UInt32, UInt64:
		return true
	default:
		return false
	}
}

// IsFloating reports whether t is a floating-point type.
func (t Type) IsFloating() bool {
	return t == Float32 || t == Float64
}

// IsComplex reports whether t is a complex type.
func (t Type) IsComplex() bool {
	return t == Complex64 || t == Complex128
}

// IsBoolean reports whether t is Bool.
func (t Type) IsBoolean() bool {
	return t == Bool
}

// width returns the bit width of integer types, 0 otherwise.
func width(t Type) int {
	switch t {
	case Int8, UInt8:
		return 8
	case Int16, UInt16:
		return 16
	case Int32, UInt32:
		return 32
	case Int64, UInt64:
		return 64
	default:
		return 0
	}
}

// Promote returns the common type two scalars combine into.
//
// Bool defers to the other operand; any complex operand promotes to
// Complex128; a float operand promotes to Float64 when either side is
// Float64, otherwise to Float32. Mixed-signedness integers promote to the unsigned type when it is
// at least as wide, otherwise to the next wider signed type.
func Promote(a, b Type) Type {
	if a == b {
		return a
	}
	if a == Invalid || b == Invalid {
		return Invalid
	}
	if a == Bool {
		return b
	}
	if b == Bool {
		return a
	}
	if a.IsComplex() || b.IsComplex() {
		return Complex128
	}
	if a.IsFloating() || b.IsFloating() {
		if a == Float64 || b == Float64 {
			return Float64
		}
		return Float32
	}
	if a.IsIntegral() && b.IsIntegral() {
		if a.IsUnsigned() == b.IsUnsigned() {
			if width(a) >= width(b) {
				return a
			}
			return b
		}
		unsignedType, signedType := a, b
		if b.IsUnsigned() {
			unsignedType, signedType = b, a
		}
		if width(unsignedType) >= width(signedType) {
			return unsignedType
		}
		switch width(signedType) {
		case 8:
			return Int16
		case 16:
			return Int32
		default:
			return Int64
		}
	}
	return Float64
}

// CanCast reports whether a value of type from may be converted to type to
// without an explicit narrowing cast. Bool converts to and from anything;
// complex never implicitly narrows to non-complex; floats never implicitly
// become integers; unsigned values convert to signed only when the signed
// type is strictly wider.
func CanCast(from, to Type) bool {
	if from == to {
		return true
	}
	if from == Invalid || to == Invalid {
		return false
	}
	if from == Bool || to == Bool {
		return true
	}
	if from.IsComplex() && !to.IsComplex() {
		return false
	}
	if from.IsFloating() && to.IsIntegral() {
		return false
	}
	if from.IsUnsigned() && to.IsIntegral() && !to.IsUnsigned() {
		return width(to) > width(from)
	}
	return true
}
