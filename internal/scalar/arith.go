package scalar

import (
	"fmt"
	"math"
)

func addOverflows(a, b int64) bool {
	if b > 0 {
		return a > math.MaxInt64-b
	}
	return a < math.MinInt64-b
}

func subOverflows(a, b int64) bool {
	if b < 0 {
		return a > math.MaxInt64+b
	}
	return a < math.MinInt64+b
}

func mulOverflows(a, b int64) bool {
	if a == 0 || b == 0 {
		return false
	}
	if b == -1 {
		return a == math.MinInt64
	}
	p := a * b
	return p/b != a
}

func mulOverflowsUnsigned(a, b uint64) bool {
	return b != 0 && a > math.MaxUint64/b
}

// Neg returns the arithmetic negation. Unsigned values other than zero and
// booleans cannot be negated.
func (s Scalar) Neg() (Scalar, error) {
	switch s.typ {
	case Float64, Float32:
		return FromFloat64(-s.f), nil
	case Int64:
		return FromInt64(-s.i), nil
	case UInt64:
		if s.u > 0 {
			return Scalar{}, fmt.Errorf("%w: cannot negate unsigned value %d", ErrType, s.u)
		}
		return FromUint64(0), nil
	case Complex128, Complex64:
		return FromComplex128(-s.c), nil
	case Bool:
		return Scalar{}, fmt.Errorf("%w: cannot negate boolean value", ErrType)
	default:
		return Scalar{}, fmt.Errorf("%w: cannot negate %s", ErrType, s.typ)
	}
}

// Add returns s + other under the promotion rules: complex wins over float,
// float wins over integer. Integer addition is overflow-checked; adding two
// booleans is an error.
func (s Scalar) Add(other Scalar) (Scalar, error) {
	if s.typ == other.typ {
		switch s.typ {
		case Float64:
			return FromFloat64(s.f + other.f), nil
		case Int64:
			if addOverflows(s.i, other.i) {
				return Scalar{}, fmt.Errorf("%w: integer overflow in addition", ErrType)
			}
			return FromInt64(s.i + other.i), nil
		case UInt64:
			if s.u > math.MaxUint64-other.u {
				return Scalar{}, fmt.Errorf("%w: unsigned integer overflow in addition", ErrType)
			}
			return FromUint64(s.u + other.u), nil
		case Complex128:
			return FromComplex128(s.c + other.c), nil
		case Bool:
			return Scalar{}, fmt.Errorf("%w: cannot add boolean values", ErrType)
		}
	}

	if s.IsComplex() || other.IsComplex() {
		lhs, err := s.Complex128()
		if err != nil {
			return Scalar{}, err
		}
		rhs, err := other.Complex128()
		if err != nil {
			return Scalar{}, err
		}
		return FromComplex128(lhs + rhs), nil
	}
	if s.IsFloatingPoint() || other.IsFloatingPoint() {
		lhs, err := s.Float64()
		if err != nil {
			return Scalar{}, err
		}
		rhs, err := other.Float64()
		if err != nil {
			return Scalar{}, err
		}
		return FromFloat64(lhs + rhs), nil
	}

	lhs, err := s.Int64()
	if err != nil {
		return Scalar{}, err
	}
	rhs, err := other.Int64()
	if err != nil {
		return Scalar{}, err
	}
	if addOverflows(lhs, rhs) {
		return Scalar{}, fmt.Errorf("%w: integer overflow in addition", ErrType)
	}
	return FromInt64(lhs + rhs), nil
}

// Sub returns s - other with the same promotion and overflow discipline as
// Add; unsigned subtraction additionally rejects underflow.
func (s Scalar) Sub(other Scalar) (Scalar, error) {
	if s.typ == other.typ {
		switch s.typ {
		case Float64:
			return FromFloat64(s.f - other.f), nil
		case Int64:
			if subOverflows(s.i, other.i) {
				return Scalar{}, fmt.Errorf("%w: integer overflow in subtraction", ErrType)
			}
			return FromInt64(s.i - other.i), nil
		case UInt64:
			if s.u < other.u {
				return Scalar{}, fmt.Errorf("%w: unsigned integer underflow in subtraction", ErrType)
			}
			return FromUint64(s.u - other.u), nil
		case Complex128:
			return FromComplex128(s.c - other.c), nil
		case Bool:
			return Scalar{}, fmt.Errorf("%w: cannot subtract boolean values", ErrType)
		}
	}

	if s.IsComplex() || other.IsComplex() {
		lhs, err := s.Complex128()
		if err != nil {
			return Scalar{}, err
		}
		rhs, err := other.Complex128()
		if err != nil {
			return Scalar{}, err
		}
		return FromComplex128(lhs - rhs), nil
	}
	if s.IsFloatingPoint() || other.IsFloatingPoint() {
		lhs, err := s.Float64()
		if err != nil {
			return Scalar{}, err
		}
		rhs, err := other.Float64()
		if err != nil {
			return Scalar{}, err
		}
		return FromFloat64(lhs - rhs), nil
	}

	lhs, err := s.Int64()
	if err != nil {
		return Scalar{}, err
	}
	rhs, err := other.Int64()
	if err != nil {
		return Scalar{}, err
	}
	if subOverflows(lhs, rhs) {
		return Scalar{}, fmt.Errorf("%w: integer overflow in subtraction", ErrType)
	}
	return FromInt64(lhs - rhs), nil
}

// Mul returns s * other. Booleans multiply as logical AND; everything else
// follows the Add promotion rules with overflow checks.
func (s Scalar) Mul(other Scalar) (Scalar, error) {
	if s.typ == other.typ {
		switch s.typ {
		case Float64:
			return FromFloat64(s.f * other.f), nil
		case Int64:
			if mulOverflows(s.i, other.i) {
				return Scalar{}, fmt.Errorf("%w: integer overflow in multiplication", ErrType)
			}
			return FromInt64(s.i * other.i), nil
		case UInt64:
			if mulOverflowsUnsigned(s.u, other.u) {
				return Scalar{}, fmt.Errorf("%w: unsigned integer overflow in multiplication", ErrType)
			}
			return FromUint64(s.u * other.u), nil
		case Complex128:
			return FromComplex128(s.c * other.c), nil
		case Bool:
			return FromBool(s.b && other.b), nil
		}
	}

	if s.IsComplex() || other.IsComplex() {
		lhs, err := s.Complex128()
		if err != nil {
			return Scalar{}, err
		}
		rhs, err := other.Complex128()
		if err != nil {
			return Scalar{}, err
		}
		return FromComplex128(lhs * rhs), nil
	}
	if s.IsFloatingPoint() || other.IsFloatingPoint() {
		lhs, err := s.Float64()
		if err != nil {
			return Scalar{}, err
		}
		rhs, err := other.Float64()
		if err != nil {
			return Scalar{}, err
		}
		return FromFloat64(lhs * rhs), nil
	}

	lhs, err := s.Int64()
	if err != nil {
		return Scalar{}, err
	}
	rhs, err := other.Int64()
	if err != nil {
		return Scalar{}, err
	}
	if mulOverflows(lhs, rhs) {
		return Scalar{}, fmt.Errorf("%w: integer overflow in multiplication", ErrType)
	}
	return FromInt64(lhs * rhs), nil
}

// Div returns s / other. Division by zero is rejected for every type.
// Integer division stays integral only when exact, otherwise it promotes to
// Float64.
func (s Scalar) Div(other Scalar) (Scalar, error) {
	if other.IsComplex() {
		if other.c == 0 {
			return Scalar{}, fmt.Errorf("%w: division by complex zero", ErrType)
		}
	} else {
		v, err := other.Float64()
		if err != nil {
			return Scalar{}, err
		}
		if math.Abs(v) < math.SmallestNonzeroFloat64 {
			return Scalar{}, fmt.Errorf("%w: division by zero", ErrType)
		}
	}

	if s.IsComplex() || other.IsComplex() {
		lhs, err := s.Complex128()
		if err != nil {
			return Scalar{}, err
		}
		rhs, err := other.Complex128()
		if err != nil {
			return Scalar{}, err
		}
		return FromComplex128(lhs / rhs), nil
	}

	if s.IsIntegral() && other.IsIntegral() {
		lhs, err := s.Int64()
		if err != nil {
			return Scalar{}, err
		}
		rhs, err := other.Float64()
		if err != nil {
			return Scalar{}, err
		}
		quotient := float64(lhs) / rhs
		if math.Floor(quotient) != quotient {
			return FromFloat64(quotient), nil
		}
		if quotient <= math.MaxInt64 && quotient >= math.MinInt64 {
			return FromInt64(int64(quotient)), nil
		}
	}

	lhs, err := s.Float64()
	if err != nil {
		return Scalar{}, err
	}
	rhs, err := other.Float64()
	if err != nil {
		return Scalar{}, err
	}
	return FromFloat64(lhs / rhs), nil
}

func almostEqual(a, b float64) bool {
	if a == b {
		return true
	}
	if math.Abs(a) < epsilon && math.Abs(b) < epsilon {
		return true
	}
	diff := math.Abs(a - b)
	largest := math.Max(math.Abs(a), math.Abs(b))
	return diff <= largest*epsilon
}

func complexAlmostEqual(a, b complex128) bool {
	return almostEqual(real(a), real(b)) && almostEqual(imag(a), imag(b))
}

// Equal compares two scalars by value. Floats compare approximately;
// booleans compare only against booleans; conversions that fail make the
// values unequal.
func (s Scalar) Equal(other Scalar) bool {
	if s.typ == other.typ {
		switch s.typ {
		case Float64:
			return almostEqual(s.f, other.f)
		case Int64:
			return s.i == other.i
		case UInt64:
			return s.u == other.u
		case Complex128:
			return complexAlmostEqual(s.c, other.c)
		case Bool:
			return s.b == other.b
		default:
			return false
		}
	}

	if s.IsBoolean() || other.IsBoolean() {
		return false
	}
	if s.IsComplex() || other.IsComplex() {
		lhs, errL := s.Complex128()
		rhs, errR := other.Complex128()
		if errL != nil || errR != nil {
			return false
		}
		return complexAlmostEqual(lhs, rhs)
	}
	if s.IsFloatingPoint() || other.IsFloatingPoint() {
		lhs, errL := s.Float64()
		rhs, errR := other.Float64()
		if errL != nil || errR != nil {
			return false
		}
		return almostEqual(lhs, rhs)
	}
	if s.IsIntegral() && other.IsIntegral() {
		lhs, errL := s.Int64()
		rhs, errR := other.Int64()
		if errL == nil && errR == nil {
			return lhs == rhs
		}
		lu, errL := s.Uint64()
		ru, errR := other.Uint64()
		if errL == nil && errR == nil {
			return lu == ru
		}
	}
	return false
}
