package tensor

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/enigma-ml/enigma/internal/parallel"
	"github.com/enigma-ml/enigma/internal/scalar"
)

// Fill sets every element to v, converted to the tensor's element type. The
// tensor is materialized first so copy-on-write siblings keep their values.
func (t *Tensor) Fill(v scalar.Scalar) error {
	if err := t.store.Materialize(); err != nil {
		return err
	}
	cfg := parallel.DefaultConfig()
	switch t.dtype {
	case scalar.Float64:
		f, err := v.Float64()
		if err != nil {
			return err
		}
		data := t.AsFloat64()
		parallel.For(len(data), func(i int) { data[i] = f }, cfg)
	case scalar.Float32:
		f, err := v.Float64()
		if err != nil {
			return err
		}
		data := t.AsFloat32()
		f32 := float32(f)
		parallel.For(len(data), func(i int) { data[i] = f32 }, cfg)
	case scalar.Int64:
		n, err := v.Int64()
		if err != nil {
			return err
		}
		data := t.AsInt64()
		parallel.For(len(data), func(i int) { data[i] = n }, cfg)
	case scalar.UInt64:
		u, err := v.Uint64()
		if err != nil {
			return err
		}
		data := t.AsUint64()
		parallel.For(len(data), func(i int) { data[i] = u }, cfg)
	case scalar.Bool:
		b, err := v.Bool()
		if err != nil {
			return err
		}
		data := t.AsBool()
		parallel.For(len(data), func(i int) { data[i] = b }, cfg)
	default:
		return fmt.Errorf("%w: fill does not support %s", ErrDType, t.dtype)
	}
	return nil
}

// Randn fills the tensor with samples from the standard normal distribution
// using the Box-Muller transform. Float tensors only.
func (t *Tensor) Randn() error {
	if !t.dtype.IsFloating() {
		return fmt.Errorf("%w: randn requires a float tensor, got %s", ErrDType, t.dtype)
	}
	if err := t.store.Materialize(); err != nil {
		return err
	}

	n := t.NumElements()
	switch t.dtype {
	case scalar.Float64:
		data := t.AsFloat64()
		for i := 0; i < n; i += 2 {
			u1 := rand.Float64() //nolint:gosec // statistical sampling, not security
			u2 := rand.Float64() //nolint:gosec // statistical sampling, not security
			r := math.Sqrt(-2 * math.Log(u1+1e-300))
			data[i] = r * math.Cos(2*math.Pi*u2)
			if i+1 < n {
				data[i+1] = r * math.Sin(2*math.Pi*u2)
			}
		}
	case scalar.Float32:
		data := t.AsFloat32()
		for i := 0; i < n; i += 2 {
			u1 := rand.Float64() //nolint:gosec // statistical sampling, not security
			u2 := rand.Float64() //nolint:gosec // statistical sampling, not security
			r := math.Sqrt(-2 * math.Log(u1+1e-300))
			data[i] = float32(r * math.Cos(2*math.Pi*u2))
			if i+1 < n {
				data[i+1] = float32(r * math.Sin(2*math.Pi*u2))
			}
		}
	}
	return nil
}

// checkBinary validates a same-shape, same-dtype element-wise operand pair.
func (t *Tensor) checkBinary(other *Tensor) error {
	if !t.shape.Equal(other.shape) {
		return fmt.Errorf("%w: %v vs %v", ErrShape, t.shape, other.shape)
	}
	if t.dtype != other.dtype {
		return fmt.Errorf("%w: %s vs %s", ErrDType, t.dtype, other.dtype)
	}
	return nil
}

// Add returns the element-wise sum of two tensors of identical shape and
// element type. Boolean tensors do not add.
func (t *Tensor) Add(other *Tensor) (*Tensor, error) {
	if err := t.checkBinary(other); err != nil {
		return nil, err
	}
	out, err := New(t.shape, t.dtype, t.Device())
	if err != nil {
		return nil, err
	}
	cfg := parallel.DefaultConfig()
	switch t.dtype {
	case scalar.Float64:
		a, b, dst := t.AsFloat64(), other.AsFloat64(), out.AsFloat64()
		parallel.For(len(dst), func(i int) { dst[i] = a[i] + b[i] }, cfg)
	case scalar.Float32:
		a, b, dst := t.AsFloat32(), other.AsFloat32(), out.AsFloat32()
		parallel.For(len(dst), func(i int) { dst[i] = a[i] + b[i] }, cfg)
	case scalar.Int64:
		a, b, dst := t.AsInt64(), other.AsInt64(), out.AsInt64()
		parallel.For(len(dst), func(i int) { dst[i] = a[i] + b[i] }, cfg)
	case scalar.UInt64:
		a, b, dst := t.AsUint64(), other.AsUint64(), out.AsUint64()
		parallel.For(len(dst), func(i int) { dst[i] = a[i] + b[i] }, cfg)
	default:
		out.Release()
		return nil, fmt.Errorf("%w: add does not support %s", ErrDType, t.dtype)
	}
	return out, nil
}

// Mul returns the element-wise product. Boolean tensors multiply as logical
// AND.
func (t *Tensor) Mul(other *Tensor) (*Tensor, error) {
	if err := t.checkBinary(other); err != nil {
		return nil, err
	}
	out, err := New(t.shape, t.dtype, t.Device())
	if err != nil {
		return nil, err
	}
	cfg := parallel.DefaultConfig()
	switch t.dtype {
	case scalar.Float64:
		a, b, dst := t.AsFloat64(), other.AsFloat64(), out.AsFloat64()
		parallel.For(len(dst), func(i int) { dst[i] = a[i] * b[i] }, cfg)
	case scalar.Float32:
		a, b, dst := t.AsFloat32(), other.AsFloat32(), out.AsFloat32()
		parallel.For(len(dst), func(i int) { dst[i] = a[i] * b[i] }, cfg)
	case scalar.Int64:
		a, b, dst := t.AsInt64(), other.AsInt64(), out.AsInt64()
		parallel.For(len(dst), func(i int) { dst[i] = a[i] * b[i] }, cfg)
	case scalar.UInt64:
		a, b, dst := t.AsUint64(), other.AsUint64(), out.AsUint64()
		parallel.For(len(dst), func(i int) { dst[i] = a[i] * b[i] }, cfg)
	case scalar.Bool:
		a, b, dst := t.AsBool(), other.AsBool(), out.AsBool()
		parallel.For(len(dst), func(i int) { dst[i] = a[i] && b[i] }, cfg)
	default:
		out.Release()
		return nil, fmt.Errorf("%w: mul does not support %s", ErrDType, t.dtype)
	}
	return out, nil
}

const equalEpsilon = 1e-7

func floatsAlmostEqual(a, b float64) bool {
	if a == b {
		return true
	}
	diff := math.Abs(a - b)
	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest < equalEpsilon {
		return true
	}
	return diff <= largest*equalEpsilon
}

// Equal reports element-wise equality of two tensors of identical shape and
// element type. Floats compare approximately.
func (t *Tensor) Equal(other *Tensor) bool {
	if err := t.checkBinary(other); err != nil {
		return false
	}
	n := t.NumElements()
	switch t.dtype {
	case scalar.Float64:
		a, b := t.AsFloat64(), other.AsFloat64()
		for i := 0; i < n; i++ {
			if !floatsAlmostEqual(a[i], b[i]) {
				return false
			}
		}
	case scalar.Float32:
		a, b := t.AsFloat32(), other.AsFloat32()
		for i := 0; i < n; i++ {
			if !floatsAlmostEqual(float64(a[i]), float64(b[i])) {
				return false
			}
		}
	case scalar.Int64:
		a, b := t.AsInt64(), other.AsInt64()
		for i := 0; i < n; i++ {
			if a[i] != b[i] {
				return false
			}
		}
	case scalar.UInt64:
		a, b := t.AsUint64(), other.AsUint64()
		for i := 0; i < n; i++ {
			if a[i] != b[i] {
				return false
			}
		}
	case scalar.Bool:
		a, b := t.AsBool(), other.AsBool()
		for i := 0; i < n; i++ {
			if a[i] != b[i] {
				return false
			}
		}
	default:
		return false
	}
	return true
}
