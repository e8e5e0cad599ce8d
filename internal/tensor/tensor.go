// Package tensor provides dense n-dimensional arrays over the storage layer.
// Tensors share their buffers copy-on-write: Clone is O(1) and mutating
// operations materialize a private buffer first.
package tensor

import (
	"errors"
	"fmt"
	"strings"
	"unsafe"

	"github.com/enigma-ml/enigma/internal/device"
	"github.com/enigma-ml/enigma/internal/scalar"
	"github.com/enigma-ml/enigma/internal/storage"
)

var (
	// ErrShape is returned for invalid shapes and shape mismatches.
	ErrShape = errors.New("tensor shape error")

	// ErrDType is returned when an operation does not support the tensor's
	// element type.
	ErrDType = errors.New("tensor dtype error")
)

// Tensor is a dense row-major array of one element type on one device.
//
// The byte buffer lives in a Storage and may be shared with sibling tensors
// produced by Clone. Reads are safe on shared buffers; writers call
// materialize first so siblings never observe the mutation.
type Tensor struct {
	store  *storage.Storage
	shape  Shape
	stride []int
	dtype  scalar.Type
}

// New allocates a zeroed tensor of the given shape and element type.
func New(shape Shape, dtype scalar.Type, dev device.Device) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if dtype.Size() == 0 {
		return nil, fmt.Errorf("%w: invalid element type %s", ErrDType, dtype)
	}

	store, err := storage.New(shape.NumElements()*dtype.Size(), dev)
	if err != nil {
		return nil, err
	}
	return &Tensor{
		store:  store,
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
	}, nil
}

// NewFromFloat64 allocates a Float64 tensor initialized from data. The data
// length must match the shape's element count.
func NewFromFloat64(shape Shape, data []float64, dev device.Device) (*Tensor, error) {
	t, err := New(shape, scalar.Float64, dev)
	if err != nil {
		return nil, err
	}
	if len(data) != t.NumElements() {
		t.Release()
		return nil, fmt.Errorf("%w: data length %d does not match shape %v", ErrShape, len(data), shape)
	}
	copy(t.AsFloat64(), data)
	return t, nil
}

// Shape returns the tensor's dimensions.
func (t *Tensor) Shape() Shape { return t.shape }

// Strides returns the row-major memory strides.
func (t *Tensor) Strides() []int { return t.stride }

// DType returns the element type.
func (t *Tensor) DType() scalar.Type { return t.dtype }

// Device returns the device the buffer lives on.
func (t *Tensor) Device() device.Device { return t.store.Device() }

// Storage returns the underlying storage.
func (t *Tensor) Storage() *storage.Storage { return t.store }

// NumElements returns the total element count.
func (t *Tensor) NumElements() int { return t.shape.NumElements() }

// ByteSize returns the buffer size in bytes.
func (t *Tensor) ByteSize() int { return t.NumElements() * t.dtype.Size() }

// Data returns the raw byte view of the buffer.
func (t *Tensor) Data() []byte { return t.store.Bytes() }

// AsFloat64 interprets the buffer as []float64. Panics on dtype mismatch.
func (t *Tensor) AsFloat64() []float64 {
	if t.dtype != scalar.Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not Float64", t.dtype))
	}
	return unsafe.Slice((*float64)(t.store.Data()), t.NumElements())
}

// AsFloat32 interprets the buffer as []float32. Panics on dtype mismatch.
func (t *Tensor) AsFloat32() []float32 {
	if t.dtype != scalar.Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not Float32", t.dtype))
	}
	return unsafe.Slice((*float32)(t.store.Data()), t.NumElements())
}

// AsInt64 interprets the buffer as []int64. Panics on dtype mismatch.
func (t *Tensor) AsInt64() []int64 {
	if t.dtype != scalar.Int64 {
		panic(fmt.Sprintf("tensor dtype is %s, not Int64", t.dtype))
	}
	return unsafe.Slice((*int64)(t.store.Data()), t.NumElements())
}

// AsUint64 interprets the buffer as []uint64. Panics on dtype mismatch.
func (t *Tensor) AsUint64() []uint64 {
	if t.dtype != scalar.UInt64 {
		panic(fmt.Sprintf("tensor dtype is %s, not UInt64", t.dtype))
	}
	return unsafe.Slice((*uint64)(t.store.Data()), t.NumElements())
}

// AsBool interprets the buffer as []bool. Panics on dtype mismatch.
func (t *Tensor) AsBool() []bool {
	if t.dtype != scalar.Bool {
		panic(fmt.Sprintf("tensor dtype is %s, not Bool", t.dtype))
	}
	return unsafe.Slice((*bool)(t.store.Data()), t.NumElements())
}

// Clone returns a sibling tensor sharing this buffer copy-on-write.
func (t *Tensor) Clone() (*Tensor, error) {
	store, err := t.store.LazyClone()
	if err != nil {
		return nil, err
	}
	return &Tensor{
		store:  store,
		shape:  t.shape.Clone(),
		stride: append([]int(nil), t.stride...),
		dtype:  t.dtype,
	}, nil
}

// Materialize breaks the tensor out of copy-on-write sharing. A tensor that
// already owns its buffer is left untouched.
func (t *Tensor) Materialize() error {
	return t.store.Materialize()
}

// IsShared reports whether the buffer is held copy-on-write. It stays true
// until this tensor materializes, even after every sibling has materialized
// or been released.
func (t *Tensor) IsShared() bool {
	return t.store.IsCow()
}

// Release frees the buffer, or drops this tensor's share of it.
func (t *Tensor) Release() {
	t.store.Release()
}

// elem renders element i for String.
func (t *Tensor) elem(i int) string {
	switch t.dtype {
	case scalar.Float64:
		return fmt.Sprintf("%.2f", t.AsFloat64()[i])
	case scalar.Float32:
		return fmt.Sprintf("%.2f", t.AsFloat32()[i])
	case scalar.Int64:
		return fmt.Sprintf("%d", t.AsInt64()[i])
	case scalar.UInt64:
		return fmt.Sprintf("%d", t.AsUint64()[i])
	case scalar.Bool:
		return fmt.Sprintf("%t", t.AsBool()[i])
	default:
		return "?"
	}
}

const maxPrintElements = 32

// String renders the shape, dtype and data. Long tensors are elided.
func (t *Tensor) String() string {
	var sb strings.Builder
	sb.WriteString("Tensor(shape=[")
	for i, dim := range t.shape {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%d", dim)
	}
	fmt.Fprintf(&sb, "], dtype=%s, data=[", t.dtype)

	n := t.NumElements()
	shown := min(n, maxPrintElements)
	for i := 0; i < shown; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.elem(i))
	}
	if shown < n {
		sb.WriteString(", ...")
	}
	sb.WriteString("])")
	return sb.String()
}
