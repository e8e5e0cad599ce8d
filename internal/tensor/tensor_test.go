package tensor

import (
	"errors"
	"strings"
	"testing"

	"github.com/enigma-ml/enigma/internal/device"
	"github.com/enigma-ml/enigma/internal/scalar"
)

func TestNew(t *testing.T) {
	tr, err := New(Shape{3, 2}, scalar.Float64, device.CPU0())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer tr.Release()

	if !tr.Shape().Equal(Shape{3, 2}) {
		t.Errorf("Shape = %v, want [3 2]", tr.Shape())
	}
	if tr.NumElements() != 6 {
		t.Errorf("NumElements = %d, want 6", tr.NumElements())
	}
	if tr.ByteSize() != 48 {
		t.Errorf("ByteSize = %d, want 48", tr.ByteSize())
	}
	if tr.DType() != scalar.Float64 {
		t.Errorf("DType = %s, want Float64", tr.DType())
	}
	if got := tr.Strides(); len(got) != 2 || got[0] != 2 || got[1] != 1 {
		t.Errorf("Strides = %v, want [2 1]", got)
	}
	for i, v := range tr.AsFloat64() {
		if v != 0 {
			t.Fatalf("element %d = %v, want 0", i, v)
		}
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	if _, err := New(Shape{2, -1}, scalar.Float64, device.CPU0()); !errors.Is(err, ErrShape) {
		t.Errorf("negative dimension error = %v, want ErrShape", err)
	}
	if _, err := New(Shape{2}, scalar.Invalid, device.CPU0()); !errors.Is(err, ErrDType) {
		t.Errorf("invalid dtype error = %v, want ErrDType", err)
	}
}

func TestNewFromFloat64(t *testing.T) {
	tr, err := NewFromFloat64(Shape{2, 2}, []float64{1, 2, 3, 4}, device.CPU0())
	if err != nil {
		t.Fatalf("NewFromFloat64: %v", err)
	}
	defer tr.Release()

	data := tr.AsFloat64()
	for i, want := range []float64{1, 2, 3, 4} {
		if data[i] != want {
			t.Errorf("element %d = %v, want %v", i, data[i], want)
		}
	}

	if _, err := NewFromFloat64(Shape{2, 2}, []float64{1, 2}, device.CPU0()); !errors.Is(err, ErrShape) {
		t.Errorf("length mismatch error = %v, want ErrShape", err)
	}
}

func TestScalarShape(t *testing.T) {
	tr, err := New(Shape{}, scalar.Float64, device.CPU0())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer tr.Release()

	if tr.NumElements() != 1 {
		t.Errorf("scalar tensor NumElements = %d, want 1", tr.NumElements())
	}
}

func TestAsInt64ZeroCopy(t *testing.T) {
	tr, err := New(Shape{3, 2}, scalar.Int64, device.CPU0())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer tr.Release()

	data := tr.AsInt64()
	if len(data) != 6 {
		t.Fatalf("AsInt64 length = %d, want 6", len(data))
	}
	data[0] = 42
	if tr.AsInt64()[0] != 42 {
		t.Error("AsInt64 should return a zero-copy view")
	}
}

func TestAsBool(t *testing.T) {
	tr, err := New(Shape{2, 2}, scalar.Bool, device.CPU0())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer tr.Release()

	data := tr.AsBool()
	data[0] = true
	if !tr.AsBool()[0] {
		t.Error("AsBool should return a zero-copy view")
	}
}

func TestAsPanicsOnWrongDType(t *testing.T) {
	tr, err := New(Shape{2}, scalar.Int64, device.CPU0())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer tr.Release()

	defer func() {
		if recover() == nil {
			t.Error("AsFloat64 on Int64 tensor should panic")
		}
	}()
	_ = tr.AsFloat64()
}

func TestCloneSharesUntilWrite(t *testing.T) {
	a, err := NewFromFloat64(Shape{4}, []float64{1, 2, 3, 4}, device.CPU0())
	if err != nil {
		t.Fatalf("NewFromFloat64: %v", err)
	}
	defer a.Release()

	b, err := a.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	defer b.Release()

	if !a.IsShared() || !b.IsShared() {
		t.Fatal("clone should leave both tensors sharing one buffer")
	}

	// Raw writes land in the shared buffer.
	b.AsFloat64()[0] = 9
	if a.AsFloat64()[0] != 9 {
		t.Error("raw write through clone not visible to original")
	}

	// Fill materializes first, so the original keeps its values.
	if err := b.Fill(scalar.FromInt(7)); err != nil {
		t.Fatalf("Fill: %v", err)
	}
	if a.AsFloat64()[0] != 9 {
		t.Error("Fill on clone must not touch the original")
	}
	if b.AsFloat64()[0] != 7 {
		t.Error("Fill did not write the clone")
	}
	if b.IsShared() {
		t.Error("clone still shared after a mutating operation")
	}
}

func TestMaterializeIdempotent(t *testing.T) {
	a, err := New(Shape{8}, scalar.Float64, device.CPU0())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Release()

	b, err := a.Clone()
	if err != nil {
		t.Fatalf("Clone: %v", err)
	}
	defer b.Release()

	if err := b.Materialize(); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	first := b.Storage().Data()
	if err := b.Materialize(); err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	if b.Storage().Data() != first {
		t.Error("second materialize copied the buffer again")
	}
}

func TestString(t *testing.T) {
	tr, err := NewFromFloat64(Shape{2}, []float64{1.5, 2}, device.CPU0())
	if err != nil {
		t.Fatalf("NewFromFloat64: %v", err)
	}
	defer tr.Release()

	got := tr.String()
	want := "Tensor(shape=[2], dtype=Float64, data=[1.50, 2.00])"
	if got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestStringElidesLongTensors(t *testing.T) {
	tr, err := New(Shape{100}, scalar.Int64, device.CPU0())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer tr.Release()

	if got := tr.String(); !strings.Contains(got, "...") {
		t.Errorf("String() should elide long data, got %q", got)
	}
}
