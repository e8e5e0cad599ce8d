package storage

import (
	"bytes"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/enigma-ml/enigma/internal/device"
)

func newFilled(t *testing.T, n int, v byte) *Storage {
	t.Helper()
	s, err := New(n, device.CPU0())
	require.NoError(t, err)
	fill(s, v)
	return s
}

func fill(s *Storage, v byte) {
	b := s.Bytes()
	for i := range b {
		b[i] = v
	}
}

func TestExplicitMaterialize(t *testing.T) {
	original := newFilled(t, 1000, 1)
	defer original.Release()

	clone, err := original.LazyClone()
	require.NoError(t, err)
	defer clone.Release()
	assert.Equal(t, byte(1), clone.Bytes()[0])

	// Without materializing, writes land in the shared buffer.
	fill(clone, 2)
	assert.Equal(t, byte(2), original.Bytes()[0], "data not shared before materialization")

	require.NoError(t, clone.Materialize())
	fill(clone, 3)

	assert.Equal(t, byte(2), original.Bytes()[0], "original changed after materialization")
	assert.Equal(t, byte(3), clone.Bytes()[0], "clone not updated after materialization")
}

func TestSharedModifications(t *testing.T) {
	original := newFilled(t, 1000, 1)
	defer original.Release()

	clone1, err := original.LazyClone()
	require.NoError(t, err)
	defer clone1.Release()
	clone2, err := original.LazyClone()
	require.NoError(t, err)
	defer clone2.Release()

	fill(clone1, 2)
	assert.Equal(t, byte(2), original.Bytes()[0])
	assert.Equal(t, byte(2), clone2.Bytes()[0])

	require.NoError(t, clone2.Materialize())
	fill(clone2, 3)

	assert.Equal(t, byte(3), clone2.Bytes()[0], "clone2 not independent after materialization")
	assert.Equal(t, byte(2), original.Bytes()[0])
	assert.Equal(t, byte(2), clone1.Bytes()[0])
}

func TestRefCountWithMaterialization(t *testing.T) {
	original := newFilled(t, 1000, 0)
	defer original.Release()

	clone1, err := original.LazyClone()
	require.NoError(t, err)
	defer clone1.Release()
	clone2, err := original.LazyClone()
	require.NoError(t, err)
	defer clone2.Release()

	ctx := ContextOf(original.Ptr())
	require.NotNil(t, ctx)
	initial := ctx.RefCount()
	require.EqualValues(t, 3, initial)

	require.NoError(t, clone1.Materialize())
	assert.EqualValues(t, initial-1, ctx.RefCount(), "incorrect refcount after materialization")
	assert.False(t, clone1.IsCow())
}

func TestDataAccessWithoutMaterialize(t *testing.T) {
	original := newFilled(t, 1000, 0)
	defer original.Release()

	b := original.Bytes()
	for i := range b {
		b[i] = byte(i % 256)
	}

	clone, err := original.LazyClone()
	require.NoError(t, err)
	defer clone.Release()

	assert.True(t, bytes.Equal(clone.Bytes(), original.Bytes()), "data not identical in shared state")

	clone.Bytes()[0] = 0xFF
	assert.Equal(t, byte(0xFF), original.Bytes()[0], "modifications not visible without materialization")
}

func TestCloneAfterMaterialize(t *testing.T) {
	original := newFilled(t, 1000, 0)
	defer original.Release()

	clone1, err := original.LazyClone()
	require.NoError(t, err)
	defer clone1.Release()

	require.NoError(t, clone1.Materialize())

	clone2, err := clone1.LazyClone()
	require.NoError(t, err)
	defer clone2.Release()

	fill(clone2, 2)
	assert.Equal(t, byte(2), clone1.Bytes()[0], "materialized storage did not re-enter sharing")
}

func TestMultipleMaterialize(t *testing.T) {
	original := newFilled(t, 1000, 0)
	defer original.Release()

	clone, err := original.LazyClone()
	require.NoError(t, err)
	defer clone.Release()

	require.NoError(t, clone.Materialize())
	first := clone.Data()

	require.NoError(t, clone.Materialize())
	assert.Equal(t, first, clone.Data(), "repeated materialization copied the buffer")
}

func TestCloneChain(t *testing.T) {
	original := newFilled(t, 1000, 1)
	defer original.Release()

	clone1, err := original.LazyClone()
	require.NoError(t, err)
	defer clone1.Release()
	clone2, err := clone1.LazyClone()
	require.NoError(t, err)
	defer clone2.Release()
	clone3, err := clone2.LazyClone()
	require.NoError(t, err)
	defer clone3.Release()

	ctx := ContextOf(original.Ptr())
	require.NotNil(t, ctx)
	assert.EqualValues(t, 4, ctx.RefCount(), "incorrect reference count in clone chain")

	require.NoError(t, clone2.Materialize())
	fill(clone2, 2)

	assert.Equal(t, original.Bytes()[0], clone1.Bytes()[0])
	assert.Equal(t, original.Bytes()[0], clone3.Bytes()[0])
	assert.EqualValues(t, 3, ctx.RefCount())
}

func TestReleaseDropsHolder(t *testing.T) {
	original := newFilled(t, 1000, 0)
	defer original.Release()

	clone1, err := original.LazyClone()
	require.NoError(t, err)
	defer clone1.Release()

	ctx := ContextOf(original.Ptr())
	require.NotNil(t, ctx)
	initial := ctx.RefCount()

	clone2, err := original.LazyClone()
	require.NoError(t, err)
	assert.EqualValues(t, initial+1, ctx.RefCount())

	clone2.Release()
	assert.EqualValues(t, initial, ctx.RefCount(), "reference count not decreased after release")
}

func TestLastHolderMaterializeUnwraps(t *testing.T) {
	original := newFilled(t, 64, 7)

	clone, err := original.LazyClone()
	require.NoError(t, err)
	defer clone.Release()

	data := clone.Data()
	original.Release()

	require.NoError(t, clone.Materialize())
	assert.False(t, clone.IsCow())
	assert.Equal(t, data, clone.Data(), "sole holder should unwrap in place without copying")
	assert.Equal(t, byte(7), clone.Bytes()[0])
}

func TestLazyCloneEmptyStorage(t *testing.T) {
	empty, err := New(0, device.CPU0())
	require.NoError(t, err)
	defer empty.Release()

	clone, err := empty.LazyClone()
	require.NoError(t, err)
	defer clone.Release()

	assert.False(t, empty.IsCow())
	assert.False(t, clone.IsCow())
	assert.Nil(t, clone.Data())
	assert.Equal(t, 0, clone.SizeBytes())
}

func TestMaterializeNonCow(t *testing.T) {
	s := newFilled(t, 32, 5)
	defer s.Release()

	data := s.Data()
	require.NoError(t, s.Materialize())
	assert.Equal(t, data, s.Data())
}

func TestCopyCowPtrRejectsPlainHandle(t *testing.T) {
	s := newFilled(t, 16, 0)
	defer s.Release()

	_, err := CopyCowPtr(s.Ptr())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCowDeleterRunsOriginalOnce(t *testing.T) {
	freed := 0
	var freedData *OwnedPtr
	deleter := func(p *OwnedPtr) {
		freed++
		freedData = p
	}

	payload := make([]byte, 8)
	s, err := NewFromData(8, dataPtr(payload), device.CPU0())
	require.NoError(t, err)
	s.Ptr().SetDeleter(deleter)

	clone, err := s.LazyClone()
	require.NoError(t, err)

	s.Release()
	assert.Equal(t, 0, freed, "payload freed while a holder remains")

	clone.Release()
	require.Equal(t, 1, freed, "payload must be freed exactly once")
	assert.Equal(t, dataPtr(payload), freedData.Data())
}

func TestConcurrentCloneAndRelease(t *testing.T) {
	original := newFilled(t, 256, 9)
	defer original.Release()

	seed, err := original.LazyClone()
	require.NoError(t, err)
	defer seed.Release()

	const workers = 16
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				c, err := original.LazyClone()
				if err != nil {
					t.Error(err)
					return
				}
				if c.Bytes()[0] != 9 {
					t.Error("clone observed torn data")
					return
				}
				c.Release()
			}
		}()
	}
	wg.Wait()

	ctx := ContextOf(original.Ptr())
	require.NotNil(t, ctx)
	assert.EqualValues(t, 2, ctx.RefCount())
}

func TestConcurrentMaterialize(t *testing.T) {
	original := newFilled(t, 512, 3)
	defer original.Release()

	const workers = 8
	clones := make([]*Storage, workers)
	for i := range clones {
		c, err := original.LazyClone()
		require.NoError(t, err)
		clones[i] = c
	}

	var wg sync.WaitGroup
	for _, c := range clones {
		wg.Add(1)
		go func(c *Storage) {
			defer wg.Done()
			if err := c.Materialize(); err != nil {
				t.Error(err)
				return
			}
			if c.Bytes()[0] != 3 {
				t.Error("materialized clone lost its bytes")
			}
			c.Release()
		}(c)
	}
	wg.Wait()

	assert.Equal(t, byte(3), original.Bytes()[0])
}
