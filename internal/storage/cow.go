package storage

import (
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"unsafe"
)

// Copy-on-write sharing of storage buffers.
//
// A shared buffer is held collectively through a heap-allocated CowContext.
// Every sharing OwnedPtr points its ctx at the context and carries the COW
// deleter; the context remembers the original ctx/deleter so the payload can
// be freed exactly once, by whichever holder decrements the count to zero.

// CowContext state values.
const (
	cowActive int32 = iota
	cowPendingDelete
	cowDeleted
)

// CowContext is the reference-counted control block behind a shared buffer.
type CowContext struct {
	originalCtx     unsafe.Pointer
	originalDeleter Deleter

	refcount atomic.Int64
	state    atomic.Int32
	mu       sync.RWMutex
}

func newCowContext(originalCtx unsafe.Pointer, originalDeleter Deleter) *CowContext {
	c := &CowContext{originalCtx: originalCtx, originalDeleter: originalDeleter}
	c.state.Store(cowActive)
	return c
}

// RefCount returns the number of live holders.
func (c *CowContext) RefCount() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.refcount.Load()
}

// OriginalContext returns the ctx the pre-COW handle carried.
func (c *CowContext) OriginalContext() unsafe.Pointer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.originalCtx
}

// OriginalDeleter returns the deleter the pre-COW handle carried.
// It may be nil for externally-wrapped buffers.
func (c *CowContext) OriginalDeleter() Deleter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.originalDeleter
}

func (c *CowContext) isActive() bool {
	return c.state.Load() == cowActive
}

func (c *CowContext) incRef(n int64) {
	c.refcount.Add(n)
}

// decRef removes one holder.
//
// When the caller was the last holder it returns last == true after moving
// the context to PendingDelete under the write lock; the caller must finish
// teardown with destroy. Otherwise the context's read lock is held on return
// and unlock must be called once the caller is done reading the shared
// payload. The held lock keeps a racing last-holder from tearing the buffer
// down mid-copy.
func (c *CowContext) decRef() (last bool, unlock func(), err error) {
	prev := c.refcount.Add(-1) + 1
	switch {
	case prev < 1:
		c.refcount.Add(1)
		return false, nil, fmt.Errorf("%w: refcount underflow", ErrCowState)
	case prev == 1:
		c.mu.Lock()
		c.state.Store(cowPendingDelete)
		c.mu.Unlock()
		return true, nil, nil
	default:
		c.mu.RLock()
		return false, c.mu.RUnlock, nil
	}
}

// destroy finishes teardown after a last-holder decRef.
func (c *CowContext) destroy() {
	if c.refcount.Load() != 0 || c.state.Load() != cowPendingDelete {
		// Malformed teardown; leave the context to the GC.
		return
	}
	c.state.Store(cowDeleted)
}

// cowDeleter runs when a COW-tagged OwnedPtr is released. It drops this
// holder's share and, when it was the last, frees the payload through the
// captured original deleter and retires the context.
func cowDeleter(p *OwnedPtr) {
	if p == nil || p.ctx == nil {
		return
	}
	c := (*CowContext)(p.ctx)
	if c.RefCount() <= 0 {
		return
	}

	last, unlock, err := c.decRef()
	if err != nil {
		return
	}
	if !last {
		unlock()
		return
	}

	original := c.originalDeleter
	originalCtx := c.originalCtx
	c.destroy()
	if original != nil {
		// The original deleter sees a plain handle carrying the payload and
		// the pre-COW context, never the retired CowContext.
		original(&OwnedPtr{data: p.data, ctx: originalCtx, deleter: original, device: p.device})
	}
}

// cowDeleterID is the stable per-process identity of cowDeleter.
var cowDeleterID = reflect.ValueOf(cowDeleter).Pointer()

// CowDeleterID returns the deleter identity carried by COW-tagged handles.
func CowDeleterID() uintptr {
	return cowDeleterID
}

// IsCow reports whether p carries the COW deleter.
func IsCow(p *OwnedPtr) bool {
	return p != nil && p.deleterID != InvalidDeleterID && p.deleterID == cowDeleterID
}

// MakeCowPtr registers one more holder on ctx and returns a handle sharing
// src's payload through it.
func MakeCowPtr(src *OwnedPtr, ctx *CowContext) (*OwnedPtr, error) {
	if src == nil || ctx == nil {
		return nil, fmt.Errorf("%w: nil source or context", ErrInvalidArgument)
	}
	if !ctx.isActive() {
		return nil, fmt.Errorf("%w: context is no longer active", ErrCowState)
	}
	ctx.incRef(1)
	return NewOwnedPtrWithID(src.data, unsafe.Pointer(ctx), cowDeleter, src.device, cowDeleterID), nil
}

// CopyCowPtr returns a new sharing handle from an already-COW handle.
func CopyCowPtr(src *OwnedPtr) (*OwnedPtr, error) {
	if !IsCow(src) {
		return nil, fmt.Errorf("%w: source is not a copy-on-write pointer", ErrInvalidArgument)
	}
	ctx := (*CowContext)(src.ctx)
	if ctx == nil {
		return nil, fmt.Errorf("%w: copy-on-write pointer has nil context", ErrCowState)
	}
	return MakeCowPtr(src, ctx)
}

// ContextOf returns the CowContext behind a COW-tagged handle, nil otherwise.
func ContextOf(p *OwnedPtr) *CowContext {
	if !IsCow(p) {
		return nil
	}
	return (*CowContext)(p.ctx)
}

// LazyClone produces a sibling storage sharing src's buffer.
//
// On the first clone the source handle is rewritten in place into a COW
// handle: its original ctx and deleter move into a fresh CowContext with
// refcount 2 (the source plus the clone). Further clones of either side just
// add holders. Cloning an empty storage yields an independent empty storage;
// there is no buffer to share.
func LazyClone(src *Storage) (*Storage, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil storage", ErrInvalidArgument)
	}
	p := src.ptr
	if p == nil || p.data == nil {
		return New(0, src.dev)
	}

	clone := &Storage{sizeBytes: src.sizeBytes, dev: src.dev, alloc: src.alloc}
	if !IsCow(p) {
		ctx := newCowContext(p.ctx, p.deleter)
		ctx.incRef(2)

		p.SetContext(unsafe.Pointer(ctx))
		p.SetDeleter(cowDeleter)
		p.SetDeleterID(cowDeleterID)

		clone.ptr = NewOwnedPtrWithID(p.data, unsafe.Pointer(ctx), cowDeleter, src.dev, cowDeleterID)
		return clone, nil
	}

	np, err := CopyCowPtr(p)
	if err != nil {
		return nil, err
	}
	clone.ptr = np
	return clone, nil
}

// Materialize collapses s out of copy-on-write sharing.
//
// A non-COW storage is left untouched, buffer pointer included. The last
// holder unwraps the original ctx/deleter in place without copying. A storage
// that is still shared gets a private copy of the bytes, taken under the
// context's read lock so a racing last holder cannot free the buffer
// mid-copy; its share of the old buffer is dropped by the decrement performed
// here, so the old handle is detached from the context before being released.
func Materialize(s *Storage) error {
	if s == nil {
		return fmt.Errorf("%w: nil storage", ErrInvalidArgument)
	}
	p := s.ptr
	if !IsCow(p) {
		return nil
	}
	ctx := (*CowContext)(p.ctx)
	if ctx == nil {
		return fmt.Errorf("%w: copy-on-write pointer has nil context", ErrCowState)
	}

	last, unlock, err := ctx.decRef()
	if err != nil {
		return err
	}

	if last {
		// Sole holder: take back the original ownership in place.
		restored := NewOwnedPtr(p.data, ctx.originalCtx, ctx.originalDeleter, p.device)
		p.ReleaseContext()
		s.SetPtr(restored)
		ctx.destroy()
		return nil
	}

	// Still shared: copy the bytes out while the read lock pins the buffer.
	newData, allocErr := s.alloc.Allocate(s.sizeBytes)
	if allocErr != nil {
		unlock()
		ctx.incRef(1)
		return allocErr
	}
	copy(unsafe.Slice((*byte)(newData), s.sizeBytes), unsafe.Slice((*byte)(p.data), s.sizeBytes))
	unlock()

	// This holder's decrement already happened; detach the context so
	// releasing the old handle cannot decrement a second time.
	p.ReleaseContext()
	s.SetPtr(NewOwnedPtr(newData, nil, allocDeleter(s.alloc), s.dev))
	return nil
}
