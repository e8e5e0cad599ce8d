package storage

import (
	"unsafe"

	"github.com/enigma-ml/enigma/internal/device"
)

// InvalidDeleterID marks an OwnedPtr whose deleter carries no identity.
const InvalidDeleterID uintptr = 0

// Deleter releases whatever an OwnedPtr owns. It receives the enclosing
// handle so it can branch on whether ctx or data is the owning address.
type Deleter func(*OwnedPtr)

// OwnedPtr is a single-owner handle to a raw payload address.
//
// It carries an optional context address for the deleter, the deleter itself,
// the device the payload lives on, and an integer deleter identity used to
// recognize specially-tagged deleters without dynamic dispatch. Handles are
// passed by pointer and never copied; exactly one owner is responsible for
// calling Release.
type OwnedPtr struct {
	data      unsafe.Pointer
	ctx       unsafe.Pointer
	deleter   Deleter
	device    device.Device
	deleterID uintptr
}

// NewOwnedPtr constructs a handle with no deleter identity.
func NewOwnedPtr(data, ctx unsafe.Pointer, deleter Deleter, dev device.Device) *OwnedPtr {
	return &OwnedPtr{data: data, ctx: ctx, deleter: deleter, device: dev}
}

// NewOwnedPtrWithID constructs a handle carrying a deleter identity tag.
func NewOwnedPtrWithID(data, ctx unsafe.Pointer, deleter Deleter, dev device.Device, id uintptr) *OwnedPtr {
	return &OwnedPtr{data: data, ctx: ctx, deleter: deleter, device: dev, deleterID: id}
}

// Data returns the payload address, which may be nil.
func (p *OwnedPtr) Data() unsafe.Pointer { return p.data }

// Context returns the deleter context address, which may be nil.
func (p *OwnedPtr) Context() unsafe.Pointer { return p.ctx }

// Deleter returns the current deleter.
func (p *OwnedPtr) Deleter() Deleter { return p.deleter }

// Device returns the device the payload lives on.
func (p *OwnedPtr) Device() device.Device { return p.device }

// DeleterID returns the deleter identity tag, InvalidDeleterID when unset.
func (p *OwnedPtr) DeleterID() uintptr { return p.deleterID }

// Valid reports whether the handle holds a payload.
func (p *OwnedPtr) Valid() bool { return p != nil && p.data != nil }

// SetContext replaces the context address.
func (p *OwnedPtr) SetContext(ctx unsafe.Pointer) { p.ctx = ctx }

// SetDeleter replaces the deleter.
func (p *OwnedPtr) SetDeleter(d Deleter) { p.deleter = d }

// SetDeleterID replaces the deleter identity tag.
func (p *OwnedPtr) SetDeleterID(id uintptr) { p.deleterID = id }

// ReleaseContext detaches and returns the context without invoking the
// deleter. The caller assumes ownership of whatever the context referenced.
// The deleter stays in place.
func (p *OwnedPtr) ReleaseContext() unsafe.Pointer {
	ctx := p.ctx
	p.ctx = nil
	return ctx
}

// MoveContext detaches the context and the deleter together, for reparenting
// the context under a new deleter.
func (p *OwnedPtr) MoveContext() (unsafe.Pointer, Deleter) {
	ctx := p.ctx
	d := p.deleter
	p.ctx = nil
	p.deleter = nil
	p.deleterID = InvalidDeleterID
	return ctx, d
}

// Release invokes the deleter exactly once and empties the handle.
// A handle with no payload or no deleter is cleared without side effects.
// Release on an already-released handle does nothing.
func (p *OwnedPtr) Release() {
	if p == nil {
		return
	}
	if p.deleter != nil && p.data != nil {
		p.deleter(p)
	}
	p.data = nil
	p.ctx = nil
	p.deleter = nil
	p.deleterID = InvalidDeleterID
}
