package coding

import (
	fidl "github.com/vsrinivas/fuchsia-sub355"
	"github.com/vsrinivas/fuchsia-sub355/errors"
)

// handleState tracks what happened to one received handle during a
// decode. The finish pass closes everything that is not already
// closed when the decode fails, and never closes anything twice.
type handleState uint8

const (
	handleUnconsumed handleState = iota
	handleClaimed
	handleClosed
)

// Decoder owns, by reference, the complete contiguous input buffer and
// the received handle array for the duration of one decode call. It
// tracks how many bytes and handles have been consumed and holds the
// sticky first-error slot.
//
// A Decoder is constructed by WireDecode, driven through exactly one
// root-level decode, inspected for exactness, and destroyed; it never
// outlives the call.
type Decoder struct {
	buf       []byte
	handles   []fidl.HandleInfo
	states    []handleState
	closer    fidl.HandleCloser
	curLen    uint32
	curHandle uint32
	config    *Config
	err       *errors.Error
}

func newDecoder(cfg *Config, bytes []byte, handles []fidl.HandleInfo, closer fidl.HandleCloser) *Decoder {
	return &Decoder{
		buf:     bytes,
		handles: handles,
		states:  make([]handleState, len(handles)),
		closer:  closer,
		config:  cfg,
	}
}

// Config returns the opaque per-message-type metadata for this decode.
func (d *Decoder) Config() *Config {
	return d.config
}

// SetError records the first error of the transcode. Later calls are
// no-ops; after the first error every Alloc returns the inert
// sentinel and no further memory is touched.
func (d *Decoder) SetError(err *errors.Error) {
	if d.err == nil {
		d.err = err
	}
}

// Err returns the first error recorded, if any.
func (d *Decoder) Err() *errors.Error {
	return d.err
}

func (d *Decoder) phase() errors.Phase {
	return errors.PhaseDecode
}

// BytesConsumed returns the current byte cursor: how much of the input
// buffer has been claimed by allocations so far.
func (d *Decoder) BytesConsumed() uint32 {
	return d.curLen
}

// HandlesConsumed returns how many received handles have been claimed
// or closed so far.
func (d *Decoder) HandlesConsumed() uint32 {
	return d.curHandle
}

// Alloc advances the byte cursor by size rounded up to the wire
// alignment, bounds-checked against the received buffer, and returns a
// view of exactly size bytes at the previous cursor. On a bounds
// violation it records an error and returns the inert sentinel.
func (d *Decoder) Alloc(size uint32) Position {
	if d.err != nil {
		return Position{}
	}
	aligned, ok := safeAlign8(size)
	if !ok {
		d.SetError(errors.Overflow(errors.PhaseDecode, "allocation size %d overflows alignment", size))
		return Position{}
	}
	end, ok := safeAddU32(d.curLen, aligned)
	if !ok || uint64(end) > uint64(len(d.buf)) {
		d.SetError(errors.OutOfBounds(size, d.curLen, uint32(len(d.buf))))
		return Position{}
	}
	pos := Position{b: d.buf[d.curLen : d.curLen+size]}
	d.curLen = end
	return pos
}

// DecodeHandle reads the presence marker in the extent at pos+off and,
// for a present handle, claims the next handle from the received
// stream, validating its object type and rights against both the
// field's expectations and the per-type Config. A claimed handle is
// owned by the value under construction — unless the whole decode
// fails, in which case finish closes it.
func (d *Decoder) DecodeHandle(pos Position, off uint32, typ fidl.ObjectType, rights fidl.Rights, nullable bool) fidl.Handle {
	if d.err != nil {
		return fidl.HandleInvalid
	}
	switch marker := pos.Uint32(off); marker {
	case HandleAbsent:
		if !nullable {
			d.SetError(errors.New(errors.PhaseDecode, errors.KindInvalidData).
				Detail("absent handle for non-nullable field").
				Build())
		}
		return fidl.HandleInvalid
	case HandlePresent:
	default:
		d.SetError(errors.New(errors.PhaseDecode, errors.KindInvalidHandleMarker).
			Detail("invalid handle marker 0x%08x", marker).
			Value(marker).
			Build())
		return fidl.HandleInvalid
	}

	if d.curHandle >= uint32(len(d.handles)) {
		d.SetError(errors.NotEnoughHandles(d.curHandle+1, uint32(len(d.handles))))
		return fidl.HandleInvalid
	}
	info := d.handles[d.curHandle]
	if c, ok := d.config.constraintAt(d.curHandle); ok {
		if typ == fidl.ObjectTypeNone {
			typ = c.Type
		}
		if rights == fidl.RightSameRights {
			rights = c.Rights
		}
	}
	d.states[d.curHandle] = handleClaimed
	d.curHandle++

	if typ != fidl.ObjectTypeNone && info.Type != fidl.ObjectTypeNone && info.Type != typ {
		d.SetError(errors.HandleMismatch("expected object type %d, got %d", typ, info.Type))
		return fidl.HandleInvalid
	}
	if rights != fidl.RightSameRights && info.Rights&rights != rights {
		d.SetError(errors.HandleMismatch("handle rights 0x%08x missing required 0x%08x", uint32(info.Rights), uint32(rights)))
		return fidl.HandleInvalid
	}
	return info.Handle
}

// CloseNextNHandles closes exactly n handles from the received stream,
// advancing the handle cursor. Unknown skipped fields may still carry
// handles; they must not leak and must not be dropped without closing.
func (d *Decoder) CloseNextNHandles(n uint32) {
	if d.err != nil {
		return
	}
	remaining := uint32(len(d.handles)) - d.curHandle
	if n > remaining {
		d.SetError(errors.NotEnoughHandles(d.curHandle+n, uint32(len(d.handles))))
		return
	}
	for i := uint32(0); i < n; i++ {
		d.closeHandleAt(d.curHandle)
		d.curHandle++
	}
}

func (d *Decoder) closeHandleAt(i uint32) {
	if d.states[i] == handleClosed {
		return
	}
	d.states[i] = handleClosed
	if h := d.handles[i].Handle; h.IsValid() && d.closer != nil {
		// Close failures are not surfaced: the handle is gone either
		// way, and the transcode error (if any) takes precedence.
		_ = d.closer.CloseHandle(h)
	}
}

// finish verifies exactness and freezes the decode outcome. Both
// exactness checks run even when an earlier error was recorded; the
// first-recorded error takes precedence. On any error, every received
// handle not already closed — claimed ones included, since no partial
// value is ever surfaced — is closed exactly once.
func (d *Decoder) finish() DecodeResult {
	if d.curLen != uint32(len(d.buf)) {
		d.SetError(errors.BytesRemaining(d.curLen, uint32(len(d.buf))))
	}
	if d.curHandle != uint32(len(d.handles)) {
		d.SetError(errors.HandlesRemaining(d.curHandle, uint32(len(d.handles))))
	}
	if d.err != nil {
		for i := range d.handles {
			d.closeHandleAt(uint32(i))
		}
	}
	return DecodeResult{
		BytesConsumed:   d.curLen,
		HandlesConsumed: d.curHandle,
		Err:             d.err,
	}
}
