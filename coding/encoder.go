package coding

import (
	fidl "github.com/vsrinivas/fuchsia-sub355"
	"github.com/vsrinivas/fuchsia-sub355/errors"
)

// EncodeBuffers is the caller-owned output storage for one encode
// call. The Encoder borrows all four arrays for the duration of the
// call and retains nothing afterwards. Handles and Dispositions are
// parallel: they must have the same length.
type EncodeBuffers struct {
	Iovecs       []fidl.Iovec
	Handles      []fidl.Handle
	Dispositions []fidl.HandleDisposition
	Bytes        []byte
}

// Encoder owns the output representation of one message: a
// scatter-gather iovec list, a handle array with parallel disposition
// metadata, the backing byte buffer the extents point into, and the
// sticky first-error slot.
//
// An Encoder is constructed by WireEncode, driven through exactly one
// root-level encode, and never reused.
type Encoder struct {
	arena        arena
	iovecs       []fidl.Iovec
	numIovecs    int
	handles      []fidl.Handle
	dispositions []fidl.HandleDisposition
	numHandles   int
	config       *Config
	err          *errors.Error

	// start/end offsets of the newest iovec's extent in the backing
	// buffer, used to merge contiguous allocations.
	lastStart uint32
	lastEnd   uint32
}

func newEncoder(cfg *Config, bufs EncodeBuffers) *Encoder {
	return &Encoder{
		arena:        arena{buf: bufs.Bytes},
		iovecs:       bufs.Iovecs,
		handles:      bufs.Handles,
		dispositions: bufs.Dispositions,
		config:       cfg,
	}
}

// Config returns the opaque per-message-type metadata for this encode.
func (e *Encoder) Config() *Config {
	return e.config
}

// SetError records the first error of the transcode. Later calls are
// no-ops; after the first error every Alloc returns the inert
// sentinel.
func (e *Encoder) SetError(err *errors.Error) {
	if e.err == nil {
		e.err = err
	}
}

// Err returns the first error recorded, if any.
func (e *Encoder) Err() *errors.Error {
	return e.err
}

func (e *Encoder) phase() errors.Phase {
	return errors.PhaseEncode
}

// Alloc reserves size bytes, rounded up to the wire alignment, from
// the backing buffer, and stages the extent on the scatter-gather
// list. The extent is zeroed. After any recorded error Alloc returns
// the inert sentinel and performs no memory access.
func (e *Encoder) Alloc(size uint32) Position {
	if e.err != nil {
		return Position{}
	}
	pos, offset, ok := e.arena.alloc(size)
	if !ok {
		e.SetError(errors.OutOfCapacity(size, e.arena.used, uint32(len(e.arena.buf))))
		return Position{}
	}
	e.appendExtent(offset, alignTo8(size))
	return pos
}

// appendExtent grows the iovec list by one extent, merging with the
// previous iovec when the extents are contiguous in the backing
// buffer.
func (e *Encoder) appendExtent(offset, length uint32) {
	if e.numIovecs > 0 && e.lastEnd == offset {
		e.lastEnd = offset + length
		e.iovecs[e.numIovecs-1].Buffer = e.arena.buf[e.lastStart:e.lastEnd]
		return
	}
	if e.numIovecs == len(e.iovecs) {
		e.SetError(errors.New(errors.PhaseEncode, errors.KindOutOfCapacity).
			Detail("iovec array full: capacity %d", len(e.iovecs)).
			Build())
		return
	}
	e.lastStart = offset
	e.lastEnd = offset + length
	e.iovecs[e.numIovecs] = fidl.Iovec{Buffer: e.arena.buf[offset:e.lastEnd]}
	e.numIovecs++
}

// EncodeHandle moves h into the output handle array, writes the
// presence marker into the extent at pos+off, and records the intended
// object type and rights in the parallel disposition array. Ownership
// of the source handle stays with the caller's value until the whole
// encode reports success.
func (e *Encoder) EncodeHandle(pos Position, off uint32, h fidl.Handle, typ fidl.ObjectType, rights fidl.Rights, nullable bool) {
	if e.err != nil {
		return
	}
	if !h.IsValid() {
		if !nullable {
			e.SetError(errors.New(errors.PhaseEncode, errors.KindInvalidData).
				Detail("invalid handle for non-nullable field").
				Build())
			return
		}
		pos.PutUint32(off, HandleAbsent)
		return
	}
	if e.numHandles == len(e.handles) {
		e.SetError(errors.New(errors.PhaseEncode, errors.KindTooManyHandles).
			Detail("handle array full: capacity %d", len(e.handles)).
			Build())
		return
	}
	e.handles[e.numHandles] = h
	e.dispositions[e.numHandles] = fidl.HandleDisposition{Handle: h, Type: typ, Rights: rights}
	e.numHandles++
	pos.PutUint32(off, HandlePresent)
}

// EncodeEnvelopeHeader writes env at pos+off, validating the same
// shape constraints the decode side enforces so a bad generated
// callback cannot emit an unparseable message.
func (e *Encoder) EncodeEnvelopeHeader(pos Position, off uint32, env Envelope) {
	if e.err != nil {
		return
	}
	switch env.Flags {
	case 0:
		if env.NumBytes%WireAlignment != 0 {
			e.SetError(errors.New(errors.PhaseEncode, errors.KindInvalidEnvelope).
				Detail("out-of-line envelope byte count %d not a multiple of %d", env.NumBytes, WireAlignment).
				Build())
			return
		}
	case envelopeInlineMarker:
		// The inline payload occupies the byte-count word, so only
		// the handle count and flags are written; the callback fills
		// the payload through the same position.
		pos.PutUint16(off+4, env.NumHandles)
		pos.PutUint16(off+6, env.Flags)
		return
	default:
		e.SetError(errors.New(errors.PhaseEncode, errors.KindInvalidInlineBit).
			Detail("invalid inline bit: flags 0x%04x", env.Flags).
			Build())
		return
	}
	pos.PutUint32(off, env.NumBytes)
	pos.PutUint16(off+4, env.NumHandles)
	pos.PutUint16(off+6, env.Flags)
}

// result freezes the encode into the caller-visible outcome: the used
// prefixes of the iovec and handle arrays, or the first error.
func (e *Encoder) result() EncodeResult {
	if e.err != nil {
		return EncodeResult{Err: e.err}
	}
	return EncodeResult{
		Iovecs:       e.iovecs[:e.numIovecs],
		Handles:      e.handles[:e.numHandles],
		Dispositions: e.dispositions[:e.numHandles],
	}
}
