package coding

import (
	"github.com/vsrinivas/fuchsia-sub355/errors"
)

// Envelope is the decoded form of the 8-byte header wrapping every
// optional or extensible field (table fields, union payloads).
//
// Wire layout, little-endian:
//
//	out-of-line (Flags == 0):  num_bytes u32 | num_handles u16 | flags u16
//	inline      (Flags == 1):  payload   4B  | num_handles u16 | flags u16
//
// The inline payload reuses the byte-count word, so NumBytes is
// meaningful only for out-of-line envelopes.
type Envelope struct {
	NumBytes   uint32
	NumHandles uint16
	Flags      uint16
}

// IsInline reports whether the envelope's payload lives in its own
// leading word instead of a separate out-of-line extent.
func (env Envelope) IsInline() bool {
	return env.Flags == envelopeInlineMarker
}

// InlineEnvelope builds the header for a payload at most 4 bytes wide.
func InlineEnvelope(numHandles uint16) Envelope {
	return Envelope{NumHandles: numHandles, Flags: envelopeInlineMarker}
}

// OutOfLineEnvelope builds the header for a payload stored in its own
// extent of numBytes bytes, which must already be a multiple of the
// wire alignment.
func OutOfLineEnvelope(numBytes uint32, numHandles uint16) Envelope {
	return Envelope{NumBytes: numBytes, NumHandles: numHandles}
}

// DecodeEnvelopeHeader reads and validates the envelope at pos+off.
// The second return is false when the header is malformed or the
// decoder is already draining; the error, if new, has been recorded.
func (d *Decoder) DecodeEnvelopeHeader(pos Position, off uint32) (Envelope, bool) {
	if d.err != nil {
		return Envelope{}, false
	}
	env := Envelope{
		NumHandles: pos.Uint16(off + 4),
		Flags:      pos.Uint16(off + 6),
	}
	switch env.Flags {
	case 0:
		env.NumBytes = pos.Uint32(off)
		if env.NumBytes%WireAlignment != 0 {
			d.SetError(errors.InvalidEnvelopeByteCount(env.NumBytes))
			return Envelope{}, false
		}
	case envelopeInlineMarker:
	default:
		d.SetError(errors.InvalidInlineBit(env.Flags))
		return Envelope{}, false
	}
	return env, true
}

// InlinePayload returns the 4-byte view holding an inline envelope's
// payload, which overlays the header's byte-count word.
func InlinePayload(pos Position, off uint32) Position {
	return pos.Sub(off, envelopeInlineCapacity)
}

// SkipUnknownEnvelope consumes one envelope whose field the receiver's
// schema does not recognize. The out-of-line payload, if any, is
// claimed from the byte cursor without being interpreted, and exactly
// NumHandles handles are closed, so a skipped field can never leak
// handles or leave trailing bytes that break exactness.
func (d *Decoder) SkipUnknownEnvelope(pos Position, off uint32) {
	env, ok := d.DecodeEnvelopeHeader(pos, off)
	if !ok {
		return
	}
	if !env.IsInline() && env.NumBytes > 0 {
		if !d.Alloc(env.NumBytes).IsValid() {
			return
		}
	}
	d.CloseNextNHandles(uint32(env.NumHandles))
}
