package coding

import (
	"github.com/vsrinivas/fuchsia-sub355/errors"
)

// EncodePresence writes the 8-byte presence word for an optional
// out-of-line object at pos+off. Present objects are then allocated by
// the callback in traversal order.
func (e *Encoder) EncodePresence(pos Position, off uint32, present bool) {
	if e.err != nil {
		return
	}
	if present {
		pos.PutUint64(off, AllocPresent)
	} else {
		pos.PutUint64(off, AllocAbsent)
	}
}

// DecodePresence reads the 8-byte presence word at pos+off. Any value
// other than the two markers is malformed and records an error; the
// second return is false once the decoder is draining.
func (d *Decoder) DecodePresence(pos Position, off uint32) (present, ok bool) {
	if d.err != nil {
		return false, false
	}
	switch word := pos.Uint64(off); word {
	case AllocPresent:
		return true, true
	case AllocAbsent:
		return false, true
	default:
		d.SetError(errors.New(errors.PhaseDecode, errors.KindInvalidPresenceWord).
			Detail("invalid presence word 0x%016x", word).
			Value(word).
			Build())
		return false, false
	}
}
