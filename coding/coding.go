package coding

import (
	"math"

	"github.com/vsrinivas/fuchsia-sub355/errors"
)

// Wire-format constants.
const (
	// WireAlignment is the alignment, in bytes, of the root object and
	// of every out-of-line extent.
	WireAlignment = 8

	// EnvelopeSize is the fixed size of an envelope header.
	EnvelopeSize = 8

	// envelopeInlineCapacity is how many payload bytes fit in the
	// envelope itself when the inline bit is set.
	envelopeInlineCapacity = 4

	// envelopeInlineMarker is the only valid nonzero flags value.
	envelopeInlineMarker uint16 = 1
)

// MaxRecursionDepth bounds nesting of out-of-line objects within one
// message. Checked transcodes fail with a recursion_depth error past
// this; the bound exists so attacker-controlled nesting cannot exhaust
// the call stack.
const MaxRecursionDepth uint32 = 32

// Presence markers for nullable references and handles on the wire.
const (
	AllocPresent uint64 = math.MaxUint64
	AllocAbsent  uint64 = 0

	HandlePresent uint32 = math.MaxUint32
	HandleAbsent  uint32 = 0
)

// alignTo8 rounds n up to the wire alignment.
func alignTo8(n uint32) uint32 {
	return (n + WireAlignment - 1) &^ (WireAlignment - 1)
}

func safeAddU32(a, b uint32) (uint32, bool) {
	if a > math.MaxUint32-b {
		return 0, false
	}
	return a + b, true
}

// safeAlign8 rounds up to the wire alignment, failing on overflow.
func safeAlign8(n uint32) (uint32, bool) {
	aligned, ok := safeAddU32(n, WireAlignment-1)
	if !ok {
		return 0, false
	}
	return aligned &^ (WireAlignment - 1), true
}

// ErrorSetter is the sticky first-error slot shared by Encoder and
// Decoder. The first SetError call wins; later calls are no-ops.
type ErrorSetter interface {
	SetError(err *errors.Error)
	phase() errors.Phase
}
