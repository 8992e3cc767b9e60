package coding

import (
	fidl "github.com/vsrinivas/fuchsia-sub355"
	"github.com/vsrinivas/fuchsia-sub355/errors"
)

// EncodeFunc is the generated per-type encode callback. It is handed
// the root position, already allocated at the message's inline size,
// and recursively allocates out-of-line extents through the Encoder,
// charging depth on every descent.
type EncodeFunc[P DepthPolicy] func(e *Encoder, value any, pos Position, depth Depth[P])

// DecodeFunc is the generated per-type decode callback, the mirror of
// EncodeFunc over a received byte stream.
type DecodeFunc[P DepthPolicy] func(d *Decoder, pos Position, depth Depth[P])

// EncodeResult is the outcome of one WireEncode call. On success the
// slices are used prefixes of the caller's EncodeBuffers arrays; the
// concatenation of the iovec extents is the logical byte stream, and
// Handles/Dispositions are parallel, correlated by ordinal position.
type EncodeResult struct {
	Iovecs       []fidl.Iovec
	Handles      []fidl.Handle
	Dispositions []fidl.HandleDisposition
	Err          *errors.Error
}

// DecodeResult is the outcome of one WireDecode call. When Err is set,
// every received handle has been closed and no partial value is
// surfaced; the consumption counters report how far the decode got.
type DecodeResult struct {
	BytesConsumed   uint32
	HandlesConsumed uint32
	Err             *errors.Error
}

// WireEncode runs one full message encode: it validates the caller's
// buffers, allocates the root object at offset 0, invokes the
// generated callback, and returns the used prefixes of the output
// arrays or the first error recorded along the way.
func WireEncode[P DepthPolicy](cfg *Config, encode EncodeFunc[P], inlineSize uint32, value any, bufs EncodeBuffers) EncodeResult {
	switch {
	case value == nil:
		return EncodeResult{Err: errors.InvalidArgs(errors.PhaseEncode, "nil value")}
	case encode == nil:
		return EncodeResult{Err: errors.InvalidArgs(errors.PhaseEncode, "nil encode callback")}
	case bufs.Iovecs == nil:
		return EncodeResult{Err: errors.InvalidArgs(errors.PhaseEncode, "nil iovec array")}
	case bufs.Bytes == nil:
		return EncodeResult{Err: errors.InvalidArgs(errors.PhaseEncode, "nil backing byte buffer")}
	case len(bufs.Handles) != len(bufs.Dispositions):
		return EncodeResult{Err: errors.InvalidArgs(errors.PhaseEncode, "handle and disposition arrays differ in length")}
	}

	e := newEncoder(cfg, bufs)
	if pos := e.Alloc(inlineSize); pos.IsValid() {
		encode(e, value, pos, InitialDepth[P]())
	}
	return e.result()
}

// WireDecode runs one full message decode: it validates the inputs,
// allocates the root object at offset 0, invokes the generated
// callback, and verifies that every byte and every handle was consumed
// exactly once. On any error all received handles are closed before
// returning, so a handle passed to WireDecode never leaks.
func WireDecode[P DepthPolicy](cfg *Config, decode DecodeFunc[P], inlineSize uint32, bytes []byte, handles []fidl.HandleInfo, closer fidl.HandleCloser) DecodeResult {
	switch {
	case bytes == nil:
		return DecodeResult{Err: errors.InvalidArgs(errors.PhaseDecode, "nil byte buffer")}
	case decode == nil:
		return DecodeResult{Err: errors.InvalidArgs(errors.PhaseDecode, "nil decode callback")}
	case len(handles) > 0 && closer == nil:
		return DecodeResult{Err: errors.InvalidArgs(errors.PhaseDecode, "nil handle closer with nonzero handle count")}
	case len(bytes) > fidl.MaxMessageBytes:
		return DecodeResult{Err: errors.New(errors.PhaseDecode, errors.KindMessageTooLarge).
			Detail("message is %d bytes, limit %d", len(bytes), fidl.MaxMessageBytes).
			Build()}
	case len(handles) > fidl.MaxMessageHandles:
		return DecodeResult{Err: errors.New(errors.PhaseDecode, errors.KindTooManyHandles).
			Detail("message carries %d handles, limit %d", len(handles), fidl.MaxMessageHandles).
			Build()}
	}

	d := newDecoder(cfg, bytes, handles, closer)
	if pos := d.Alloc(inlineSize); pos.IsValid() {
		decode(d, pos, InitialDepth[P]())
	}
	return d.finish()
}
