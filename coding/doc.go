// Package coding implements the wire-format transcoding engine: it
// turns an in-memory typed value into a byte buffer plus an
// out-of-band handle list ready for transmission over a kernel
// channel, and validates and reconstructs a typed value from a
// received byte buffer and handle list.
//
// # Wire Layout
//
// All offsets are relative to the start of the message. Every
// allocation — the root object and every out-of-line extent — begins
// at a multiple of 8 bytes, in traversal order. Integers are
// little-endian.
//
// Every optional or extensible field is preceded by an 8-byte
// envelope:
//
//	┌────────────────┬───────────────┬───────────────┐
//	│ num_bytes u32  │ num_handles   │ flags u16     │
//	│                │ u16           │               │
//	└────────────────┴───────────────┴───────────────┘
//
// flags == 0 places the payload out of line at the next aligned
// offset (num_bytes must then be a multiple of 8); flags == 1 inlines
// a payload of up to 4 bytes in the envelope itself, overlaying the
// num_bytes word. Any other flags value is rejected.
//
// # Key Types
//
//	Encoder    - stages bytes, iovecs, and handles for one message
//	Decoder    - validates and consumes one received message exactly
//	Position   - bounds-checked view of one allocated extent
//	Depth      - recursion bound threaded through nested decodes
//	Config     - opaque per-message-type validation metadata
//
// The per-type field layout is not known to this package: generated
// encode/decode callbacks drive the walk, calling back into the
// Encoder/Decoder for every nested out-of-line object. Errors are
// sticky — the first error recorded wins, and every subsequent Alloc
// returns an inert sentinel Position so a malformed nested structure
// cannot cause out-of-bounds access after the first fault.
package coding
