// Package fidl provides the wire-format transcoding engine for the
// channel IPC messaging layer, along with the shared handle and buffer
// contracts that the engine and its callers exchange.
//
// # Architecture Overview
//
// The module is organized into several packages with distinct
// responsibilities:
//
//	fidl/           Root package with shared handle and buffer contracts
//	├── coding/     Wire-format encoder/decoder engine (envelopes, arena,
//	│               recursion bounds, exactness verification)
//	├── errors/     Structured error types for transcode failures
//	├── handle/     In-process handle table with close-once semantics
//	├── transport/  Message header codec and in-process channel pair
//	└── cmd/        wiredump: CLI and TUI wire inspector
//
// # Quick Start
//
// Encode a message and decode it back:
//
//	var buffer [512]byte
//	var iovecs [8]fidl.Iovec
//	res := coding.WireEncode(cfg, encodeRoot, rootSize, value, coding.EncodeBuffers{
//	    Iovecs: iovecs[:],
//	    Bytes:  buffer[:],
//	})
//	if res.Err != nil {
//	    log.Fatal(res.Err)
//	}
//
// The encode result holds scatter-gather iovecs plus a parallel handle
// array; their concatenation is the logical byte stream a transport
// writes to a kernel channel. The decode side validates the received
// bytes and handles, consuming both exactly or failing with a typed
// error.
//
// # Handle Safety
//
// Handles are kernel-owned resources that must never leak and never be
// closed twice. On decode, any handle that is not consumed into a
// successfully decoded value — whether it belonged to an unknown
// skipped field or to a message that failed validation — is closed by
// the engine through the caller-supplied HandleCloser before the
// transcode call returns.
package fidl
