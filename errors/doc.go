// Package errors provides structured error types for the wire-format
// transcoding engine and its transport layer.
//
// Errors carry a Phase (where processing was), a Kind (what went
// wrong), an optional field Path, and a human-readable Detail. Kinds
// are stable identifiers: callers match them with errors.Is against a
// prototype rather than parsing message text.
//
// Example:
//
//	err := errors.New(errors.PhaseDecode, errors.KindOutOfBounds).
//	    Detail("allocation of %d bytes exceeds message size", n).
//	    Build()
package errors
