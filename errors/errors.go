package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseEncode    Phase = "encode"    // value to wire bytes
	PhaseDecode    Phase = "decode"    // wire bytes to value
	PhaseValidate  Phase = "validate"  // argument and format validation
	PhaseTransport Phase = "transport" // channel send/receive
)

// Kind categorizes the error
type Kind string

const (
	KindInvalidArgs         Kind = "invalid_args"
	KindOutOfBounds         Kind = "out_of_bounds"
	KindOutOfCapacity       Kind = "out_of_capacity"
	KindInvalidEnvelope     Kind = "invalid_envelope"
	KindInvalidInlineBit    Kind = "invalid_inline_bit"
	KindRecursionDepth      Kind = "recursion_depth"
	KindBytesRemaining      Kind = "bytes_remaining"
	KindHandlesRemaining    Kind = "handles_remaining"
	KindNotEnoughHandles    Kind = "not_enough_handles"
	KindHandleMismatch      Kind = "handle_mismatch"
	KindInvalidHandleMarker Kind = "invalid_handle_marker"
	KindInvalidPresenceWord Kind = "invalid_presence_word"
	KindOverflow            Kind = "overflow"
	KindInvalidData         Kind = "invalid_data"
	KindMessageTooLarge     Kind = "message_too_large"
	KindTooManyHandles      Kind = "too_many_handles"
	KindBadMagic            Kind = "bad_magic"
	KindPeerClosed          Kind = "peer_closed"
	KindCanceled            Kind = "canceled"
	KindUnsupported         Kind = "unsupported"
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// InvalidArgs creates a caller-misuse error, checked before any work
func InvalidArgs(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidArgs,
		Detail: detail,
	}
}

// OutOfBounds creates a decode bounds error: an allocation request
// would read past the end of the received buffer
func OutOfBounds(need, used, total uint32) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("allocation of %d bytes at offset %d exceeds message size %d", need, used, total),
		Value:  need,
	}
}

// OutOfCapacity creates an encode capacity error: an allocation
// request exceeds the remaining backing buffer
func OutOfCapacity(need, used, capacity uint32) *Error {
	return &Error{
		Phase:  PhaseEncode,
		Kind:   KindOutOfCapacity,
		Detail: fmt.Sprintf("allocation of %d bytes at offset %d exceeds buffer capacity %d", need, used, capacity),
		Value:  need,
	}
}

// RecursionDepthExceeded creates a nesting-bound error
func RecursionDepthExceeded(phase Phase, max uint32) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindRecursionDepth,
		Detail: fmt.Sprintf("nesting exceeds maximum depth %d", max),
	}
}

// InvalidEnvelopeByteCount creates an envelope format error for an
// out-of-line byte count that is not a multiple of the wire alignment
func InvalidEnvelopeByteCount(numBytes uint32) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidEnvelope,
		Detail: fmt.Sprintf("invalid envelope byte count %d", numBytes),
		Value:  numBytes,
	}
}

// InvalidInlineBit creates an envelope format error for a flags word
// that is neither zero nor the inline marker
func InvalidInlineBit(flags uint16) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindInvalidInlineBit,
		Detail: fmt.Sprintf("invalid inline bit: flags 0x%04x", flags),
		Value:  flags,
	}
}

// BytesRemaining creates a decode exactness error
func BytesRemaining(consumed, total uint32) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindBytesRemaining,
		Detail: fmt.Sprintf("not all bytes consumed: %d of %d", consumed, total),
	}
}

// HandlesRemaining creates a decode exactness error
func HandlesRemaining(consumed, total uint32) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindHandlesRemaining,
		Detail: fmt.Sprintf("not all handles consumed: %d of %d", consumed, total),
	}
}

// NotEnoughHandles creates an error for a handle reference with no
// corresponding handle in the received array
func NotEnoughHandles(wanted, have uint32) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindNotEnoughHandles,
		Detail: fmt.Sprintf("message references handle %d but only %d were received", wanted, have),
	}
}

// HandleMismatch creates a handle subtype or rights validation error
func HandleMismatch(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseDecode,
		Kind:   KindHandleMismatch,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// Overflow creates an arithmetic overflow error
func Overflow(phase Phase, detail string, args ...any) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOverflow,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// InvalidData creates an invalid data error raised by per-type logic
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// Wrap wraps an existing error with additional context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}
