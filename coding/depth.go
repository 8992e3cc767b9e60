package coding

import "github.com/vsrinivas/fuchsia-sub355/errors"

// DepthPolicy selects, at compile time, whether recursion depth is
// enforced. Bounded is the default for any message type whose schema
// permits recursion; Unbounded is the zero-overhead specialization for
// types proven non-recursive, and must never be used for
// self-referential shapes.
type DepthPolicy interface {
	checked() bool
}

// Bounded enforces MaxRecursionDepth.
type Bounded struct{}

func (Bounded) checked() bool { return true }

// Unbounded performs no depth accounting.
type Unbounded struct{}

func (Unbounded) checked() bool { return false }

// Depth counts nested out-of-line indirections traversed so far in one
// transcode call. It is threaded by value through every recursive
// call: each Add produces a new depth to pass down, never a shared
// mutation.
type Depth[P DepthPolicy] struct {
	n       uint32
	invalid bool
}

// InitialDepth returns the depth-0 counter a transcode starts with.
func InitialDepth[P DepthPolicy]() Depth[P] {
	return Depth[P]{}
}

// Add charges diff levels of nesting. If the bound would be exceeded
// it records a recursion_depth error on the coder and returns the
// invalid sentinel; callers must check IsValid immediately and unwind
// without further allocation or handle consumption.
func (d Depth[P]) Add(coder ErrorSetter, diff uint32) Depth[P] {
	var p P
	if !p.checked() || d.invalid {
		return d
	}
	if diff > MaxRecursionDepth || d.n > MaxRecursionDepth-diff {
		coder.SetError(errors.RecursionDepthExceeded(coder.phase(), MaxRecursionDepth))
		return Depth[P]{invalid: true}
	}
	return Depth[P]{n: d.n + diff}
}

// IsValid reports whether recursion may continue at this depth.
func (d Depth[P]) IsValid() bool {
	return !d.invalid
}
