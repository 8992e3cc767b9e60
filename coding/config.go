package coding

import (
	fidl "github.com/vsrinivas/fuchsia-sub355"
)

// HandleConstraint pins the object type and rights a handle at a given
// ordinal position in the message must carry. A zero Type or a Rights
// of RightSameRights leaves that dimension unconstrained.
type HandleConstraint struct {
	Type   fidl.ObjectType
	Rights fidl.Rights
}

// Config is static, read-only metadata supplied once per message type.
// The engine threads it through to the generated callbacks and
// consults it when validating received handles; it never mutates it.
type Config struct {
	// Name identifies the message type in error paths and logs.
	Name string

	// Constraints, when non-empty, is indexed by handle ordinal: the
	// i-th handle consumed during a transcode is checked against
	// Constraints[i]. Handles past the end are unconstrained.
	Constraints []HandleConstraint
}

func (c *Config) constraintAt(ordinal uint32) (HandleConstraint, bool) {
	if c == nil || uint64(ordinal) >= uint64(len(c.Constraints)) {
		return HandleConstraint{}, false
	}
	return c.Constraints[ordinal], true
}
