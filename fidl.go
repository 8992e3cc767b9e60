package fidl

// Handle is an untyped reference to a kernel object. Handle values are
// moved, never duplicated, by the transcoding engine; ownership of a
// handle belongs to exactly one holder at any time.
//
// HandleInvalid is the reserved zero value.
type Handle uint32

const HandleInvalid Handle = 0

// IsValid reports whether h refers to a kernel object.
func (h Handle) IsValid() bool {
	return h != HandleInvalid
}

// ObjectType identifies the kind of kernel object a handle refers to.
type ObjectType uint32

const (
	ObjectTypeNone ObjectType = iota
	ObjectTypeProcess
	ObjectTypeThread
	ObjectTypeVmo
	ObjectTypeChannel
	ObjectTypeEvent
	ObjectTypePort
	ObjectTypeSocket
	ObjectTypeEventPair
	ObjectTypeJob
	ObjectTypeVmar
	ObjectTypeFifo
	ObjectTypeTimer
)

// Rights is the set of operations permitted on a handle.
type Rights uint32

const (
	RightNone      Rights = 0
	RightDuplicate Rights = 1 << 0
	RightTransfer  Rights = 1 << 1
	RightRead      Rights = 1 << 2
	RightWrite     Rights = 1 << 3
	RightSignal    Rights = 1 << 4
	RightWait      Rights = 1 << 5
	RightInspect   Rights = 1 << 6

	// RightSameRights requests that a received handle keep whatever
	// rights it arrived with, skipping rights narrowing.
	RightSameRights Rights = 1 << 31
)

// HandleInfo describes a handle as received from a channel read: the
// handle value plus the object type and rights the kernel reported.
type HandleInfo struct {
	Handle Handle
	Type   ObjectType
	Rights Rights
}

// HandleDisposition describes a handle staged for a channel write: the
// handle value plus the object type and rights the sender intends the
// receiver to observe.
type HandleDisposition struct {
	Handle Handle
	Type   ObjectType
	Rights Rights
}

// Iovec is one extent of a scatter-gather byte stream. The
// concatenation of an iovec array, in order, is the logical message.
type Iovec struct {
	Buffer []byte
}

// HandleCloser releases handles back to their owner. The transcoding
// engine uses it to close handles it must not leak: handles attached to
// unknown skipped fields, and every handle of a message whose decode
// failed. Implementations must tolerate being the only close path for a
// handle, and callers must not close the same handle again.
type HandleCloser interface {
	CloseHandle(Handle) error
}

// Channel transfer limits. A single message never exceeds these; the
// engine's decode side rejects anything larger up front.
const (
	MaxMessageBytes   = 65536
	MaxMessageHandles = 64
)
