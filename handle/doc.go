// Package handle provides an in-process handle table: a process-local
// stand-in for a kernel handle space, used by the transport layer and
// by tests to give handle values real close-once semantics.
//
// Each live handle maps to an entry carrying the object type, the
// rights mask, and an arbitrary payload. The table implements
// fidl.HandleCloser, so it can be handed directly to WireDecode as the
// sink for handles the engine must not leak.
package handle
