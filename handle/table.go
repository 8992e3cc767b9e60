package handle

import (
	"errors"
	"sync"

	fidl "github.com/vsrinivas/fuchsia-sub355"
)

var (
	// ErrClosed reports an operation on a table that has been shut down.
	ErrClosed = errors.New("handle table closed")

	// ErrBadHandle reports a handle value the table does not hold: never
	// issued, already closed, or transferred away.
	ErrBadHandle = errors.New("bad handle")

	// ErrAccessDenied reports an operation the handle's rights do not
	// permit.
	ErrAccessDenied = errors.New("handle rights do not permit operation")
)

type entry struct {
	payload any
	typ     fidl.ObjectType
	rights  fidl.Rights
	live    bool
}

// Table is a process-local handle space: it issues handle values,
// resolves them back to their entries, and closes them exactly once.
// Handle 0 is never issued; it stays fidl.HandleInvalid.
//
// A Table is safe for concurrent use.
type Table struct {
	mu      sync.RWMutex
	entries []entry
	free    []fidl.Handle
	closed  bool
}

// NewTable returns an empty handle table.
func NewTable() *Table {
	return &Table{
		entries: make([]entry, 0, 64),
		free:    make([]fidl.Handle, 0, 16),
	}
}

// Create issues a new handle for payload with the given object type
// and rights.
func (t *Table) Create(typ fidl.ObjectType, rights fidl.Rights, payload any) (fidl.Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fidl.HandleInvalid, ErrClosed
	}

	e := entry{payload: payload, typ: typ, rights: rights, live: true}
	if n := len(t.free); n > 0 {
		h := t.free[n-1]
		t.free = t.free[:n-1]
		t.entries[h-1] = e
		return h, nil
	}
	t.entries = append(t.entries, e)
	return fidl.Handle(len(t.entries)), nil
}

// Duplicate issues a second handle to the same entry, narrowed to the
// requested rights. The source must carry RightDuplicate, and
// RightSameRights keeps the source's full mask.
func (t *Table) Duplicate(h fidl.Handle, rights fidl.Rights) (fidl.Handle, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return fidl.HandleInvalid, ErrClosed
	}
	e, ok := t.lookupLocked(h)
	if !ok {
		return fidl.HandleInvalid, ErrBadHandle
	}
	if e.rights&fidl.RightDuplicate == 0 {
		return fidl.HandleInvalid, ErrAccessDenied
	}
	if rights == fidl.RightSameRights {
		rights = e.rights
	} else if rights&^e.rights != 0 {
		return fidl.HandleInvalid, ErrAccessDenied
	}

	dup := entry{payload: e.payload, typ: e.typ, rights: rights, live: true}
	if n := len(t.free); n > 0 {
		d := t.free[n-1]
		t.free = t.free[:n-1]
		t.entries[d-1] = dup
		return d, nil
	}
	t.entries = append(t.entries, dup)
	return fidl.Handle(len(t.entries)), nil
}

// Get resolves a live handle to its payload.
func (t *Table) Get(h fidl.Handle) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.lookupLocked(h)
	if !ok {
		return nil, false
	}
	return e.payload, true
}

// Info reports the object type and rights a live handle carries.
func (t *Table) Info(h fidl.Handle) (fidl.HandleInfo, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.lookupLocked(h)
	if !ok {
		return fidl.HandleInfo{}, false
	}
	return fidl.HandleInfo{Handle: h, Type: e.typ, Rights: e.rights}, true
}

// CloseHandle releases h. Closing an invalid or already-closed handle
// returns ErrBadHandle; a handle is closed at most once.
//
// CloseHandle implements fidl.HandleCloser.
func (t *Table) CloseHandle(h fidl.Handle) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.lookupLocked(h)
	if !ok {
		return ErrBadHandle
	}
	*e = entry{}
	t.free = append(t.free, h)
	return nil
}

// Count returns the number of live handles.
func (t *Table) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	for i := range t.entries {
		if t.entries[i].live {
			n++
		}
	}
	return n
}

// Close shuts the table down, releasing every live handle. Later
// operations fail with ErrClosed.
func (t *Table) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	t.closed = true
	for i := range t.entries {
		t.entries[i] = entry{}
	}
	t.entries = nil
	t.free = nil
	return nil
}

// lookupLocked resolves h to its live entry. Callers hold t.mu.
func (t *Table) lookupLocked(h fidl.Handle) (*entry, bool) {
	if !h.IsValid() || t.closed {
		return nil, false
	}
	idx := int(h) - 1
	if idx >= len(t.entries) || !t.entries[idx].live {
		return nil, false
	}
	return &t.entries[idx], true
}
