package coding

// arena is a bump allocator over a caller-supplied linear buffer. It
// hands out extents aligned to the wire alignment; the bytes of every
// extent are zeroed so padding is deterministic on the wire.
type arena struct {
	buf  []byte
	used uint32
}

// alloc reserves size bytes rounded up to the wire alignment. It
// returns the extent's offset from the start of the buffer and a view
// of exactly the requested size.
func (a *arena) alloc(size uint32) (pos Position, offset uint32, ok bool) {
	aligned, ok := safeAlign8(size)
	if !ok {
		return Position{}, 0, false
	}
	end, ok := safeAddU32(a.used, aligned)
	if !ok || uint64(end) > uint64(len(a.buf)) {
		return Position{}, 0, false
	}
	offset = a.used
	extent := a.buf[offset:end]
	clear(extent)
	a.used = end
	return Position{b: extent[:size]}, offset, true
}
