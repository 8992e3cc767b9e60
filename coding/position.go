package coding

import "encoding/binary"

// Position is a bounds-checked view of one allocated extent: the bytes
// of the output arena (encode) or the input buffer (decode) that a
// single Alloc returned. A Position never outlives the transcode call
// it was created in.
//
// The zero Position is the inert sentinel returned by Alloc after an
// error has been recorded: every accessor on it reads zero or writes
// nothing, so a walk that keeps going after the first fault performs
// no memory access outside its extents.
type Position struct {
	b []byte
}

// IsValid reports whether p refers to an allocated extent.
func (p Position) IsValid() bool {
	return p.b != nil
}

// Len returns the extent size in bytes.
func (p Position) Len() uint32 {
	return uint32(len(p.b))
}

// Sub derives a view of size bytes at off within p. Out-of-range
// requests yield the inert sentinel.
func (p Position) Sub(off, size uint32) Position {
	if uint64(off)+uint64(size) > uint64(len(p.b)) {
		return Position{}
	}
	return Position{b: p.b[off : off+size]}
}

func (p Position) Uint8(off uint32) uint8 {
	if uint64(off)+1 > uint64(len(p.b)) {
		return 0
	}
	return p.b[off]
}

func (p Position) Uint16(off uint32) uint16 {
	if uint64(off)+2 > uint64(len(p.b)) {
		return 0
	}
	return binary.LittleEndian.Uint16(p.b[off:])
}

func (p Position) Uint32(off uint32) uint32 {
	if uint64(off)+4 > uint64(len(p.b)) {
		return 0
	}
	return binary.LittleEndian.Uint32(p.b[off:])
}

func (p Position) Uint64(off uint32) uint64 {
	if uint64(off)+8 > uint64(len(p.b)) {
		return 0
	}
	return binary.LittleEndian.Uint64(p.b[off:])
}

func (p Position) PutUint8(off uint32, v uint8) {
	if uint64(off)+1 > uint64(len(p.b)) {
		return
	}
	p.b[off] = v
}

func (p Position) PutUint16(off uint32, v uint16) {
	if uint64(off)+2 > uint64(len(p.b)) {
		return
	}
	binary.LittleEndian.PutUint16(p.b[off:], v)
}

func (p Position) PutUint32(off uint32, v uint32) {
	if uint64(off)+4 > uint64(len(p.b)) {
		return
	}
	binary.LittleEndian.PutUint32(p.b[off:], v)
}

func (p Position) PutUint64(off uint32, v uint64) {
	if uint64(off)+8 > uint64(len(p.b)) {
		return
	}
	binary.LittleEndian.PutUint64(p.b[off:], v)
}

// CopyFrom writes src into the extent at off, truncating to the extent
// bounds.
func (p Position) CopyFrom(off uint32, src []byte) {
	if uint64(off) >= uint64(len(p.b)) {
		return
	}
	copy(p.b[off:], src)
}

// CopyTo reads from the extent at off into dst, truncating to the
// extent bounds. It returns the number of bytes copied.
func (p Position) CopyTo(off uint32, dst []byte) int {
	if uint64(off) >= uint64(len(p.b)) {
		return 0
	}
	return copy(dst, p.b[off:])
}
