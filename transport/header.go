package transport

import (
	"encoding/binary"

	"github.com/vsrinivas/fuchsia-sub355/errors"
)

// HeaderSize is the fixed size of the transactional message header
// preceding every message body on a channel.
const HeaderSize = 16

// MagicNumber identifies the wire format revision of a message. A
// receiver must reject any message carrying an unknown magic.
const MagicNumber uint8 = 1

// Header flag bits, byte 0.
const (
	// FlagWireFormatV2 marks a body encoded with envelope inlining.
	FlagWireFormatV2 uint8 = 1 << 1
)

// MessageHeader is the transactional header: a transaction id
// correlating a response to its request, three flag bytes, the wire
// format magic, and the method ordinal.
//
// Wire layout, little-endian:
//
//	txid u32 | flags [3]u8 | magic u8 | ordinal u64
type MessageHeader struct {
	Txid    uint32
	Flags   [3]uint8
	Magic   uint8
	Ordinal uint64
}

// NewHeader builds a current-revision header for one method call.
func NewHeader(txid uint32, ordinal uint64) MessageHeader {
	return MessageHeader{
		Txid:    txid,
		Flags:   [3]uint8{FlagWireFormatV2, 0, 0},
		Magic:   MagicNumber,
		Ordinal: ordinal,
	}
}

// Marshal appends the header's wire form to dst.
func (h MessageHeader) Marshal(dst []byte) []byte {
	dst = binary.LittleEndian.AppendUint32(dst, h.Txid)
	dst = append(dst, h.Flags[0], h.Flags[1], h.Flags[2], h.Magic)
	return binary.LittleEndian.AppendUint64(dst, h.Ordinal)
}

// Unmarshal reads the header from the front of buf, validating the
// magic number.
func (h *MessageHeader) Unmarshal(buf []byte) *errors.Error {
	if len(buf) < HeaderSize {
		return errors.New(errors.PhaseTransport, errors.KindInvalidData).
			Detail("message shorter than header: %d bytes", len(buf)).
			Build()
	}
	h.Txid = binary.LittleEndian.Uint32(buf)
	h.Flags = [3]uint8{buf[4], buf[5], buf[6]}
	h.Magic = buf[7]
	h.Ordinal = binary.LittleEndian.Uint64(buf[8:])
	if h.Magic != MagicNumber {
		return errors.New(errors.PhaseTransport, errors.KindBadMagic).
			Detail("unsupported wire format magic 0x%02x", h.Magic).
			Value(h.Magic).
			Build()
	}
	return nil
}
