package coding

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/vsrinivas/fuchsia-sub355/errors"
)

func envelopeBytes(numBytes uint32, numHandles, flags uint16) []byte {
	buf := make([]byte, EnvelopeSize)
	binary.LittleEndian.PutUint32(buf[0:], numBytes)
	binary.LittleEndian.PutUint16(buf[4:], numHandles)
	binary.LittleEndian.PutUint16(buf[6:], flags)
	return buf
}

func TestDecodeEnvelopeHeader(t *testing.T) {
	tests := []struct {
		name     string
		buf      []byte
		want     Envelope
		wantOK   bool
		wantKind errors.Kind
	}{
		{
			name:   "out-of-line",
			buf:    envelopeBytes(24, 2, 0),
			want:   Envelope{NumBytes: 24, NumHandles: 2, Flags: 0},
			wantOK: true,
		},
		{
			name:   "inline",
			buf:    envelopeBytes(0xCAFEF00D, 1, envelopeInlineMarker),
			want:   Envelope{NumHandles: 1, Flags: envelopeInlineMarker},
			wantOK: true,
		},
		{
			name:     "unaligned byte count",
			buf:      envelopeBytes(20, 0, 0),
			wantKind: errors.KindInvalidEnvelope,
		},
		{
			name:     "flags 2",
			buf:      envelopeBytes(8, 0, 2),
			wantKind: errors.KindInvalidInlineBit,
		},
		{
			name:     "flags 0xFFFF",
			buf:      envelopeBytes(0, 7, 0xFFFF),
			wantKind: errors.KindInvalidInlineBit,
		},
		{
			name:     "flags 3 with huge counts",
			buf:      envelopeBytes(0xFFFFFFF8, 0xFFFF, 3),
			wantKind: errors.KindInvalidInlineBit,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := newDecoder(nil, tc.buf, nil, nil)
			pos := d.Alloc(EnvelopeSize)

			env, ok := d.DecodeEnvelopeHeader(pos, 0)
			if ok != tc.wantOK {
				t.Fatalf("got ok=%v, want %v (err=%v)", ok, tc.wantOK, d.Err())
			}
			if tc.wantOK && env != tc.want {
				t.Errorf("got %+v, want %+v", env, tc.want)
			}
			if !tc.wantOK {
				if err := d.Err(); err == nil || err.Kind != tc.wantKind {
					t.Errorf("got error %v, want kind %s", err, tc.wantKind)
				}
			}
		})
	}
}

func TestInlinePayloadOverlaysByteCountWord(t *testing.T) {
	buf := envelopeBytes(0xDDCCBBAA, 0, envelopeInlineMarker)
	d := newDecoder(nil, buf, nil, nil)
	pos := d.Alloc(EnvelopeSize)

	payload := InlinePayload(pos, 0)
	if payload.Len() != envelopeInlineCapacity {
		t.Fatalf("payload len: got %d, want %d", payload.Len(), envelopeInlineCapacity)
	}
	if got := payload.Uint32(0); got != 0xDDCCBBAA {
		t.Errorf("payload: got 0x%08x, want 0xDDCCBBAA", got)
	}
}

func TestSkipUnknownEnvelope(t *testing.T) {
	t.Run("out-of-line with handles", func(t *testing.T) {
		buf := append(envelopeBytes(16, 2, 0), make([]byte, 16)...)
		closer := &recordingCloser{}
		d := newDecoder(nil, buf, channelHandles(41, 42), closer)
		pos := d.Alloc(EnvelopeSize)

		d.SkipUnknownEnvelope(pos, 0)
		res := d.finish()

		if res.Err != nil {
			t.Fatalf("skip failed: %v", res.Err)
		}
		if res.BytesConsumed != 24 || res.HandlesConsumed != 2 {
			t.Errorf("consumed %d bytes / %d handles, want 24 / 2", res.BytesConsumed, res.HandlesConsumed)
		}
		closer.assertClosedOnce(t, 41, 42)
	})

	t.Run("inline with a handle", func(t *testing.T) {
		buf := envelopeBytes(0x01020304, 1, envelopeInlineMarker)
		closer := &recordingCloser{}
		d := newDecoder(nil, buf, channelHandles(43), closer)
		pos := d.Alloc(EnvelopeSize)

		d.SkipUnknownEnvelope(pos, 0)
		res := d.finish()

		if res.Err != nil {
			t.Fatalf("skip failed: %v", res.Err)
		}
		closer.assertClosedOnce(t, 43)
	})

	t.Run("payload overruns buffer", func(t *testing.T) {
		buf := append(envelopeBytes(64, 0, 0), make([]byte, 8)...)
		d := newDecoder(nil, buf, nil, nil)
		pos := d.Alloc(EnvelopeSize)

		d.SkipUnknownEnvelope(pos, 0)
		if err := d.Err(); err == nil || err.Kind != errors.KindOutOfBounds {
			t.Errorf("got error %v, want kind %s", err, errors.KindOutOfBounds)
		}
	})

	// Skipped payload bytes pass through an encode → decode → encode
	// cycle untouched, so a proxy can forward fields it does not
	// understand.
	t.Run("preserves unknown payload bytes", func(t *testing.T) {
		payload := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x01, 0x02, 0x03, 0x04,
			0x05, 0x06, 0x07, 0x08, 0x09, 0x0A, 0x0B, 0x0C}
		wire := append(envelopeBytes(uint32(len(payload)), 0, 0), payload...)

		// First decode: skip the unknown field, capturing its raw
		// extent.
		d := newDecoder(nil, wire, nil, nil)
		hdrPos := d.Alloc(EnvelopeSize)
		env, ok := d.DecodeEnvelopeHeader(hdrPos, 0)
		if !ok {
			t.Fatalf("header: %v", d.Err())
		}
		raw := make([]byte, env.NumBytes)
		d.Alloc(env.NumBytes).CopyTo(0, raw)
		if res := d.finish(); res.Err != nil {
			t.Fatalf("decode: %v", res.Err)
		}

		// Re-encode header and captured bytes verbatim.
		e := newEncoder(nil, testBuffers(4, 0, 64))
		out := e.Alloc(EnvelopeSize)
		e.EncodeEnvelopeHeader(out, 0, env)
		e.Alloc(env.NumBytes).CopyFrom(0, raw)
		res := e.result()
		if res.Err != nil {
			t.Fatalf("encode: %v", res.Err)
		}
		if got := res.Iovecs[0].Buffer; !bytes.Equal(got, wire) {
			t.Errorf("cycle altered bytes:\n got % x\nwant % x", got, wire)
		}
	})

	t.Run("claims more handles than received", func(t *testing.T) {
		buf := envelopeBytes(0, 3, envelopeInlineMarker)
		closer := &recordingCloser{}
		d := newDecoder(nil, buf, channelHandles(44), closer)
		pos := d.Alloc(EnvelopeSize)

		d.SkipUnknownEnvelope(pos, 0)
		res := d.finish()
		if res.Err == nil || res.Err.Kind != errors.KindNotEnoughHandles {
			t.Errorf("got error %v, want kind %s", res.Err, errors.KindNotEnoughHandles)
		}
		// The received handle still must not leak.
		closer.assertClosedOnce(t, 44)
	})
}
