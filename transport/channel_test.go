package transport

import (
	"bytes"
	"context"
	"testing"
	"time"

	fidl "github.com/vsrinivas/fuchsia-sub355"
	"github.com/vsrinivas/fuchsia-sub355/coding"
	"github.com/vsrinivas/fuchsia-sub355/errors"
	"github.com/vsrinivas/fuchsia-sub355/handle"
)

func TestChannelWriteRead(t *testing.T) {
	a, b := NewPair(nil)
	defer a.Close()
	defer b.Close()

	msgs := [][]byte{[]byte("first"), []byte("second"), []byte("third")}
	for _, m := range msgs {
		if err := a.Write(m, nil); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	ctx := context.Background()
	for _, want := range msgs {
		got, handles, err := b.Read(ctx)
		if err != nil {
			t.Fatalf("Read: %v", err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("message order broken: got %q, want %q", got, want)
		}
		if len(handles) != 0 {
			t.Errorf("unexpected handles: %v", handles)
		}
	}
}

func TestChannelLimits(t *testing.T) {
	a, b := NewPair(nil)
	defer a.Close()
	defer b.Close()

	if err := a.Write(make([]byte, fidl.MaxMessageBytes+1), nil); err == nil || err.Kind != errors.KindMessageTooLarge {
		t.Errorf("oversized write: got %v, want kind %s", err, errors.KindMessageTooLarge)
	}
	hs := make([]fidl.HandleInfo, fidl.MaxMessageHandles+1)
	if err := a.Write(nil, hs); err == nil || err.Kind != errors.KindTooManyHandles {
		t.Errorf("too many handles: got %v, want kind %s", err, errors.KindTooManyHandles)
	}
}

func TestChannelPeerClosed(t *testing.T) {
	a, b := NewPair(nil)
	b.Close()

	if err := a.Write([]byte("late"), nil); err == nil || err.Kind != errors.KindPeerClosed {
		t.Errorf("write to closed peer: got %v, want kind %s", err, errors.KindPeerClosed)
	}
	if _, _, err := b.Read(context.Background()); err == nil || err.Kind != errors.KindPeerClosed {
		t.Errorf("read from closed endpoint: got %v, want kind %s", err, errors.KindPeerClosed)
	}
}

func TestChannelReadContextCancel(t *testing.T) {
	a, b := NewPair(nil)
	defer a.Close()
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := b.Read(ctx)
	if err == nil {
		t.Fatal("Read returned without a message")
	}
	if time.Since(start) > time.Second {
		t.Error("Read ignored context deadline")
	}
}

func TestChannelCloseReleasesQueuedHandles(t *testing.T) {
	tbl := handle.NewTable()
	a, b := NewPair(tbl)

	h, err := tbl.Create(fidl.ObjectTypeEvent, fidl.RightSignal, nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := a.Write([]byte("with handle"), []fidl.HandleInfo{{Handle: h, Type: fidl.ObjectTypeEvent, Rights: fidl.RightSignal}}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	b.Close()
	a.Close()
	if tbl.Count() != 0 {
		t.Errorf("queued handle leaked: %d live handles", tbl.Count())
	}
}

// echoRecord mirrors the engine's wire conventions: a u64 value, a u32
// byte-vector length, then the vector in its own extent.
type echoRecord struct {
	Value  uint64
	Vector []byte
}

func encodeEcho(e *coding.Encoder, value any, pos coding.Position, depth coding.Depth[coding.Bounded]) {
	rec := value.(*echoRecord)
	pos.PutUint64(0, rec.Value)
	pos.PutUint32(8, uint32(len(rec.Vector)))
	if len(rec.Vector) == 0 {
		return
	}
	if next := depth.Add(e, 1); !next.IsValid() {
		return
	}
	ext := e.Alloc(uint32(len(rec.Vector)))
	if !ext.IsValid() {
		return
	}
	ext.CopyFrom(0, rec.Vector)
}

func decodeEchoInto(out *echoRecord) coding.DecodeFunc[coding.Bounded] {
	return func(d *coding.Decoder, pos coding.Position, depth coding.Depth[coding.Bounded]) {
		out.Value = pos.Uint64(0)
		n := pos.Uint32(8)
		if n == 0 {
			return
		}
		if next := depth.Add(d, 1); !next.IsValid() {
			return
		}
		ext := d.Alloc(n)
		if !ext.IsValid() {
			return
		}
		out.Vector = make([]byte, n)
		ext.CopyTo(0, out.Vector)
	}
}

func TestSendRecvRoundTrip(t *testing.T) {
	a, b := NewPair(nil)
	defer a.Close()
	defer b.Close()

	cfg := &coding.Config{Name: "test.Echo"}
	sent := &echoRecord{Value: 99, Vector: []byte("over the wire")}
	hdr := NewHeader(7, 0xABCDEF)

	if err := Send[coding.Bounded](a, hdr, cfg, encodeEcho, 16, sent); err != nil {
		t.Fatalf("Send: %v", err)
	}

	var got echoRecord
	gotHdr, err := Recv[coding.Bounded](context.Background(), b, cfg, decodeEchoInto(&got), 16, nil)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if gotHdr != hdr {
		t.Errorf("header: got %+v, want %+v", gotHdr, hdr)
	}
	if got.Value != sent.Value || !bytes.Equal(got.Vector, sent.Vector) {
		t.Errorf("body: got %+v, want %+v", got, sent)
	}
}

func TestRecvClosesHandlesOnDecodeError(t *testing.T) {
	tbl := handle.NewTable()
	a, b := NewPair(tbl)
	defer a.Close()
	defer b.Close()

	h, _ := tbl.Create(fidl.ObjectTypeChannel, fidl.RightRead, nil)

	// A header followed by a body the decoder will reject: the root
	// alloc wants 16 bytes, the body has none.
	wire := NewHeader(1, 1).Marshal(nil)
	infos := []fidl.HandleInfo{{Handle: h, Type: fidl.ObjectTypeChannel, Rights: fidl.RightRead}}
	if err := a.Write(wire, infos); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var got echoRecord
	_, err := Recv[coding.Bounded](context.Background(), b, nil, decodeEchoInto(&got), 16, tbl)
	if err == nil {
		t.Fatal("Recv accepted a truncated body")
	}
	if tbl.Count() != 0 {
		t.Errorf("handle leaked through failed decode: %d live", tbl.Count())
	}
}

func TestRecvRejectsBadMagic(t *testing.T) {
	tbl := handle.NewTable()
	a, b := NewPair(tbl)
	defer a.Close()
	defer b.Close()

	h, _ := tbl.Create(fidl.ObjectTypeEvent, fidl.RightSignal, nil)
	wire := NewHeader(1, 1).Marshal(nil)
	wire[7] = 0x55
	wire = append(wire, make([]byte, 16)...)
	if err := a.Write(wire, []fidl.HandleInfo{{Handle: h}}); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var got echoRecord
	_, err := Recv[coding.Bounded](context.Background(), b, nil, decodeEchoInto(&got), 16, tbl)
	if err == nil || err.Kind != errors.KindBadMagic {
		t.Fatalf("got %v, want kind %s", err, errors.KindBadMagic)
	}
	if tbl.Count() != 0 {
		t.Errorf("handle leaked through rejected header: %d live", tbl.Count())
	}
}
