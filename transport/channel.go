package transport

import (
	"context"
	"sync"

	"go.uber.org/zap"

	fidl "github.com/vsrinivas/fuchsia-sub355"
	"github.com/vsrinivas/fuchsia-sub355/coding"
	"github.com/vsrinivas/fuchsia-sub355/errors"
)

// queueDepth bounds how many messages an endpoint buffers before
// writes fail.
const queueDepth = 64

type message struct {
	bytes   []byte
	handles []fidl.HandleInfo
}

// Channel is one endpoint of an in-process bidirectional message pipe.
// Messages are datagrams: one Write is observed as exactly one Read,
// bytes and handles together, preserving order.
type Channel struct {
	name   string
	queue  chan message
	peer   *Channel
	closer fidl.HandleCloser

	mu     sync.Mutex
	closed bool
}

// NewPair returns two connected endpoints. Handles queued on an
// endpoint when it is closed are released through closer, so a torn
// down channel never strands them; closer may be nil when the pair
// will not carry handles.
func NewPair(closer fidl.HandleCloser) (*Channel, *Channel) {
	a := &Channel{name: "a", queue: make(chan message, queueDepth), closer: closer}
	b := &Channel{name: "b", queue: make(chan message, queueDepth), closer: closer}
	a.peer, b.peer = b, a
	return a, b
}

// Write queues one message on the peer endpoint. The channel takes
// ownership of the handles: after a successful Write the caller must
// not use or close them.
func (c *Channel) Write(bytes []byte, handles []fidl.HandleInfo) *errors.Error {
	if len(bytes) > fidl.MaxMessageBytes {
		return errors.New(errors.PhaseTransport, errors.KindMessageTooLarge).
			Detail("message is %d bytes, limit %d", len(bytes), fidl.MaxMessageBytes).
			Build()
	}
	if len(handles) > fidl.MaxMessageHandles {
		return errors.New(errors.PhaseTransport, errors.KindTooManyHandles).
			Detail("message carries %d handles, limit %d", len(handles), fidl.MaxMessageHandles).
			Build()
	}

	c.peer.mu.Lock()
	defer c.peer.mu.Unlock()
	if c.peer.closed {
		return errors.New(errors.PhaseTransport, errors.KindPeerClosed).
			Detail("peer endpoint closed").
			Build()
	}
	select {
	case c.peer.queue <- message{bytes: bytes, handles: handles}:
	default:
		return errors.New(errors.PhaseTransport, errors.KindOutOfCapacity).
			Detail("peer queue full: %d messages", queueDepth).
			Build()
	}
	Logger().Debug("channel write",
		zap.String("endpoint", c.name),
		zap.Int("bytes", len(bytes)),
		zap.Int("handles", len(handles)))
	return nil
}

// Read blocks until a message arrives, the peer closes, or ctx is
// done. Ownership of the returned handles passes to the caller.
func (c *Channel) Read(ctx context.Context) ([]byte, []fidl.HandleInfo, *errors.Error) {
	select {
	case msg, ok := <-c.queue:
		if !ok {
			return nil, nil, errors.New(errors.PhaseTransport, errors.KindPeerClosed).
				Detail("endpoint closed").
				Build()
		}
		return msg.bytes, msg.handles, nil
	case <-ctx.Done():
		return nil, nil, errors.Wrap(errors.PhaseTransport, errors.KindCanceled, ctx.Err(), "read canceled")
	}
}

// Close shuts the endpoint down. Pending unread messages are dropped
// and their handles released; further writes from the peer fail with
// peer_closed.
func (c *Channel) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.queue)
	c.mu.Unlock()

	dropped := 0
	for msg := range c.queue {
		dropped++
		for _, info := range msg.handles {
			if info.Handle.IsValid() && c.closer != nil {
				_ = c.closer.CloseHandle(info.Handle)
			}
		}
	}
	if dropped > 0 {
		Logger().Warn("channel closed with pending messages",
			zap.String("endpoint", c.name),
			zap.Int("dropped", dropped))
	}
	return nil
}

// Send encodes value with the engine and writes header plus body as
// one message. The body's wire offsets are relative to the body start;
// the 16-byte header keeps the overall stream 8-aligned.
func Send[P coding.DepthPolicy](c *Channel, hdr MessageHeader, cfg *coding.Config, encode coding.EncodeFunc[P], inlineSize uint32, value any) *errors.Error {
	bufs := coding.EncodeBuffers{
		Iovecs:       make([]fidl.Iovec, 8),
		Handles:      make([]fidl.Handle, fidl.MaxMessageHandles),
		Dispositions: make([]fidl.HandleDisposition, fidl.MaxMessageHandles),
		Bytes:        make([]byte, fidl.MaxMessageBytes-HeaderSize),
	}
	res := coding.WireEncode[P](cfg, encode, inlineSize, value, bufs)
	if res.Err != nil {
		return res.Err
	}

	wire := hdr.Marshal(make([]byte, 0, HeaderSize))
	for _, iov := range res.Iovecs {
		wire = append(wire, iov.Buffer...)
	}
	handles := make([]fidl.HandleInfo, len(res.Dispositions))
	for i, d := range res.Dispositions {
		handles[i] = fidl.HandleInfo{Handle: d.Handle, Type: d.Type, Rights: d.Rights}
	}
	return c.Write(wire, handles)
}

// Recv reads one message, validates its header, and decodes the body,
// closing every received handle if the decode fails.
func Recv[P coding.DepthPolicy](ctx context.Context, c *Channel, cfg *coding.Config, decode coding.DecodeFunc[P], inlineSize uint32, closer fidl.HandleCloser) (MessageHeader, *errors.Error) {
	bytes, handles, err := c.Read(ctx)
	if err != nil {
		return MessageHeader{}, err
	}

	var hdr MessageHeader
	if err := hdr.Unmarshal(bytes); err != nil {
		closeAll(closer, handles)
		return MessageHeader{}, err
	}
	res := coding.WireDecode[P](cfg, decode, inlineSize, bytes[HeaderSize:], handles, closer)
	if res.Err != nil {
		return hdr, res.Err
	}
	Logger().Debug("channel recv",
		zap.String("endpoint", c.name),
		zap.Uint64("ordinal", hdr.Ordinal),
		zap.Uint32("bytes", res.BytesConsumed),
		zap.Uint32("handles", res.HandlesConsumed))
	return hdr, nil
}

func closeAll(closer fidl.HandleCloser, handles []fidl.HandleInfo) {
	if closer == nil {
		return
	}
	for _, info := range handles {
		if info.Handle.IsValid() {
			_ = closer.CloseHandle(info.Handle)
		}
	}
}
