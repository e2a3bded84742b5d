package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/kisandost/kisan-chat/internal/model/chat"
	"github.com/kisandost/kisan-chat/internal/model/identity"
	"github.com/kisandost/kisan-chat/internal/service/bus"
)

var (
	farmer = identity.Identity{Name: "Sita", Phone: "9876543210", Role: identity.RoleFarmer}
	vendor = identity.Identity{Name: "Ravi", Phone: "9876543211", Role: identity.RoleVendor}
	conv   = chat.Conversation{
		FarmerPhone: "9876543210",
		VendorPhone: "9876543211",
		FarmerName:  "Sita",
		VendorName:  "Ravi",
	}
)

type fakeConn struct {
	mu       sync.Mutex
	written  []chat.Message
	writeErr error

	inbound   chan []byte
	readErr   chan error
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		inbound: make(chan []byte, 16),
		readErr: make(chan error, 1),
		closed:  make(chan struct{}),
	}
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var msg chat.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	c.written = append(c.written, msg)
	return nil
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case data := <-c.inbound:
		return data, nil
	case err := <-c.readErr:
		return nil, err
	case <-c.closed:
		return nil, net.ErrClosed
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *fakeConn) Written() []chat.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	copied := make([]chat.Message, len(c.written))
	copy(copied, c.written)
	return copied
}

func (c *fakeConn) IsClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) push(raw string) {
	c.inbound <- []byte(raw)
}

func (c *fakeConn) remoteClose() {
	c.readErr <- &websocket.CloseError{Code: websocket.CloseNormalClosure}
}

func (c *fakeConn) fail() {
	c.readErr <- errors.New("connection reset by peer")
}

type fakeDialer struct {
	conn  *fakeConn
	err   error
	block bool

	mu    sync.Mutex
	dials int
}

func (d *fakeDialer) Dial(ctx context.Context, _ string) (bus.Conn, error) {
	d.mu.Lock()
	d.dials++
	d.mu.Unlock()

	if d.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if d.err != nil {
		return nil, d.err
	}
	return d.conn, nil
}

type fakeHistory struct {
	convs    []chat.Conversation
	messages []chat.Message
	err      error
	block    bool
}

func (h *fakeHistory) Conversations(ctx context.Context, _ identity.Identity) ([]chat.Conversation, error) {
	if h.err != nil {
		return nil, h.err
	}
	return h.convs, nil
}

func (h *fakeHistory) Messages(ctx context.Context, _ identity.Identity, _ chat.Conversation) ([]chat.Message, error) {
	if h.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if h.err != nil {
		return nil, h.err
	}
	return h.messages, nil
}
