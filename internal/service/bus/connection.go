package bus

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Options tunes a bus connection.
type Options struct {
	HandshakeTimeout time.Duration // dial and upgrade timeout
	ReadTimeout      time.Duration // renewed by every pong
	WriteTimeout     time.Duration
	PingInterval     time.Duration
}

// DefaultOptions returns the connection defaults.
func DefaultOptions() Options {
	return Options{
		HandshakeTimeout: 10 * time.Second,
		ReadTimeout:      60 * time.Second,
		WriteTimeout:     10 * time.Second,
		PingInterval:     25 * time.Second,
	}
}

// Conn is one physical bus connection.
type Conn interface {
	WriteJSON(v interface{}) error
	ReadMessage() ([]byte, error)
	Close() error
}

// Dialer opens bus connections.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebSocketDialer dials the bus over gorilla/websocket.
type WebSocketDialer struct {
	opts Options
}

// NewWebSocketDialer returns a dialer; zero option fields take the defaults.
func NewWebSocketDialer(opts Options) *WebSocketDialer {
	def := DefaultOptions()
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = def.HandshakeTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = def.ReadTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = def.WriteTimeout
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = def.PingInterval
	}
	return &WebSocketDialer{opts: opts}
}

// Dial opens the connection and starts its keepalive loop.
func (d *WebSocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := &websocket.Dialer{
		HandshakeTimeout: d.opts.HandshakeTimeout,
	}

	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	c := &wsConn{
		ws:   ws,
		opts: d.opts,
		done: make(chan struct{}),
	}

	ws.SetReadDeadline(time.Now().Add(d.opts.ReadTimeout))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(d.opts.ReadTimeout))
	})

	go c.pingLoop()

	return c, nil
}

type wsConn struct {
	ws   *websocket.Conn
	opts Options

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

func (c *wsConn) WriteJSON(v interface{}) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.ws.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	return c.ws.WriteJSON(v)
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
			return data, nil
		}
	}
}

// Close sends a normal close frame once and tears down the socket.
func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		deadline := time.Now().Add(c.opts.WriteTimeout)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, deadline)

		err = c.ws.Close()
	})
	return err
}

// pingLoop keeps intermediaries from idling the connection out.
func (c *wsConn) pingLoop() {
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.opts.WriteTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

// IsClosed reports whether err means the connection was closed rather than broken.
func IsClosed(err error) bool {
	if err == nil {
		return false
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return closeErr.Code == websocket.CloseNormalClosure || closeErr.Code == websocket.CloseGoingAway
	}
	return errors.Is(err, net.ErrClosed)
}
