package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kisandost/kisan-chat/internal/metrics"
	"github.com/kisandost/kisan-chat/internal/model/chat"
	"github.com/kisandost/kisan-chat/internal/model/identity"
	"github.com/kisandost/kisan-chat/internal/service/bus"
)

// State is the lifecycle state of a channel connection.
type State string

const (
	StateConnecting   State = "connecting"
	StateConnected    State = "connected"
	StateError        State = "error"
	StateDisconnected State = "disconnected"
)

// Terminal reports whether the state can never change again.
func (s State) Terminal() bool {
	return s == StateError || s == StateDisconnected
}

var (
	ErrNotConnected  = errors.New("channel is not connected")
	ErrChannelOpened = errors.New("channel already opened")
	ErrChannelClosed = errors.New("channel closed")
	ErrChannelBusy   = errors.New("conversation already has an open channel")
)

// Channel owns the single bus connection of one open conversation. There is
// no reconnect: a terminal state lasts until the view is reopened.
type Channel struct {
	conv   chat.Conversation
	me     identity.Identity
	dialer bus.Dialer
	url    string
	log    zerolog.Logger
	now    func() time.Time

	transcript *Transcript

	mu     sync.Mutex
	state  State
	conn   bus.Conn
	opened bool
	closed bool

	notify    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewChannel prepares a channel for conv; nothing is dialed until Open.
func NewChannel(conv chat.Conversation, me identity.Identity, dialer bus.Dialer, url string, logger zerolog.Logger) *Channel {
	return &Channel{
		conv:       conv,
		me:         me,
		dialer:     dialer,
		url:        url,
		log:        logger.With().Str("component", "channel").Str("conversation", conv.Key()).Logger(),
		now:        time.Now,
		transcript: NewTranscript(),
		state:      StateConnecting,
		notify:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Open dials the bus, binds the connection to the conversation with a
// connect frame and starts the read loop. The dial is abandoned when the
// channel is closed first.
func (c *Channel) Open(ctx context.Context) error {
	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrChannelClosed
	case c.opened:
		c.mu.Unlock()
		return ErrChannelOpened
	}
	c.opened = true
	c.mu.Unlock()

	dialCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c.done:
			cancel()
		case <-dialCtx.Done():
		}
	}()

	conn, err := c.dialer.Dial(dialCtx, c.url)
	if err != nil {
		if c.isClosed() {
			return ErrChannelClosed
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn().Err(err).Str("url", c.url).Msg("bus dial failed")
		c.transition(StateError)
		return fmt.Errorf("dial bus: %w", err)
	}

	if err := conn.WriteJSON(chat.ConnectFrame(c.conv, c.me.Role)); err != nil {
		_ = conn.Close()
		if c.isClosed() {
			return ErrChannelClosed
		}
		c.log.Warn().Err(err).Msg("connect frame failed")
		c.transition(StateError)
		return fmt.Errorf("send connect frame: %w", err)
	}
	metrics.FramesSent.WithLabelValues(string(chat.KindConnect)).Inc()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		_ = conn.Close()
		return ErrChannelClosed
	}
	c.conn = conn
	c.state = StateConnected
	c.mu.Unlock()

	c.log.Info().Msg("channel connected")
	c.signal()

	go c.readLoop(conn)
	return nil
}

func (c *Channel) readLoop(conn bus.Conn) {
	defer conn.Close()

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			next := StateError
			if bus.IsClosed(err) || c.isClosed() {
				next = StateDisconnected
			}
			if next == StateError {
				c.log.Warn().Err(err).Msg("bus read failed")
			} else {
				c.log.Info().Msg("channel disconnected")
			}
			c.transition(next)
			return
		}
		c.handleFrame(data)
	}
}

func (c *Channel) handleFrame(data []byte) {
	metrics.FramesReceived.Inc()

	var msg chat.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		metrics.FramesDropped.WithLabelValues("malformed").Inc()
		c.log.Warn().Err(err).Msg("dropping malformed frame")
		return
	}
	if msg.IsBlank() {
		metrics.FramesDropped.WithLabelValues("blank").Inc()
		return
	}
	if !c.transcript.Append(msg) {
		metrics.DuplicatesSuppressed.Inc()
		return
	}
	c.signal()
}

// Send writes a chat message built from the current identity. Nothing is
// appended locally; the message shows up when the bus echoes it back.
func (c *Channel) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	c.mu.Lock()
	state, conn := c.state, c.conn
	c.mu.Unlock()

	if state != StateConnected || conn == nil {
		metrics.SendRejected.Inc()
		return ErrNotConnected
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := chat.NewMessage(c.conv, c.me.Role, text, c.now())
	if err := conn.WriteJSON(msg); err != nil {
		c.log.Warn().Err(err).Msg("send failed")
		return fmt.Errorf("send message: %w", err)
	}
	metrics.FramesSent.WithLabelValues(string(chat.KindMessage)).Inc()
	return nil
}

// ReplaceHistory swaps the transcript for msgs.
func (c *Channel) ReplaceHistory(msgs []chat.Message) {
	n := c.transcript.Replace(msgs)
	c.log.Debug().Int("count", n).Msg("history loaded")
	c.signal()
}

// Close closes the connection if it is connected and abandons any pending
// dial. It is safe to call more than once.
func (c *Channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		conn := c.conn
		connected := c.state == StateConnected
		if connected {
			c.state = StateDisconnected
		}
		c.mu.Unlock()

		close(c.done)
		if connected && conn != nil {
			err = conn.Close()
		}
		c.signal()
	})
	return err
}

// State returns the current connection state.
func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Entries returns a snapshot of the transcript rows.
func (c *Channel) Entries() []Entry {
	return c.transcript.Entries()
}

// Messages returns a snapshot of the transcript.
func (c *Channel) Messages() []chat.Message {
	return c.transcript.Messages()
}

// Conversation returns the conversation the channel is bound to.
func (c *Channel) Conversation() chat.Conversation {
	return c.conv
}

// Updates fires after state or transcript changes. Bursts coalesce into one
// pending signal.
func (c *Channel) Updates() <-chan struct{} {
	return c.notify
}

// Done is closed by Close.
func (c *Channel) Done() <-chan struct{} {
	return c.done
}

func (c *Channel) transition(next State) {
	c.mu.Lock()
	if c.state.Terminal() {
		c.mu.Unlock()
		return
	}
	c.state = next
	c.mu.Unlock()
	c.signal()
}

func (c *Channel) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *Channel) signal() {
	select {
	case c.notify <- struct{}{}:
	default:
	}
}
