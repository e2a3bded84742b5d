package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kisandost/kisan-chat/internal/model/chat"
	"github.com/kisandost/kisan-chat/internal/model/identity"
)

// Alert shown when a send is attempted without a live connection.
const (
	SendAlertTitle = "Connection Error"
	SendAlertBody  = "Unable to send message. Please check your connection."
)

// View is the controller behind one open conversation screen. Its context
// bounds every request it starts; Close cancels it and releases the channel.
type View struct {
	ctx    context.Context
	cancel context.CancelFunc

	registry *Registry
	history  HistoryReader
	me       identity.Identity
	conv     chat.Conversation
	channel  *Channel
	log      zerolog.Logger

	startOnce sync.Once
	loaded    chan struct{}
	closeOnce sync.Once
}

// OpenView acquires the conversation's channel. Call Start to connect and
// load history.
func OpenView(parent context.Context, registry *Registry, history HistoryReader, me identity.Identity, conv chat.Conversation, logger zerolog.Logger) (*View, error) {
	ch, err := registry.Acquire(conv, me)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(parent)
	return &View{
		ctx:      ctx,
		cancel:   cancel,
		registry: registry,
		history:  history,
		me:       me,
		conv:     conv,
		channel:  ch,
		log:      logger.With().Str("component", "view").Str("conversation", conv.Key()).Logger(),
		loaded:   make(chan struct{}),
	}, nil
}

// Start opens the channel and fetches history concurrently. Loaded is closed
// once both have finished.
func (v *View) Start() {
	v.startOnce.Do(func() {
		var wg sync.WaitGroup
		wg.Add(2)

		go func() {
			defer wg.Done()
			if err := v.channel.Open(v.ctx); err != nil && !errors.Is(err, ErrChannelClosed) && !errors.Is(err, context.Canceled) {
				v.log.Warn().Err(err).Msg("channel open failed")
			}
		}()

		go func() {
			defer wg.Done()
			v.loadHistory()
		}()

		go func() {
			wg.Wait()
			close(v.loaded)
		}()
	})
}

func (v *View) loadHistory() {
	msgs, err := v.history.Messages(v.ctx, v.me, v.conv)
	if v.ctx.Err() != nil {
		return
	}
	if err != nil {
		v.log.Warn().Err(err).Msg("history unavailable")
		return
	}
	v.channel.ReplaceHistory(msgs)
}

// Loaded is closed after Start's connect attempt and history load complete.
func (v *View) Loaded() <-chan struct{} {
	return v.loaded
}

// Send delegates to the channel. ErrNotConnected means the alert must be shown.
func (v *View) Send(text string) error {
	return v.channel.Send(v.ctx, text)
}

// Close cancels in-flight requests and releases the channel.
func (v *View) Close() error {
	var err error
	v.closeOnce.Do(func() {
		v.cancel()
		err = v.registry.Release(v.channel)
	})
	return err
}

// Channel returns the view's channel.
func (v *View) Channel() *Channel {
	return v.channel
}

// Identity returns the logged-in user.
func (v *View) Identity() identity.Identity {
	return v.me
}

// Header returns the upper-cased counterpart name and avatar initial.
func (v *View) Header() (name, initial string) {
	row := RowFor(v.me, v.conv)
	return strings.ToUpper(row.Name), row.Initial
}

// IsMine reports whether msg was sent by me.
func IsMine(msg chat.Message, me identity.Identity) bool {
	return msg.From != "" && msg.From == me.Role
}

// ComposerEnabled reports whether input is accepted in state.
func ComposerEnabled(state State) bool {
	return state == StateConnected
}

// StatusBanner returns the connection banner; empty when connected.
func StatusBanner(state State) string {
	switch state {
	case StateConnecting:
		return "Connecting..."
	case StateDisconnected:
		return "Disconnected"
	case StateError:
		return "Connection Error"
	default:
		return ""
	}
}
