package chat

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kisandost/kisan-chat/internal/metrics"
	"github.com/kisandost/kisan-chat/internal/model/chat"
	"github.com/kisandost/kisan-chat/internal/model/identity"
	"github.com/kisandost/kisan-chat/internal/service/bus"
)

// Registry hands out at most one channel per conversation at a time.
type Registry struct {
	dialer bus.Dialer
	url    string
	log    zerolog.Logger

	mu       sync.Mutex
	channels map[string]*Channel
}

// NewRegistry creates a registry whose channels dial url.
func NewRegistry(dialer bus.Dialer, url string, logger zerolog.Logger) *Registry {
	return &Registry{
		dialer:   dialer,
		url:      url,
		log:      logger,
		channels: make(map[string]*Channel),
	}
}

// Acquire creates the channel for conv. A conversation that already has an
// owner yields ErrChannelBusy.
func (r *Registry) Acquire(conv chat.Conversation, me identity.Identity) (*Channel, error) {
	key := conv.Key()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.channels[key]; exists {
		return nil, ErrChannelBusy
	}

	ch := NewChannel(conv, me, r.dialer, r.url, r.log)
	r.channels[key] = ch
	metrics.OpenChannels.Inc()
	return ch, nil
}

// Release closes ch and frees its conversation.
func (r *Registry) Release(ch *Channel) error {
	key := ch.Conversation().Key()

	r.mu.Lock()
	if current, exists := r.channels[key]; exists && current == ch {
		delete(r.channels, key)
		metrics.OpenChannels.Dec()
	}
	r.mu.Unlock()

	return ch.Close()
}

// WithChannel acquires a channel for conv, runs fn with it and always
// releases it afterwards.
func (r *Registry) WithChannel(ctx context.Context, conv chat.Conversation, me identity.Identity, fn func(context.Context, *Channel) error) error {
	ch, err := r.Acquire(conv, me)
	if err != nil {
		return err
	}
	defer r.Release(ch)

	return fn(ctx, ch)
}

// Len returns the number of held channels.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.channels)
}

// CloseAll closes and forgets every channel.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	channels := r.channels
	r.channels = make(map[string]*Channel)
	r.mu.Unlock()

	for _, ch := range channels {
		metrics.OpenChannels.Dec()
		_ = ch.Close()
	}
}
