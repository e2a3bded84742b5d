package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kisandost/kisan-chat/internal/model/chat"
)

func TestRegistryRefusesSecondOwner(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(&fakeDialer{conn: newFakeConn()}, "ws://test/ws/chat/", zerolog.Nop())

	first, err := registry.Acquire(conv, farmer)
	req.NoError(err)

	swapped := chat.Conversation{FarmerPhone: conv.VendorPhone, VendorPhone: conv.FarmerPhone}
	_, err = registry.Acquire(swapped, vendor)
	req.ErrorIs(err, ErrChannelBusy)

	req.NoError(registry.Release(first))
	req.Equal(0, registry.Len())

	second, err := registry.Acquire(conv, farmer)
	req.NoError(err)
	req.NotSame(first, second)
	registry.CloseAll()
	req.Equal(0, registry.Len())
}

func TestRegistryReleaseOfStaleChannelKeepsCurrent(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(&fakeDialer{conn: newFakeConn()}, "ws://test/ws/chat/", zerolog.Nop())

	first, err := registry.Acquire(conv, farmer)
	req.NoError(err)
	req.NoError(registry.Release(first))

	second, err := registry.Acquire(conv, farmer)
	req.NoError(err)

	req.NoError(registry.Release(first))
	req.Equal(1, registry.Len())
	req.NoError(registry.Release(second))
}

func TestWithChannelReleasesOnError(t *testing.T) {
	req := require.New(t)
	conn := newFakeConn()
	registry := NewRegistry(&fakeDialer{conn: conn}, "ws://test/ws/chat/", zerolog.Nop())
	boom := errors.New("boom")

	err := registry.WithChannel(context.Background(), conv, farmer, func(ctx context.Context, ch *Channel) error {
		if err := ch.Open(ctx); err != nil {
			return err
		}
		req.Equal(1, registry.Len())
		return boom
	})

	req.ErrorIs(err, boom)
	req.Equal(0, registry.Len())
	req.True(conn.IsClosed())
}
