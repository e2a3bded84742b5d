package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kisandost/kisan-chat/internal/model/chat"
	"github.com/kisandost/kisan-chat/internal/model/identity"
)

func waitLoaded(t *testing.T, v *View) {
	t.Helper()
	select {
	case <-v.Loaded():
	case <-time.After(wait):
		t.Fatal("view did not finish loading")
	}
}

func TestViewStartConnectsAndLoadsHistory(t *testing.T) {
	req := require.New(t)
	conn := newFakeConn()
	registry := NewRegistry(&fakeDialer{conn: conn}, "ws://test/ws/chat/", zerolog.Nop())
	history := &fakeHistory{messages: []chat.Message{
		{Message: "Do you have wheat?", From: identity.RoleFarmer, Timestamp: "2025-01-02T09:00:00.000Z"},
		{Message: "Yes", From: identity.RoleVendor, Timestamp: "2025-01-02T09:01:00.000Z"},
	}}

	v, err := OpenView(context.Background(), registry, history, farmer, conv, zerolog.Nop())
	req.NoError(err)
	v.Start()
	waitLoaded(t, v)

	req.Equal(StateConnected, v.Channel().State())
	req.Equal([]string{"Do you have wheat?", "Yes"}, texts(v.Channel().Messages()))

	name, initial := v.Header()
	req.Equal("RAVI", name)
	req.Equal("R", initial)

	req.NoError(v.Close())
	req.True(conn.IsClosed())
	req.Equal(0, registry.Len())
}

func TestViewEmptyHistoryStartsEmpty(t *testing.T) {
	registry := NewRegistry(&fakeDialer{conn: newFakeConn()}, "ws://test/ws/chat/", zerolog.Nop())

	v, err := OpenView(context.Background(), registry, &fakeHistory{messages: []chat.Message{}}, farmer, conv, zerolog.Nop())
	require.NoError(t, err)
	defer v.Close()

	require.Equal(t, StateConnecting, v.Channel().State())
	v.Start()
	waitLoaded(t, v)

	require.Equal(t, StateConnected, v.Channel().State())
	require.Empty(t, v.Channel().Messages())
}

func TestViewHistoryFailureKeepsTranscript(t *testing.T) {
	conn := newFakeConn()
	registry := NewRegistry(&fakeDialer{conn: conn}, "ws://test/ws/chat/", zerolog.Nop())

	v, err := OpenView(context.Background(), registry, &fakeHistory{err: errors.New("502")}, vendor, conv, zerolog.Nop())
	require.NoError(t, err)
	defer v.Close()

	v.Start()
	waitLoaded(t, v)
	require.Equal(t, StateConnected, v.Channel().State())
	require.Empty(t, v.Channel().Messages())
}

func TestViewCloseCancelsInFlightHistory(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry(&fakeDialer{block: true}, "ws://test/ws/chat/", zerolog.Nop())

	v, err := OpenView(context.Background(), registry, &fakeHistory{block: true}, farmer, conv, zerolog.Nop())
	req.NoError(err)
	v.Start()

	req.NoError(v.Close())
	waitLoaded(t, v)
	req.Empty(v.Channel().Messages())
	req.Equal(0, registry.Len())
}

func TestSecondViewOfSameConversationIsRefused(t *testing.T) {
	registry := NewRegistry(&fakeDialer{conn: newFakeConn()}, "ws://test/ws/chat/", zerolog.Nop())

	v, err := OpenView(context.Background(), registry, &fakeHistory{}, farmer, conv, zerolog.Nop())
	require.NoError(t, err)
	defer v.Close()

	_, err = OpenView(context.Background(), registry, &fakeHistory{}, farmer, conv, zerolog.Nop())
	require.ErrorIs(t, err, ErrChannelBusy)
}

func TestComposerAndBanner(t *testing.T) {
	require.True(t, ComposerEnabled(StateConnected))
	for _, s := range []State{StateConnecting, StateDisconnected, StateError} {
		require.False(t, ComposerEnabled(s))
	}

	require.Equal(t, "Connecting...", StatusBanner(StateConnecting))
	require.Equal(t, "Disconnected", StatusBanner(StateDisconnected))
	require.Equal(t, "Connection Error", StatusBanner(StateError))
	require.Equal(t, "", StatusBanner(StateConnected))
}

func TestIsMineIgnoresUnknownSender(t *testing.T) {
	require.False(t, IsMine(chat.Message{Message: "hi"}, identity.Identity{}))
}
