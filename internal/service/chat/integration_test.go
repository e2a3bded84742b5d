package chat_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kisandost/kisan-chat/internal/backendtest"
	"github.com/kisandost/kisan-chat/internal/model/chat"
	"github.com/kisandost/kisan-chat/internal/model/identity"
	"github.com/kisandost/kisan-chat/internal/service/bus"
	chatservice "github.com/kisandost/kisan-chat/internal/service/chat"
	"github.com/kisandost/kisan-chat/internal/service/history"
)

func openDevice(t *testing.T, srv *backendtest.Server, me identity.Identity, conv chat.Conversation) *chatservice.View {
	t.Helper()
	registry := chatservice.NewRegistry(bus.NewWebSocketDialer(bus.Options{}), srv.BusURL(), zerolog.Nop())
	reader := history.NewClient(srv.BaseURL(), time.Second, zerolog.Nop())

	v, err := chatservice.OpenView(context.Background(), registry, reader, me, conv, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = v.Close() })

	v.Start()
	select {
	case <-v.Loaded():
	case <-time.After(3 * time.Second):
		t.Fatal("view did not load")
	}
	return v
}

func TestTwoPartiesChatOverFakeBackend(t *testing.T) {
	req := require.New(t)
	srv := backendtest.New()
	defer srv.Close()

	farmer := identity.Identity{Name: "Sita", Phone: "9876543210", Role: identity.RoleFarmer}
	vendor := identity.Identity{Name: "Ravi", Phone: "9876543211", Role: identity.RoleVendor}
	conv := chat.Conversation{FarmerPhone: farmer.Phone, VendorPhone: vendor.Phone, FarmerName: "Sita", VendorName: "Ravi"}

	srv.Seed(chat.NewMessage(conv, identity.RoleVendor, "Fresh onions in stock", time.Now().Add(-time.Hour)))

	farmerView := openDevice(t, srv, farmer, conv)
	vendorView := openDevice(t, srv, vendor, conv)

	req.Eventually(func() bool { return srv.Peers() == 2 && len(srv.Frames()) == 2 }, 3*time.Second, 10*time.Millisecond)
	req.Equal(chatservice.StateConnected, farmerView.Channel().State())
	req.Len(farmerView.Channel().Messages(), 1)

	req.NoError(farmerView.Send("Hello"))

	req.Eventually(func() bool { return len(farmerView.Channel().Messages()) == 2 }, 3*time.Second, 10*time.Millisecond)
	req.Eventually(func() bool { return len(vendorView.Channel().Messages()) == 2 }, 3*time.Second, 10*time.Millisecond)

	mine := farmerView.Channel().Messages()[1]
	req.Equal("Hello", mine.Message)
	req.True(chatservice.IsMine(mine, farmer))
	req.False(chatservice.IsMine(vendorView.Channel().Messages()[1], vendor))

	srv.DropConnections()
	req.Eventually(func() bool {
		return farmerView.Channel().State() == chatservice.StateDisconnected
	}, 3*time.Second, 10*time.Millisecond)
	req.ErrorIs(farmerView.Send("anyone there?"), chatservice.ErrNotConnected)
	req.Len(farmerView.Channel().Messages(), 2)
}

func TestDirectoryOverFakeBackend(t *testing.T) {
	req := require.New(t)
	srv := backendtest.New()
	defer srv.Close()

	vendor := identity.Identity{Name: "Ravi", Phone: "9876543211", Role: identity.RoleVendor}
	first := chat.Conversation{FarmerPhone: "9876543210", VendorPhone: vendor.Phone, FarmerName: "Sita", VendorName: "Ravi"}
	second := chat.Conversation{FarmerPhone: "9876543212", VendorPhone: vendor.Phone, FarmerName: "Gita", VendorName: "Ravi"}
	srv.Seed(
		chat.NewMessage(first, identity.RoleFarmer, "Need urea", time.Now()),
		chat.NewMessage(second, identity.RoleFarmer, "Tractor for rent?", time.Now()),
		chat.NewMessage(first, identity.RoleVendor, "Available", time.Now()),
	)

	dir := chatservice.NewDirectory(history.NewClient(srv.BaseURL(), time.Second, zerolog.Nop()), vendor, zerolog.Nop())
	rows := dir.Rows(context.Background())

	req.Len(rows, 2)
	req.Equal("Sita", rows[0].Name)
	req.Equal("9876543210", rows[0].Phone)
	req.Equal("Available", rows[0].LastMessage)
	req.Equal("Gita", rows[1].Name)
}

func TestDirectoryWhenBackendIsDown(t *testing.T) {
	srv := backendtest.New()
	base := srv.BaseURL()
	srv.Close()

	dir := chatservice.NewDirectory(history.NewClient(base, time.Second, zerolog.Nop()),
		identity.Identity{Phone: "9876543210", Role: identity.RoleFarmer}, zerolog.Nop())
	require.Empty(t, dir.LoadConversations(context.Background()))
}

func TestSentMessageAppearsOnlyThroughEcho(t *testing.T) {
	req := require.New(t)
	srv := backendtest.New()
	defer srv.Close()
	srv.SetEcho(false)

	farmer := identity.Identity{Name: "Sita", Phone: "9876543210", Role: identity.RoleFarmer}
	vendor := identity.Identity{Name: "Ravi", Phone: "9876543211", Role: identity.RoleVendor}
	conv := chat.Conversation{FarmerPhone: farmer.Phone, VendorPhone: vendor.Phone, FarmerName: "Sita", VendorName: "Ravi"}

	farmerView := openDevice(t, srv, farmer, conv)
	vendorView := openDevice(t, srv, vendor, conv)
	req.Eventually(func() bool { return srv.Peers() == 2 && len(srv.Frames()) == 2 }, 3*time.Second, 10*time.Millisecond)

	req.NoError(farmerView.Send("Price of wheat?"))

	req.Eventually(func() bool { return len(vendorView.Channel().Messages()) == 1 }, 3*time.Second, 10*time.Millisecond)
	req.Eventually(func() bool { return len(srv.Frames()) == 3 }, 3*time.Second, 10*time.Millisecond)
	req.Empty(farmerView.Channel().Messages())
}
