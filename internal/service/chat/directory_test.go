package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kisandost/kisan-chat/internal/model/chat"
	"github.com/kisandost/kisan-chat/internal/model/identity"
)

func TestScenarioVendorDirectoryShowsFarmerFields(t *testing.T) {
	req := require.New(t)
	history := &fakeHistory{convs: []chat.Conversation{
		{FarmerPhone: "9876543210", VendorPhone: "9876543211", FarmerName: "sita", VendorName: "Ravi", LastMessage: "Tomatoes ready", UnreadCount: 3},
		{FarmerPhone: "9876543212", VendorPhone: "9876543211", FarmerName: "", VendorName: "Ravi", UnreadCount: 150},
	}}

	rows := NewDirectory(history, vendor, zerolog.Nop()).Rows(context.Background())
	req.Len(rows, 2)

	req.Equal("sita", rows[0].Name)
	req.Equal("9876543210", rows[0].Phone)
	req.Equal("S", rows[0].Initial)
	req.Equal("Tomatoes ready", rows[0].LastMessage)
	req.Equal("3", rows[0].Unread)

	req.Equal("9876543212", rows[1].Phone)
	req.Equal("F", rows[1].Initial)
	req.Equal(NoMessagesText, rows[1].LastMessage)
	req.Equal("99+", rows[1].Unread)
	req.Equal(history.convs[1], rows[1].Conversation)
}

func TestFarmerRowShowsVendorFields(t *testing.T) {
	row := RowFor(farmer, chat.Conversation{FarmerPhone: "9876543210", VendorPhone: "9876543211", FarmerName: "Sita"})

	require.Equal(t, "9876543211", row.Phone)
	require.Equal(t, "", row.Name)
	require.Equal(t, "V", row.Initial)
	require.Equal(t, "", row.Unread)
}

func TestLoadConversationsFailsSoft(t *testing.T) {
	dir := NewDirectory(&fakeHistory{err: errors.New("connection refused")}, farmer, zerolog.Nop())

	convs := dir.LoadConversations(context.Background())
	require.NotNil(t, convs)
	require.Empty(t, convs)
}

func TestLoadConversationsKeepsServerOrder(t *testing.T) {
	history := &fakeHistory{convs: []chat.Conversation{
		{VendorPhone: "9000000003"}, {VendorPhone: "9000000001"}, {VendorPhone: "9000000002"},
	}}

	convs := NewDirectory(history, identity.Identity{Phone: "9876543210", Role: identity.RoleFarmer}, zerolog.Nop()).
		LoadConversations(context.Background())

	require.Equal(t, []string{"9000000003", "9000000001", "9000000002"},
		[]string{convs[0].VendorPhone, convs[1].VendorPhone, convs[2].VendorPhone})
}
