package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/kisandost/kisan-chat/internal/backendtest"
	"github.com/kisandost/kisan-chat/internal/model/identity"
	"github.com/kisandost/kisan-chat/internal/service/assistant"
	chatservice "github.com/kisandost/kisan-chat/internal/service/chat"
	"github.com/kisandost/kisan-chat/internal/storage"
)

func TestLoginStoresIdentity(t *testing.T) {
	req := require.New(t)
	store := storage.NewMemoryStore(nil)
	var out bytes.Buffer

	code, err := login(context.Background(), store, identity.Profile{Name: "Ravi", UserType: "vender"}, "9876543211", &out)
	req.NoError(err)
	req.Equal(exitOK, code)
	req.Equal("Logged in as 9876543211 (vendor)\n", out.String())
}

func TestLoginRejectsBadRole(t *testing.T) {
	code, err := login(context.Background(), storage.NewMemoryStore(nil), identity.Profile{UserType: "trader"}, "9876543211", &bytes.Buffer{})
	require.Error(t, err)
	require.Equal(t, exitConfig, code)
}

func TestWriteContactsTable(t *testing.T) {
	var out bytes.Buffer
	writeContacts(&out, []chatservice.Row{
		{Initial: "S", Name: "Sita", Phone: "9876543210", LastMessage: "Need urea", Unread: "3"},
	})

	table := out.String()
	require.Contains(t, table, "NAME")
	require.Contains(t, table, "Sita")
	require.Contains(t, table, "Need urea")
}

func TestWriteContactsEmpty(t *testing.T) {
	var out bytes.Buffer
	writeContacts(&out, nil)
	require.Equal(t, "No conversations yet\n", out.String())
}

func TestAskStartsGreetedChatThenContinues(t *testing.T) {
	req := require.New(t)
	srv := backendtest.New()
	defer srv.Close()

	client := assistant.NewClient(srv.BaseURL(), time.Second, zerolog.Nop())
	ctx := context.Background()

	reply, title, err := ask(ctx, client, "9876543210", "", "en", "When should I sow wheat?")
	req.NoError(err)
	req.Equal("You asked: When should I sow wheat?", reply)
	req.True(strings.HasPrefix(title, "KISAN DOST "))

	_, _, err = ask(ctx, client, "9876543210", title, "en", "And barley?")
	req.NoError(err)

	turns, err := client.Open(ctx, "9876543210", title)
	req.NoError(err)
	req.Len(turns, 5)
	req.Equal(assistant.SenderBot, turns[0].Sender)
	req.Equal("And barley?", turns[3].Text)
	req.Equal([]string{title}, client.Titles(ctx, "9876543210"))
}
