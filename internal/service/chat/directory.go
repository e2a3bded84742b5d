package chat

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/kisandost/kisan-chat/internal/model/chat"
	"github.com/kisandost/kisan-chat/internal/model/identity"
)

// NoMessagesText is shown for a conversation without a last message.
const NoMessagesText = "No messages yet"

// HistoryReader is the slice of the history service the chat screens use.
type HistoryReader interface {
	Conversations(ctx context.Context, me identity.Identity) ([]chat.Conversation, error)
	Messages(ctx context.Context, me identity.Identity, conv chat.Conversation) ([]chat.Message, error)
}

// Directory lists the conversations of the logged-in user.
type Directory struct {
	history HistoryReader
	me      identity.Identity
	log     zerolog.Logger
}

// NewDirectory creates a directory for me.
func NewDirectory(history HistoryReader, me identity.Identity, logger zerolog.Logger) *Directory {
	return &Directory{
		history: history,
		me:      me,
		log:     logger.With().Str("component", "directory").Logger(),
	}
}

// Identity returns the user the directory lists conversations for.
func (d *Directory) Identity() identity.Identity {
	return d.me
}

// LoadConversations returns the conversations in server order. Failures are
// logged and produce an empty list.
func (d *Directory) LoadConversations(ctx context.Context) []chat.Conversation {
	convs, err := d.history.Conversations(ctx, d.me)
	if err != nil {
		d.log.Warn().Err(err).Str("phone", d.me.Phone).Msg("conversation list unavailable")
		return []chat.Conversation{}
	}
	return convs
}

// Rows loads the conversations and maps them to display rows.
func (d *Directory) Rows(ctx context.Context) []Row {
	convs := d.LoadConversations(ctx)
	rows := make([]Row, 0, len(convs))
	for _, conv := range convs {
		rows = append(rows, RowFor(d.me, conv))
	}
	return rows
}

// Row is the display form of one conversation.
type Row struct {
	Name         string
	Phone        string
	Initial      string
	LastMessage  string
	Unread       string
	Conversation chat.Conversation
}

// RowFor shows the counterpart of me: a farmer sees vendor fields and a
// vendor sees farmer fields.
func RowFor(me identity.Identity, conv chat.Conversation) Row {
	var name, phone, fallback string
	switch me.Role {
	case identity.RoleFarmer:
		name, phone, fallback = conv.VendorName, conv.VendorPhone, "V"
	case identity.RoleVendor:
		name, phone, fallback = conv.FarmerName, conv.FarmerPhone, "F"
	}

	last := strings.TrimSpace(conv.LastMessage)
	if last == "" {
		last = NoMessagesText
	}

	return Row{
		Name:         name,
		Phone:        phone,
		Initial:      initialOf(name, fallback),
		LastMessage:  last,
		Unread:       unreadBadge(conv.UnreadCount),
		Conversation: conv,
	}
}

func initialOf(name, fallback string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return fallback
	}
	r, _ := utf8.DecodeRuneInString(name)
	return strings.ToUpper(string(r))
}

func unreadBadge(n int) string {
	switch {
	case n <= 0:
		return ""
	case n > 99:
		return "99+"
	default:
		return strconv.Itoa(n)
	}
}
