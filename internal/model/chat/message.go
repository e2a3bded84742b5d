package chat

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/kisandost/kisan-chat/internal/model/identity"
)

// Kind distinguishes the binding frame from chat content.
type Kind string

const (
	KindConnect Kind = "connect"
	KindMessage Kind = "message"
)

// TimestampLayout matches the ISO-8601 strings produced by the mobile app.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Message is one frame exchanged over the bus, or one stored history row.
type Message struct {
	FarmerPhone string
	VendorPhone string
	FarmerName  string
	VendorName  string
	Message     string
	From        identity.Role
	To          identity.Role
	Timestamp   string
	Kind        Kind
}

// DedupKey is the identity of a message inside one transcript.
type DedupKey struct {
	Message   string
	Timestamp string
	From      identity.Role
}

type wireMessage struct {
	FarmerPhone    string `json:"farmer_phoneNumber"`
	VendorPhone    string `json:"vender_phoneNumber"`
	FarmerName     string `json:"farmer_name"`
	VendorName     string `json:"vender_name"`
	AltVendorPhone string `json:"vendor_phoneNumber,omitempty"`
	AltVendorName  string `json:"vendor_name,omitempty"`
	Message        string `json:"message"`
	From           string `json:"from_message"`
	To             string `json:"to_message"`
	Timestamp      string `json:"timestamp,omitempty"`
	Kind           string `json:"type,omitempty"`
}

func (m Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireMessage{
		FarmerPhone: m.FarmerPhone,
		VendorPhone: m.VendorPhone,
		FarmerName:  m.FarmerName,
		VendorName:  m.VendorName,
		Message:     m.Message,
		From:        m.From.String(),
		To:          m.To.String(),
		Timestamp:   m.Timestamp,
		Kind:        string(m.Kind),
	})
}

// UnmarshalJSON normalizes role spellings; an unrecognized role decodes to
// the empty Role rather than failing the whole frame.
func (m *Message) UnmarshalJSON(data []byte) error {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	from, _ := identity.NormalizeRole(w.From)
	to, _ := identity.NormalizeRole(w.To)
	*m = Message{
		FarmerPhone: w.FarmerPhone,
		VendorPhone: firstNonEmpty(w.VendorPhone, w.AltVendorPhone),
		FarmerName:  w.FarmerName,
		VendorName:  firstNonEmpty(w.VendorName, w.AltVendorName),
		Message:     w.Message,
		From:        from,
		To:          to,
		Timestamp:   w.Timestamp,
		Kind:        Kind(w.Kind),
	}
	return nil
}

// Key returns the de-duplication key of the message.
func (m Message) Key() DedupKey {
	return DedupKey{Message: m.Message, Timestamp: m.Timestamp, From: m.From}
}

// Conversation returns the participants the message belongs to.
func (m Message) Conversation() Conversation {
	return Conversation{
		FarmerPhone: m.FarmerPhone,
		VendorPhone: m.VendorPhone,
		FarmerName:  m.FarmerName,
		VendorName:  m.VendorName,
	}
}

// IsBlank reports whether the message carries no chat content.
func (m Message) IsBlank() bool {
	return strings.TrimSpace(m.Message) == ""
}

// Time parses the timestamp; the zero time is returned when absent or invalid.
func (m Message) Time() time.Time {
	if m.Timestamp == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, m.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

// FormatTimestamp renders t the way the app stamps outbound messages.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// NewMessage builds an outbound chat message sent by role within conv.
func NewMessage(conv Conversation, from identity.Role, text string, at time.Time) Message {
	msg := participants(conv)
	msg.Message = text
	msg.From = from
	msg.To = from.Counterpart()
	msg.Timestamp = FormatTimestamp(at)
	msg.Kind = KindMessage
	return msg
}

// ConnectFrame builds the first frame of a bus connection. It binds the
// connection to conv and carries no chat content.
func ConnectFrame(conv Conversation, from identity.Role) Message {
	msg := participants(conv)
	msg.From = from
	msg.To = from.Counterpart()
	msg.Kind = KindConnect
	return msg
}

func participants(conv Conversation) Message {
	return Message{
		FarmerPhone: conv.FarmerPhone,
		VendorPhone: conv.VendorPhone,
		FarmerName:  conv.FarmerName,
		VendorName:  conv.VendorName,
	}
}
