package chat

import (
	"encoding/json"
	"strings"

	"github.com/kisandost/kisan-chat/internal/model/identity"
)

// Conversation pairs one farmer phone with one vendor phone.
type Conversation struct {
	FarmerPhone string
	VendorPhone string
	FarmerName  string
	VendorName  string
	LastMessage string
	UnreadCount int
}

// wireConversation mirrors the backend's chat record. The backend spells the
// vendor columns "vender"; the vendor_* keys are accepted on decode only.
type wireConversation struct {
	FarmerPhone    string `json:"farmer_phoneNumber"`
	VendorPhone    string `json:"vender_phoneNumber"`
	FarmerName     string `json:"farmer_name"`
	VendorName     string `json:"vender_name"`
	AltVendorPhone string `json:"vendor_phoneNumber,omitempty"`
	AltVendorName  string `json:"vendor_name,omitempty"`
	LastMessage    string `json:"lastMessage,omitempty"`
	UnreadCount    int    `json:"unreadCount,omitempty"`
}

func (c Conversation) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireConversation{
		FarmerPhone: c.FarmerPhone,
		VendorPhone: c.VendorPhone,
		FarmerName:  c.FarmerName,
		VendorName:  c.VendorName,
		LastMessage: c.LastMessage,
		UnreadCount: c.UnreadCount,
	})
}

func (c *Conversation) UnmarshalJSON(data []byte) error {
	var w wireConversation
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*c = Conversation{
		FarmerPhone: w.FarmerPhone,
		VendorPhone: firstNonEmpty(w.VendorPhone, w.AltVendorPhone),
		FarmerName:  w.FarmerName,
		VendorName:  firstNonEmpty(w.VendorName, w.AltVendorName),
		LastMessage: w.LastMessage,
		UnreadCount: w.UnreadCount,
	}
	return nil
}

// Key identifies the conversation by its unordered phone pair.
func (c Conversation) Key() string {
	a, b := c.FarmerPhone, c.VendorPhone
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

// Counterpart returns the name and phone of the other party relative to role.
func (c Conversation) Counterpart(role identity.Role) (name, phone string) {
	switch role {
	case identity.RoleFarmer:
		return c.VendorName, c.VendorPhone
	case identity.RoleVendor:
		return c.FarmerName, c.FarmerPhone
	default:
		return "", ""
	}
}

// OwnPhone returns the phone field of this conversation that belongs to role.
func (c Conversation) OwnPhone(role identity.Role) string {
	switch role {
	case identity.RoleFarmer:
		return c.FarmerPhone
	case identity.RoleVendor:
		return c.VendorPhone
	default:
		return ""
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
