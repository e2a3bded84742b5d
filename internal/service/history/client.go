package history

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/kisandost/kisan-chat/internal/metrics"
	"github.com/kisandost/kisan-chat/internal/model/chat"
	"github.com/kisandost/kisan-chat/internal/model/identity"
	"github.com/kisandost/kisan-chat/pkg/utils"
)

const chatHistoryPath = "app/chat-history/"

// ErrNoData is returned when the response carries no chats array.
var ErrNoData = errors.New("history response has no chats")

// Client reads the conversation directory and transcripts from the backend.
type Client struct {
	api *utils.JSONClient
	log zerolog.Logger
}

// NewClient returns a history client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		api: utils.NewJSONClient(baseURL, timeout),
		log: logger.With().Str("component", "history").Logger(),
	}
}

// ParamFor returns the request key carrying a phone of role.
func ParamFor(role identity.Role) string {
	if role == identity.RoleVendor {
		return "vendor_phoneNumber"
	}
	return "farmer_phoneNumber"
}

// Conversations lists every conversation involving me, in server order.
func (c *Client) Conversations(ctx context.Context, me identity.Identity) ([]chat.Conversation, error) {
	query := url.Values{}
	query.Set(ParamFor(me.Role), me.Phone)

	var resp struct {
		Chats *[]chat.Conversation `json:"chats"`
	}
	if err := c.api.Do(ctx, http.MethodGet, chatHistoryPath, query, nil, &resp); err != nil {
		metrics.HistoryRequests.WithLabelValues("conversations", "error").Inc()
		return nil, err
	}
	if resp.Chats == nil {
		metrics.HistoryRequests.WithLabelValues("conversations", "empty").Inc()
		return nil, ErrNoData
	}

	metrics.HistoryRequests.WithLabelValues("conversations", "ok").Inc()
	c.log.Debug().Str("phone", me.Phone).Int("count", len(*resp.Chats)).Msg("loaded conversations")
	return *resp.Chats, nil
}

// Messages loads the stored transcript of conv. The request is keyed by my
// own phone field; rows belonging to other conversations are filtered out.
func (c *Client) Messages(ctx context.Context, me identity.Identity, conv chat.Conversation) ([]chat.Message, error) {
	body := map[string]string{ParamFor(me.Role): conv.OwnPhone(me.Role)}

	var resp struct {
		Chats *[]chat.Message `json:"chats"`
	}
	if err := c.api.Do(ctx, http.MethodPost, chatHistoryPath, nil, body, &resp); err != nil {
		metrics.HistoryRequests.WithLabelValues("messages", "error").Inc()
		return nil, err
	}
	if resp.Chats == nil {
		metrics.HistoryRequests.WithLabelValues("messages", "empty").Inc()
		return nil, ErrNoData
	}

	key := conv.Key()
	messages := lo.Filter(*resp.Chats, func(m chat.Message, _ int) bool {
		if m.FarmerPhone == "" && m.VendorPhone == "" {
			return true
		}
		return m.Conversation().Key() == key
	})

	metrics.HistoryRequests.WithLabelValues("messages", "ok").Inc()
	c.log.Debug().Str("conversation", key).Int("count", len(messages)).Msg("loaded transcript")
	return messages, nil
}
