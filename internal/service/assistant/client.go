package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kisandost/kisan-chat/internal/metrics"
	"github.com/kisandost/kisan-chat/pkg/utils"
)

const (
	historyPath = "app/history/"
	aiPath      = "app/ai/"
)

// Senders used in assistant transcripts.
const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// ErrChatNotFound is returned when a titled chat does not exist.
var ErrChatNotFound = errors.New("assistant chat not found")

// ErrEmptyQuestion is returned when asked with no text.
var ErrEmptyQuestion = errors.New("question is empty")

// Message is one turn of an assistant chat.
type Message struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
}

// Greeting is the bot's opening turn of a new chat.
func Greeting(now time.Time) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      "Hello! How can I help you with your farming today?",
		Sender:    SenderBot,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	}
}

// NewTitle names a new chat after its start time.
func NewTitle(now time.Time) string {
	return "KISAN DOST " + now.Format("3:04:05 PM") + " " + now.Format("Mon Jan 02 2006")
}

// AskRequest carries the whole conversation; the question is its last turn.
type AskRequest struct {
	Phone    string    `json:"phone"`
	Title    string    `json:"title"`
	Content  []Message `json:"content"`
	Language string    `json:"language"`
}

// Client talks to the backend's farming assistant.
type Client struct {
	api *utils.JSONClient
	log zerolog.Logger
	now func() time.Time
}

// NewClient returns an assistant client rooted at baseURL.
func NewClient(baseURL string, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		api: utils.NewJSONClient(baseURL, timeout),
		log: logger.With().Str("component", "assistant").Logger(),
		now: time.Now,
	}
}

// Titles lists the user's previous chats, newest first. Failures yield an
// empty list.
func (c *Client) Titles(ctx context.Context, phone string) []string {
	var resp struct {
		Success bool     `json:"success"`
		Data    []string `json:"data"`
	}
	if err := c.api.Do(ctx, http.MethodGet, historyPath, url.Values{"phone": {phone}}, nil, &resp); err != nil {
		metrics.AssistantRequests.WithLabelValues("titles", "error").Inc()
		c.log.Warn().Err(err).Msg("chat titles unavailable")
		return []string{}
	}
	metrics.AssistantRequests.WithLabelValues("titles", "ok").Inc()
	if resp.Data == nil {
		return []string{}
	}
	return resp.Data
}

// Open loads the turns of a titled chat.
func (c *Client) Open(ctx context.Context, phone, title string) ([]Message, error) {
	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Title   string    `json:"title"`
			Content []Message `json:"content"`
		} `json:"data"`
	}
	query := url.Values{"phone": {phone}, "title": {title}}
	if err := c.api.Do(ctx, http.MethodGet, aiPath, query, nil, &resp); err != nil {
		metrics.AssistantRequests.WithLabelValues("open", "error").Inc()
		var statusErr *utils.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusNotFound {
			return nil, ErrChatNotFound
		}
		return nil, err
	}
	if !resp.Success {
		metrics.AssistantRequests.WithLabelValues("open", "empty").Inc()
		return nil, ErrChatNotFound
	}
	metrics.AssistantRequests.WithLabelValues("open", "ok").Inc()
	return resp.Data.Content, nil
}

// Ask sends the conversation and returns the assistant's reply.
func (c *Client) Ask(ctx context.Context, req AskRequest) (string, error) {
	if len(req.Content) == 0 || strings.TrimSpace(req.Content[len(req.Content)-1].Text) == "" {
		return "", ErrEmptyQuestion
	}

	lang, err := ResolveLanguage(req.Language, req.Content[len(req.Content)-1].Text)
	if err != nil {
		return "", err
	}
	req.Language = lang

	var resp struct {
		Reply string `json:"reply"`
	}
	// the backend reads the language from the query string
	query := url.Values{"language": {lang}}
	if err := c.api.Do(ctx, http.MethodPost, aiPath, query, req, &resp); err != nil {
		metrics.AssistantRequests.WithLabelValues("ask", "error").Inc()
		return "", fmt.Errorf("ask assistant: %w", err)
	}
	metrics.AssistantRequests.WithLabelValues("ask", "ok").Inc()
	c.log.Debug().Str("title", req.Title).Str("language", lang).Msg("assistant replied")
	return resp.Reply, nil
}

// Question builds a user turn stamped now.
func (c *Client) Question(text string) Message {
	return Message{
		ID:        uuid.NewString(),
		Text:      strings.TrimSpace(text),
		Sender:    SenderUser,
		Timestamp: c.now().UTC().Format(time.RFC3339Nano),
	}
}
