// Package backendtest runs an in-process fake of the Kisan Dost backend:
// the chat history routes, the broadcasting chat bus and the assistant.
package backendtest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/kisandost/kisan-chat/internal/model/chat"
	"github.com/kisandost/kisan-chat/pkg/utils"
)

// Server is a running fake backend.
type Server struct {
	*httptest.Server

	// Replier produces the assistant's answer; it echoes by default.
	Replier func(question, language string) string

	upgrader websocket.Upgrader

	mu       sync.Mutex
	rows     []chat.Message
	frames   []chat.Message
	rooms    map[string]map[*peer]struct{}
	peers    map[*peer]struct{}
	noEcho   bool
	aiChats  map[string][]assistantTurn
	aiTitles map[string][]string
}

// New starts a fake backend; it is closed when the test ends via Close.
func New() *Server {
	s := &Server{
		Replier: func(question, _ string) string { return "You asked: " + question },
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		rooms:    make(map[string]map[*peer]struct{}),
		peers:    make(map[*peer]struct{}),
		aiChats:  make(map[string][]assistantTurn),
		aiTitles: make(map[string][]string),
	}

	r := chi.NewRouter()
	s.RegisterRoutes(r)
	s.Server = httptest.NewServer(r)
	return s
}

// RegisterRoutes mounts the backend routes on r.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Get("/app/chat-history/", s.handleConversations)
	r.Post("/app/chat-history/", s.handleTranscript)
	r.Get("/ws/chat/", s.handleBus)
	r.Get("/app/history/", s.handleTitles)
	r.Get("/app/ai/", s.handleOpenChat)
	r.Post("/app/ai/", s.handleAsk)
}

// BaseURL is the REST root, with trailing slash.
func (s *Server) BaseURL() string {
	return s.URL + "/"
}

// BusURL is the bus address.
func (s *Server) BusURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http") + "/ws/chat/"
}

// Seed stores chat rows as if they had been exchanged earlier.
func (s *Server) Seed(rows ...chat.Message) {
	s.mu.Lock()
	s.rows = append(s.rows, rows...)
	s.mu.Unlock()
}

// Frames returns every frame received on the bus, connect frames included.
func (s *Server) Frames() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := make([]chat.Message, len(s.frames))
	copy(copied, s.frames)
	return copied
}

// SetEcho controls whether a frame is also delivered back to its sender.
func (s *Server) SetEcho(enabled bool) {
	s.mu.Lock()
	s.noEcho = !enabled
	s.mu.Unlock()
}

// DropConnections closes every bus connection with a normal close frame.
func (s *Server) DropConnections() {
	s.mu.Lock()
	peers := make([]*peer, 0, len(s.peers))
	for p := range s.peers {
		peers = append(peers, p)
	}
	s.mu.Unlock()

	for _, p := range peers {
		p.close()
	}
}

// Peers returns the number of open bus connections.
func (s *Server) Peers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.peers)
}

type peer struct {
	conn *websocket.Conn
	mu   sync.Mutex
	room string
}

func (p *peer) write(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return p.conn.WriteMessage(websocket.TextMessage, data)
}

func (p *peer) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = p.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	_ = p.conn.Close()
}

// handleBus joins the connection to its conversation room on the first
// frame, stores every frame and broadcasts it to the room.
func (s *Server) handleBus(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	p := &peer{conn: conn}
	s.mu.Lock()
	s.peers[p] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.peers, p)
		if members, ok := s.rooms[p.room]; ok {
			delete(members, p)
		}
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var msg chat.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		s.mu.Lock()
		if p.room == "" {
			p.room = msg.FarmerPhone + "_" + msg.VendorPhone
			if s.rooms[p.room] == nil {
				s.rooms[p.room] = make(map[*peer]struct{})
			}
			s.rooms[p.room][p] = struct{}{}
		}
		s.frames = append(s.frames, msg)
		s.rows = append(s.rows, msg)
		targets := make([]*peer, 0, len(s.rooms[p.room]))
		for member := range s.rooms[p.room] {
			if member == p && s.noEcho {
				continue
			}
			targets = append(targets, member)
		}
		s.mu.Unlock()

		out, err := json.Marshal(msg)
		if err != nil {
			continue
		}
		for _, member := range targets {
			_ = member.write(out)
		}
	}
}

func (s *Server) handleConversations(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	farmerPhone := query.Get("farmer_phoneNumber")
	vendorPhone := query.Get("vendor_phoneNumber")
	if vendorPhone == "" {
		vendorPhone = query.Get("vender_phoneNumber")
	}
	if farmerPhone == "" && vendorPhone == "" {
		utils.RespondError(w, http.StatusBadRequest, "Provide either farmer_phoneNumber or vender_phoneNumber.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order := make([]string, 0)
	byPair := make(map[string]*chat.Conversation)
	for _, row := range s.rows {
		if farmerPhone != "" && row.FarmerPhone != farmerPhone {
			continue
		}
		if farmerPhone == "" && row.VendorPhone != vendorPhone {
			continue
		}

		key := row.FarmerPhone + "_" + row.VendorPhone
		conv, ok := byPair[key]
		if !ok {
			conv = &chat.Conversation{
				FarmerPhone: row.FarmerPhone,
				VendorPhone: row.VendorPhone,
				FarmerName:  row.FarmerName,
				VendorName:  row.VendorName,
			}
			byPair[key] = conv
			order = append(order, key)
		}
		if !row.IsBlank() {
			conv.LastMessage = row.Message
		}
	}

	chats := make([]chat.Conversation, 0, len(order))
	for _, key := range order {
		chats = append(chats, *byPair[key])
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"chats": chats})
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	farmerPhone := body["farmer_phoneNumber"]
	vendorPhone := body["vender_phoneNumber"]
	if vendorPhone == "" {
		vendorPhone = body["vendor_phoneNumber"]
	}
	if farmerPhone == "" && vendorPhone == "" {
		utils.RespondError(w, http.StatusBadRequest, "At least farmer_phoneNumber or vender_phoneNumber is required.")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	chats := make([]chat.Message, 0, len(s.rows))
	for _, row := range s.rows {
		switch {
		case farmerPhone != "" && vendorPhone != "":
			if row.Conversation().Key() != (chat.Conversation{FarmerPhone: farmerPhone, VendorPhone: vendorPhone}).Key() {
				continue
			}
		case farmerPhone != "":
			if row.FarmerPhone != farmerPhone && row.VendorPhone != farmerPhone {
				continue
			}
		default:
			if row.VendorPhone != vendorPhone && row.FarmerPhone != vendorPhone {
				continue
			}
		}
		row.Kind = ""
		chats = append(chats, row)
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"chats": chats})
}
