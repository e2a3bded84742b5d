package backendtest

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/kisandost/kisan-chat/pkg/utils"
)

type assistantTurn struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleTitles(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		utils.RespondJSON(w, http.StatusBadRequest, map[string]interface{}{"success": false, "error": "Phone number is required"})
		return
	}

	s.mu.Lock()
	titles := s.aiTitles[phone]
	newest := make([]string, 0, len(titles))
	for i := len(titles) - 1; i >= 0; i-- {
		newest = append(newest, titles[i])
	}
	s.mu.Unlock()

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"success": true, "data": newest})
}

func (s *Server) handleOpenChat(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	title := r.URL.Query().Get("title")
	if phone == "" || title == "" {
		utils.RespondError(w, http.StatusBadRequest, "Both 'phone' and 'title' parameters are required.")
		return
	}

	s.mu.Lock()
	turns, ok := s.aiChats[phone+"\x00"+title]
	s.mu.Unlock()

	if !ok {
		utils.RespondJSON(w, http.StatusNotFound, map[string]interface{}{"success": false, "error": "No history found for this title."})
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    map[string]interface{}{"title": title, "content": turns},
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Phone   string          `json:"phone"`
		Title   string          `json:"title"`
		Content []assistantTurn `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Phone == "" || payload.Title == "" || len(payload.Content) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "Missing required fields: phone, title, or content.")
		return
	}

	language := r.URL.Query().Get("language")
	if language == "" {
		language = "en"
	}

	now := time.Now()
	reply := s.Replier(payload.Content[len(payload.Content)-1].Text, language)
	turns := append(payload.Content, assistantTurn{
		ID:        strconv.FormatInt(now.UnixMilli(), 10),
		Text:      reply,
		Sender:    "bot",
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	})

	key := payload.Phone + "\x00" + payload.Title
	s.mu.Lock()
	if _, exists := s.aiChats[key]; !exists {
		s.aiTitles[payload.Phone] = append(s.aiTitles[payload.Phone], payload.Title)
	}
	s.aiChats[key] = turns
	s.mu.Unlock()

	utils.RespondJSON(w, http.StatusOK, map[string]string{"reply": reply})
}
