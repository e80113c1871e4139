// Package mocktelegram provides a mock Telegram bot API server for testing
// alert delivery without a real bot.
package mocktelegram

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// Message is one sendMessage call received by the mock.
type Message struct {
	BotToken string
	ChatID   string
	Text     string
}

// Server is a mock Telegram bot API server backed by httptest.
type Server struct {
	srv *httptest.Server

	mu       sync.RWMutex
	messages []Message
	status   int // zero means success
}

// New creates and starts a mock Telegram bot API server.
func New() *Server {
	s := &Server{}
	s.srv = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the base URL of the mock server.
func (s *Server) URL() string {
	return s.srv.URL
}

// Close shuts the mock server down.
func (s *Server) Close() {
	s.srv.Close()
}

// Fail makes the sendMessage endpoint return the given HTTP status.
func (s *Server) Fail(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
}

// Messages returns a copy of all messages received so far.
func (s *Server) Messages() []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Reset clears received messages and injected failures.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
	s.status = 0
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	// Paths look like /bot<token>/sendMessage.
	trimmed := strings.TrimPrefix(r.URL.Path, "/bot")
	token, method, found := strings.Cut(trimmed, "/")
	if !found || method != "sendMessage" || r.Method != http.MethodPost {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var body struct {
		ChatID string `json:"chat_id"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	status := s.status
	if status == 0 {
		s.messages = append(s.messages, Message{BotToken: token, ChatID: body.ChatID, Text: body.Text})
	}
	s.mu.Unlock()

	if status != 0 {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		//nolint:errcheck
		json.NewEncoder(w).Encode(map[string]any{"ok": false, "description": "injected failure"})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	//nolint:errcheck
	json.NewEncoder(w).Encode(map[string]any{"ok": true})
}
