// Package testutil provides testing utilities for bridge components.
// It contains a mock Home Assistant REST server and helpers for building
// configurations that point at it.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockHAServer simulates the parts of the Home Assistant REST API the
// bridge uses: the API root and event firing.
type MockHAServer struct {
	server *httptest.Server
	token  string

	events   []FiredEvent
	eventsMu sync.Mutex

	status   int
	statusMu sync.Mutex
}

// NewMockHAServer starts a mock server that accepts token as its bearer token.
// Call Close when done.
func NewMockHAServer(token string) *MockHAServer {
	s := &MockHAServer{
		token:  token,
		events: make([]FiredEvent, 0),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/", s.handleAPIRoot)
	mux.HandleFunc("/api/events/", s.handleFireEvent)

	s.server = httptest.NewServer(mux)
	return s
}

// URL returns the base URL of the mock server
func (s *MockHAServer) URL() string {
	return s.server.URL
}

// Close shuts the server down
func (s *MockHAServer) Close() {
	s.server.Close()
}

// FailWith makes every subsequent request answer with status. Zero restores
// normal behavior.
func (s *MockHAServer) FailWith(status int) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status = status
}

// Events returns a copy of all events fired so far
func (s *MockHAServer) Events() []FiredEvent {
	s.eventsMu.Lock()
	defer s.eventsMu.Unlock()

	result := make([]FiredEvent, len(s.events))
	copy(result, s.events)
	return result
}

// authorize writes an error response and returns false when the request
// should not be served.
func (s *MockHAServer) authorize(w http.ResponseWriter, r *http.Request) bool {
	s.statusMu.Lock()
	status := s.status
	s.statusMu.Unlock()

	if status != 0 {
		http.Error(w, http.StatusText(status), status)
		return false
	}

	if r.Header.Get("Authorization") != "Bearer "+s.token {
		http.Error(w, "401: Unauthorized", http.StatusUnauthorized)
		return false
	}
	return true
}

func (s *MockHAServer) handleAPIRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/api/" {
		http.NotFound(w, r)
		return
	}
	if !s.authorize(w, r) {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "API running."})
}

func (s *MockHAServer) handleFireEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !s.authorize(w, r) {
		return
	}

	eventType := strings.TrimPrefix(r.URL.Path, "/api/events/")

	var data map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "Event data should be a JSON object", http.StatusBadRequest)
		return
	}

	s.eventsMu.Lock()
	s.events = append(s.events, FiredEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		Data:      data,
	})
	s.eventsMu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Event " + eventType + " fired."})
}
