package watch

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Status tracks the outcome of the most recent build so the preview can tell
// whether it is serving fresh output.
type Status struct {
	mu           sync.RWMutex
	lastError    error
	lastSuccess  time.Time
	hasGoodBuild bool
	builds       int
	now          func() time.Time
}

// StatusSnapshot is the JSON view served at the status endpoint.
type StatusSnapshot struct {
	OK           bool      `json:"ok"`
	HasGoodBuild bool      `json:"has_good_build"`
	LastError    string    `json:"last_error,omitempty"`
	LastSuccess  time.Time `json:"last_success,omitzero"`
	Builds       int       `json:"builds"`
}

// NewStatus returns an empty Status.
func NewStatus() *Status {
	return &Status{now: time.Now}
}

// Record stores the result of one build. A nil err marks a good build.
func (s *Status) Record(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.builds++
	s.lastError = err
	if err == nil {
		s.hasGoodBuild = true
		s.lastSuccess = s.now()
	}
}

// Snapshot returns a copy of the current state.
func (s *Status) Snapshot() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := StatusSnapshot{
		OK:           s.lastError == nil && s.hasGoodBuild,
		HasGoodBuild: s.hasGoodBuild,
		LastSuccess:  s.lastSuccess,
		Builds:       s.builds,
	}
	if s.lastError != nil {
		snap.LastError = s.lastError.Error()
	}
	return snap
}

// ServeHTTP writes the snapshot as JSON.
func (s *Status) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	_ = json.NewEncoder(w).Encode(s.Snapshot())
}
