package testserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// Submission is a flag report received by the fake platform.
type Submission struct {
	ChallengeID   string `json:"challengeId"`
	SubmittedFlag string `json:"submittedFlag"`
	SessionID     string `json:"sessionId"`
	Pseudo        string `json:"pseudo"`
}

// FakePlatform imitates the scoring platform: a players table queried by
// exact pseudo and a submission function that credits each session once.
type FakePlatform struct {
	server *httptest.Server

	mu          sync.Mutex
	players     map[string]string
	solved      map[string]bool
	scores      map[string]int
	submissions []Submission
	down        bool
}

// NewFakePlatform starts a fake platform closed at test cleanup.
func NewFakePlatform(t *testing.T) *FakePlatform {
	t.Helper()
	p := &FakePlatform{
		players: map[string]string{},
		solved:  map[string]bool{},
		scores:  map[string]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /rest/v1/players", p.handlePlayers)
	mux.HandleFunc("POST /functions/v1/record-external-submission", p.handleSubmission)
	p.server = httptest.NewServer(mux)
	t.Cleanup(p.server.Close)
	return p
}

// URL is the platform base URL.
func (p *FakePlatform) URL() string {
	return p.server.URL
}

// AddPlayer registers a player with an exact pseudo.
func (p *FakePlatform) AddPlayer(pseudo, sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.players[pseudo] = sessionID
}

// SetDown makes the submission function fail with 503.
func (p *FakePlatform) SetDown(down bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.down = down
}

// Submissions returns the reports received so far.
func (p *FakePlatform) Submissions() []Submission {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Submission, len(p.submissions))
	copy(out, p.submissions)
	return out
}

func (p *FakePlatform) handlePlayers(w http.ResponseWriter, r *http.Request) {
	pseudo := strings.TrimPrefix(r.URL.Query().Get("pseudo"), "eq.")

	p.mu.Lock()
	sessionID, ok := p.players[pseudo]
	p.mu.Unlock()

	rows := []map[string]string{}
	if ok {
		rows = append(rows, map[string]string{"session_id": sessionID})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(rows)
}

func (p *FakePlatform) handleSubmission(w http.ResponseWriter, r *http.Request) {
	var sub Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.submissions = append(p.submissions, sub)

	if p.down {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if p.solved[sub.SessionID] {
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "correct": true, "alreadyFound": true})
		return
	}
	p.solved[sub.SessionID] = true
	p.scores[sub.SessionID] += 50
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success":    true,
		"correct":    true,
		"points":     50,
		"score":      p.scores[sub.SessionID],
		"totalFlags": 1,
	})
}
