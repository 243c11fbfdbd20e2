package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Startup step names
const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepServices   = "Initializing services"
	StepReady      = "Server ready"
)

// Pinger checks the database connection
type Pinger interface {
	PingContext(ctx context.Context) error
}

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu      sync.RWMutex
	ready   bool
	current string
	steps   []string
	done    map[string]bool
}

// NewStartupStatus tracks the given steps in order
func NewStartupStatus(steps ...string) *StartupStatus {
	if len(steps) == 0 {
		steps = []string{StepDatabase, StepMigrations, StepServices, StepReady}
	}
	return &StartupStatus{current: "Initializing...", steps: steps, done: make(map[string]bool)}
}

// CompleteStep marks a step as completed
func (s *StartupStatus) CompleteStep(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done[step] = true
	s.current = step
	if step == StepReady {
		s.ready = true
	}
}

// IsReady returns whether the server is fully initialized
func (s *StartupStatus) IsReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// Progress is the percentage of completed steps
func (s *StartupStatus) Progress() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ready {
		return 100
	}
	return len(s.done) * 100 / len(s.steps)
}

type healthResponse struct {
	Status   string `json:"status"`
	Step     string `json:"step,omitempty"`
	Progress int    `json:"progress"`
	Error    string `json:"error,omitempty"`
}

// Health reports 200 once startup finished and the database answers, 503 otherwise
func Health(status *StartupStatus, db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !status.IsReady() {
			status.mu.RLock()
			step := status.current
			status.mu.RUnlock()
			respondWithJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "starting", Step: step, Progress: status.Progress()})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			respondWithJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Progress: 100, Error: "database unreachable"})
			return
		}
		respondWithJSON(w, http.StatusOK, healthResponse{Status: "ok", Progress: 100})
	}
}
