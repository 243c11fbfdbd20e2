package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// ProgressHandler serves the progress overview
type ProgressHandler struct {
	progress Progress
	logger   *zap.Logger
	now      func() time.Time
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(progress Progress, logger *zap.Logger) *ProgressHandler {
	return &ProgressHandler{progress: progress, logger: logger, now: time.Now}
}

// Overview returns counts, study time and recent test results
func (h *ProgressHandler) Overview(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	overview, err := h.progress.Overview(r.Context(), user.ID, h.now())
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to build progress overview", err)
		return
	}
	respondWithJSON(w, http.StatusOK, overview)
}

// ClearMockTests deletes the user's mock test history
func (h *ProgressHandler) ClearMockTests(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	deleted, err := h.progress.ClearMockTests(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to clear mock tests", err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
