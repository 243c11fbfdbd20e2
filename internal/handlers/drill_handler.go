package handlers

import (
	"net/http"
	"strconv"

	"deutschdrill/internal/grading"
	"deutschdrill/internal/models"

	"go.uber.org/zap"
)

// DrillHandler serves the single-card flashcard drills
type DrillHandler struct {
	drill  Drill
	logger *zap.Logger
}

// NewDrillHandler creates a new drill handler
func NewDrillHandler(drill Drill, logger *zap.Logger) *DrillHandler {
	return &DrillHandler{drill: drill, logger: logger}
}

type wordAnswerRequest struct {
	Answer    string `json:"answer"`
	Direction string `json:"direction"`
}

// verbAnswerRequest accepts either a slot map or a comma-separated line
type verbAnswerRequest struct {
	Answers map[string]string `json:"answers"`
	Line    string            `json:"line"`
}

func (req verbAnswerRequest) parse() grading.VerbAnswers {
	if req.Line != "" {
		return grading.ParseVerbLine(req.Line)
	}
	return grading.ParseVerbAnswers(req.Answers)
}

// Next presents the next card of the kind in the path
func (h *DrillHandler) Next(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	kind, err := models.ParseItemKind(r.PathValue("kind"))
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	item, err := h.drill.Next(r.Context(), user.ID, kind)
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to present card", err)
		return
	}
	respondWithJSON(w, http.StatusOK, item)
}

// CheckWord grades the presented vocabulary card
func (h *DrillHandler) CheckWord(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	wordID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req wordAnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}
	direction, err := models.ParseDirection(req.Direction)
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	res, err := h.drill.GradeWord(r.Context(), user.ID, wordID, req.Answer, direction)
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to grade word", err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

// CheckVerb grades the presented conjugation card
func (h *DrillHandler) CheckVerb(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	verbID, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req verbAnswerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	res, err := h.drill.GradeVerb(r.Context(), user.ID, verbID, req.parse())
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to grade verb", err)
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

func (h *DrillHandler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respondWithError(w, h.logger, http.StatusBadRequest, "Invalid item ID", "", nil)
		return 0, false
	}
	return id, true
}
