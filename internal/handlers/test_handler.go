package handlers

import (
	"errors"
	"net/http"

	"deutschdrill/internal/models"
	"deutschdrill/internal/service"

	"go.uber.org/zap"
)

// TestHandler serves mock and real tests
type TestHandler struct {
	tests  Tests
	logger *zap.Logger
}

// NewTestHandler creates a new test handler
func NewTestHandler(tests Tests, logger *zap.Logger) *TestHandler {
	return &TestHandler{tests: tests, logger: logger}
}

type startTestRequest struct {
	Kind      string `json:"kind"`
	Mode      string `json:"mode"`
	Direction string `json:"direction"`
	Size      int    `json:"size"`
}

type startTestResponse struct {
	Handle    string           `json:"handle"`
	Kind      models.ItemKind  `json:"kind"`
	Mode      models.TestMode  `json:"mode"`
	Direction models.Direction `json:"direction,omitempty"`
	Total     int              `json:"total"`
}

// answerRequest carries a vocabulary answer or a conjugation table. The
// test decides which part is graded.
type answerRequest struct {
	Answer  string            `json:"answer"`
	Answers map[string]string `json:"answers"`
	Line    string            `json:"line"`
}

func (req answerRequest) parse() service.Answer {
	return service.Answer{
		Text:  req.Answer,
		Forms: verbAnswerRequest{Answers: req.Answers, Line: req.Line}.parse(),
	}
}

// progressResponse is what a real test reveals before it is finished
type progressResponse struct {
	Answered int  `json:"answered"`
	Total    int  `json:"total"`
	Complete bool `json:"complete"`
}

// Start begins a new test
func (h *TestHandler) Start(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	var req startTestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}
	opts, err := req.options()
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	session, err := h.tests.Start(r.Context(), user.ID, opts)
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to start test", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, startTestResponse{
		Handle:    session.ID,
		Kind:      session.Kind,
		Mode:      session.Mode,
		Direction: session.Direction,
		Total:     session.Total(),
	})
}

func (req startTestRequest) options() (service.StartOptions, error) {
	kind, err := models.ParseItemKind(req.Kind)
	if err != nil {
		return service.StartOptions{}, err
	}
	mode, err := models.ParseTestMode(req.Mode)
	if err != nil {
		return service.StartOptions{}, err
	}
	opts := service.StartOptions{Kind: kind, Mode: mode, Size: req.Size}
	if kind == models.KindWord {
		if opts.Direction, err = models.ParseDirection(req.Direction); err != nil {
			return service.StartOptions{}, err
		}
	}
	return opts, nil
}

// Question returns the current question, or complete:true once all are answered
func (h *TestHandler) Question(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	q, err := h.tests.CurrentQuestion(r.Context(), user.ID, r.PathValue("id"))
	if errors.Is(err, service.ErrTestComplete) {
		respondWithJSON(w, http.StatusOK, map[string]bool{"complete": true})
		return
	}
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to get question", err)
		return
	}
	respondWithJSON(w, http.StatusOK, q)
}

// Answer submits the answer to the current question. Real tests only
// report progress; correctness is revealed by Finish.
func (h *TestHandler) Answer(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	handle := r.PathValue("id")

	var req answerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	res, err := h.tests.Submit(r.Context(), user.ID, handle, req.parse())
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to submit answer", err)
		return
	}

	if res.Mode == models.TestModeReal {
		respondWithJSON(w, http.StatusOK, progressResponse{Answered: res.Answered, Total: res.Total, Complete: res.Complete})
		return
	}
	respondWithJSON(w, http.StatusOK, res)
}

// Finish ends a complete test and returns its report
func (h *TestHandler) Finish(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	report, err := h.tests.Finish(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, h.logger, "failed to finish test", err)
		return
	}
	respondWithJSON(w, http.StatusOK, report)
}
