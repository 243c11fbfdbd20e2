package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"deutschdrill/internal/importer"
	"deutschdrill/internal/service"
	"deutschdrill/internal/validation"

	"go.uber.org/zap"
)

type errorResponse struct {
	Error string `json:"error"`
}

func respondWithJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func respondWithError(w http.ResponseWriter, logger *zap.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		if status >= http.StatusInternalServerError {
			logger.Error(logMsg, zap.Error(err))
		} else {
			logger.Debug(logMsg, zap.Error(err))
		}
	}

	respondWithJSON(w, status, errorResponse{Error: userMsg})
}

// respondWithServiceError maps service sentinels to HTTP statuses; anything
// unknown is a 500 and gets logged.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, logMsg string, err error) {
	var verr validation.ValidationError
	switch {
	case errors.Is(err, service.ErrEmptyCatalog):
		respondWithError(w, logger, http.StatusNotFound, "no items", logMsg, err)
	case errors.Is(err, service.ErrTestNotFound):
		respondWithError(w, logger, http.StatusNotFound, "test not found", logMsg, err)
	case errors.Is(err, service.ErrSessionState):
		respondWithError(w, logger, http.StatusConflict, err.Error(), logMsg, err)
	case errors.Is(err, service.ErrInvalidDirection), errors.Is(err, importer.ErrUnsupportedFormat):
		respondWithError(w, logger, http.StatusBadRequest, err.Error(), logMsg, err)
	case errors.As(err, &verr):
		respondWithError(w, logger, http.StatusBadRequest, verr.Error(), logMsg, err)
	case errors.Is(err, service.ErrInvalidCredentials):
		respondWithError(w, logger, http.StatusUnauthorized, "invalid username or password", logMsg, err)
	case errors.Is(err, service.ErrUsernameTaken):
		respondWithError(w, logger, http.StatusConflict, err.Error(), logMsg, err)
	default:
		respondWithError(w, logger, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}

// decodeJSON reads a size-limited JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
