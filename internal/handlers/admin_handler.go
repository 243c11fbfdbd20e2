package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"deutschdrill/internal/importer"
	"deutschdrill/internal/models"

	"go.uber.org/zap"
)

// AdminHandler handles catalog maintenance for admins
type AdminHandler struct {
	catalog       CatalogAdmin
	uploadMaxSize int64
	logger        *zap.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(catalog CatalogAdmin, uploadMaxSize int64, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{catalog: catalog, uploadMaxSize: uploadMaxSize, logger: logger}
}

// Import loads an uploaded CSV or XLSX list from the "file" form field
func (h *AdminHandler) Import(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	kind, err := models.ParseItemKind(r.PathValue("kind"))
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.uploadMaxSize)
	if err := r.ParseMultipartForm(h.uploadMaxSize); err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "Failed to parse upload", "", err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, "Please select a file", "", err)
		return
	}
	defer file.Close()

	result, err := h.catalog.Import(r.Context(), kind, file, header.Filename)
	if err != nil {
		respondWithServiceError(w, h.logger, "catalog import failed", err)
		return
	}

	h.logger.Info("catalog imported by admin",
		zap.String("admin", user.Username),
		zap.String("kind", string(kind)),
		zap.Int("imported", result.Imported),
	)
	respondWithJSON(w, http.StatusOK, result)
}

// Export downloads the catalog of the kind in the path as ?format=xlsx|csv
func (h *AdminHandler) Export(w http.ResponseWriter, r *http.Request) {
	kind, err := models.ParseItemKind(r.PathValue("kind"))
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err.Error(), "", nil)
		return
	}
	format, err := importer.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondWithError(w, h.logger, http.StatusBadRequest, err.Error(), "", nil)
		return
	}

	// buffered so a failure can still become a JSON error
	var buf bytes.Buffer
	if _, err := h.catalog.Export(r.Context(), kind, &buf, format); err != nil {
		respondWithServiceError(w, h.logger, "catalog export failed", err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%ss.%s"`, kind, format))
	_, _ = w.Write(buf.Bytes())
}
