package http

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/osbi/saiku_services/internal/export_service/domain"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Default().Error("Failed to write JSON response", "error", err)
		}
	}
}

// respondWithError answers every export failure the same way: 500 with the message as body.
func respondWithError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

// respondWithArtifact writes an export payload. The artifact's own content type wins over
// fallbackType; a filename turns the response into an attachment.
func respondWithArtifact(w http.ResponseWriter, artifact *domain.ExportArtifact, fallbackType string) error {
	contentType := artifact.ContentType
	if contentType == "" {
		contentType = fallbackType
	}
	h := w.Header()
	h.Set("Content-Type", contentType)
	if artifact.Filename != "" {
		h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Filename}))
	}
	h.Set("Content-Length", strconv.Itoa(len(artifact.Body)))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(artifact.Body)
	return err
}
