package handlers

import (
	"errors"
	"net/http"

	"github.com/salonbook/salonbook/libs/httpx"
	"github.com/salonbook/salonbook/services/salon-service/internal/uploads"
)

// Upload stores a multipart "file" field and returns its public URL.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "file is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	res, err := h.uploads.Save(r.Context(), header.Filename, file)
	if errors.Is(err, uploads.ErrUnsupportedType) {
		http.Error(w, "unsupported file type", http.StatusUnsupportedMediaType)
		return
	}
	if err != nil {
		h.logger.Error("upload failed", "err", err, "filename", header.Filename)
		http.Error(w, "failed to store file", http.StatusInternalServerError)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, res)
}
