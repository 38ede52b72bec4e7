package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path"

	"luxbag/internal/model"
	"luxbag/internal/service"

	"github.com/rs/zerolog"
)

// multipartOverhead allows for form boundaries and the note field on top
// of the image itself.
const multipartOverhead = 64 << 10

// DesignHandler handles design image uploads.
type DesignHandler struct {
	service  service.DesignService
	maxBytes int64
	logger   zerolog.Logger
}

// NewDesignHandler creates a new design handler. maxBytes caps the image size.
func NewDesignHandler(service service.DesignService, maxBytes int64, logger zerolog.Logger) *DesignHandler {
	return &DesignHandler{
		service:  service,
		maxBytes: maxBytes,
		logger:   logger.With().Str("handler", "design").Logger(),
	}
}

// Upload handles POST /api/designs requests (multipart field "file", note
// in "ghi_chu").
func (h *DesignHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, model.ValidationError("file", "is too large"), "upload too large", h.logger)
			return
		}
		writeServiceError(w, model.ValidationError("file", "a multipart image is required"), "invalid upload", h.logger)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeServiceError(w, model.ValidationError("file", "please choose an image file"), "missing file", h.logger)
		return
	}
	defer file.Close()

	design, err := h.service.Upload(r.Context(), principal(r), service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
		Note:        r.FormValue("ghi_chu"),
	})
	if err != nil {
		writeServiceError(w, err, "failed to upload design", h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, design)
}

// List handles GET /api/designs requests.
func (h *DesignHandler) List(w http.ResponseWriter, r *http.Request) {
	designs, err := h.service.List(r.Context(), principal(r))
	if err != nil {
		writeServiceError(w, err, "failed to list designs", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, dataResponse{Success: true, Data: designs})
}

// Delete handles DELETE /api/designs/{id} requests.
func (h *DesignHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, err, "invalid design ID", h.logger)
		return
	}

	if err := h.service.Delete(r.Context(), principal(r), id); err != nil {
		writeServiceError(w, err, "failed to delete design", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Success: true, Message: "Design deleted"})
}

// File handles GET /api/designs/{id}/file requests by streaming the image.
func (h *DesignHandler) File(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, err, "invalid design ID", h.logger)
		return
	}

	design, body, err := h.service.Open(r.Context(), principal(r), id)
	if err != nil {
		writeServiceError(w, err, "failed to open design", h.logger)
		return
	}
	defer body.Close()

	contentType := mime.TypeByExtension(path.Ext(design.ObjectKey))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Warn().Err(err).Str("design_id", id.String()).Msg("failed to stream design")
	}
}
