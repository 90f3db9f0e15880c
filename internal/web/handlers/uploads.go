package handlers

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-registry/internal/constants"
	"github.com/kozaktomas/face-registry/internal/storage"
)

// ImageHandler streams stored images back to the browser.
type ImageHandler struct {
	storage storage.Storage
	log     logrus.FieldLogger
}

// NewImageHandler creates a new image handler.
func NewImageHandler(st storage.Storage, log logrus.FieldLogger) *ImageHandler {
	return &ImageHandler{
		storage: st,
		log:     log,
	}
}

// Get serves GET /uploads/{name}. Temporary upload artifacts are never served.
func (h *ImageHandler) Get(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" || strings.HasPrefix(name, constants.TempPrefix) {
		http.NotFound(w, r)
		return
	}

	rc, info, err := h.storage.Open(r.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidName) {
			http.NotFound(w, r)
			return
		}
		h.log.WithError(err).WithField("image", sanitizeForLog(name)).Error("opening image failed")
		http.Error(w, "failed to read image", http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if info.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	}
	if info.ETag != "" {
		w.Header().Set("ETag", strconv.Quote(info.ETag))
	}
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	io.Copy(w, rc)
}
