package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-registry/internal/registry"
)

// EnrolleeHandler serves the JSON enrollment endpoints.
type EnrolleeHandler struct {
	registry Registry
	log      logrus.FieldLogger
}

// NewEnrolleeHandler creates a new enrollee handler.
func NewEnrolleeHandler(reg Registry, log logrus.FieldLogger) *EnrolleeHandler {
	return &EnrolleeHandler{
		registry: reg,
		log:      log,
	}
}

// Create enrolls a person from a multipart form {name, email?, photo}.
func (h *EnrolleeHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := parseUpload(w, r); err != nil {
		if errors.Is(err, registry.ErrNoPhoto) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, errInvalidForm)
		return
	}
	form, err := decodeEnrollForm(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, errInvalidForm)
		return
	}
	filename, photo, err := readPhoto(r)
	if err != nil {
		if errors.Is(err, registry.ErrNoPhoto) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondError(w, http.StatusBadRequest, errInvalidForm)
		return
	}

	result, err := h.registry.Enroll(r.Context(), registry.EnrollRequest{
		Name:     form.Name,
		Email:    form.Email,
		Filename: filename,
		Photo:    photo,
	})
	if err != nil {
		var dup *registry.DuplicateError
		if errors.As(err, &dup) {
			respondJSON(w, http.StatusConflict, map[string]any{
				"error":    err.Error(),
				"existing": dup.Label,
				"distance": dup.Distance,
			})
			return
		}
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			respondError(w, status, "failed to enroll")
			return
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"enrollee": toEnrolleeResponse(*result.Enrollee),
		"state":    result.State,
	})
}

// List returns all enrollees, optionally filtered by ?q=.
func (h *EnrolleeHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	enrollees, err := h.registry.ListEnrollees(r.Context(), query)
	if err != nil {
		h.log.WithError(err).WithField("query", sanitizeForLog(query)).Error("listing enrollees failed")
		respondError(w, http.StatusInternalServerError, "failed to list enrollees")
		return
	}

	out := make([]EnrolleeResponse, 0, len(enrollees))
	for _, e := range enrollees {
		out = append(out, toEnrolleeResponse(e))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"enrollees": out,
		"count":     len(out),
	})
}
