package handlers

import (
	"errors"
	"net/http"

	"github.com/kozaktomas/face-registry/internal/registry"
)

// RecognizeHandler serves the JSON recognition endpoint.
type RecognizeHandler struct {
	registry Registry
}

// NewRecognizeHandler creates a new recognition handler.
func NewRecognizeHandler(reg Registry) *RecognizeHandler {
	return &RecognizeHandler{registry: reg}
}

// RecognizeResponse is the JSON answer of a recognition.
type RecognizeResponse struct {
	Status   string   `json:"status"`
	Label    string   `json:"label,omitempty"`
	Distance *float64 `json:"distance,omitempty"`
	ImageURL string   `json:"image_url,omitempty"` // reference image of the match
	Skipped  int      `json:"skipped,omitempty"`   // enrollees left out of the gallery
	Warnings []string `json:"warnings,omitempty"`
}

func toRecognizeResponse(res *registry.RecognizeResult) RecognizeResponse {
	out := RecognizeResponse{
		Status: string(res.Status),
		Label:  res.Label,
	}
	if res.Status == registry.StatusMatched {
		d := res.Distance
		out.Distance = &d
		if res.Ref != "" {
			out.ImageURL = imageURL(res.Ref)
		}
	}
	if res.Report != nil {
		out.Skipped = res.Report.Skipped()
		out.Warnings = res.Report.SkipReasons()
	}
	return out
}

// Recognize classifies a multipart probe photo.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	if err := parseUpload(w, r); err != nil {
		if errors.Is(err, registry.ErrNoPhoto) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
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

	result, err := h.registry.Recognize(r.Context(), registry.RecognizeRequest{
		Filename: filename,
		Photo:    photo,
	})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			respondError(w, status, "failed to recognize")
			return
		}
		respondError(w, status, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, toRecognizeResponse(result))
}
