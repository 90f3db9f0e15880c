package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-registry/internal/constants"
	"github.com/kozaktomas/face-registry/internal/registry"
	"github.com/kozaktomas/face-registry/internal/web/middleware"
)

// PageHandler serves the HTML form surface.
type PageHandler struct {
	registry  Registry
	flash     *middleware.FlashStore
	templates *template.Template
	log       logrus.FieldLogger
}

// NewPageHandler creates a new page handler.
func NewPageHandler(reg Registry, flash *middleware.FlashStore, tmpl *template.Template, log logrus.FieldLogger) *PageHandler {
	return &PageHandler{
		registry:  reg,
		flash:     flash,
		templates: tmpl,
		log:       log,
	}
}

type pageData struct {
	Title     string
	Flash     *middleware.Flash
	Result    *registry.RecognizeResult
	Tolerance float64
	Enrollees []EnrolleeResponse
	Query     string
}

// render executes a page into a buffer first so a template error still
// produces a clean 500.
func (h *PageHandler) render(w http.ResponseWriter, name string, data pageData) {
	var buf bytes.Buffer
	if err := h.templates.ExecuteTemplate(&buf, name, data); err != nil {
		h.log.WithError(err).WithField("template", name).Error("rendering page failed")
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *PageHandler) redirectWithFlash(w http.ResponseWriter, r *http.Request, target, category, message string) {
	h.flash.Set(w, category, message)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Index renders the recognition form.
func (h *PageHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, "index.html", pageData{Title: "Recognize", Flash: h.flash.Pop(w, r)})
}

// RegisterForm renders the enrollment form.
func (h *PageHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, "register.html", pageData{Title: "Register", Flash: h.flash.Pop(w, r)})
}

// Register handles an enrollment form post. Every outcome redirects back to
// the form with a flash message.
func (h *PageHandler) Register(w http.ResponseWriter, r *http.Request) {
	const target = "/register"

	if err := parseUpload(w, r); err != nil {
		h.redirectWithFlash(w, r, target, constants.FlashDanger, uploadFlash(err))
		return
	}
	form, err := decodeEnrollForm(r)
	if err != nil {
		h.redirectWithFlash(w, r, target, constants.FlashDanger, "Could not read the form.")
		return
	}
	filename, photo, err := readPhoto(r)
	if err != nil {
		h.redirectWithFlash(w, r, target, constants.FlashDanger, "You must upload a photo.")
		return
	}

	_, err = h.registry.Enroll(r.Context(), registry.EnrollRequest{
		Name:     form.Name,
		Email:    form.Email,
		Filename: filename,
		Photo:    photo,
	})
	category, message := enrollFlash(err)
	h.redirectWithFlash(w, r, target, category, message)
}

// uploadFlash words a parseUpload failure. A request without a multipart
// body simply has no photo.
func uploadFlash(err error) string {
	if errors.Is(err, registry.ErrNoPhoto) {
		return "You must upload a photo."
	}
	return "Could not read the upload."
}

func enrollFlash(err error) (string, string) {
	var dup *registry.DuplicateError
	switch {
	case err == nil:
		return constants.FlashSuccess, "Enrollee registered successfully."
	case errors.As(err, &dup):
		return constants.FlashWarning, fmt.Sprintf("This person is already registered as: %s", dup.Label)
	case errors.Is(err, registry.ErrNoFace):
		return constants.FlashDanger, "No face detected in the photo."
	case errors.Is(err, registry.ErrMissingName):
		return constants.FlashDanger, "Name is required."
	case errors.Is(err, registry.ErrInvalidFilename), errors.Is(err, registry.ErrInvalidImage):
		return constants.FlashDanger, "The photo must be a JPEG, PNG, GIF, BMP or WebP image."
	case errors.Is(err, registry.ErrNoPhoto):
		return constants.FlashDanger, "You must upload a photo."
	default:
		return constants.FlashDanger, "Enrollment failed, please try again."
	}
}

// Recognize handles a probe upload and renders the result page.
func (h *PageHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	if err := parseUpload(w, r); err != nil {
		h.redirectWithFlash(w, r, "/", constants.FlashDanger, uploadFlash(err))
		return
	}
	filename, photo, err := readPhoto(r)
	if err != nil {
		h.redirectWithFlash(w, r, "/", constants.FlashDanger, "You must upload a photo.")
		return
	}

	result, err := h.registry.Recognize(r.Context(), registry.RecognizeRequest{
		Filename: filename,
		Photo:    photo,
	})
	if err != nil {
		if registry.IsClientError(err) {
			message := "The photo must be a JPEG, PNG, GIF, BMP or WebP image."
			if errors.Is(err, registry.ErrReservedFilename) {
				message = "That filename is already in use by an enrolled photo, please rename it."
			}
			h.redirectWithFlash(w, r, "/", constants.FlashDanger, message)
			return
		}
		http.Error(w, "recognition failed", http.StatusInternalServerError)
		return
	}

	h.render(w, "result.html", pageData{
		Title:     "Result",
		Result:    result,
		Tolerance: h.registry.Tolerance(),
	})
}

// Enrollees renders the enrollee listing, optionally filtered by ?q=.
func (h *PageHandler) Enrollees(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	enrollees, err := h.registry.ListEnrollees(r.Context(), query)
	if err != nil {
		h.log.WithError(err).Error("listing enrollees failed")
		http.Error(w, "failed to list enrollees", http.StatusInternalServerError)
		return
	}

	views := make([]EnrolleeResponse, 0, len(enrollees))
	for _, e := range enrollees {
		views = append(views, toEnrolleeResponse(e))
	}
	h.render(w, "enrollees.html", pageData{
		Title:     "Enrollees",
		Flash:     h.flash.Pop(w, r),
		Enrollees: views,
		Query:     query,
	})
}
