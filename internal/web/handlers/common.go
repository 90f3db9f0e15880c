package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/schema"

	"github.com/kozaktomas/face-registry/internal/constants"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/registry"
)

// Registry is the part of the registry service the handlers drive.
type Registry interface {
	Enroll(ctx context.Context, req registry.EnrollRequest) (*registry.EnrollResult, error)
	Recognize(ctx context.Context, req registry.RecognizeRequest) (*registry.RecognizeResult, error)
	ListEnrollees(ctx context.Context, query string) ([]database.Enrollee, error)
	Tolerance() float64
}

// errInvalidForm is a shared error message for unreadable multipart bodies.
const errInvalidForm = "invalid multipart form"

var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// enrollForm holds the text fields of an enrollment submission.
type enrollForm struct {
	Name  string `schema:"name"`
	Email string `schema:"email"`
}

// EnrolleeResponse is the JSON and template view of an enrollee.
type EnrolleeResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	ImagePath string    `json:"image_path"`
	ImageURL  string    `json:"image_url"`
	CreatedAt time.Time `json:"created_at"`
}

func toEnrolleeResponse(e database.Enrollee) EnrolleeResponse {
	return EnrolleeResponse{
		ID:        e.ID,
		Name:      e.Name,
		Email:     e.Email,
		ImagePath: e.ImagePath,
		ImageURL:  imageURL(e.ImagePath),
		CreatedAt: e.CreatedAt,
	}
}

func imageURL(name string) string {
	return "/uploads/" + url.PathEscape(name)
}

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// parseUpload bounds the request body and parses the multipart form.
func parseUpload(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxUploadSize)
	if err := r.ParseMultipartForm(constants.MaxUploadSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return registry.ErrNoPhoto
		}
		return fmt.Errorf("parsing multipart form: %w", err)
	}
	return nil
}

// decodeEnrollForm reads the text fields of a parsed multipart form.
func decodeEnrollForm(r *http.Request) (enrollForm, error) {
	var form enrollForm
	if r.MultipartForm == nil {
		return form, nil
	}
	if err := formDecoder.Decode(&form, r.MultipartForm.Value); err != nil {
		return form, fmt.Errorf("decoding form: %w", err)
	}
	return form, nil
}

// readPhoto returns the uploaded photo of a parsed multipart form. A missing
// or empty file part is registry.ErrNoPhoto.
func readPhoto(r *http.Request) (string, []byte, error) {
	file, header, err := r.FormFile(constants.FieldPhoto)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil, registry.ErrNoPhoto
		}
		return "", nil, fmt.Errorf("opening photo: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("reading photo: %w", err)
	}
	if len(data) == 0 {
		return "", nil, registry.ErrNoPhoto
	}
	return header.Filename, data, nil
}

// statusFor maps a registry error to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, registry.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, registry.ErrNoFace):
		return http.StatusUnprocessableEntity
	case registry.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
