package handlers

import (
	"bytes"
	"context"
	"html/template"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/logging"
	"github.com/kozaktomas/face-registry/internal/registry"
	"github.com/kozaktomas/face-registry/internal/web/middleware"
	"github.com/kozaktomas/face-registry/internal/web/static"
)

// fakeRegistry records calls and returns canned results.
type fakeRegistry struct {
	enrollResult    *registry.EnrollResult
	enrollErr       error
	recognizeResult *registry.RecognizeResult
	recognizeErr    error
	enrollees       []database.Enrollee
	listErr         error

	enrollCalls    []registry.EnrollRequest
	recognizeCalls []registry.RecognizeRequest
	lastQuery      string
}

func (f *fakeRegistry) Enroll(ctx context.Context, req registry.EnrollRequest) (*registry.EnrollResult, error) {
	f.enrollCalls = append(f.enrollCalls, req)
	if f.enrollResult == nil {
		return &registry.EnrollResult{State: registry.StateReceived}, f.enrollErr
	}
	return f.enrollResult, f.enrollErr
}

func (f *fakeRegistry) Recognize(ctx context.Context, req registry.RecognizeRequest) (*registry.RecognizeResult, error) {
	f.recognizeCalls = append(f.recognizeCalls, req)
	return f.recognizeResult, f.recognizeErr
}

func (f *fakeRegistry) ListEnrollees(ctx context.Context, query string) ([]database.Enrollee, error) {
	f.lastQuery = query
	if f.listErr != nil {
		return nil, f.listErr
	}
	return registry.FilterEnrollees(f.enrollees, query), nil
}

func (f *fakeRegistry) Tolerance() float64 {
	return 0.5
}

// multipartRequest builds a multipart POST with text fields and an optional photo.
func multipartRequest(t *testing.T, path string, fields map[string]string, filename string, photo []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	if filename != "" {
		part, err := writer.CreateFormFile("photo", filename)
		if err != nil {
			t.Fatalf("failed to create form file: %v", err)
		}
		if _, err := part.Write(photo); err != nil {
			t.Fatalf("failed to write photo: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("failed to close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func testTemplates(t *testing.T) *template.Template {
	t.Helper()
	tmpl, err := static.Templates()
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}
	return tmpl
}

func newTestPageHandler(t *testing.T, reg Registry) (*PageHandler, *middleware.FlashStore) {
	t.Helper()
	flash := middleware.NewFlashStore("test-secret")
	return NewPageHandler(reg, flash, testTemplates(t), logging.Discard()), flash
}

// popFlash reads the flash message a handler set on rec.
func popFlash(t *testing.T, flash *middleware.FlashStore, rec *httptest.ResponseRecorder) *middleware.Flash {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return flash.Pop(httptest.NewRecorder(), req)
}
