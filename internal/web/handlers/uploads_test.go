package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-registry/internal/logging"
	"github.com/kozaktomas/face-registry/internal/storage"
)

func TestImageHandler_Get(t *testing.T) {
	st, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal() error = %v", err)
	}
	ctx := context.Background()
	if err := st.Put(ctx, "alice_1700000000.jpg", []byte("jpeg-bytes")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := st.Put(ctx, "temp_abc_alice.jpg", []byte("pending")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	handler := NewImageHandler(st, logging.Discard())

	tests := []struct {
		name       string
		param      string
		wantStatus int
		wantType   string
	}{
		{"stored image", "alice_1700000000.jpg", http.StatusOK, "image/jpeg"},
		{"missing", "bob_1.jpg", http.StatusNotFound, ""},
		{"temporary artifact", "temp_abc_alice.jpg", http.StatusNotFound, ""},
		{"traversal", "..", http.StatusNotFound, ""},
		{"empty", "", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := requestWithChiParams(httptest.NewRequest(http.MethodGet, "/uploads/x", nil), map[string]string{"name": tt.param})
			rec := httptest.NewRecorder()
			handler.Get(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, rec.Code)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if ct := rec.Header().Get("Content-Type"); ct != tt.wantType {
				t.Errorf("Content-Type = %s, want %s", ct, tt.wantType)
			}
			if rec.Body.String() != "jpeg-bytes" {
				t.Errorf("unexpected body %q", rec.Body.String())
			}
		})
	}
}
