package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"image/color"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kozaktomas/face-registry/internal/config"
)

func newEmbeddingServer(t *testing.T, handler http.HandlerFunc) *HTTPExtractor {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTPExtractor(srv.URL+"/", 5*time.Second, 1920)
}

func TestHTTPExtractor_Extract(t *testing.T) {
	img := jpegBytes(createTestImage(20, 20, color.White))

	ex := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/embed/face" {
			t.Errorf("expected /embed/face, got %s", r.URL.Path)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer file.Close()
		if ct := header.Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("expected part content type image/jpeg, got %s", ct)
		}
		body, _ := io.ReadAll(file)
		if len(body) != len(img) {
			t.Errorf("expected %d bytes uploaded, got %d", len(img), len(body))
		}

		// Faces deliberately out of order.
		json.NewEncoder(w).Encode(faceResponse{
			FacesCount: 2,
			Faces: []faceDetection{
				{FaceIndex: 1, Dim: 2, Embedding: []float32{0.3, 0.4}, BBox: []float64{5, 5, 10, 10}, DetScore: 0.8},
				{FaceIndex: 0, Dim: 2, Embedding: []float32{0.1, 0.2}, BBox: []float64{0, 0, 4, 4}, DetScore: 0.9},
			},
			Model: "buffalo_l",
		})
	})

	faces, err := ex.Extract(context.Background(), img)
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(faces) != 2 {
		t.Fatalf("expected 2 faces, got %d", len(faces))
	}
	if faces[0].Index != 0 || faces[1].Index != 1 {
		t.Errorf("expected faces sorted by index, got %d, %d", faces[0].Index, faces[1].Index)
	}

	vec, ok := First(faces)
	if !ok {
		t.Fatal("expected a first face")
	}
	if vec[0] != 0.1 || vec[1] != 0.2 {
		t.Errorf("unexpected first vector %v", vec)
	}
}

func TestHTTPExtractor_NoFaces(t *testing.T) {
	ex := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"faces_count":0,"faces":[],"model":"buffalo_l"}`))
	})

	faces, err := ex.Extract(context.Background(), jpegBytes(createTestImage(10, 10, color.Black)))
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if len(faces) != 0 {
		t.Errorf("expected no faces, got %d", len(faces))
	}
	if _, ok := First(faces); ok {
		t.Error("First should report false for no faces")
	}
}

func TestHTTPExtractor_ServerError(t *testing.T) {
	ex := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	})

	_, err := ex.Extract(context.Background(), jpegBytes(createTestImage(10, 10, color.Black)))
	if err == nil {
		t.Fatal("expected error for 503 response")
	}
}

func TestHTTPExtractor_InvalidJSON(t *testing.T) {
	ex := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	if _, err := ex.Extract(context.Background(), jpegBytes(createTestImage(10, 10, color.Black))); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestHTTPExtractor_CorruptImageNotSent(t *testing.T) {
	called := false
	ex := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})

	_, err := ex.Extract(context.Background(), []byte("garbage bytes here"))
	if !errors.Is(err, ErrUndecodable) {
		t.Errorf("expected ErrUndecodable, got %v", err)
	}
	if called {
		t.Error("corrupt image should not reach the embedding server")
	}
}

func TestHTTPExtractor_ContextCanceled(t *testing.T) {
	ex := newEmbeddingServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := ex.Extract(ctx, jpegBytes(createTestImage(10, 10, color.Black))); err == nil {
		t.Fatal("expected error for canceled context")
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		backend string
		wantErr bool
	}{
		{"", false},
		{"http", false},
		{"onnx", true},
	}

	for _, tc := range tests {
		t.Run(tc.backend, func(t *testing.T) {
			_, err := New(config.ExtractorConfig{Backend: tc.backend, URL: "http://localhost:1"})
			if (err != nil) != tc.wantErr {
				t.Errorf("New(%q) error = %v, wantErr %v", tc.backend, err, tc.wantErr)
			}
		})
	}
}
