package storage

import (
	"errors"
	"testing"
	"time"
)

func TestCleanName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"alice.jpg", "alice.jpg", false},
		{"  alice.JPG ", "alice.JPG", false},
		{"../../etc/alice.png", "alice.png", false},
		{`C:\Users\bob\photo.jpeg`, "photo.jpeg", false},
		{"portrait.webp", "portrait.webp", false},
		{"", "", true},
		{".jpg", "", true},
		{"notes.txt", "", true},
		{"noext", "", true},
		{"dir/", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := CleanName(tc.in)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidName) {
					t.Errorf("CleanName(%q) expected ErrInvalidName, got %v", tc.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CleanName(%q) unexpected error: %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("CleanName(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestPermanentName(t *testing.T) {
	ts := time.Unix(1700000000, 0)

	if got := PermanentName("alice.jpg", ts); got != "alice_1700000000.jpg" {
		t.Errorf("PermanentName() = %s", got)
	}
	if got := PermanentName("my.photo.png", ts); got != "my.photo_1700000000.png" {
		t.Errorf("PermanentName() = %s", got)
	}

	other := PermanentName("alice.jpg", ts.Add(time.Second))
	if other == PermanentName("alice.jpg", ts) {
		t.Error("identical stems at different times must produce distinct names")
	}
}

func TestTempName(t *testing.T) {
	if got := TempName("abc", "alice.jpg"); got != "temp_abc_alice.jpg" {
		t.Errorf("TempName() = %s", got)
	}
}

func TestInfoFingerprint(t *testing.T) {
	withETag := Info{Size: 10, ModTime: time.Unix(1, 0), ETag: "abc"}
	if withETag.Fingerprint() != "abc" {
		t.Errorf("expected ETag to be used, got %s", withETag.Fingerprint())
	}

	a := Info{Size: 10, ModTime: time.Unix(1, 0)}
	b := Info{Size: 11, ModTime: time.Unix(1, 0)}
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("different sizes must produce different fingerprints")
	}
}
