package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

const (
	flashCookieName = "face_registry_flash"
	flashDuration   = 5 * time.Minute
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string `json:"c"`
	Message  string `json:"m"`
}

// FlashStore carries flash messages across a redirect in a signed cookie.
type FlashStore struct {
	secret []byte
}

// NewFlashStore creates a flash store. An empty secret gets a random key,
// which invalidates pending messages on restart.
func NewFlashStore(secret string) *FlashStore {
	key := []byte(secret)
	if secret == "" {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic("reading random flash key: " + err.Error())
		}
	}
	return &FlashStore{secret: key}
}

// Set stores a flash message for the next request.
func (fs *FlashStore) Set(w http.ResponseWriter, category, message string) {
	data, err := json.Marshal(Flash{Category: category, Message: message})
	if err != nil {
		return
	}
	payload := base64.URLEncoding.EncodeToString(data)

	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    payload + "." + fs.signData(payload),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(flashDuration.Seconds()),
	})
}

// Pop returns the pending flash message, if any, and clears it.
// Tampered cookies are dropped silently.
func (fs *FlashStore) Pop(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}
	fs.clear(w)

	payload, signature, ok := strings.Cut(cookie.Value, ".")
	if !ok || !fs.verifySignature(payload, signature) {
		return nil
	}
	data, err := base64.URLEncoding.DecodeString(payload)
	if err != nil {
		return nil
	}
	var f Flash
	if err := json.Unmarshal(data, &f); err != nil {
		return nil
	}
	return &f
}

func (fs *FlashStore) clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// signData creates an HMAC signature for data
func (fs *FlashStore) signData(data string) string {
	h := hmac.New(sha256.New, fs.secret)
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

// verifySignature verifies an HMAC signature
func (fs *FlashStore) verifySignature(data, signature string) bool {
	expected := fs.signData(data)
	return hmac.Equal([]byte(signature), []byte(expected))
}
