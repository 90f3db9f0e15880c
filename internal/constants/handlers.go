// Package constants provides shared constants used across the codebase.
package constants

// File upload constants
const (
	// MaxUploadSize is the maximum file upload size in bytes (32MB)
	MaxUploadSize = 32 << 20
)

// FieldPhoto is the multipart file field carrying the uploaded image,
// shared by the HTML and JSON surfaces
const FieldPhoto = "photo"

// Flash categories understood by the templates
const (
	FlashSuccess = "success"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)
