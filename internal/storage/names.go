package storage

import (
	"errors"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/face-registry/internal/constants"
)

// ErrInvalidName is returned for filenames that cannot be stored.
var ErrInvalidName = errors.New("invalid filename")

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// CleanName reduces a client-supplied filename to a safe base name with an
// image extension.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if i := strings.LastIndex(name, `\`); i >= 0 {
		name = name[i+1:]
	}
	name = filepath.Base(name)
	if name == "." || name == "/" || name == "" || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	if strings.ContainsRune(name, 0) {
		return "", ErrInvalidName
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(name))] {
		return "", ErrInvalidName
	}
	return name, nil
}

// TempName is the name of a temporary upload artifact.
func TempName(id, name string) string {
	return constants.TempPrefix + id + "_" + name
}

// PermanentName builds "{stem}_{unix}{ext}" for a stored enrollment image.
func PermanentName(name string, t time.Time) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return stem + "_" + strconv.FormatInt(t.Unix(), 10) + ext
}

func validName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && !strings.ContainsRune(name, 0)
}
