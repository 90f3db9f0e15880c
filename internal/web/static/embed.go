// Package static embeds the HTML templates and stylesheet of the form UI.
package static

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
	"strconv"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed assets/*
var assetsFS embed.FS

// Templates parses every page template. Pages are looked up by file name,
// e.g. "register.html".
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"distance": func(d float64) string { return strconv.FormatFloat(d, 'f', 3, 64) },
	}).ParseFS(templateFS, "templates/*.html")
}

// Assets returns the embedded stylesheet directory for http.FileServer.
func Assets() http.FileSystem {
	fsys, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		panic(err)
	}
	return http.FS(fsys)
}
