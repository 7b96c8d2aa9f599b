// Package web embeds the HTML templates and static assets served by the portal.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html
var templates embed.FS

//go:embed static
var static embed.FS

// PlaceholderPicture is served for users without an uploaded picture.
const PlaceholderPicture = "resources/empty_pfp.svg"

// Templates parses every page template.
func Templates() (*template.Template, error) {
	return template.ParseFS(templates, "templates/*.html")
}

// Static returns the asset tree rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		// the directory is embedded at build time
		panic(err)
	}
	return sub
}
