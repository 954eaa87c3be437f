// Package views embeds the portal's html/template pages.
package views

import (
	"embed"
	"io/fs"
)

// LayoutFile wraps every page. Each other file defines the "content" block.
const LayoutFile = "layout.html"

//go:embed templates/*.html
var files embed.FS

// FS returns the page templates rooted at the template directory.
func FS() fs.FS {
	sub, err := fs.Sub(files, "templates")
	if err != nil {
		panic(err)
	}
	return sub
}
