// Package web provides the embedded admin UI templates and static assets.
package web

import "embed"

// FS contains templates/*.html and static/.
//
//go:embed templates static
var FS embed.FS
