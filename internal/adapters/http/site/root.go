// Package site serves the embedded single-page frontend.
package site

import (
	"context"
	"net/http"
)

// Register serves the embedded frontend at /. Paths that do not match a
// file fall through to the file server's 404.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("GET /", http.FileServer(FS()))
}
