package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httplog/v2"
	"github.com/vadimbarashkov/linklytics/internal/database"
)

// handleRedirect resolves the public slug route to its destination. Unknown,
// inactive and failing lookups all land on the error page so the short host
// never exposes a bare error payload to browsers.
func handleRedirect(svc RedirectService, errorRedirectPath string) http.HandlerFunc {
	const op = "api.http.handleRedirect"

	return func(w http.ResponseWriter, r *http.Request) {
		slug := chi.URLParam(r, "slug")

		destination, err := svc.HandleRedirect(r.Context(), slug, r.Header)
		if err != nil {
			if !errors.Is(err, database.ErrLinkNotFound) {
				httplog.LogEntrySetFields(r.Context(), map[string]any{"op": op, "err": err})
			}

			http.Redirect(w, r, errorRedirectPath, http.StatusFound)
			return
		}

		http.Redirect(w, r, destination, http.StatusFound)
	}
}

// handleErrorPage serves the landing page unresolvable slugs redirect to.
func handleErrorPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprint(w, "<!DOCTYPE html><html><head><title>Link not found</title></head>"+
		"<body><h1>Link not found</h1><p>The short link you followed does not exist or is no longer active.</p></body></html>")
}
