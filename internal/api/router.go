package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/catalogdb"
)

// NewRouter creates a chi router with all API routes mounted.
// snap may be nil when no snapshot is configured; lookups then answer 503.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(snap catalogdb.Snapshot, authEnabled bool, token string) chi.Router {
	h := NewHandler(snap)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/documents/{id}", h.GetDocument)
	r.Get("/tags", h.ListTags)

	return r
}
