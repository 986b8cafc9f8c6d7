// Package catalog implements the registration and indexing passes over a
// directory tree of documents and their YAML metadata sidecars.
package catalog

import (
	"log/slog"

	"github.com/starford/folio/internal/catalogdb"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/storage"
)

// Service coordinates storage, rendering and the optional snapshot.
type Service struct {
	store    storage.Provider
	renderer *render.Renderer
	snapshot catalogdb.Snapshot
	logger   *slog.Logger
}

// NewService creates a catalog service. snapshot may be nil.
func NewService(store storage.Provider, renderer *render.Renderer, snapshot catalogdb.Snapshot, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, renderer: renderer, snapshot: snapshot, logger: logger}
}
