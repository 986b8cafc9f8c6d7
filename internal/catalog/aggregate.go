package catalog

import (
	"fmt"
	"log/slog"
	"path"
	"slices"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/storage"
)

// Aggregate is the in-memory view of the whole catalog built by an index pass.
type Aggregate struct {
	Docs []*models.Document
	// TagMap lists the documents carrying each exact tag, in scan order.
	TagMap map[string][]*models.Document
	// IDMap resolves content hashes and alternate ids. Later documents
	// replace earlier ones on collision.
	IDMap map[string]*models.Document
}

// Tags returns the distinct tags in sorted order.
func (a *Aggregate) Tags() []string {
	out := make([]string, 0, len(a.TagMap))
	for tag := range a.TagMap {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

// BuildAggregate loads every sidecar under the store root. A sidecar that
// cannot be parsed, or lacks name or tags, aborts the build.
func BuildAggregate(store storage.Provider, logger *slog.Logger) (*Aggregate, error) {
	metas, err := store.WalkMetadata()
	if err != nil {
		return nil, err
	}

	agg := &Aggregate{
		TagMap: make(map[string][]*models.Document),
		IDMap:  make(map[string]*models.Document),
	}
	for _, rel := range metas {
		logger.Info("index: scanning", slog.String("path", rel))

		abs, err := store.Resolve(rel)
		if err != nil {
			return nil, err
		}
		doc, err := store.Load(abs)
		if err != nil {
			return nil, fmt.Errorf("catalog: %w", err)
		}
		doc.FoldAuthors()
		if err := doc.Validate(); err != nil {
			return nil, fmt.Errorf("catalog: %s: %w: %v", rel, apperr.ErrInvalidRecord, err)
		}
		doc.Path = docPath(rel, doc.Name)
		agg.add(doc, logger)
	}
	return agg, nil
}

func (a *Aggregate) add(d *models.Document, logger *slog.Logger) {
	a.Docs = append(a.Docs, d)
	for _, tag := range d.Tags {
		a.TagMap[tag] = append(a.TagMap[tag], d)
	}
	for _, id := range d.Keys() {
		if prev, ok := a.IDMap[id]; ok && prev != d {
			logger.Warn("index: id collision, latest wins",
				slog.String("id", id),
				slog.String("previous", prev.Path),
				slog.String("path", d.Path))
		}
		a.IDMap[id] = d
	}
}

// docPath joins the sidecar's directory and the document name. Documents in
// the catalog root keep their bare name.
func docPath(metaRel, name string) string {
	dir := path.Dir(metaRel)
	if dir == "." {
		return name
	}
	return dir + "/" + name
}
