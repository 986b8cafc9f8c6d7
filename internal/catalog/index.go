package catalog

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/render"
	"github.com/starford/folio/internal/tags"
)

// Output locations, relative to the catalog root.
const (
	RootIndexFile = "index.html"
	OutputDir     = "index"
)

// IndexReport summarizes an index pass.
type IndexReport struct {
	Documents int
	Tags      int
}

// Index rebuilds every index page from the sidecars on disk, copies the
// stylesheets next to them and refreshes the snapshot when one is set.
func (s *Service) Index(ctx context.Context) (IndexReport, error) {
	agg, err := BuildAggregate(s.store, s.logger)
	if err != nil {
		return IndexReport{}, err
	}

	if err := s.writeIndex(RootIndexFile, agg.Docs, render.Page{
		TagMap: agg.TagMap,
		IDMap:  agg.IDMap,
	}); err != nil {
		return IndexReport{}, err
	}

	if err := s.store.MkdirAll(OutputDir); err != nil {
		return IndexReport{}, fmt.Errorf("catalog: create output dir: %w", err)
	}

	tagList := agg.Tags()
	for _, tag := range tagList {
		if err := ctx.Err(); err != nil {
			return IndexReport{}, err
		}
		if err := s.writeIndex(tags.URL(tag), agg.TagMap[tag], render.Page{
			Header: fmt.Sprintf("Documents with '%s' tag", tag),
			IDMap:  agg.IDMap,
		}); err != nil {
			return IndexReport{}, err
		}
	}

	for _, name := range []string{render.StyleFile, render.TagsFile} {
		if err := s.store.CopyAsset(s.renderer.Assets(), name, OutputDir+"/"+name); err != nil {
			return IndexReport{}, fmt.Errorf("catalog: copy asset: %w", err)
		}
	}

	if s.snapshot != nil {
		if err := s.snapshot.Replace(agg.Docs, agg.IDMap); err != nil {
			return IndexReport{}, fmt.Errorf("catalog: update snapshot: %w", err)
		}
	}

	rep := IndexReport{Documents: len(agg.Docs), Tags: len(tagList)}
	s.logger.Info("index: done", slog.Int("documents", rep.Documents), slog.Int("tags", rep.Tags))
	return rep, nil
}

func (s *Service) writeIndex(out string, docs []*models.Document, page render.Page) error {
	page.Docs = docs
	page.RelPath = render.RelPathFor(out)

	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, page); err != nil {
		return fmt.Errorf("catalog: render %s: %w", out, err)
	}
	if err := s.store.WriteFile(out, buf.Bytes()); err != nil {
		return fmt.Errorf("catalog: write %s: %w", out, err)
	}
	return nil
}
