// Package render turns document lists into static HTML index pages.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"slices"
	"strings"

	"github.com/starford/folio/internal/models"
	"github.com/starford/folio/internal/tags"
)

// Asset file names expected in every asset source.
const (
	TemplateFile = "index.tmpl"
	StyleFile    = "style.css"
	TagsFile     = "tags.css"
)

// RelatedKey is the free-form metadata key listing ids of related documents.
const RelatedKey = "related"

//go:embed assets
var embedded embed.FS

// DefaultAssets returns the assets compiled into the binary.
func DefaultAssets() fs.FS {
	sub, err := fs.Sub(embedded, "assets")
	if err != nil {
		panic(err) // embedded layout is fixed at build time
	}
	return sub
}

// Page is the data handed to the index template for one output file.
type Page struct {
	Docs    []*models.Document
	RelPath string
	Header  string
	TagMap  map[string][]*models.Document
	IDMap   map[string]*models.Document
}

// Related resolves the ids listed under the document's "related" key.
// Unknown ids are dropped.
func (p Page) Related(d *models.Document) []*models.Document {
	if p.IDMap == nil {
		return nil
	}
	var out []*models.Document
	for _, id := range d.ExtraStrings(RelatedKey) {
		if doc, ok := p.IDMap[id]; ok && doc != d {
			out = append(out, doc)
		}
	}
	return out
}

// Renderer renders index pages from a parsed template. Build one per run
// and share it.
type Renderer struct {
	tmpl   *template.Template
	assets fs.FS
}

// New parses the index template from assets.
func New(assets fs.FS) (*Renderer, error) {
	funcs := tags.FuncMap()
	funcs["docTitle"] = Title
	tmpl, err := template.New(TemplateFile).Funcs(funcs).ParseFS(assets, TemplateFile)
	if err != nil {
		return nil, fmt.Errorf("render: parse template: %w", err)
	}
	return &Renderer{tmpl: tmpl, assets: assets}, nil
}

// Assets returns the asset source the renderer was built from.
func (r *Renderer) Assets() fs.FS {
	return r.assets
}

// Render writes one index page. p.Docs is copied and ordered by pubdate
// before rendering; the caller's slice is left as is.
func (r *Renderer) Render(w io.Writer, p Page) error {
	p.Docs = SortByPubDate(p.Docs)
	if err := r.tmpl.Execute(w, p); err != nil {
		return fmt.Errorf("render: execute: %w", err)
	}
	return nil
}

// SortByPubDate returns a copy of docs stable-sorted by ascending pubdate.
// Documents without a pubdate come first.
func SortByPubDate(docs []*models.Document) []*models.Document {
	out := slices.Clone(docs)
	slices.SortStableFunc(out, func(a, b *models.Document) int {
		return strings.Compare(a.PubDate, b.PubDate)
	})
	return out
}

// RelPathFor returns the link prefix leading from an output file back to
// the catalog root: one ".." per directory level of outName.
func RelPathFor(outName string) string {
	depth := strings.Count(path.Clean(outName), "/")
	if depth == 0 {
		return "."
	}
	return strings.Repeat("../", depth-1) + ".."
}

// Title is the display title of a document: its "title" field when set,
// the file name otherwise.
func Title(d *models.Document) string {
	if t := d.ExtraString("title"); t != "" {
		return t
	}
	return d.Name
}
