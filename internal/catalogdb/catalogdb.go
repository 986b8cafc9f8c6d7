package catalogdb

import "github.com/starford/folio/internal/models"

// Snapshot defines the read/write surface of the catalog snapshot.
// Consumers should depend on this interface rather than the concrete *DB type.
type Snapshot interface {
	Replace(docs []*models.Document, idMap map[string]*models.Document) error
	Lookup(id string) (*DocumentRow, error)
	TagCounts() ([]TagCount, error)
	Close() error
}

// Verify *DB satisfies Snapshot at compile time.
var _ Snapshot = (*DB)(nil)
