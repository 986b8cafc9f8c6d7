// Package storage reads and writes document metadata sidecars and the
// generated index output on the local file system.
package storage

import (
	"errors"
	"io/fs"

	"github.com/starford/folio/internal/models"
)

// MetaExt is the extension of metadata sidecar files.
const MetaExt = ".yaml"

// BackupExt is appended to a sidecar before it is overwritten.
const BackupExt = ".bak"

// ErrMetaCollision is returned when a document's sidecar path would be the
// document itself (no extension, or the document is already a sidecar).
var ErrMetaCollision = errors.New("storage: metadata path collides with document path")

// Provider is the interface for catalog file operations.
type Provider interface {
	// Load reads the sidecar at path, or returns an empty record if it does not exist.
	Load(path string) (*models.Document, error)
	// BackupAndSave moves any existing sidecar aside and writes doc to path.
	BackupAndSave(path string, doc *models.Document) error
	// WalkMetadata lists every sidecar under the catalog root (root-relative, slash-separated).
	WalkMetadata() ([]string, error)
	// Root returns the absolute catalog root.
	Root() string
	// Contains reports whether a working-directory-relative path lies inside the root.
	Contains(path string) bool
	// Resolve maps a root-relative path to an absolute one inside the root.
	Resolve(rel string) (string, error)
	// WriteFile atomically writes data to rel (relative to the catalog root).
	WriteFile(rel string, data []byte) error
	// MkdirAll creates the directory rel under the catalog root.
	MkdirAll(rel string) error
	// CopyAsset copies name from src to rel, replacing any existing file.
	CopyAsset(src fs.FS, name, rel string) error
}

// Verify *FS satisfies Provider at compile time.
var _ Provider = (*FS)(nil)
