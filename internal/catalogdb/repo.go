package catalogdb

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/models"
)

// DocumentRow is a document as stored in the snapshot.
type DocumentRow struct {
	Hash    string   `json:"hash"`
	Name    string   `json:"name"`
	Path    string   `json:"path"`
	PubDate string   `json:"pubdate,omitempty"`
	Tags    []string `json:"tags"`
}

// TagCount is the number of documents carrying a tag.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Replace swaps the snapshot contents for docs and idMap in one transaction.
// Documents without a content hash are skipped.
func (db *DB) Replace(docs []*models.Document, idMap map[string]*models.Document) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalogdb: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	for _, table := range []string{"doc_ids", "doc_tags", "documents"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("catalogdb: clear %s: %w", table, err)
		}
	}

	docStmt, err := tx.Prepare(`INSERT OR REPLACE INTO documents (hash, name, path, pubdate, tags) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("catalogdb: prepare document insert: %w", err)
	}
	defer docStmt.Close()
	tagStmt, err := tx.Prepare(`INSERT OR IGNORE INTO doc_tags (tag, hash) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("catalogdb: prepare tag insert: %w", err)
	}
	defer tagStmt.Close()

	for _, d := range docs {
		if d.ContentHash == "" {
			continue
		}
		tagsJSON, _ := json.Marshal(nonNil(d.Tags))
		if _, err := docStmt.Exec(d.ContentHash, d.Name, d.Path, d.PubDate, string(tagsJSON)); err != nil {
			return fmt.Errorf("catalogdb: insert document: %w", err)
		}
		for _, tag := range d.Tags {
			if _, err := tagStmt.Exec(tag, d.ContentHash); err != nil {
				return fmt.Errorf("catalogdb: insert tag: %w", err)
			}
		}
	}

	idStmt, err := tx.Prepare(`INSERT OR REPLACE INTO doc_ids (id, hash) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("catalogdb: prepare id insert: %w", err)
	}
	defer idStmt.Close()
	for id, d := range idMap {
		if d.ContentHash == "" {
			continue
		}
		if _, err := idStmt.Exec(id, d.ContentHash); err != nil {
			return fmt.Errorf("catalogdb: insert id: %w", err)
		}
	}

	return tx.Commit()
}

// Lookup resolves a content hash or alternate id to its document.
func (db *DB) Lookup(id string) (*DocumentRow, error) {
	var (
		r        DocumentRow
		tagsJSON string
	)
	err := db.conn.QueryRow(`
		SELECT d.hash, d.name, d.path, d.pubdate, d.tags
		FROM doc_ids i JOIN documents d ON d.hash = i.hash
		WHERE i.id = ?
	`, id).Scan(&r.Hash, &r.Name, &r.Path, &r.PubDate, &tagsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("catalogdb: lookup: %w", err)
	}
	if err := json.Unmarshal([]byte(tagsJSON), &r.Tags); err != nil {
		return nil, fmt.Errorf("catalogdb: decode tags of %s: %w", r.Hash, err)
	}
	return &r, nil
}

// TagCounts returns every tag with its document count, ordered by tag.
func (db *DB) TagCounts() ([]TagCount, error) {
	rows, err := db.conn.Query(`SELECT tag, count(*) FROM doc_tags GROUP BY tag ORDER BY tag`)
	if err != nil {
		return nil, fmt.Errorf("catalogdb: tag counts: %w", err)
	}
	defer rows.Close()

	var out []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
