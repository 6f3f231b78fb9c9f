package index

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/granola-sync/internal/apperr"
)

// DocumentRow is one synced document as last written to the vault.
type DocumentRow struct {
	DocumentID string    `json:"document_id"`
	Path       string    `json:"path"`
	Title      string    `json:"title"`
	Checksum   string    `json:"checksum"`
	CreatedAt  string    `json:"created_at,omitempty"`
	UpdatedAt  string    `json:"updated_at,omitempty"`
	SyncedAt   time.Time `json:"synced_at"`
}

// SearchResult is one search hit.
type SearchResult struct {
	DocumentID string `json:"document_id"`
	Path       string `json:"path"`
	Title      string `json:"title"`
	Snippet    string `json:"snippet"`
}

// UpsertDocument records a written note. body is kept for search.
func (db *DB) UpsertDocument(d DocumentRow, body string) error {
	if d.SyncedAt.IsZero() {
		d.SyncedAt = time.Now().UTC()
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO documents (document_id, path, title, checksum, body, created_at, updated_at, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			path       = excluded.path,
			title      = excluded.title,
			checksum   = excluded.checksum,
			body       = excluded.body,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			synced_at  = excluded.synced_at
	`, d.DocumentID, d.Path, d.Title, d.Checksum, body, d.CreatedAt, d.UpdatedAt, d.SyncedAt)
	if err != nil {
		return fmt.Errorf("index: upsert document: %w", err)
	}
	if err := ftsUpsert(tx, d.DocumentID, d.Path, d.Title, body); err != nil {
		return err
	}
	return tx.Commit()
}

// GetDocument returns the row for id or apperr.ErrNotFound.
func (db *DB) GetDocument(id string) (*DocumentRow, error) {
	row := db.conn.QueryRow(`
		SELECT document_id, path, title, checksum, created_at, updated_at, synced_at
		FROM documents WHERE document_id = ?`, id)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: get document: %w", err)
	}
	return d, nil
}

// ListDocuments returns a page of documents ordered by most recent sync, and the total count.
func (db *DB) ListDocuments(limit, offset int) ([]DocumentRow, int, error) {
	if limit <= 0 {
		limit = 50
	}
	var total int
	if err := db.conn.QueryRow(`SELECT count(*) FROM documents`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("index: count documents: %w", err)
	}
	rows, err := db.conn.Query(`
		SELECT document_id, path, title, checksum, created_at, updated_at, synced_at
		FROM documents
		ORDER BY synced_at DESC, path
		LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("index: list documents: %w", err)
	}
	defer rows.Close()

	var out []DocumentRow
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

// DeleteDocument removes a document and its search entry.
func (db *DB) DeleteDocument(id string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, id)
	if _, err := tx.Exec(`DELETE FROM documents WHERE document_id = ?`, id); err != nil {
		return fmt.Errorf("index: delete document: %w", err)
	}
	return tx.Commit()
}

// MovePrefix rewrites the path of every document under oldDir to live under
// newDir and returns the number of rows changed.
func (db *DB) MovePrefix(oldDir, newDir string) (int, error) {
	oldDir = strings.Trim(oldDir, "/")
	newDir = strings.Trim(newDir, "/")
	paths, err := db.DocumentPaths()
	if err != nil {
		return 0, err
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	moved := 0
	for id, p := range paths {
		rest, ok := strings.CutPrefix(p, oldDir+"/")
		if !ok {
			continue
		}
		next := newDir + "/" + rest
		if _, err := tx.Exec(`UPDATE documents SET path = ? WHERE document_id = ?`, next, id); err != nil {
			return 0, fmt.Errorf("index: move %s: %w", p, err)
		}
		if err := ftsMove(tx, id, next); err != nil {
			return 0, err
		}
		moved++
	}
	return moved, tx.Commit()
}

// DocumentPaths maps every document id to its recorded path. Several ids
// may share one path when titles sanitize to the same file name.
func (db *DB) DocumentPaths() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT document_id, path FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("index: document paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var id, p string
		if err := rows.Scan(&id, &p); err != nil {
			return nil, err
		}
		out[id] = p
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*DocumentRow, error) {
	var d DocumentRow
	if err := s.Scan(&d.DocumentID, &d.Path, &d.Title, &d.Checksum, &d.CreatedAt, &d.UpdatedAt, &d.SyncedAt); err != nil {
		return nil, err
	}
	return &d, nil
}
