// Package sqlite stores SAF documents in a SQLite database using the pure Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/reoring/saf"
	"github.com/reoring/saf/storage"
)

//go:embed sql/schema.sql
var schemaSQL string

// DocStore is a storage.DocRepository backed by SQLite. The full encoded
// document is kept in documents.body; layers indexes layer names for lookups.
type DocStore struct {
	db *sql.DB
}

var _ storage.DocRepository = (*DocStore)(nil)

// Open opens (or creates) the database at path and applies the schema.
// ":memory:" gives a private in-memory database.
func Open(path string) (*DocStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps in-memory databases shared and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &DocStore{db: db}, nil
}

// Close releases the database.
func (s *DocStore) Close() error { return s.db.Close() }

// NewID returns a fresh random document id.
func NewID() string { return uuid.NewString() }

// Write stores doc under id in one transaction, replacing any previous
// version and its layer rows.
func (s *DocStore) Write(ctx context.Context, id string, doc *saf.Document) (storage.Meta, error) {
	if err := storage.ValidateID(id); err != nil {
		return storage.Meta{}, err
	}
	data, meta, err := storage.Encode(id, doc)
	if err != nil {
		return storage.Meta{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Meta{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM layers WHERE doc_id = ?`, id); err != nil {
		return storage.Meta{}, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, hash, body, size, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET hash = excluded.hash, body = excluded.body,
			size = excluded.size, updated_at = excluded.updated_at`,
		id, meta.Hash, data, meta.Size, meta.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return storage.Meta{}, err
	}
	for i, l := range doc.Layers() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO layers (doc_id, position, name, units) VALUES (?, ?, ?, ?)`,
			id, i, l.Name, len(l.Units)); err != nil {
			return storage.Meta{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return storage.Meta{}, err
	}
	return meta, nil
}

// Read loads the document stored under id.
func (s *DocStore) Read(ctx context.Context, id string) (*saf.Document, error) {
	var body []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return storage.Decode(ctx, body)
}

// List returns the metadata of all documents ordered by id.
func (s *DocStore) List(ctx context.Context) ([]storage.Meta, error) {
	return s.query(ctx, `SELECT id, hash, size, updated_at FROM documents ORDER BY id`)
}

// FindByLayer returns the documents that contain the named layer.
func (s *DocStore) FindByLayer(ctx context.Context, name string) ([]storage.Meta, error) {
	return s.query(ctx, `
		SELECT d.id, d.hash, d.size, d.updated_at FROM documents d
		JOIN layers l ON l.doc_id = d.id
		WHERE l.name = ? ORDER BY d.id`, name)
}

// Delete removes the document and its layer rows.
func (s *DocStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM layers WHERE doc_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return tx.Commit()
}

func (s *DocStore) query(ctx context.Context, q string, args ...any) ([]storage.Meta, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	var out []storage.Meta
	for rows.Next() {
		var m storage.Meta
		var updated string
		if err := rows.Scan(&m.ID, &m.Hash, &m.Size, &updated); err != nil {
			rows.Close()
			return nil, err
		}
		m.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		out = append(out, m)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		names, err := s.layerNames(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Layers = names
	}
	return out, nil
}

func (s *DocStore) layerNames(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name FROM layers WHERE doc_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	names := []string{}
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}
