// Package library indexes saved world files in a local SQLite database so
// the picker can list them without scanning and parsing every file.
package library

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

type Entry struct {
	Name      string
	Path      string
	SizeX     int
	SizeY     int
	SizeZ     int
	Blocks    int
	Revision  uint64
	UpdatedAt time.Time
}

type Store struct {
	mu sync.Mutex
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS worlds (
  name       TEXT PRIMARY KEY,
  path       TEXT NOT NULL,
  size_x     INTEGER NOT NULL,
  size_y     INTEGER NOT NULL,
  size_z     INTEGER NOT NULL,
  blocks     INTEGER NOT NULL,
  revision   INTEGER NOT NULL,
  updated_at TEXT NOT NULL
);
`

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("library schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func (s *Store) Upsert(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`
	  INSERT INTO worlds (name, path, size_x, size_y, size_z, blocks, revision, updated_at)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	  ON CONFLICT(name) DO UPDATE SET
	    path = excluded.path,
	    size_x = excluded.size_x,
	    size_y = excluded.size_y,
	    size_z = excluded.size_z,
	    blocks = excluded.blocks,
	    revision = excluded.revision,
	    updated_at = excluded.updated_at`,
		e.Name, e.Path, e.SizeX, e.SizeY, e.SizeZ, e.Blocks, e.Revision,
		e.UpdatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

func (s *Store) Get(name string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.db.QueryRow(`
	  SELECT name, path, size_x, size_y, size_z, blocks, revision, updated_at
	  FROM worlds WHERE name = ?`, name)
	e, err := scanEntry(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, err
	}
	return e, true, nil
}

// List returns all entries, most recently updated first.
func (s *Store) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.db.Query(`
	  SELECT name, path, size_x, size_y, size_z, blocks, revision, updated_at
	  FROM worlds ORDER BY updated_at DESC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`DELETE FROM worlds WHERE name = ?`, name)
	return err
}

func scanEntry(scan func(...any) error) (Entry, error) {
	var e Entry
	var updated string
	if err := scan(&e.Name, &e.Path, &e.SizeX, &e.SizeY, &e.SizeZ, &e.Blocks, &e.Revision, &updated); err != nil {
		return Entry{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, updated)
	if err != nil {
		return Entry{}, fmt.Errorf("library: bad updated_at %q: %w", updated, err)
	}
	e.UpdatedAt = t
	return e, nil
}
