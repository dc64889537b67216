package store

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vancomm/minefield/internal/minefield"
)

// Store keeps encoded fields in named slots of a sqlite table.
type Store struct {
	mu   sync.Mutex
	name string
	db   *sql.DB
}

var (
	ErrBadName  = errors.New("bad name for store")
	ErrNotFound = errors.New("slot not found")
)

func isLetter(c rune) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || c == '_'
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !isLetter(c) {
			return false
		}
	}
	return true
}

// Open opens the sqlite database at path and returns a store over its
// "fields" table.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open %s: %w", path, err)
	}
	s, err := NewStore(db, "fields")
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore creates table name if needed. name may only contain Latin
// letters and underscores since it is spliced into the queries.
func NewStore(db *sql.DB, name string) (*Store, error) {
	if !isIdentifier(name) {
		return nil, ErrBadName
	}

	_, err := db.Exec(`
CREATE TABLE IF NOT EXISTS ` + name + ` (
	slot		TEXT PRIMARY KEY,
	field		BLOB NOT NULL,
	updated_at	TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);`)
	if err != nil {
		return nil, err
	}
	s := &Store{name: name, db: db}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get decodes the field saved in slot. If the slot is empty, [ErrNotFound]
// is returned; unreadable data yields [minefield.ErrCorruptData].
func (s *Store) Get(slot string, opts ...minefield.Option) (*minefield.Field, error) {
	var data []byte
	err := s.db.QueryRow(
		`SELECT field FROM `+s.name+` WHERE slot = ?;`, slot,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return minefield.Decode(bytes.NewReader(data), opts...)
}

// Set saves f into slot, replacing what was there.
func (s *Store) Set(slot string, f *minefield.Field) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
INSERT INTO `+s.name+` (slot, field, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(slot)
DO UPDATE SET field=excluded.field, updated_at=excluded.updated_at;`,
		slot, data)
	return err
}

// Delete removes slot without checking if it existed.
func (s *Store) Delete(slot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`DELETE FROM `+s.name+` WHERE slot = ?;`, slot)
	return err
}

func (s *Store) Count() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM ` + s.name + `;`).Scan(&n)
	return n, err
}

// Slots lists the saved slot names in order.
func (s *Store) Slots() ([]string, error) {
	rows, err := s.db.Query(`SELECT slot FROM ` + s.name + ` ORDER BY slot;`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slots []string
	for rows.Next() {
		var slot string
		if err := rows.Scan(&slot); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, rows.Err()
}
