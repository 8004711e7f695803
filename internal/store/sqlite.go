package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Create(seq Sequence) error {
	now := time.Now().UTC()
	_, err := s.db.Exec(`INSERT INTO sequences(name, alphabet, prefix, position, created_at, updated_at) VALUES(?, ?, ?, ?, ?, ?)`,
		seq.Name, seq.Alphabet, seq.Prefix, seq.Position, now, now)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
		return ErrExists
	}
	return err
}

func (s *SQLite) Get(name string) (Sequence, error) {
	var seq Sequence
	err := s.db.QueryRow(`SELECT name, alphabet, prefix, position, created_at, updated_at FROM sequences WHERE name = ?`, name).
		Scan(&seq.Name, &seq.Alphabet, &seq.Prefix, &seq.Position, &seq.CreatedAt, &seq.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Sequence{}, ErrNotFound
	}
	if err != nil {
		return Sequence{}, err
	}
	return seq, nil
}

func (s *SQLite) SavePosition(name string, position int64) error {
	res, err := s.db.Exec(`UPDATE sequences SET position = ?, updated_at = ? WHERE name = ?`, position, time.Now().UTC(), name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns up to n sequences, most recently used first.
func (s *SQLite) List(n int) ([]Sequence, error) {
	rows, err := s.db.Query(`
		SELECT name, alphabet, prefix, position, created_at, updated_at
		FROM sequences
		ORDER BY updated_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Sequence
	for rows.Next() {
		var seq Sequence
		if err := rows.Scan(&seq.Name, &seq.Alphabet, &seq.Prefix, &seq.Position, &seq.CreatedAt, &seq.UpdatedAt); err != nil {
			return nil, err
		}
		res = append(res, seq)
	}
	return res, rows.Err()
}

func (s *SQLite) InsertIssue(ev IssueEvent) error {
	_, err := s.db.Exec(`INSERT INTO issues(name, first_id, last_id, count, position, ts) VALUES(?, ?, ?, ?, ?, ?)`,
		ev.Name, ev.First, ev.Last, ev.Count, ev.Position, ev.Ts.UTC())
	return err
}

func (s *SQLite) Stats(name string) (Stats, error) {
	var out Stats
	out.Name = name

	row := s.db.QueryRow(`SELECT position FROM sequences WHERE name = ?`, name)
	if err := row.Scan(&out.Position); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Stats{}, ErrNotFound
		}
		return Stats{}, err
	}

	row = s.db.QueryRow(`SELECT COALESCE(SUM(count), 0), COUNT(*) FROM issues WHERE name = ?`, name)
	if err := row.Scan(&out.TotalIssued, &out.Batches); err != nil {
		return Stats{}, err
	}

	var last time.Time
	err := s.db.QueryRow(`SELECT ts FROM issues WHERE name = ? ORDER BY id DESC LIMIT 1`, name).Scan(&last)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return Stats{}, err
	default:
		out.LastIssue = last.UTC().Format(time.RFC3339)
	}
	return out, nil
}

// Migrate ensures schema exists
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sequences (
			name TEXT PRIMARY KEY,
			alphabet TEXT NOT NULL,
			prefix TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sequences_updated ON sequences(updated_at);`,
		`CREATE TABLE IF NOT EXISTS issues (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			first_id TEXT NOT NULL,
			last_id TEXT NOT NULL,
			count INTEGER NOT NULL,
			position INTEGER NOT NULL,
			ts DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_issues_name ON issues(name, id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
