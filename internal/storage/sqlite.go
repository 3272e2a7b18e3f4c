// Package storage provides SQLite-based persistence for game snapshots and
// the leaderboard. Uses the pure-Go modernc.org/sqlite driver to avoid CGO
// dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrNotFound is returned when a snapshot slot holds no data.
var ErrNotFound = errors.New("storage: not found")

// DefaultLeaderboardSize is used when a non-positive limit is requested.
const DefaultLeaderboardSize = 10

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// Leader represents a single leaderboard record.
type Leader struct {
	Name  string    `json:"name"`
	Score int       `json:"score"`
	Date  time.Time `json:"date"`
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	path, err := ExpandPath(dbPath)
	if err != nil {
		return nil, err
	}

	// Create parent directories
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	// Open database
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// SQLite allows one writer; SSH, HTTP and MCP sessions share this handle.
	db.SetMaxOpenConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	// Run migrations
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("storage: cannot expand home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path[1:], "/")), nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS snapshots (
			profile TEXT NOT NULL,
			slot TEXT NOT NULL,
			data TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (profile, slot)
		);

		CREATE TABLE IF NOT EXISTS leaders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			score INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_leaders_top ON leaders(score DESC, id ASC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put stores data in the given profile slot, replacing any previous value.
func (s *Store) Put(profile, slot string, data []byte) error {
	_, err := s.db.Exec(
		`INSERT INTO snapshots (profile, slot, data, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(profile, slot) DO UPDATE SET
		   data = excluded.data,
		   updated_at = excluded.updated_at`,
		profile, slot, string(data), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save slot %s/%s: %w", profile, slot, err)
	}
	return nil
}

// Get returns the data stored in the given profile slot.
// Returns ErrNotFound if the slot is empty.
func (s *Store) Get(profile, slot string) ([]byte, error) {
	var data string
	err := s.db.QueryRow(
		"SELECT data FROM snapshots WHERE profile = ? AND slot = ?",
		profile, slot,
	).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot load slot %s/%s: %w", profile, slot, err)
	}
	return []byte(data), nil
}

// Delete removes a profile slot. Deleting a missing slot is not an error.
func (s *Store) Delete(profile, slot string) error {
	_, err := s.db.Exec("DELETE FROM snapshots WHERE profile = ? AND slot = ?", profile, slot)
	if err != nil {
		return fmt.Errorf("storage: cannot delete slot %s/%s: %w", profile, slot, err)
	}
	return nil
}

// Slots returns a view of the store bound to a single profile.
func (s *Store) Slots(profile string) *SlotStore {
	return &SlotStore{store: s, profile: profile}
}

// SlotStore is a key-value view over one profile's snapshot slots.
type SlotStore struct {
	store   *Store
	profile string
}

// Put stores data under key.
func (ss *SlotStore) Put(key string, data []byte) error {
	return ss.store.Put(ss.profile, key, data)
}

// Get returns the data stored under key.
func (ss *SlotStore) Get(key string) ([]byte, error) {
	return ss.store.Get(ss.profile, key)
}

// Profile returns the profile name this view is bound to.
func (ss *SlotStore) Profile() string {
	return ss.profile
}

// AddLeader records a score and trims the leaderboard to the top limit
// entries. Ties keep insertion order.
func (s *Store) AddLeader(name string, score int, limit int) error {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		"INSERT INTO leaders (name, score, created_at) VALUES (?, ?, ?)",
		name, score, formatTime(time.Now()),
	); err != nil {
		return fmt.Errorf("storage: cannot save leader: %w", err)
	}

	if _, err := tx.Exec(
		`DELETE FROM leaders WHERE id NOT IN (
		   SELECT id FROM leaders ORDER BY score DESC, id ASC LIMIT ?
		 )`,
		limit,
	); err != nil {
		return fmt.Errorf("storage: cannot trim leaders: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit leader: %w", err)
	}
	return nil
}

// Leaders retrieves the top N leaderboard entries, ordered by score descending.
func (s *Store) Leaders(limit int) ([]Leader, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardSize
	}

	rows, err := s.db.Query(
		`SELECT name, score, created_at
		 FROM leaders
		 ORDER BY score DESC, id ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query leaders: %w", err)
	}
	defer rows.Close()

	var entries []Leader
	for rows.Next() {
		var e Leader
		var createdAt string
		if err := rows.Scan(&e.Name, &e.Score, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.Date = parseTime(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// HighScore returns the highest recorded score.
// Returns 0 if the leaderboard is empty.
func (s *Store) HighScore() (int, error) {
	var score sql.NullInt64
	err := s.db.QueryRow("SELECT MAX(score) FROM leaders").Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}

	if !score.Valid {
		return 0, nil
	}

	return int(score.Int64), nil
}

// ClearLeaders deletes all leaderboard entries.
func (s *Store) ClearLeaders() error {
	_, err := s.db.Exec("DELETE FROM leaders")
	if err != nil {
		return fmt.Errorf("storage: cannot clear leaders: %w", err)
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime handles both RFC3339 values and the SQLite default datetime format.
func parseTime(v string) time.Time {
	if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
		return parsed
	}
	if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
		return parsed
	}
	return time.Time{}
}
