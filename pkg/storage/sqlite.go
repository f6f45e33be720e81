package storage

import (
	"database/sql"
	"fmt"
	"sync"

	"github.com/holiman/uint256"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists slots in a SQLite database so contract state
// survives between CLI runs. Values are stored as 32-byte big-endian blobs.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	mu     sync.Mutex
}

// NewSQLiteStore opens (creating if needed) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set busy timeout for concurrent access
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS slots (
		slot INTEGER PRIMARY KEY,
		value BLOB NOT NULL
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &SQLiteStore{db: db, dbPath: dbPath}, nil
}

// Get returns the value at slot, or zero for an unwritten slot.
func (s *SQLiteStore) Get(slot uint32) (*uint256.Int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var blob []byte
	err := s.db.QueryRow("SELECT value FROM slots WHERE slot = ?", slot).Scan(&blob)
	if err == sql.ErrNoRows {
		return uint256.NewInt(0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading slot %d: %w", slot, err)
	}
	return new(uint256.Int).SetBytes(blob), nil
}

// Set writes a value to slot.
func (s *SQLiteStore) Set(slot uint32, val *uint256.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob := val.Bytes32()
	_, err := s.db.Exec(
		"INSERT INTO slots (slot, value) VALUES (?, ?) ON CONFLICT(slot) DO UPDATE SET value = excluded.value",
		slot, blob[:],
	)
	if err != nil {
		return fmt.Errorf("writing slot %d: %w", slot, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
