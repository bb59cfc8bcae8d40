// Package progcache stores compiled program objects in a SQLite
// database, keyed by program name and content hash. Because the object
// encoding is canonical, the same program always hashes the same, so the
// hash doubles as an identity check when objects move between machines.
package progcache

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/imllang/ivm/code"
)

// ErrNotFound indicates the requested program doesn't exist in the cache.
var ErrNotFound = errors.New("program not found")

// Entry describes one cached program.
type Entry struct {
	Name string
	Hash string
}

// Cache is a SQLite-backed store of compiled program objects.
type Cache struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if needed) a cache database at the given path.
func Open(path string) (*Cache, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS programs (
		name   TEXT PRIMARY KEY,
		hash   TEXT NOT NULL,
		object BLOB NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	return &Cache{db: db}, nil
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Put encodes and stores a program under the given name, replacing any
// previous version, and returns its content hash.
func (c *Cache) Put(name string, prog *code.Program) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	object, err := code.MarshalProgram(prog)
	if err != nil {
		return "", err
	}
	hash := hashObject(object)

	_, err = c.db.Exec(
		"INSERT OR REPLACE INTO programs (name, hash, object) VALUES (?, ?, ?)",
		name, hash, object,
	)
	if err != nil {
		return "", fmt.Errorf("saving program: %w", err)
	}
	return hash, nil
}

// Get retrieves and decodes the program stored under name.
func (c *Cache) Get(name string) (*code.Program, error) {
	var object []byte
	err := c.db.QueryRow("SELECT object FROM programs WHERE name = ?", name).Scan(&object)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying program: %w", err)
	}
	return code.UnmarshalProgram(object)
}

// GetByHash retrieves a program by its content hash.
func (c *Cache) GetByHash(hash string) (*code.Program, error) {
	var object []byte
	err := c.db.QueryRow("SELECT object FROM programs WHERE hash = ?", hash).Scan(&object)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying program: %w", err)
	}
	prog, err := code.UnmarshalProgram(object)
	if err != nil {
		return nil, err
	}
	if got := hashObject(object); got != hash {
		return nil, fmt.Errorf("cache corruption: stored hash %s, computed %s", hash, got)
	}
	return prog, nil
}

// List returns the name and hash of every cached program, ordered by name.
func (c *Cache) List() ([]Entry, error) {
	rows, err := c.db.Query("SELECT name, hash FROM programs ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("listing programs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Name, &e.Hash); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete removes the program stored under name. Deleting a missing
// program is ErrNotFound.
func (c *Cache) Delete(name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	res, err := c.db.Exec("DELETE FROM programs WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("deleting program: %w", err)
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

func hashObject(object []byte) string {
	sum := sha256.Sum256(object)
	return hex.EncodeToString(sum[:])
}
