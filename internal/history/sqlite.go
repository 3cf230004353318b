package history

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/glebarez/go-sqlite"

	"github.com/ram70099/ChatBot/internal/logger"
)

// SQLiteStore keeps a History in a SQLite table, one row per Exchange.
// The database is opened lazily and created on first use. Save rewrites
// every row in one transaction, so the table always mirrors a whole History.
type SQLiteStore struct {
	path string

	once    sync.Once
	db      *sql.DB
	initErr error
}

// NewSQLiteStore returns a store for the database file at path.
func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) init() {
	db, err := sql.Open("sqlite", "file:"+s.path+"?_pragma=busy_timeout(10000)")
	if err != nil {
		s.initErr = fmt.Errorf("open sqlite history %s: %w", s.path, err)
		return
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS exchanges (
		position INTEGER PRIMARY KEY,
		user TEXT NOT NULL,
		ai TEXT NOT NULL
	);`); err != nil {
		db.Close()
		s.initErr = classify(s.path, err)
		return
	}
	s.db = db
	logger.L.Info("sqlite history DB initialized", "path", s.path)
}

// classify marks errors caused by a file that is not a SQLite database.
func classify(path string, err error) error {
	if strings.Contains(err.Error(), "not a database") {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return fmt.Errorf("sqlite history %s: %w", path, err)
}

// Load returns all rows in position order.
func (s *SQLiteStore) Load() (History, error) {
	s.once.Do(s.init)
	if s.initErr != nil {
		return nil, s.initErr
	}

	rows, err := s.db.Query(`SELECT user, ai FROM exchanges ORDER BY position ASC;`)
	if err != nil {
		return nil, classify(s.path, err)
	}
	defer rows.Close()

	h := History{}
	for rows.Next() {
		var e Exchange
		if err := rows.Scan(&e.User, &e.AI); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
		}
		h = append(h, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(s.path, err)
	}
	return h, nil
}

// Save replaces the stored History with h.
func (s *SQLiteStore) Save(h History) error {
	s.once.Do(s.init)
	if s.initErr != nil {
		return s.initErr
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM exchanges;`); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO exchanges (position, user, ai) VALUES (?, ?, ?);`)
	if err != nil {
		return fmt.Errorf("prepare history insert: %w", err)
	}
	defer stmt.Close()
	for i, e := range h {
		if _, err := stmt.Exec(i, e.User, e.AI); err != nil {
			return fmt.Errorf("insert exchange %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}

// Close releases the database handle if it was opened.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
