package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNoSession is returned by LoadSession when nobody is signed in.
var ErrNoSession = errors.New("cache: no stored session")

const sessionKey = "session"

type Cache struct {
	readDB  *sql.DB
	writeDB *sql.DB
}

func Open(dbPath string) (*Cache, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}

	writeDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening write db: %w", err)
	}
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite", dbPath+"?mode=ro")
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening read db: %w", err)
	}

	c := &Cache{readDB: readDB, writeDB: writeDB}
	if err := c.init(); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) init() error {
	_, err := c.writeDB.Exec(`
		CREATE TABLE IF NOT EXISTS summaries (
			user_id     TEXT NOT NULL,
			id          TEXT NOT NULL,
			title       TEXT NOT NULL,
			summary     TEXT NOT NULL DEFAULT '',
			url         TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL DEFAULT '',
			fetched_at  DATETIME NOT NULL,
			PRIMARY KEY (user_id, id)
		);
		CREATE INDEX IF NOT EXISTS idx_summaries_fetched ON summaries(fetched_at DESC);

		CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

func (c *Cache) Close() error {
	var errs []error
	if c.readDB != nil {
		errs = append(errs, c.readDB.Close())
	}
	if c.writeDB != nil {
		errs = append(errs, c.writeDB.Close())
	}
	return errors.Join(errs...)
}

func (c *Cache) UpsertSummaries(summaries []Summary) error {
	tx, err := c.writeDB.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO summaries (user_id, id, title, summary, url, created_at, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, id) DO UPDATE SET
			title = excluded.title,
			summary = excluded.summary,
			url = excluded.url,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range summaries {
		_, err := stmt.Exec(s.UserID, s.ID, s.Title, s.Summary, s.URL, s.CreatedAt, s.FetchedAt)
		if err != nil {
			return fmt.Errorf("upserting summary %s: %w", s.ID, err)
		}
	}

	return tx.Commit()
}

// GetSummaries returns a user's cached summaries, most recently fetched first.
func (c *Cache) GetSummaries(userID string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := c.readDB.Query(`
		SELECT user_id, id, title, summary, url, created_at, fetched_at
		FROM summaries
		WHERE user_id = ?
		ORDER BY fetched_at DESC, created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying summaries: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.UserID, &s.ID, &s.Title, &s.Summary, &s.URL, &s.CreatedAt, &s.FetchedAt); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Prune deletes summaries fetched more than olderThan ago.
func (c *Cache) Prune(olderThan time.Duration) (int64, error) {
	res, err := c.writeDB.Exec("DELETE FROM summaries WHERE fetched_at < ?", time.Now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("pruning summaries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if _, err := c.writeDB.Exec("VACUUM"); err != nil {
			return n, fmt.Errorf("vacuum: %w", err)
		}
	}
	return n, nil
}

// Stats returns the number of cached summaries and the db file size.
func (c *Cache) Stats(dbPath string) (int, int64, error) {
	var count int
	if err := c.readDB.QueryRow("SELECT COUNT(*) FROM summaries").Scan(&count); err != nil {
		return 0, 0, fmt.Errorf("counting summaries: %w", err)
	}
	info, err := os.Stat(dbPath)
	if err != nil {
		return count, 0, fmt.Errorf("stat db: %w", err)
	}
	return count, info.Size(), nil
}

func (c *Cache) SaveSession(s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return c.setMeta(sessionKey, string(data))
}

func (c *Cache) LoadSession() (Session, error) {
	var s Session
	value, err := c.getMeta(sessionKey)
	if errors.Is(err, sql.ErrNoRows) {
		return s, ErrNoSession
	}
	if err != nil {
		return s, fmt.Errorf("reading session: %w", err)
	}
	if err := json.Unmarshal([]byte(value), &s); err != nil {
		return s, fmt.Errorf("decoding session: %w", err)
	}
	return s, nil
}

func (c *Cache) DeleteSession() error {
	_, err := c.writeDB.Exec("DELETE FROM meta WHERE key = ?", sessionKey)
	return err
}

func (c *Cache) getMeta(key string) (string, error) {
	var value string
	err := c.readDB.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	return value, err
}

func (c *Cache) setMeta(key, value string) error {
	_, err := c.writeDB.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
