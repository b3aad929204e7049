package repository

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const (
	ListBlacklist = "blacklist"
	ListWhitelist = "whitelist"
)

// ListEntry is one row of the blacklist/whitelist store.
type ListEntry struct {
	Domain string
	List   string // ListBlacklist or ListWhitelist
	Source string
	Risk   int // blacklist severity; 0 for whitelist entries
}

// ListDB persists both lists keyed by normalized domain.
type ListDB struct {
	db *sql.DB
}

// NormalizeDomain lowercases and strips the www prefix so lookups and
// stored keys always agree.
func NormalizeDomain(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimSuffix(domain, ".")
	return strings.TrimPrefix(domain, "www.")
}

func (d *ListDB) InitDB(path string) error {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("could not create directory for db: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("could not open db: %w", err)
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("could not connect to db (check permissions): %w", err)
	}

	d.db = db

	if _, err := d.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("failed to set WAL mode: %w", err)
	}

	q := `
	CREATE TABLE IF NOT EXISTS list_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		domain TEXT UNIQUE NOT NULL,
		list TEXT NOT NULL DEFAULT 'blacklist',
		source TEXT,
		risk INTEGER DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_list_domain ON list_entries(domain);

	CREATE TABLE IF NOT EXISTS metadata (
		key TEXT PRIMARY KEY,
		value TEXT
	);
	`
	if _, err = d.db.Exec(q); err != nil {
		return fmt.Errorf("could not init tables: %w", err)
	}

	return nil
}

func (d *ListDB) Close() error {
	if d.db == nil {
		return nil
	}
	return d.db.Close()
}

func (d *ListDB) GetETag(source string) string {
	var val string
	_ = d.db.QueryRow("SELECT value FROM metadata WHERE key = ?", source+"_etag").Scan(&val)
	return val
}

func (d *ListDB) UpdateETag(source, etag string) error {
	_, err := d.db.Exec("INSERT OR REPLACE INTO metadata (key, value) VALUES (?, ?)", source+"_etag", etag)
	return err
}

// SyncUserLists upserts the manually configured entries. User rules always
// win over feed rules for the same domain.
func (d *ListDB) SyncUserLists(whitelist, blacklist []string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	upsert := func(domain, list string) error {
		query := `
		INSERT INTO list_entries (domain, source, list) VALUES (?, 'user_manual', ?)
		ON CONFLICT(domain) DO UPDATE SET
			source = 'user_manual',
			list = excluded.list;
		`
		_, err := tx.Exec(query, NormalizeDomain(domain), list)
		return err
	}

	for _, domain := range blacklist {
		if err := upsert(domain, ListBlacklist); err != nil {
			return err
		}
	}
	for _, domain := range whitelist {
		if err := upsert(domain, ListWhitelist); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// StreamSync ingests one feed's entries and prunes rows from the same
// source that the feed no longer lists (mark-and-sweep by timestamp).
func (d *ListDB) StreamSync(dataStream <-chan ListEntry, source string) (int, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	importTime := time.Now().Unix()

	query := `
	INSERT INTO list_entries (domain, list, source, risk, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(domain) DO UPDATE SET
		updated_at = excluded.updated_at,
		list = excluded.list,
		risk = excluded.risk,
		source = excluded.source;
	`
	stmt, err := tx.Prepare(query)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	count := 0
	for item := range dataStream {
		domain := NormalizeDomain(item.Domain)
		if domain == "" {
			continue
		}
		if _, err := stmt.Exec(domain, item.List, source, item.Risk, importTime); err != nil {
			log.Printf("Failed to insert %s: %v", domain, err)
			continue
		}
		count++
	}

	pruneQuery := `DELETE FROM list_entries WHERE source = ? AND updated_at != ?`
	if _, err := tx.Exec(pruneQuery, source, importTime); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	log.Printf("[%s] Streamed %d list entries.", source, count)
	return count, nil
}

// GetList returns every domain on one list, for loading the in-memory
// matcher at startup.
func (d *ListDB) GetList(list string) ([]string, error) {
	rows, err := d.db.Query("SELECT domain FROM list_entries WHERE list = ?", list)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var domain string
		if err := rows.Scan(&domain); err != nil {
			return nil, err
		}
		domains = append(domains, domain)
	}
	return domains, rows.Err()
}

// Lookup fetches the entry for an exact normalized domain, or nil.
func (d *ListDB) Lookup(domain string) (*ListEntry, error) {
	var e ListEntry
	query := "SELECT domain, list, source, risk FROM list_entries WHERE domain = ?"
	err := d.db.QueryRow(query, NormalizeDomain(domain)).Scan(&e.Domain, &e.List, &e.Source, &e.Risk)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// InsertOrUpdate records one entry, used when analysis confirms a verdict
// worth persisting.
func (d *ListDB) InsertOrUpdate(entry ListEntry) error {
	query := `
	INSERT INTO list_entries (domain, list, source, risk, updated_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(domain) DO UPDATE SET
		updated_at = excluded.updated_at,
		list = excluded.list,
		risk = excluded.risk,
		source = excluded.source;
	`
	_, err := d.db.Exec(query, NormalizeDomain(entry.Domain), entry.List, entry.Source, entry.Risk, time.Now().Unix())
	return err
}
