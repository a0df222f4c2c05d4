package artifact

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// IndexEntry is one published artifact as recorded in the catalog.
type IndexEntry struct {
	Coordinate string
	Digest     string
	Size       int64
	Published  time.Time
}

// Index is a sqlite catalog of published artifacts. It is advisory: the
// store's directory tree remains the source of truth, the index only powers
// listing and auditing.
type Index struct {
	db *sql.DB
}

const indexSchema = `
CREATE TABLE IF NOT EXISTS artifacts (
	coordinate TEXT PRIMARY KEY,
	digest     TEXT NOT NULL,
	size       INTEGER NOT NULL,
	published  TEXT NOT NULL
);
`

// OpenIndex opens (and if needed bootstraps) the catalog database at path.
func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open artifact index: %w", err)
	}
	// modernc sqlite serializes on a single connection; keep it that way to
	// avoid SQLITE_BUSY between pipeline stages.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(indexSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap artifact index: %w", err)
	}
	return &Index{db: db}, nil
}

// Close releases the underlying database handle.
func (i *Index) Close() error {
	return i.db.Close()
}

// Record upserts an entry. Re-recording the same coordinate is tolerated so
// that a rebuilt index can be backfilled from the directory tree.
func (i *Index) Record(e IndexEntry) error {
	_, err := i.db.Exec(
		`INSERT INTO artifacts (coordinate, digest, size, published)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT(coordinate) DO UPDATE SET
		   digest = excluded.digest, size = excluded.size, published = excluded.published`,
		e.Coordinate, e.Digest, e.Size, e.Published.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("record %s: %w", e.Coordinate, err)
	}
	return nil
}

// List returns all entries ordered by coordinate.
func (i *Index) List() ([]IndexEntry, error) {
	rows, err := i.db.Query(
		`SELECT coordinate, digest, size, published FROM artifacts ORDER BY coordinate`)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var entries []IndexEntry
	for rows.Next() {
		var e IndexEntry
		var published string
		if err := rows.Scan(&e.Coordinate, &e.Digest, &e.Size, &published); err != nil {
			return nil, fmt.Errorf("scan artifact row: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339Nano, published); perr == nil {
			e.Published = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
