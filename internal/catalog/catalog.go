// Package catalog indexes completed recording sessions (D1, SPEC_FULL §2)
// in a local SQLite database so an operator or the CLI can list past
// sessions without re-parsing every manifest.json on disk. Grounded on
// agent/session/sqlite.go's modernc.org/sqlite usage from the teacher repo;
// migrations run through pressly/goose/v3 instead of the teacher's ad-hoc
// schema-verification approach, since a goose-managed schema is the
// idiomatic pattern the teacher's own go.mod already commits to.
package catalog

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/deskstratum/agent/internal/catalog/migrations"
	"github.com/deskstratum/agent/internal/recording"
)

// Catalog indexes recording.Manifest rows keyed by session id.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// applies any pending migrations.
func Open(path string) (*Catalog, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create catalog dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run catalog migrations: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close releases the underlying database connection.
func (c *Catalog) Close() error { return c.db.Close() }

// Record indexes a completed session's manifest, keyed by manifest.ID.
// manifestPath is the absolute path to the session's manifest.json, used by
// Lookup to locate the full manifest on disk.
func (c *Catalog) Record(m recording.Manifest, manifestPath string) error {
	_, err := c.db.Exec(`
		INSERT INTO sessions (id, description, start_time, end_time, duration_ms, frame_count, event_count, audio_file, manifest_path)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			description = excluded.description,
			end_time = excluded.end_time,
			duration_ms = excluded.duration_ms,
			frame_count = excluded.frame_count,
			event_count = excluded.event_count,
			audio_file = excluded.audio_file,
			manifest_path = excluded.manifest_path
	`, m.ID, m.Description, m.StartTime, m.EndTime, m.DurationMs, m.FrameCount, m.EventCount, m.AudioFile, manifestPath)
	if err != nil {
		return fmt.Errorf("index session %s: %w", m.ID, err)
	}
	return nil
}

// Entry is one row of the session index.
type Entry struct {
	ID           string
	Description  string
	StartTime    int64
	EndTime      int64
	DurationMs   int64
	FrameCount   int
	EventCount   int
	AudioFile    string
	ManifestPath string
}

// List returns every indexed session, most recent first.
func (c *Catalog) List() ([]Entry, error) {
	rows, err := c.db.Query(`
		SELECT id, description, start_time, end_time, duration_ms, frame_count, event_count, audio_file, manifest_path
		FROM sessions ORDER BY start_time DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Description, &e.StartTime, &e.EndTime, &e.DurationMs, &e.FrameCount, &e.EventCount, &e.AudioFile, &e.ManifestPath); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Lookup returns the indexed entry for a single session id, or
// sql.ErrNoRows if it is not present.
func (c *Catalog) Lookup(id string) (Entry, error) {
	var e Entry
	err := c.db.QueryRow(`
		SELECT id, description, start_time, end_time, duration_ms, frame_count, event_count, audio_file, manifest_path
		FROM sessions WHERE id = ?
	`, id).Scan(&e.ID, &e.Description, &e.StartTime, &e.EndTime, &e.DurationMs, &e.FrameCount, &e.EventCount, &e.AudioFile, &e.ManifestPath)
	return e, err
}
