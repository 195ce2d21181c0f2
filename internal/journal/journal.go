// Package journal records launches and uploads in a local sqlite database.
package journal

import (
	"context"
	"database/sql"
	"time"

	"github.com/ann-cluster/ann-tools/pkg/fileutil"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // pure Go sqlite driver
)

// Kind is the kind of a journal entry.
type Kind string

const (
	// KindLaunch is a training program launch.
	KindLaunch Kind = "launch"
	// KindUpload is a bulk copy to remote storage.
	KindUpload Kind = "upload"
)

// Entry is one recorded invocation.
type Entry struct {
	ID   string
	Kind Kind
	// Target is the data directory for launches and the destination name for uploads.
	Target     string
	Command    string
	ExitCode   int
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewID returns a new entry id.
func NewID() string {
	return uuid.NewString()
}

// Journal is an open journal database.
type Journal struct {
	lg *zap.Logger
	db *sql.DB
}

const createEntries = `
CREATE TABLE IF NOT EXISTS entries (
  id          TEXT PRIMARY KEY,
  kind        TEXT NOT NULL,
  target      TEXT,
  command     TEXT,
  exit_code   INTEGER,
  started_at  INTEGER,
  finished_at INTEGER
);`

// Open opens or creates the journal at path.
func Open(lg *zap.Logger, path string) (*Journal, error) {
	if err := fileutil.MkdirParent(path); err != nil {
		return nil, errors.Wrapf(err, "failed to create journal directory for %q", path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open journal %q", path)
	}
	if _, err = db.Exec(createEntries); err != nil {
		db.Close()
		return nil, errors.Wrapf(err, "failed to initialize journal %q", path)
	}
	lg.Debug("opened journal", zap.String("path", path))
	return &Journal{lg: lg, db: db}, nil
}

// Close closes the database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record inserts an entry. An empty ID is replaced with a new one.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.ID == "" {
		e.ID = NewID()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO entries (id, kind, target, command, exit_code, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, string(e.Kind), e.Target, e.Command, e.ExitCode, e.StartedAt.UnixNano(), e.FinishedAt.UnixNano(),
	)
	if err != nil {
		return errors.Wrapf(err, "failed to record %s %q", e.Kind, e.ID)
	}
	j.lg.Debug("recorded journal entry", zap.String("id", e.ID), zap.String("kind", string(e.Kind)))
	return nil
}

// List returns up to limit entries, most recent first.
// A non-positive limit returns every entry.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, kind, target, command, exit_code, started_at, finished_at FROM entries ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query journal")
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e                 Entry
			kind              string
			started, finished int64
		)
		if err = rows.Scan(&e.ID, &kind, &e.Target, &e.Command, &e.ExitCode, &started, &finished); err != nil {
			return nil, errors.Wrap(err, "failed to scan journal entry")
		}
		e.Kind = Kind(kind)
		e.StartedAt = time.Unix(0, started).UTC()
		e.FinishedAt = time.Unix(0, finished).UTC()
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
