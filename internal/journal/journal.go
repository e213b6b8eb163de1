// Package journal records launcher round trips in a local sqlite database.
package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tandem-cli/internal/dispatch"

	_ "modernc.org/sqlite"
)

// Entry is one recorded round trip.
type Entry struct {
	ID         int64     `json:"id"`
	At         time.Time `json:"at"`
	Kind       string    `json:"kind"`
	Args       []string  `json:"args"`
	DurationMS int64     `json:"durationMs"`
	ExitCode   int       `json:"exitCode"`
	Bytes      int       `json:"bytes"`
	OK         bool      `json:"ok"`
	Error      string    `json:"error,omitempty"`
}

type Journal struct {
	db  *sql.DB
	now func() time.Time
}

func Open(ctx context.Context, path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	// modernc.org/sqlite registers the "sqlite" driver.
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}
	// WAL lets `tandem journal` read while a launcher writes.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("journal: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS round_trips (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		at_unixms INTEGER NOT NULL,
		kind TEXT NOT NULL,
		args_json TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		exit_code INTEGER NOT NULL,
		bytes INTEGER NOT NULL,
		ok INTEGER NOT NULL,
		error TEXT
	);`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}
	return &Journal{db: db, now: time.Now}, nil
}

func (j *Journal) Close() error { return j.db.Close() }

func (j *Journal) Append(ctx context.Context, e Entry) (int64, error) {
	if e.At.IsZero() {
		e.At = j.now()
	}
	args, err := json.Marshal(e.Args)
	if err != nil {
		return 0, err
	}
	var errText any
	if e.Error != "" {
		errText = e.Error
	}
	res, err := j.db.ExecContext(ctx,
		`INSERT INTO round_trips (at_unixms, kind, args_json, duration_ms, exit_code, bytes, ok, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.At.UnixMilli(), e.Kind, string(args), e.DurationMS, e.ExitCode, e.Bytes, boolInt(e.OK), errText,
	)
	if err != nil {
		return 0, fmt.Errorf("journal: append: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to limit entries, newest first. limit <= 0 means all.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	q := `SELECT id, at_unixms, kind, args_json, duration_ms, exit_code, bytes, ok, error
		FROM round_trips ORDER BY id DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = j.db.QueryContext(ctx, q+` LIMIT ?`, limit)
	} else {
		rows, err = j.db.QueryContext(ctx, q)
	}
	if err != nil {
		return nil, fmt.Errorf("journal: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var atMS int64
		var args string
		var ok int
		var errText sql.NullString
		if err := rows.Scan(&e.ID, &atMS, &e.Kind, &args, &e.DurationMS, &e.ExitCode, &e.Bytes, &ok, &errText); err != nil {
			return nil, err
		}
		e.At = time.UnixMilli(atMS).UTC()
		e.OK = ok != 0
		e.Error = errText.String
		if err := json.Unmarshal([]byte(args), &e.Args); err != nil {
			return nil, fmt.Errorf("journal: entry %d: %w", e.ID, err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// FromOutcome converts a dispatch outcome into an entry.
func FromOutcome(o dispatch.Outcome) Entry {
	e := Entry{
		Kind:       kindOf(o.Request),
		Args:       o.Args,
		DurationMS: o.Elapsed.Milliseconds(),
		ExitCode:   o.ExitCode,
		Bytes:      o.Bytes,
		OK:         !o.Failed(),
	}
	if o.Err != nil {
		e.Error = o.Err.Error()
	}
	return e
}

func kindOf(r dispatch.Request) string {
	switch r.(type) {
	case dispatch.Click:
		return "click"
	case dispatch.FieldCommit:
		return "commit"
	default:
		return "initial"
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
