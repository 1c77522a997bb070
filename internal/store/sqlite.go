package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/rcliao/memstore/internal/model"
)

// SQLiteLog implements RecordLog on a SQLite table. Insertion order is the
// autoincrement seq column, so a rewrite keeps the order it is given.
type SQLiteLog struct {
	dir  string
	path string
	db   *sql.DB
}

// NewSQLiteLog returns a SQLite record log at dir/memories.db. The database
// is opened lazily.
func NewSQLiteLog(dir string) *SQLiteLog {
	return &SQLiteLog{dir: dir, path: filepath.Join(dir, DBFile)}
}

func (s *SQLiteLog) Path() string { return s.path }

func (s *SQLiteLog) Init(ctx context.Context) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create db dir: %w", err)
	}
	return s.open(ctx)
}

func (s *SQLiteLog) open(ctx context.Context) error {
	if s.db != nil {
		return nil
	}
	db, err := sql.Open("sqlite", s.path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	if err := migrate(ctx, db); err != nil {
		db.Close()
		return fmt.Errorf("migrate: %w", err)
	}
	s.db = db
	return nil
}

// ready opens an existing database. A missing file means the store was
// never initialized; it is not created here.
func (s *SQLiteLog) ready(ctx context.Context) error {
	if err := CheckDir(s.dir); err != nil {
		return err
	}
	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotInitialized, s.path)
	}
	return s.open(ctx)
}

func migrate(ctx context.Context, db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		timestamp  TEXT NOT NULL,
		text       TEXT NOT NULL,
		tags       TEXT NOT NULL DEFAULT '[]',
		metadata   TEXT NOT NULL DEFAULT '{}',
		importance INTEGER NOT NULL DEFAULT 3
	);`
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (s *SQLiteLog) Append(ctx context.Context, r model.Record) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if err := insertRecord(ctx, s.db, r); err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *SQLiteLog) LoadAll(ctx context.Context) ([]model.Record, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, timestamp, text, tags, metadata, importance FROM records ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []model.Record{}
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteLog) RewriteAll(ctx context.Context, records []model.Record) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM records`); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	for _, r := range records {
		if err := insertRecord(ctx, tx, r); err != nil {
			return fmt.Errorf("insert record %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteLog) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func insertRecord(ctx context.Context, db execer, r model.Record) error {
	r.Normalize()
	tags, err := json.Marshal(r.Tags)
	if err != nil {
		return err
	}
	meta, err := json.Marshal(r.Metadata)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO records (id, timestamp, text, tags, metadata, importance)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Timestamp, r.Text, string(tags), string(meta), r.Importance)
	return err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row scanner) (model.Record, error) {
	var r model.Record
	var tags, meta string
	if err := row.Scan(&r.ID, &r.Timestamp, &r.Text, &tags, &meta, &r.Importance); err != nil {
		return r, err
	}
	if err := json.Unmarshal([]byte(tags), &r.Tags); err != nil {
		return r, fmt.Errorf("%w: record %s tags: %v", ErrMalformedRecord, r.ID, err)
	}
	if err := json.Unmarshal([]byte(meta), &r.Metadata); err != nil {
		return r, fmt.Errorf("%w: record %s metadata: %v", ErrMalformedRecord, r.ID, err)
	}
	r.Normalize()
	return r, nil
}
