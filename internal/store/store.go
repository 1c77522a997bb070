// Package store provides the record log: the durable, ordered collection
// of memory records, with a JSONL file backend and a SQLite backend.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rcliao/memstore/internal/model"
)

var (
	// ErrNotInitialized means the store root or its log does not exist yet.
	ErrNotInitialized = errors.New("memory store not found (run init first)")

	// ErrMalformedRecord means a persisted record could not be decoded.
	ErrMalformedRecord = errors.New("malformed record")
)

const (
	BackendJSONL  = "jsonl"
	BackendSQLite = "sqlite"

	LogFile = "memories.jsonl"
	DBFile  = "memories.db"
)

// RecordLog is a durable, insertion-ordered sequence of records.
//
// Mutations other than Append go through RewriteAll: callers read the full
// set, change it in memory and write the full set back.
type RecordLog interface {
	// Init creates an empty log if none exists. It never truncates.
	Init(ctx context.Context) error

	// Append adds one record at the end without touching prior content.
	Append(ctx context.Context, r model.Record) error

	// LoadAll returns every record in insertion order.
	LoadAll(ctx context.Context) ([]model.Record, error)

	// RewriteAll atomically replaces the whole log.
	RewriteAll(ctx context.Context, records []model.Record) error

	// Path is the on-disk location of the log.
	Path() string

	Close() error
}

// Open returns the record log for backend rooted at dir.
func Open(dir, backend string) (RecordLog, error) {
	switch backend {
	case "", BackendJSONL:
		return NewFileLog(dir), nil
	case BackendSQLite:
		return NewSQLiteLog(dir), nil
	}
	return nil, fmt.Errorf("unknown backend %q (valid: jsonl, sqlite)", backend)
}

// ListRecent returns the last n records of the log in insertion order.
func ListRecent(ctx context.Context, log RecordLog, n int) ([]model.Record, error) {
	records, err := log.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	return Tail(records, n), nil
}

// Tail returns the last n records. n larger than the slice returns all of it.
func Tail(records []model.Record, n int) []model.Record {
	if n <= 0 {
		return []model.Record{}
	}
	if n >= len(records) {
		return records
	}
	return records[len(records)-n:]
}

// CheckDir reports ErrNotInitialized unless dir is an existing directory.
func CheckDir(dir string) error {
	info, err := os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrNotInitialized, dir)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrNotInitialized, dir)
	}
	return nil
}
