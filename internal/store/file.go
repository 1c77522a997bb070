package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rcliao/memstore/internal/jsonl"
	"github.com/rcliao/memstore/internal/model"
)

// FileLog keeps records as one JSON object per line in memories.jsonl.
type FileLog struct {
	dir  string
	path string
}

// NewFileLog returns a JSONL record log inside dir. Nothing is created
// until Init is called.
func NewFileLog(dir string) *FileLog {
	return &FileLog{dir: dir, path: filepath.Join(dir, LogFile)}
}

func (l *FileLog) Path() string { return l.path }

func (l *FileLog) Init(ctx context.Context) error {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return fmt.Errorf("create store dir: %w", err)
	}
	return jsonl.Touch(l.path)
}

func (l *FileLog) Append(ctx context.Context, r model.Record) error {
	if err := CheckDir(l.dir); err != nil {
		return err
	}
	r.Normalize()
	if err := jsonl.Append(l.path, r); err != nil {
		return fmt.Errorf("append record: %w", err)
	}
	return nil
}

func (l *FileLog) LoadAll(ctx context.Context) ([]model.Record, error) {
	if err := CheckDir(l.dir); err != nil {
		return nil, err
	}
	records, err := jsonl.Read[model.Record](l.path)
	if err != nil {
		var lerr *jsonl.LineError
		if errors.As(err, &lerr) {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, lerr)
		}
		return nil, fmt.Errorf("read records: %w", err)
	}
	if records == nil {
		records = []model.Record{}
	}
	for i := range records {
		records[i].Normalize()
	}
	return records, nil
}

func (l *FileLog) RewriteAll(ctx context.Context, records []model.Record) error {
	if err := CheckDir(l.dir); err != nil {
		return err
	}
	for i := range records {
		records[i].Normalize()
	}
	if err := jsonl.Rewrite(l.path, records); err != nil {
		return fmt.Errorf("rewrite records: %w", err)
	}
	return nil
}

func (l *FileLog) Close() error { return nil }
