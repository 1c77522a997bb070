package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/memstore/internal/model"
)

func newTestLog(t *testing.T, backend string) RecordLog {
	t.Helper()
	dir := filepath.Join(t.TempDir(), ".agent-memory")
	l, err := Open(dir, backend)
	require.NoError(t, err)
	require.NoError(t, l.Init(context.Background()))
	t.Cleanup(func() { l.Close() })
	return l
}

func rec(id, text string, tags ...string) model.Record {
	return model.Record{
		ID:        id,
		Timestamp: model.FormatTimestamp(time.Now()),
		Text:      text,
		Tags:      tags,
		Metadata:  map[string]string{"src": "test"},
	}
}

var backends = []string{BackendJSONL, BackendSQLite}

func TestAppendAndLoadAll(t *testing.T) {
	for _, b := range backends {
		t.Run(b, func(t *testing.T) {
			ctx := context.Background()
			l := newTestLog(t, b)

			require.NoError(t, l.Append(ctx, rec("a", "alpha", "x")))
			require.NoError(t, l.Append(ctx, rec("b", "beta")))
			require.NoError(t, l.Append(ctx, rec("c", "gamma")))

			got, err := l.LoadAll(ctx)
			require.NoError(t, err)
			require.Len(t, got, 3)
			assert.Equal(t, "a", got[0].ID)
			assert.Equal(t, "c", got[2].ID)
			assert.Equal(t, []string{"x"}, got[0].Tags)
			assert.Equal(t, []string{}, got[1].Tags)
			assert.Equal(t, "test", got[0].Metadata["src"])
			assert.Equal(t, model.DefaultImportance, got[0].Importance)
		})
	}
}

func TestLoadAll_EmptyLog(t *testing.T) {
	for _, b := range backends {
		t.Run(b, func(t *testing.T) {
			got, err := newTestLog(t, b).LoadAll(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestRewriteAll_PreservesGivenOrder(t *testing.T) {
	for _, b := range backends {
		t.Run(b, func(t *testing.T) {
			ctx := context.Background()
			l := newTestLog(t, b)
			for _, id := range []string{"a", "b", "c"} {
				require.NoError(t, l.Append(ctx, rec(id, id)))
			}

			all, err := l.LoadAll(ctx)
			require.NoError(t, err)
			all[1].Tags = []string{"edited"}
			require.NoError(t, l.RewriteAll(ctx, []model.Record{all[2], all[1]}))

			got, err := l.LoadAll(ctx)
			require.NoError(t, err)
			require.Len(t, got, 2)
			assert.Equal(t, "c", got[0].ID)
			assert.Equal(t, "b", got[1].ID)
			assert.Equal(t, []string{"edited"}, got[1].Tags)

			// Appends after a rewrite still land at the end.
			require.NoError(t, l.Append(ctx, rec("d", "delta")))
			got, err = l.LoadAll(ctx)
			require.NoError(t, err)
			assert.Equal(t, "d", got[2].ID)
		})
	}
}

func TestInit_Idempotent(t *testing.T) {
	for _, b := range backends {
		t.Run(b, func(t *testing.T) {
			ctx := context.Background()
			l := newTestLog(t, b)
			require.NoError(t, l.Append(ctx, rec("a", "alpha")))

			require.NoError(t, l.Init(ctx))

			got, err := l.LoadAll(ctx)
			require.NoError(t, err)
			assert.Len(t, got, 1)
		})
	}
}

func TestNotInitialized(t *testing.T) {
	for _, b := range backends {
		t.Run(b, func(t *testing.T) {
			ctx := context.Background()
			l, err := Open(filepath.Join(t.TempDir(), "missing"), b)
			require.NoError(t, err)
			defer l.Close()

			_, err = l.LoadAll(ctx)
			assert.True(t, errors.Is(err, ErrNotInitialized), "got %v", err)

			err = l.Append(ctx, rec("a", "alpha"))
			assert.True(t, errors.Is(err, ErrNotInitialized), "got %v", err)

			err = l.RewriteAll(ctx, nil)
			assert.True(t, errors.Is(err, ErrNotInitialized), "got %v", err)
		})
	}
}

func TestFileLog_MalformedLineAborts(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t, BackendJSONL)
	require.NoError(t, l.Append(ctx, rec("a", "alpha")))

	f, err := os.OpenFile(l.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{broken\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.NoError(t, l.Append(ctx, rec("b", "beta")))

	_, err = l.LoadAll(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMalformedRecord), "got %v", err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestFileLog_LegacyLineWithoutImportance(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t, BackendJSONL)
	line := `{"id":"oldentry12345","timestamp":"2025-01-01T00:00:00+00:00","text":"legacy data"}` + "\n"
	require.NoError(t, os.WriteFile(l.Path(), []byte(line), 0o644))

	got, err := l.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Importance)
	assert.Equal(t, []string{}, got[0].Tags)
	assert.Equal(t, map[string]string{}, got[0].Metadata)
}

func TestSQLiteLog_DBPathCreation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sub", "dir")
	l := NewSQLiteLog(dir)
	require.NoError(t, l.Init(context.Background()))
	require.NoError(t, l.Close())

	_, err := os.Stat(filepath.Join(dir, DBFile))
	assert.NoError(t, err, "expected db file to be created")
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(t.TempDir(), "redis")
	assert.Error(t, err)
}

func TestTail(t *testing.T) {
	records := []model.Record{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	assert.Equal(t, records, Tail(records, 10))
	got := Tail(records, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Empty(t, Tail(records, 0))
}

func TestListRecent(t *testing.T) {
	ctx := context.Background()
	l := newTestLog(t, BackendJSONL)
	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, l.Append(ctx, rec(id, id)))
	}

	got, err := ListRecent(ctx, l, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, "d", got[1].ID)
}
