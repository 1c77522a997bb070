// Package vector keeps embedding vectors for memory records in a JSONL
// file next to the record log.
//
// Provider failures stop at this package: every embedding operation
// reports success as a bool or a count and logs the cause.
package vector

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/dgraph-io/ristretto"
	"github.com/rs/zerolog"

	"github.com/rcliao/memstore/internal/embedding"
	"github.com/rcliao/memstore/internal/jsonl"
	"github.com/rcliao/memstore/internal/model"
)

const (
	File             = "vectors.jsonl"
	DefaultBatchSize = 100
)

// Item is one text to embed under a record id.
type Item struct {
	ID   string
	Text string
}

// Index maps record ids to vectors. Entries for ids no longer in the log
// are tolerated.
type Index struct {
	path     string
	provider embedding.Provider
	cache    *ristretto.Cache
	logger   zerolog.Logger
}

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used for absorbed provider failures.
func WithLogger(l zerolog.Logger) Option {
	return func(ix *Index) { ix.logger = l }
}

// WithQueryCache keeps up to size query embeddings in memory.
func WithQueryCache(size int64) Option {
	return func(ix *Index) {
		if size <= 0 {
			return
		}
		cache, err := ristretto.NewCache(&ristretto.Config{
			NumCounters: size * 10,
			MaxCost:     size,
			BufferItems: 64,
			// Each entry costs 1 so MaxCost counts queries, not bytes.
			IgnoreInternalCost: true,
		})
		if err != nil {
			ix.logger.Warn().Err(err).Msg("query cache disabled")
			return
		}
		ix.cache = cache
	}
}

// New returns an index stored in dir. A nil provider disables embedding.
func New(dir string, provider embedding.Provider, opts ...Option) *Index {
	ix := &Index{
		path:     filepath.Join(dir, File),
		provider: provider,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// Enabled reports whether an embedding provider is configured.
func (ix *Index) Enabled() bool { return ix.provider != nil }

func (ix *Index) Path() string { return ix.path }

// Close releases the query cache.
func (ix *Index) Close() {
	if ix.cache != nil {
		ix.cache.Close()
		ix.cache = nil
	}
}

// Entries returns the index in file order, keeping the last vector seen
// for an id at the position of its first occurrence.
func (ix *Index) Entries() ([]model.VectorEntry, error) {
	raw, err := jsonl.Read[model.VectorEntry](ix.path)
	if err != nil {
		return nil, fmt.Errorf("read vectors: %w", err)
	}
	pos := make(map[string]int, len(raw))
	entries := make([]model.VectorEntry, 0, len(raw))
	for _, e := range raw {
		if i, ok := pos[e.ID]; ok {
			entries[i].Vector = e.Vector
			continue
		}
		pos[e.ID] = len(entries)
		entries = append(entries, e)
	}
	return entries, nil
}

// LoadAll returns the id → vector mapping.
func (ix *Index) LoadAll() (map[string]embedding.Vector, error) {
	entries, err := ix.Entries()
	if err != nil {
		return nil, err
	}
	out := make(map[string]embedding.Vector, len(entries))
	for _, e := range entries {
		out[e.ID] = toVector(e.Vector)
	}
	return out, nil
}

// Append adds one entry without rewriting existing ones.
func (ix *Index) Append(id string, vec embedding.Vector) error {
	return jsonl.Append(ix.path, model.VectorEntry{ID: id, Vector: toDisk(vec)})
}

func toDisk(vec embedding.Vector) []float64 {
	out := make([]float64, len(vec))
	for i, v := range vec {
		out[i] = float64(v)
	}
	return out
}

func toVector(vals []float64) embedding.Vector {
	out := make(embedding.Vector, len(vals))
	for i, v := range vals {
		out[i] = float32(v)
	}
	return out
}

// RewriteAll replaces the whole index with entries.
func (ix *Index) RewriteAll(entries []model.VectorEntry) error {
	if err := jsonl.Rewrite(ix.path, entries); err != nil {
		return fmt.Errorf("rewrite vectors: %w", err)
	}
	return nil
}

// Clear empties the index.
func (ix *Index) Clear() error {
	return ix.RewriteAll(nil)
}

// Delete removes the entry for id. Unknown ids are a no-op.
func (ix *Index) Delete(id string) error {
	entries, err := ix.Entries()
	if err != nil {
		return err
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return nil
	}
	return ix.RewriteAll(kept)
}

// EmbedAndStore embeds one text and appends its vector. It reports false,
// storing nothing, if the provider fails.
func (ix *Index) EmbedAndStore(ctx context.Context, id, text string) bool {
	return ix.EmbedBatch(ctx, []Item{{ID: id, Text: text}}) == 1
}

// EmbedBatch embeds all items in a single provider call and appends the
// vectors in item order. It is all-or-nothing: a failed call stores zero.
func (ix *Index) EmbedBatch(ctx context.Context, items []Item) int {
	if len(items) == 0 || !ix.Enabled() {
		return 0
	}
	texts := make([]string, len(items))
	for i, it := range items {
		texts[i] = it.Text
	}
	vecs, err := ix.provider.Embed(ctx, texts)
	if err != nil {
		ix.logger.Warn().Err(err).Int("items", len(items)).Str("first_id", items[0].ID).Msg("embedding failed")
		return 0
	}
	if len(vecs) != len(items) {
		ix.logger.Warn().Int("items", len(items)).Int("vectors", len(vecs)).Msg("embedding count mismatch")
		return 0
	}

	entries := make([]model.VectorEntry, len(items))
	for i, it := range items {
		entries[i] = model.VectorEntry{ID: it.ID, Vector: toDisk(vecs[i])}
	}
	if err := jsonl.Append(ix.path, entries...); err != nil {
		ix.logger.Warn().Err(err).Int("items", len(items)).Msg("store vectors failed")
		return 0
	}
	return len(entries)
}

// Rebuild clears the index and re-embeds records in batches of batchSize,
// returning how many vectors were stored.
func (ix *Index) Rebuild(ctx context.Context, records []model.Record, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if err := ix.Clear(); err != nil {
		return 0, err
	}
	total := 0
	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := make([]Item, 0, end-start)
		for _, r := range records[start:end] {
			batch = append(batch, Item{ID: r.ID, Text: r.Text})
		}
		n := ix.EmbedBatch(ctx, batch)
		ix.logger.Debug().Int("batch_start", start).Int("stored", n).Msg("rebuild batch")
		total += n
	}
	return total, nil
}

// EmbedQuery embeds a search query. ok is false if the provider is
// disabled or fails.
func (ix *Index) EmbedQuery(ctx context.Context, query string) (vec embedding.Vector, ok bool) {
	if !ix.Enabled() {
		return nil, false
	}
	key := ix.provider.Model() + "\x00" + query
	if ix.cache != nil {
		if v, found := ix.cache.Get(key); found {
			return v.(embedding.Vector), true
		}
	}
	vecs, err := ix.provider.Embed(ctx, []string{query})
	if err != nil || len(vecs) != 1 {
		ix.logger.Warn().Err(err).Msg("query embedding failed")
		return nil, false
	}
	if ix.cache != nil {
		ix.cache.Set(key, vecs[0], 1)
	}
	return vecs[0], true
}
