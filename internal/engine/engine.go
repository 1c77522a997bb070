// Package engine ties the record log, the vector index and the scorers
// together behind the operations a caller performs on a memory store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/rcliao/memstore/internal/config"
	"github.com/rcliao/memstore/internal/embedding"
	"github.com/rcliao/memstore/internal/model"
	"github.com/rcliao/memstore/internal/search"
	"github.com/rcliao/memstore/internal/store"
	"github.com/rcliao/memstore/internal/vector"
)

// DefaultListLimit is used by List when no positive limit is given.
const DefaultListLimit = 20

// ErrInvalidMode is returned by Search for an unknown mode string.
var ErrInvalidMode = model.ErrInvalidMode

// Engine operates on one store directory. It is not safe for concurrent
// use by several processes against the same directory.
type Engine struct {
	cfg     config.Config
	log     store.RecordLog
	vectors *vector.Index
	logger  zerolog.Logger
	now     func() time.Time

	provider    embedding.Provider
	providerSet bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger. It is shared with the vector index.
func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides the time source used for ids, timestamps and decay.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithProvider uses p instead of building a provider from the config.
// A nil p disables vectors.
func WithProvider(p embedding.Provider) Option {
	return func(e *Engine) {
		e.provider = p
		e.providerSet = true
	}
}

// New builds an engine for cfg.StoreDir. Nothing is touched on disk.
func New(cfg config.Config, opts ...Option) (*Engine, error) {
	if cfg.StoreDir == "" {
		return nil, errors.New("store directory is required")
	}
	log, err := store.Open(cfg.StoreDir, cfg.Backend)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		log:    log,
		logger: zerolog.Nop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}

	if !e.providerSet {
		if pc := cfg.ProviderConfig(); pc.Enabled() {
			p, err := embedding.NewOpenAIProvider(pc)
			if err != nil {
				return nil, fmt.Errorf("embedding provider: %w", err)
			}
			e.provider = p
		}
	}

	e.vectors = vector.New(cfg.StoreDir, e.provider,
		vector.WithLogger(e.logger),
		vector.WithQueryCache(int64(cfg.Embedding.CacheSize)),
	)
	return e, nil
}

// Close releases the record log and the query cache.
func (e *Engine) Close() error {
	e.vectors.Close()
	return e.log.Close()
}

// Dir returns the store root.
func (e *Engine) Dir() string { return e.cfg.StoreDir }

// VectorsEnabled reports whether an embedding provider is configured.
func (e *Engine) VectorsEnabled() bool { return e.vectors.Enabled() }

// Init creates the store directory, a default config.json and an empty
// log. Existing files are never truncated. It returns the store root.
func (e *Engine) Init(ctx context.Context) (string, error) {
	dir := e.cfg.StoreDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create store dir: %w", err)
	}
	written, err := config.WriteIfMissing(dir, e.cfg)
	if err != nil {
		return "", err
	}
	if err := e.log.Init(ctx); err != nil {
		return "", fmt.Errorf("init log: %w", err)
	}
	e.logger.Debug().Str("dir", dir).Bool("config_written", written).Msg("store initialized")
	return dir, nil
}

func (e *Engine) ready() error {
	return store.CheckDir(e.cfg.StoreDir)
}

func (e *Engine) load(ctx context.Context) ([]model.Record, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	return e.log.LoadAll(ctx)
}

func (e *Engine) rewrite(ctx context.Context, records []model.Record) error {
	if err := e.log.RewriteAll(ctx, records); err != nil {
		return fmt.Errorf("rewrite log: %w", err)
	}
	e.logger.Debug().Int("records", len(records)).Msg("log rewritten")
	return nil
}

// AddParams holds parameters for Add.
type AddParams struct {
	Text       string
	Tags       []string
	Metadata   map[string]string
	Importance *int // nil means default; out of range is clamped
}

// Add appends a new record and, when vectors are enabled, tries to embed
// it. An embedding failure does not fail the add.
func (e *Engine) Add(ctx context.Context, p AddParams) (*model.Record, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}

	importance := model.DefaultImportance
	if p.Importance != nil {
		importance = model.ClampImportance(*p.Importance)
	}

	now := e.now()
	r := model.Record{
		ID:         model.NewID(now),
		Timestamp:  model.FormatTimestamp(now),
		Text:       p.Text,
		Tags:       model.NormalizeTags(p.Tags),
		Metadata:   copyMetadata(p.Metadata),
		Importance: importance,
	}
	r.Normalize()

	if err := e.log.Append(ctx, r); err != nil {
		return nil, err
	}
	if e.vectors.Enabled() && !e.vectors.EmbedAndStore(ctx, r.ID, r.Text) {
		e.logger.Warn().Str("id", r.ID).Msg("record stored without vector")
	}
	return &r, nil
}

func copyMetadata(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// List returns the last limit records in insertion order.
func (e *Engine) List(ctx context.Context, limit int) ([]model.Record, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if err := e.ready(); err != nil {
		return nil, err
	}
	return store.ListRecent(ctx, e.log, limit)
}

// Get returns the record with id, or nil if there is none.
func (e *Engine) Get(ctx context.Context, id string) (*model.Record, error) {
	records, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range records {
		if records[i].ID == id {
			return &records[i], nil
		}
	}
	return nil, nil
}

// Tag adds then removes tags on a record and rewrites the log. It returns
// nil if id is unknown.
func (e *Engine) Tag(ctx context.Context, id string, add, remove []string) (*model.Record, error) {
	records, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i := range records {
		if records[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, nil
	}

	drop := make(map[string]struct{}, len(remove))
	for _, t := range remove {
		drop[t] = struct{}{}
	}
	merged := append(append([]string{}, records[idx].Tags...), add...)
	tags := make([]string, 0, len(merged))
	for _, t := range model.NormalizeTags(merged) {
		if _, ok := drop[t]; !ok {
			tags = append(tags, t)
		}
	}
	records[idx].Tags = tags

	if err := e.rewrite(ctx, records); err != nil {
		return nil, err
	}
	r := records[idx]
	return &r, nil
}

// Delete removes the record with id and reports whether it existed. The
// vector entry is removed whatever the outcome of the log rewrite.
//
// A failed log rewrite returns false with the error. If only the vector
// delete fails, the record is gone and Delete returns found with the error.
func (e *Engine) Delete(ctx context.Context, id string) (bool, error) {
	records, err := e.load(ctx)
	if err != nil {
		return false, err
	}

	kept := make([]model.Record, 0, len(records))
	for _, r := range records {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	found := len(kept) != len(records)

	var rewriteErr error
	if found {
		rewriteErr = e.rewrite(ctx, kept)
	}
	vecErr := e.vectors.Delete(id)
	if vecErr != nil {
		e.logger.Warn().Err(vecErr).Str("id", id).Msg("vector delete failed")
	}
	if rewriteErr != nil {
		return false, rewriteErr
	}
	if vecErr != nil {
		return found, fmt.Errorf("delete vector: %w", vecErr)
	}
	return found, nil
}

// SearchParams holds parameters for Search.
type SearchParams struct {
	Query string
	Limit int    // 0 means the configured max_results
	Tag   string // only records carrying this tag are ranked
	Mode  string // "", "keyword", "vector" or "hybrid"
}

// SearchResult is a ranked result list and the mode that produced it.
type SearchResult struct {
	Mode    model.Mode      `json:"mode"`
	Results []search.Scored `json:"results"`
}

// Search ranks records against a query. The mode is resolved from the
// request and whether vectors are enabled; vector modes fall back to
// keyword without a provider. A query embedding failure yields no results.
func (e *Engine) Search(ctx context.Context, p SearchParams) (*SearchResult, error) {
	requested, err := model.ParseMode(p.Mode)
	if err != nil {
		return nil, err
	}
	records, err := e.load(ctx)
	if err != nil {
		return nil, err
	}

	limit := p.Limit
	if limit <= 0 {
		limit = e.cfg.MaxResults
	}
	if limit <= 0 {
		limit = config.DefaultMaxResults
	}

	candidates := records
	if p.Tag != "" {
		candidates = make([]model.Record, 0, len(records))
		for _, r := range records {
			if r.HasTag(p.Tag) {
				candidates = append(candidates, r)
			}
		}
	}

	mode := model.ResolveMode(requested, e.vectors.Enabled())
	res := &SearchResult{Mode: mode, Results: []search.Scored{}}
	if len(candidates) == 0 {
		return res, nil
	}

	now := e.now()
	switch mode {
	case model.ModeVector:
		scored, err := e.vectorRank(ctx, p.Query, candidates)
		if err != nil {
			return nil, err
		}
		res.Results = head(scored, limit)

	case model.ModeHybrid:
		kw := search.Keyword(p.Query, candidates, now, e.cfg.TimeDecayLambda)
		vs, err := e.vectorRank(ctx, p.Query, candidates)
		if err != nil {
			return nil, err
		}
		res.Results = head(search.Hybrid(kw.Results, vs, candidates), limit)

	default:
		kw := search.Keyword(p.Query, candidates, now, e.cfg.TimeDecayLambda)
		if kw.Unranked {
			res.Results = tail(kw.Results, limit)
		} else {
			res.Results = head(kw.Results, limit)
		}
	}

	e.logger.Debug().
		Str("mode", string(mode)).
		Int("candidates", len(candidates)).
		Int("results", len(res.Results)).
		Msg("search")
	return res, nil
}

func (e *Engine) vectorRank(ctx context.Context, query string, candidates []model.Record) ([]search.Scored, error) {
	qv, ok := e.vectors.EmbedQuery(ctx, query)
	if !ok {
		return []search.Scored{}, nil
	}
	vecs, err := e.vectors.LoadAll()
	if err != nil {
		return nil, err
	}
	return search.Vector(qv, candidates, vecs), nil
}

func head(s []search.Scored, n int) []search.Scored {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func tail(s []search.Scored, n int) []search.Scored {
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}

// RebuildVectors clears the vector index and re-embeds every record in
// batches. It returns how many vectors were stored.
func (e *Engine) RebuildVectors(ctx context.Context, batchSize int) (int, error) {
	records, err := e.load(ctx)
	if err != nil {
		return 0, err
	}
	n, err := e.vectors.Rebuild(ctx, records, batchSize)
	if err != nil {
		return 0, err
	}
	e.logger.Debug().Int("records", len(records)).Int("embedded", n).Msg("vectors rebuilt")
	return n, nil
}

// Count returns the number of records.
func (e *Engine) Count(ctx context.Context) (int, error) {
	records, err := e.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}

// Clear empties the log and the vector index, returning how many records
// there were.
func (e *Engine) Clear(ctx context.Context) (int, error) {
	records, err := e.load(ctx)
	if err != nil {
		return 0, err
	}
	if err := e.rewrite(ctx, nil); err != nil {
		return 0, err
	}
	if err := e.vectors.Clear(); err != nil {
		return 0, err
	}
	return len(records), nil
}
