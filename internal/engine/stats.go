package engine

import (
	"context"
	"os"
)

// Stats describes the contents of a store.
type Stats struct {
	Dir            string `json:"dir"`
	Backend        string `json:"backend"`
	LogPath        string `json:"log_path"`
	LogSizeBytes   int64  `json:"log_size_bytes"`
	VectorPath     string `json:"vector_path"`
	VectorBytes    int64  `json:"vector_size_bytes"`
	Records        int    `json:"records"`
	Vectors        int    `json:"vectors"`
	OrphanVectors  int    `json:"orphan_vectors"`
	MissingVectors int    `json:"missing_vectors"`
	VectorsEnabled bool   `json:"vectors_enabled"`
	Model          string `json:"model,omitempty"`
}

// Stats returns record and vector counts for the store.
func (e *Engine) Stats(ctx context.Context) (*Stats, error) {
	records, err := e.load(ctx)
	if err != nil {
		return nil, err
	}
	vecs, err := e.vectors.LoadAll()
	if err != nil {
		return nil, err
	}

	backend := e.cfg.Backend
	if backend == "" {
		backend = "jsonl"
	}
	st := &Stats{
		Dir:            e.cfg.StoreDir,
		Backend:        backend,
		LogPath:        e.log.Path(),
		LogSizeBytes:   fileSize(e.log.Path()),
		VectorPath:     e.vectors.Path(),
		VectorBytes:    fileSize(e.vectors.Path()),
		Records:        len(records),
		Vectors:        len(vecs),
		VectorsEnabled: e.vectors.Enabled(),
	}
	if e.provider != nil {
		st.Model = e.provider.Model()
	}

	ids := make(map[string]struct{}, len(records))
	for _, r := range records {
		ids[r.ID] = struct{}{}
		if _, ok := vecs[r.ID]; !ok {
			st.MissingVectors++
		}
	}
	for id := range vecs {
		if _, ok := ids[id]; !ok {
			st.OrphanVectors++
		}
	}
	return st, nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
