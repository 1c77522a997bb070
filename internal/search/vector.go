package search

import (
	"github.com/rcliao/memstore/internal/embedding"
	"github.com/rcliao/memstore/internal/model"
)

const (
	HybridKeywordWeight = 0.4
	HybridVectorWeight  = 0.6
)

// Vector ranks candidates by cosine similarity to query. Candidates
// without a stored vector are left out; no minimum similarity applies.
func Vector(query embedding.Vector, candidates []model.Record, vectors map[string]embedding.Vector) []Scored {
	out := []Scored{}
	if len(query) == 0 {
		return out
	}
	for _, r := range candidates {
		vec, ok := vectors[r.ID]
		if !ok || len(vec) == 0 {
			continue
		}
		out = append(out, Scored{Record: r, Score: embedding.CosineSimilarity(query, vec)})
	}
	sortByScore(out)
	return out
}

// Hybrid blends a keyword ranking and vector scores over candidates:
// 0.4 * (1 - rank/len(keyword)) + 0.6 * cosine. Records missing from
// either side contribute 0 for it. Only positive blends are returned.
func Hybrid(keyword []Scored, vector []Scored, candidates []model.Record) []Scored {
	kw := make(map[string]float64, len(keyword))
	for rank, s := range keyword {
		kw[s.ID] = 1.0 - float64(rank)/float64(len(keyword))
	}
	vs := make(map[string]float64, len(vector))
	for _, s := range vector {
		vs[s.ID] = s.Score
	}

	out := []Scored{}
	for _, r := range candidates {
		score := HybridKeywordWeight*kw[r.ID] + HybridVectorWeight*vs[r.ID]
		if score > 0 {
			out = append(out, Scored{Record: r, Score: score})
		}
	}
	sortByScore(out)
	return out
}
