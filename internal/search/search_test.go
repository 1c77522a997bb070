package search

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/memstore/internal/embedding"
	"github.com/rcliao/memstore/internal/model"
)

var now = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func mem(id, text string, daysAgo float64, importance int, tags ...string) model.Record {
	ts := now.Add(-time.Duration(daysAgo * 24 * float64(time.Hour)))
	return model.Record{
		ID:         id,
		Timestamp:  model.FormatTimestamp(ts),
		Text:       text,
		Tags:       tags,
		Importance: importance,
	}
}

func filler() model.Record {
	return mem("filler", "completely unrelated filler content about weather and cooking", 0, 3)
}

func ids(s []Scored) []string {
	out := make([]string, len(s))
	for i, r := range s {
		out[i] = r.ID
	}
	return out
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world", "go_lang", "42"}, Tokenize("Hello, WORLD! go_lang 42"))
	assert.Equal(t, []string{"café", "über"}, Tokenize("Café Über"))
	assert.Empty(t, Tokenize("?! ..."))
}

func TestKeyword_RecentRanksHigher(t *testing.T) {
	candidates := []model.Record{
		filler(),
		mem("old", "python programming tips", 100, 3),
		mem("new", "python programming tips", 0, 3),
	}

	got := Keyword("python programming", candidates, now, 0.05)
	require.False(t, got.Unranked)
	assert.Equal(t, []string{"new", "old"}, ids(got.Results))
}

func TestKeyword_DecayDisabled(t *testing.T) {
	candidates := []model.Record{
		filler(),
		mem("old", "unique alpha keyword", 100, 3),
		mem("new", "unique alpha keyword", 0, 3),
	}

	got := Keyword("unique alpha keyword", candidates, now, 0)
	require.Len(t, got.Results, 2)
	assert.Equal(t, got.Results[0].Score, got.Results[1].Score)
	// Ties keep input order.
	assert.Equal(t, []string{"old", "new"}, ids(got.Results))
}

func TestKeyword_ImportanceRanksHigher(t *testing.T) {
	candidates := []model.Record{
		filler(),
		mem("low", "database optimization guide", 0, 1),
		mem("high", "database optimization guide", 0, 5),
	}

	got := Keyword("database optimization", candidates, now, 0.05)
	require.Len(t, got.Results, 2)
	assert.Equal(t, []string{"high", "low"}, ids(got.Results))
	assert.InDelta(t, 5.0, got.Results[0].Score/got.Results[1].Score, 1e-9)
}

func TestKeyword_ImportanceCanOvercomeRecency(t *testing.T) {
	candidates := []model.Record{
		filler(),
		mem("important", "critical security alert", 10, 5),
		mem("recent", "critical security alert", 0, 1),
	}

	got := Keyword("critical security alert", candidates, now, 0.05)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "important", got.Results[0].ID)
}

func TestKeyword_TagsAreSearchable(t *testing.T) {
	candidates := []model.Record{
		filler(),
		mem("tagged", "deploy notes", 0, 3, "kubernetes"),
	}

	got := Keyword("kubernetes", candidates, now, 0.01)
	assert.Equal(t, []string{"tagged"}, ids(got.Results))
}

func TestKeyword_ScoreFormula(t *testing.T) {
	candidates := []model.Record{
		filler(),
		mem("a", "go go rust", 2, 4),
	}

	got := Keyword("go", candidates, now, 0.1)
	require.Len(t, got.Results, 1)
	want := 2 * math.Log(3/1.5) * math.Exp(-0.1*2) * (4.0 / 3.0)
	assert.InDelta(t, want, got.Results[0].Score, 1e-9)
}

func TestKeyword_NoMatches(t *testing.T) {
	got := Keyword("javascript", []model.Record{filler()}, now, 0.01)
	assert.False(t, got.Unranked)
	assert.Empty(t, got.Results)
}

func TestKeyword_EmptyCandidates(t *testing.T) {
	got := Keyword("anything", nil, now, 0.01)
	assert.Empty(t, got.Results)
}

func TestKeyword_EmptyQueryReturnsAllInOrder(t *testing.T) {
	candidates := []model.Record{mem("a", "x", 0, 3), mem("b", "y", 0, 3)}

	got := Keyword("  ?! ", candidates, now, 0.01)
	assert.True(t, got.Unranked)
	assert.Equal(t, []string{"a", "b"}, ids(got.Results))
}

func TestTimeFactor(t *testing.T) {
	r := mem("a", "x", 10, 3)
	assert.Equal(t, 1.0, TimeFactor(r, now, 0))
	assert.InDelta(t, math.Exp(-0.5), TimeFactor(r, now, 0.05), 1e-9)

	r.Timestamp = "not a time"
	assert.Equal(t, 1.0, TimeFactor(r, now, 0.05))
}

func TestImportanceFactor(t *testing.T) {
	assert.Equal(t, 1.0, ImportanceFactor(model.Record{Importance: 3}))
	assert.InDelta(t, 5.0/3.0, ImportanceFactor(model.Record{Importance: 5}), 1e-12)
	assert.InDelta(t, 1.0/3.0, ImportanceFactor(model.Record{Importance: 1}), 1e-12)
	assert.Equal(t, 1.0, ImportanceFactor(model.Record{}))
}

func TestVector_RanksByCosine(t *testing.T) {
	candidates := []model.Record{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "none"}}
	vectors := map[string]embedding.Vector{
		"a": {0, 1},
		"b": {1, 0},
		"c": {-1, 0},
		"x": {1, 1},
	}

	got := Vector(embedding.Vector{1, 0}, candidates, vectors)
	assert.Equal(t, []string{"b", "a", "c"}, ids(got))
	assert.InDelta(t, 1.0, got[0].Score, 1e-9)
	assert.InDelta(t, -1.0, got[2].Score, 1e-9, "negative similarities are kept")
}

func TestVector_EmptyQuery(t *testing.T) {
	got := Vector(nil, []model.Record{{ID: "a"}}, map[string]embedding.Vector{"a": {1}})
	assert.Empty(t, got)
}

func TestHybrid(t *testing.T) {
	candidates := []model.Record{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	keyword := []Scored{{Record: model.Record{ID: "a"}}, {Record: model.Record{ID: "b"}}}
	vec := []Scored{
		{Record: model.Record{ID: "c"}, Score: 0.9},
		{Record: model.Record{ID: "b"}, Score: 0.5},
		{Record: model.Record{ID: "d"}, Score: -0.8},
	}

	got := Hybrid(keyword, vec, candidates)

	// a: 0.4*1.0 = 0.4, b: 0.4*0.5 + 0.6*0.5 = 0.5, c: 0.6*0.9 = 0.54, d: negative.
	assert.Equal(t, []string{"c", "b", "a"}, ids(got))
	assert.InDelta(t, 0.54, got[0].Score, 1e-9)
	assert.InDelta(t, 0.5, got[1].Score, 1e-9)
	assert.InDelta(t, 0.4, got[2].Score, 1e-9)
	for _, s := range got {
		assert.Greater(t, s.Score, 0.0)
	}
}

func TestHybrid_KeywordOnly(t *testing.T) {
	candidates := []model.Record{{ID: "a"}, {ID: "b"}}
	keyword := []Scored{{Record: model.Record{ID: "b"}}}

	got := Hybrid(keyword, nil, candidates)
	assert.Equal(t, []string{"b"}, ids(got))
}
