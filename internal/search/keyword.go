// Package search ranks memory records: TF-IDF keyword scoring with time
// decay and importance, cosine similarity over stored vectors, and a
// weighted hybrid of the two.
package search

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rcliao/memstore/internal/model"
)

// Scored is a record with its ranking score.
type Scored struct {
	model.Record
	Score float64 `json:"score"`
}

// Ranking is the output of the keyword scorer. Unranked is set when the
// query had no tokens; Results then holds every candidate in input order
// with a zero score, and callers should keep the most recent ones.
type Ranking struct {
	Results  []Scored
	Unranked bool
}

var wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// Tokenize lower-cases text and returns its runs of word characters.
func Tokenize(text string) []string {
	return wordRe.FindAllString(strings.ToLower(text), -1)
}

func document(r model.Record) []string {
	return Tokenize(r.Text + " " + strings.Join(r.Tags, " "))
}

// Keyword ranks candidates against query by
//
//	sum(tf * ln((N+1)/(df+0.5))) * exp(-lambda*days_old) * importance/3
//
// Candidates with no positive TF-IDF score are dropped. Ties keep input
// order. lambda <= 0 disables decay.
func Keyword(query string, candidates []model.Record, now time.Time, lambda float64) Ranking {
	queryTokens := uniq(Tokenize(query))
	if len(queryTokens) == 0 {
		out := make([]Scored, len(candidates))
		for i, r := range candidates {
			out[i] = Scored{Record: r}
		}
		return Ranking{Results: out, Unranked: true}
	}
	if len(candidates) == 0 {
		return Ranking{Results: []Scored{}}
	}

	docs := make([][]string, len(candidates))
	df := map[string]int{}
	for i, r := range candidates {
		docs[i] = document(r)
		for _, t := range uniq(docs[i]) {
			df[t]++
		}
	}
	n := float64(len(candidates))

	out := []Scored{}
	for i, tokens := range docs {
		tf := map[string]int{}
		for _, t := range tokens {
			tf[t]++
		}
		var tfidf float64
		for _, qt := range queryTokens {
			count, inDoc := tf[qt]
			docFreq, inCorpus := df[qt]
			if !inDoc || !inCorpus {
				continue
			}
			tfidf += float64(count) * math.Log((n+1)/(float64(docFreq)+0.5))
		}
		if tfidf <= 0 {
			continue
		}
		r := candidates[i]
		score := tfidf * TimeFactor(r, now, lambda) * ImportanceFactor(r)
		out = append(out, Scored{Record: r, Score: score})
	}

	sortByScore(out)
	return Ranking{Results: out}
}

// TimeFactor is exp(-lambda * days since the record was written).
// An unparseable timestamp counts as brand new.
func TimeFactor(r model.Record, now time.Time, lambda float64) float64 {
	if lambda <= 0 {
		return 1
	}
	days := 0.0
	if t, ok := r.Time(); ok {
		days = now.Sub(t).Seconds() / 86400.0
	}
	return math.Exp(-lambda * days)
}

// ImportanceFactor maps importance 3 to 1.0, 5 to 5/3 and 1 to 1/3.
func ImportanceFactor(r model.Record) float64 {
	imp := r.Importance
	if imp == 0 {
		imp = model.DefaultImportance
	}
	return float64(imp) / 3.0
}

func uniq(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func sortByScore(s []Scored) {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Score > s[j].Score })
}
