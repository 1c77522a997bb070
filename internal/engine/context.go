package engine

import (
	"context"
	"math"
	"unicode/utf8"
)

const (
	DefaultContextBudget = 4000 // tokens
	contextCandidates    = 50
	minExcerptChars      = 100
)

// ContextParams holds parameters for context assembly.
type ContextParams struct {
	Query  string
	Tag    string
	Mode   string
	Budget int // max tokens in output (rough proxy: 1 token ≈ 4 chars)
}

// ContextMemory is one packed record.
type ContextMemory struct {
	ID      string   `json:"id"`
	Tags    []string `json:"tags"`
	Text    string   `json:"text"`
	Score   float64  `json:"score"`
	Excerpt bool     `json:"excerpt,omitempty"`
}

// ContextResult is the assembled context response.
type ContextResult struct {
	Budget   int             `json:"budget"`
	Used     int             `json:"used"`
	Mode     string          `json:"mode"`
	Memories []ContextMemory `json:"memories"`
}

// Context searches for query and packs the best results, in rank order,
// into the budget. The first record that does not fit is cut to an
// excerpt if at least 100 chars remain; packing stops there.
func (e *Engine) Context(ctx context.Context, p ContextParams) (*ContextResult, error) {
	budget := p.Budget
	if budget <= 0 {
		budget = DefaultContextBudget
	}
	charBudget := budget * 4

	res, err := e.Search(ctx, SearchParams{
		Query: p.Query,
		Tag:   p.Tag,
		Mode:  p.Mode,
		Limit: contextCandidates,
	})
	if err != nil {
		return nil, err
	}

	out := &ContextResult{Budget: budget, Mode: string(res.Mode), Memories: []ContextMemory{}}
	used := 0
	for _, s := range res.Results {
		cm := ContextMemory{
			ID:    s.ID,
			Tags:  s.Tags,
			Text:  s.Text,
			Score: math.Round(s.Score*100) / 100,
		}
		if used+len(s.Text) <= charBudget {
			out.Memories = append(out.Memories, cm)
			used += len(s.Text)
			continue
		}
		if remaining := charBudget - used; remaining >= minExcerptChars {
			cut := remaining
			for cut > 0 && !utf8.RuneStart(s.Text[cut]) {
				cut--
			}
			cm.Text = s.Text[:cut] + "..."
			cm.Excerpt = true
			out.Memories = append(out.Memories, cm)
			used += cut
		}
		break
	}

	out.Used = used / 4
	return out, nil
}
