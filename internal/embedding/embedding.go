// Package embedding provides the text embedding collaborator used by the
// vector index, backed by any OpenAI-compatible embeddings API.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

const (
	DefaultModel   = "text-embedding-3-small"
	DefaultTimeout = 30 * time.Second
)

// ErrDisabled is returned when no endpoint or credential is configured.
var ErrDisabled = errors.New("embedding provider not configured")

// Vector is a float32 embedding vector.
type Vector = []float32

// Provider turns texts into vectors. The result has one vector per input,
// in input order, or an error.
type Provider interface {
	Embed(ctx context.Context, texts []string) ([]Vector, error)
	Model() string
}

// Config locates an OpenAI-compatible embeddings endpoint.
type Config struct {
	APIBase string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Enabled reports whether both endpoint and credential are set.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.APIBase) != "" && strings.TrimSpace(c.APIKey) != ""
}

// CosineSimilarity computes cosine similarity between two vectors.
// Mismatched lengths or a zero norm yield 0.
func CosineSimilarity(a, b Vector) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// OpenAIProvider calls POST {api_base}/embeddings once per Embed, with a
// fixed timeout and no retries.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIProvider creates a provider from cfg.
func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	config := openai.DefaultConfig(cfg.APIKey)
	config.BaseURL = strings.TrimRight(cfg.APIBase, "/")
	config.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &OpenAIProvider{
		client:  openai.NewClientWithConfig(config),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

func (p *OpenAIProvider) Model() string { return p.model }

func (p *OpenAIProvider) Embed(ctx context.Context, texts []string) ([]Vector, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(p.model),
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("embeddings request failed: %w", err)
	}
	return orderByIndex(resp.Data, len(texts))
}

// orderByIndex sorts provider rows by their declared index and checks
// they line up one-to-one with the request.
func orderByIndex(data []openai.Embedding, want int) ([]Vector, error) {
	if len(data) != want {
		return nil, fmt.Errorf("embeddings response has %d items, want %d", len(data), want)
	}
	sorted := make([]openai.Embedding, len(data))
	copy(sorted, data)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Index < sorted[j].Index })

	out := make([]Vector, len(sorted))
	for i, d := range sorted {
		if d.Index != i {
			return nil, fmt.Errorf("embeddings response index %d at position %d", d.Index, i)
		}
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("empty embedding at index %d", i)
		}
		out[i] = d.Embedding
	}
	return out, nil
}
