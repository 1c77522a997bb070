// Package mock provides a deterministic embedding provider for tests.
package mock

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"github.com/rcliao/memstore/internal/embedding"
)

// ErrUnavailable is returned while the provider is set to fail.
var ErrUnavailable = errors.New("mock: provider unavailable")

// Provider hashes each word of a text into a fixed number of buckets and
// normalizes the counts, so texts sharing words get similar vectors.
type Provider struct {
	mu    sync.Mutex
	dims  int
	fail  bool
	calls int
	texts []string
}

// New creates a mock provider with 16 dimensions.
func New() *Provider {
	return &Provider{dims: 16}
}

func (p *Provider) Model() string { return "mock-bow-16" }

// SetFail makes subsequent Embed calls fail (or succeed again).
func (p *Provider) SetFail(fail bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail = fail
}

// Calls returns how many Embed calls were made.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// Texts returns every text submitted so far, in order.
func (p *Provider) Texts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.texts...)
}

func (p *Provider) Embed(ctx context.Context, texts []string) ([]embedding.Vector, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.fail {
		return nil, ErrUnavailable
	}
	p.texts = append(p.texts, texts...)

	out := make([]embedding.Vector, len(texts))
	for i, text := range texts {
		out[i] = p.vector(text)
	}
	return out, nil
}

func (p *Provider) vector(text string) embedding.Vector {
	vec := make(embedding.Vector, p.dims)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%uint32(p.dims)]++
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
