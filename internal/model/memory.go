// Package model defines the core memory data types.
package model

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	MinImportance     = 1
	MaxImportance     = 5
	DefaultImportance = 3
)

// Record is one stored memory.
type Record struct {
	ID         string            `json:"id" yaml:"id"`
	Timestamp  string            `json:"timestamp" yaml:"timestamp"`
	Text       string            `json:"text" yaml:"text"`
	Tags       []string          `json:"tags" yaml:"tags"`
	Metadata   map[string]string `json:"metadata" yaml:"metadata"`
	Importance int               `json:"importance" yaml:"importance"`
}

// VectorEntry is one line of the vector index. Values are kept as
// float64 so rewriting an index written by another tool is lossless.
type VectorEntry struct {
	ID     string    `json:"id"`
	Vector []float64 `json:"vector"`
}

// Time parses the record timestamp. ok is false when it cannot be parsed.
func (r Record) Time() (t time.Time, ok bool) {
	t, err := time.Parse(time.RFC3339Nano, r.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// HasTag reports whether the record carries tag.
func (r Record) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Normalize fills defaults for fields older logs may omit.
func (r *Record) Normalize() {
	if r.Tags == nil {
		r.Tags = []string{}
	}
	if r.Metadata == nil {
		r.Metadata = map[string]string{}
	}
	if r.Importance == 0 {
		r.Importance = DefaultImportance
	}
	r.Importance = ClampImportance(r.Importance)
}

// ClampImportance forces v into [MinImportance, MaxImportance].
func ClampImportance(v int) int {
	if v < MinImportance {
		return MinImportance
	}
	if v > MaxImportance {
		return MaxImportance
	}
	return v
}

// NormalizeTags dedups and sorts tags, dropping blanks.
func NormalizeTags(tags []string) []string {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		set[t] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

var (
	entropyMu sync.Mutex
	entropy   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// NewID returns a fresh lower-case ULID.
func NewID(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return strings.ToLower(ulid.MustNew(ulid.Timestamp(now), entropy).String())
}

// FormatTimestamp renders t the way records store it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
