// Package memory provides an in-process vector store for development and
// tests. It keeps every passage and vector in a slice and scans on search;
// fine for a handful of filings, not a production index.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"asksec/pkg/core/chunk"
	"asksec/pkg/core/index"
)

// Store is a cosine-similarity scan over in-memory vectors.
type Store struct {
	embedder index.Embedder

	mu       sync.RWMutex
	passages map[string]chunk.Passage // by passage id; upsert replaces
	vectors  map[string][]float32
}

var _ index.Store = (*Store)(nil)

// New creates an empty store backed by the given embedder.
func New(embedder index.Embedder) *Store {
	return &Store{
		embedder: embedder,
		passages: make(map[string]chunk.Passage),
		vectors:  make(map[string][]float32),
	}
}

// Upsert embeds and stores the passages, replacing any with the same id.
func (s *Store) Upsert(ctx context.Context, passages []chunk.Passage) error {
	if len(passages) == 0 {
		return nil
	}

	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Content
	}
	vectors, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed passages: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range passages {
		s.passages[p.ID] = p
		s.vectors[p.ID] = vectors[i]
	}
	return nil
}

// Search embeds the query and returns the k nearest passages by cosine
// similarity, honoring exact-match metadata filters.
func (s *Store) Search(ctx context.Context, query string, k int, filter map[string]string) ([]index.ScoredPassage, error) {
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	qv := vectors[0]

	s.mu.RLock()
	defer s.mu.RUnlock()

	results := make([]index.ScoredPassage, 0, len(s.passages))
	for id, p := range s.passages {
		if !matches(p, filter) {
			continue
		}
		results = append(results, index.ScoredPassage{
			Passage: p,
			Score:   cosine(qv, s.vectors[id]),
		})
	}

	sort.SliceStable(results, func(a, b int) bool { return results[a].Score > results[b].Score })
	if k > 0 && len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Companies lists the distinct tickers present in the store, sorted.
func (s *Store) Companies(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	for _, p := range s.passages {
		seen[p.Metadata.Ticker] = true
	}
	tickers := make([]string, 0, len(seen))
	for t := range seen {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers, nil
}

// Len reports the number of stored passages.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.passages)
}

func matches(p chunk.Passage, filter map[string]string) bool {
	for key, want := range filter {
		var got string
		switch key {
		case "ticker":
			got = p.Metadata.Ticker
		case "filing_date":
			got = p.Metadata.FilingDate
		case "item_number":
			got = p.Metadata.ItemNumber
		case "source":
			got = p.Metadata.Source
		default:
			return false
		}
		if got != want {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
