// Package index defines the contract with the external vector index. The
// core never computes similarity in the query path; it hands passages to a
// Store for persistence and asks it ranked questions back.
package index

import (
	"context"

	"asksec/pkg/core/chunk"
)

// ScoredPassage is one ranked search hit.
type ScoredPassage struct {
	Passage chunk.Passage
	Score   float64
}

// Store is implemented by vector index adapters. Search returns passages
// ranked most-to-least relevant, at most k of them; filter, when non-nil,
// restricts results to exact metadata matches (e.g. {"ticker": "AAPL"}).
// An empty result is a valid outcome, not an error.
type Store interface {
	Upsert(ctx context.Context, passages []chunk.Passage) error
	Search(ctx context.Context, query string, k int, filter map[string]string) ([]ScoredPassage, error)
	Companies(ctx context.Context) ([]string, error)
}

// Embedder converts text into vectors for index adapters that need them.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}
