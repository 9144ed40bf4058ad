// Package rag connects retrieval over the filing index with answer
// generation. The Retriever owns the query/filter/dedup contract against the
// index; the Engine orchestrates validation, prompting and the session log.
package rag

import (
	"context"
	"fmt"
	"strings"

	"asksec/pkg/core/index"
)

// Citation is the deduplicated provenance record shown to the user next to
// a generated answer. One citation per distinct (ticker, filing date,
// section), regardless of how many passages that source contributed.
type Citation struct {
	Ticker     string `json:"ticker"`
	Company    string `json:"company"`
	FilingDate string `json:"filing_date"`
	Section    string `json:"section"`
	Excerpt    string `json:"excerpt"`
}

const excerptLimit = 200

// Retriever issues similarity queries against the external index.
type Retriever struct {
	store index.Store
}

// NewRetriever wraps an index store.
func NewRetriever(store index.Store) *Retriever {
	return &Retriever{store: store}
}

// Retrieve returns up to k passages ranked most-to-least relevant. A
// non-empty ticker becomes an exact-match metadata filter. An empty result
// means nothing matched; it is not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int, ticker string) ([]index.ScoredPassage, error) {
	var filter map[string]string
	if ticker != "" {
		filter = map[string]string{"ticker": ticker}
	}
	results, err := r.store.Search(ctx, query, k, filter)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}
	return results, nil
}

// FormatContext renders retrieved passages into the context block handed to
// the generation model. Retrieval order is preserved; the model weighs
// earlier sources more heavily.
func FormatContext(passages []index.ScoredPassage) string {
	blocks := make([]string, 0, len(passages))
	for i, sp := range passages {
		m := sp.Passage.Metadata
		blocks = append(blocks, fmt.Sprintf(
			"[Source %d: %s (%s), Filed: %s, Section: %s]\n%s",
			i+1, m.CompanyName, m.Ticker, m.FilingDate, m.ItemTitle, sp.Passage.Content,
		))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// BuildCitations deduplicates passages by (ticker, filing date, item number)
// keeping the highest-ranked passage's excerpt per source. The full passage
// set still feeds FormatContext; only the user-facing source list is
// collapsed.
func BuildCitations(passages []index.ScoredPassage) []Citation {
	type sourceKey struct {
		ticker, filingDate, itemNumber string
	}
	seen := make(map[sourceKey]bool, len(passages))

	var citations []Citation
	for _, sp := range passages {
		m := sp.Passage.Metadata
		key := sourceKey{m.Ticker, m.FilingDate, m.ItemNumber}
		if seen[key] {
			continue
		}
		seen[key] = true

		excerpt := sp.Passage.Content
		if len(excerpt) > excerptLimit {
			excerpt = excerpt[:excerptLimit] + "..."
		}
		citations = append(citations, Citation{
			Ticker:     m.Ticker,
			Company:    m.CompanyName,
			FilingDate: m.FilingDate,
			Section:    m.ItemTitle,
			Excerpt:    excerpt,
		})
	}
	return citations
}
