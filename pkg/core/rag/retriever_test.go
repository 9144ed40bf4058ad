package rag

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"asksec/pkg/core/chunk"
	"asksec/pkg/core/index"
)

// --- Mocks ---

type MockStore struct {
	UpsertFunc    func(ctx context.Context, passages []chunk.Passage) error
	SearchFunc    func(ctx context.Context, query string, k int, filter map[string]string) ([]index.ScoredPassage, error)
	CompaniesFunc func(ctx context.Context) ([]string, error)
}

func (m *MockStore) Upsert(ctx context.Context, passages []chunk.Passage) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, passages)
	}
	return nil
}

func (m *MockStore) Search(ctx context.Context, query string, k int, filter map[string]string) ([]index.ScoredPassage, error) {
	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, k, filter)
	}
	return nil, nil
}

func (m *MockStore) Companies(ctx context.Context) ([]string, error) {
	if m.CompaniesFunc != nil {
		return m.CompaniesFunc(ctx)
	}
	return nil, nil
}

func scored(ticker, company, date, item, title, content string, score float64) index.ScoredPassage {
	return index.ScoredPassage{
		Passage: chunk.Passage{
			ID:      chunk.PassageID(ticker, item, 0),
			Content: content,
			Metadata: chunk.Metadata{
				Ticker:      ticker,
				CompanyName: company,
				FilingDate:  date,
				ItemNumber:  item,
				ItemTitle:   title,
			},
		},
		Score: score,
	}
}

// --- Tests ---

func TestRetrieveTickerFilter(t *testing.T) {
	var gotFilter map[string]string
	var gotK int
	store := &MockStore{
		SearchFunc: func(ctx context.Context, query string, k int, filter map[string]string) ([]index.ScoredPassage, error) {
			gotFilter = filter
			gotK = k
			return nil, nil
		},
	}
	r := NewRetriever(store)

	if _, err := r.Retrieve(context.Background(), "revenue", 6, "AAPL"); err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if gotK != 6 {
		t.Errorf("k = %d, want 6", gotK)
	}
	if gotFilter == nil || gotFilter["ticker"] != "AAPL" {
		t.Errorf("filter = %v, want ticker filter", gotFilter)
	}

	if _, err := r.Retrieve(context.Background(), "revenue", 6, ""); err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if gotFilter != nil {
		t.Errorf("empty ticker must mean no filter, got %v", gotFilter)
	}
}

func TestRetrieveEmptyResultIsNotAnError(t *testing.T) {
	r := NewRetriever(&MockStore{})
	results, err := r.Retrieve(context.Background(), "no such topic", 6, "")
	if err != nil {
		t.Fatalf("empty result must not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestRetrieveStoreErrorWrapped(t *testing.T) {
	store := &MockStore{
		SearchFunc: func(ctx context.Context, query string, k int, filter map[string]string) ([]index.ScoredPassage, error) {
			return nil, fmt.Errorf("connection refused")
		},
	}
	_, err := NewRetriever(store).Retrieve(context.Background(), "revenue", 6, "")
	if err == nil || !strings.Contains(err.Error(), "retrieval failed") {
		t.Errorf("expected wrapped retrieval error, got %v", err)
	}
}

func TestFormatContext(t *testing.T) {
	passages := []index.ScoredPassage{
		scored("AAPL", "Apple Inc.", "2025-01-15", "1A", "Risk Factors", "Supply chain risk.", 0.9),
		scored("MSFT", "Microsoft Corporation", "2024-07-30", "7", "Management's Discussion and Analysis", "Cloud revenue grew.", 0.8),
	}

	got := FormatContext(passages)
	want := "[Source 1: Apple Inc. (AAPL), Filed: 2025-01-15, Section: Risk Factors]\n" +
		"Supply chain risk." +
		"\n\n---\n\n" +
		"[Source 2: Microsoft Corporation (MSFT), Filed: 2024-07-30, Section: Management's Discussion and Analysis]\n" +
		"Cloud revenue grew."
	if got != want {
		t.Errorf("context block mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatContextEmpty(t *testing.T) {
	if got := FormatContext(nil); got != "" {
		t.Errorf("expected empty context, got %q", got)
	}
}

func TestBuildCitationsDedup(t *testing.T) {
	// Three passages from the same (ticker, date, section) collapse into one
	// citation carrying the highest-ranked excerpt.
	passages := []index.ScoredPassage{
		scored("AAPL", "Apple Inc.", "2025-01-15", "1A", "Risk Factors", "First-ranked excerpt.", 0.95),
		scored("AAPL", "Apple Inc.", "2025-01-15", "1A", "Risk Factors", "Second-ranked excerpt.", 0.90),
		scored("MSFT", "Microsoft Corporation", "2024-07-30", "7", "Management's Discussion and Analysis", "Cloud revenue grew.", 0.85),
		scored("AAPL", "Apple Inc.", "2025-01-15", "1A", "Risk Factors", "Third-ranked excerpt.", 0.80),
		scored("AAPL", "Apple Inc.", "2024-01-20", "1A", "Risk Factors", "Prior year risk.", 0.75),
	}

	citations := BuildCitations(passages)
	if len(citations) != 3 {
		t.Fatalf("expected 3 citations, got %d: %+v", len(citations), citations)
	}
	if citations[0].Excerpt != "First-ranked excerpt." {
		t.Errorf("deduped citation must keep the highest-ranked excerpt, got %q", citations[0].Excerpt)
	}
	if citations[1].Ticker != "MSFT" {
		t.Errorf("citation order must follow retrieval rank, got %+v", citations[1])
	}
	// Same section, different filing date: a distinct source.
	if citations[2].FilingDate != "2024-01-20" {
		t.Errorf("different filing dates must not be collapsed, got %+v", citations[2])
	}
}

func TestBuildCitationsExcerptTruncation(t *testing.T) {
	long := strings.Repeat("r", 450)
	citations := BuildCitations([]index.ScoredPassage{
		scored("AAPL", "Apple Inc.", "2025-01-15", "1A", "Risk Factors", long, 0.9),
	})
	if len(citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(citations))
	}
	excerpt := citations[0].Excerpt
	if len(excerpt) != excerptLimit+3 {
		t.Errorf("excerpt length = %d, want %d", len(excerpt), excerptLimit+3)
	}
	if !strings.HasSuffix(excerpt, "...") {
		t.Errorf("truncated excerpt must end with ellipsis, got %q", excerpt[len(excerpt)-10:])
	}
}
