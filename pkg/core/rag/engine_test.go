package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"asksec/pkg/core/index"
)

type MockProvider struct {
	GenerateResponseFunc func(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error)
}

func (m *MockProvider) GenerateResponse(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
	if m.GenerateResponseFunc != nil {
		return m.GenerateResponseFunc(ctx, prompt, systemPrompt, options)
	}
	return "mock answer", nil
}

func storeReturning(passages ...index.ScoredPassage) *MockStore {
	return &MockStore{
		SearchFunc: func(ctx context.Context, query string, k int, filter map[string]string) ([]index.ScoredPassage, error) {
			return passages, nil
		},
	}
}

func TestValidateQuestion(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"Valid", "What are the risk factors?", "What are the risk factors?", false},
		{"Trimmed", "  What changed?  ", "What changed?", false},
		{"Empty", "", "", true},
		{"Whitespace only", "   \n\t  ", "", true},
		{"At limit", strings.Repeat("q", 2000), strings.Repeat("q", 2000), false},
		{"Over limit", strings.Repeat("q", 2001), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateQuestion(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"Uppercase passthrough", "AAPL", "AAPL", false},
		{"Lowercase normalized", "aapl", "AAPL", false},
		{"Trimmed", "  msft ", "MSFT", false},
		{"Empty means no filter", "", "", false},
		{"Single letter", "F", "F", false},
		{"Too long", "TOOLONG", "", true},
		{"Digits rejected", "12AB", "", true},
		{"Punctuation rejected", "BRK.B", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeTicker(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAnswerHappyPath(t *testing.T) {
	store := storeReturning(
		scored("AAPL", "Apple Inc.", "2025-01-15", "1A", "Risk Factors", "Supply chain risk.", 0.9),
		scored("AAPL", "Apple Inc.", "2025-01-15", "7", "Management's Discussion and Analysis", "Margins expanded.", 0.8),
	)
	var gotPrompt, gotSystem string
	provider := &MockProvider{
		GenerateResponseFunc: func(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
			gotPrompt = prompt
			gotSystem = systemPrompt
			return "  The filing highlights supply chain risk.  ", nil
		},
	}
	e := NewEngine(store, provider, Options{RetrievalK: 6})

	result, err := e.Answer(context.Background(), "What risks does Apple face?", "aapl", 0)
	if err != nil {
		t.Fatalf("Answer failed: %v", err)
	}

	if result.Answer != "The filing highlights supply chain risk." {
		t.Errorf("answer not trimmed: %q", result.Answer)
	}
	if result.NumSources != 2 {
		t.Errorf("num_sources = %d, want 2", result.NumSources)
	}
	if len(result.Sources) != 2 {
		t.Errorf("expected 2 citations, got %d", len(result.Sources))
	}
	if !strings.Contains(gotPrompt, "[Source 1: Apple Inc. (AAPL)") {
		t.Error("prompt must embed the formatted context block")
	}
	if !strings.Contains(gotPrompt, "What risks does Apple face?") {
		t.Error("prompt must embed the question")
	}
	if gotSystem == "" {
		t.Error("system prompt must come from the template")
	}

	history := e.History()
	if len(history) != 1 || history[0].Answer != result.Answer {
		t.Errorf("history = %+v", history)
	}
}

func TestAnswerGenerationFailureFallsBack(t *testing.T) {
	store := storeReturning(
		scored("AAPL", "Apple Inc.", "2025-01-15", "1A", "Risk Factors", "Supply chain risk.", 0.9),
	)
	provider := &MockProvider{
		GenerateResponseFunc: func(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
			return "", fmt.Errorf("model unavailable")
		},
	}
	e := NewEngine(store, provider, Options{})

	result, err := e.Answer(context.Background(), "What risks does Apple face?", "AAPL", 0)
	if err != nil {
		t.Fatalf("generation failure must not fail the query: %v", err)
	}
	if result.Answer != fallbackAnswer {
		t.Errorf("answer = %q, want the fallback", result.Answer)
	}
	// Retrieval succeeded, so citations survive the fallback.
	if len(result.Sources) != 1 || result.Sources[0].Ticker != "AAPL" {
		t.Errorf("citations lost on fallback: %+v", result.Sources)
	}
	if len(e.History()) != 1 {
		t.Error("fallback answers still belong in the session log")
	}
}

func TestAnswerRetrievalFailurePropagates(t *testing.T) {
	store := &MockStore{
		SearchFunc: func(ctx context.Context, query string, k int, filter map[string]string) ([]index.ScoredPassage, error) {
			return nil, fmt.Errorf("index down")
		},
	}
	providerCalled := false
	provider := &MockProvider{
		GenerateResponseFunc: func(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
			providerCalled = true
			return "", nil
		},
	}
	e := NewEngine(store, provider, Options{})

	result, err := e.Answer(context.Background(), "What risks does Apple face?", "AAPL", 0)
	if err == nil {
		t.Fatal("expected retrieval error to propagate")
	}
	if result != nil {
		t.Errorf("expected nil result, got %+v", result)
	}
	if providerCalled {
		t.Error("generation must not run when retrieval failed")
	}
	if len(e.History()) != 0 {
		t.Error("failed queries must not be logged")
	}
}

func TestAnswerInvalidInputSkipsRetrieval(t *testing.T) {
	searchCalled := false
	store := &MockStore{
		SearchFunc: func(ctx context.Context, query string, k int, filter map[string]string) ([]index.ScoredPassage, error) {
			searchCalled = true
			return nil, nil
		},
	}
	e := NewEngine(store, &MockProvider{}, Options{})

	_, err := e.Answer(context.Background(), "", "AAPL", 0)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	_, err = e.Answer(context.Background(), "valid question", "NOTATICKER", 0)
	if !errors.Is(err, ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for bad ticker, got %v", err)
	}
	if searchCalled {
		t.Error("retrieval must not run on invalid input")
	}
}

func TestAnswerEmptyRetrievalStillAnswers(t *testing.T) {
	e := NewEngine(storeReturning(), &MockProvider{
		GenerateResponseFunc: func(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
			return "I cannot fully answer this question from the available filings.", nil
		},
	}, Options{})

	result, err := e.Answer(context.Background(), "What about an unindexed company?", "", 0)
	if err != nil {
		t.Fatalf("empty retrieval is valid, got error: %v", err)
	}
	if result.NumSources != 0 || len(result.Sources) != 0 {
		t.Errorf("expected no sources, got %+v", result)
	}
}

func TestAnswerUsesDefaultK(t *testing.T) {
	var gotK int
	store := &MockStore{
		SearchFunc: func(ctx context.Context, query string, k int, filter map[string]string) ([]index.ScoredPassage, error) {
			gotK = k
			return nil, nil
		},
	}
	e := NewEngine(store, &MockProvider{}, Options{RetrievalK: 4})

	if _, err := e.Answer(context.Background(), "question", "", 0); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if gotK != 4 {
		t.Errorf("k = %d, want configured default 4", gotK)
	}

	if _, err := e.Answer(context.Background(), "question", "", 9); err != nil {
		t.Fatalf("Answer failed: %v", err)
	}
	if gotK != 9 {
		t.Errorf("k = %d, want caller override 9", gotK)
	}
}

func TestAnswerStructured(t *testing.T) {
	store := storeReturning(
		scored("AAPL", "Apple Inc.", "2025-01-15", "1A", "Risk Factors", "Supply chain risk.", 0.9),
	)
	var gotOptions map[string]interface{}
	provider := &MockProvider{
		GenerateResponseFunc: func(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
			gotOptions = options
			return "```json\n{\"answer\": \"Concentrated supplier base.\", \"confidence\": 0.82, \"follow_up_questions\": [\"Which suppliers?\"]}\n```", nil
		},
	}
	e := NewEngine(store, provider, Options{})

	result, err := e.AnswerStructured(context.Background(), "What risks does Apple face?", "AAPL", 0)
	if err != nil {
		t.Fatalf("AnswerStructured failed: %v", err)
	}
	if result.Answer != "Concentrated supplier base." {
		t.Errorf("answer = %q", result.Answer)
	}
	if result.Confidence != 0.82 {
		t.Errorf("confidence = %f, want 0.82", result.Confidence)
	}
	if len(result.FollowUpQuestions) != 1 || result.FollowUpQuestions[0] != "Which suppliers?" {
		t.Errorf("follow-ups = %v", result.FollowUpQuestions)
	}
	if gotOptions["json"] != true {
		t.Error("structured mode must request JSON output")
	}
	if len(result.Sources) != 1 {
		t.Errorf("expected 1 citation, got %d", len(result.Sources))
	}
}

func TestAnswerStructuredUnparseableDegrades(t *testing.T) {
	store := storeReturning(
		scored("AAPL", "Apple Inc.", "2025-01-15", "1A", "Risk Factors", "Supply chain risk.", 0.9),
	)
	provider := &MockProvider{
		GenerateResponseFunc: func(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
			return "The model ignored the schema and wrote prose.", nil
		},
	}
	e := NewEngine(store, provider, Options{})

	result, err := e.AnswerStructured(context.Background(), "What risks does Apple face?", "AAPL", 0)
	if err != nil {
		t.Fatalf("unparseable output must degrade, not fail: %v", err)
	}
	if result.Answer != "The model ignored the schema and wrote prose." {
		t.Errorf("answer = %q", result.Answer)
	}
	if result.Confidence != 0 {
		t.Errorf("confidence = %f, want 0 when unparsed", result.Confidence)
	}
}

func TestSearchOnly(t *testing.T) {
	store := storeReturning(
		scored("AAPL", "Apple Inc.", "2025-01-15", "1A", "Risk Factors", "Supply chain risk.", 0.91),
	)
	providerCalled := false
	provider := &MockProvider{
		GenerateResponseFunc: func(ctx context.Context, prompt, systemPrompt string, options map[string]interface{}) (string, error) {
			providerCalled = true
			return "", nil
		},
	}
	e := NewEngine(store, provider, Options{})

	hits, err := e.SearchOnly(context.Background(), "supply chain", 0, "aapl")
	if err != nil {
		t.Fatalf("SearchOnly failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	hit := hits[0]
	if hit.Ticker != "AAPL" || hit.Company != "Apple Inc." || hit.Section != "Risk Factors" {
		t.Errorf("hit metadata = %+v", hit)
	}
	if hit.Score != 0.91 {
		t.Errorf("score = %f, want 0.91", hit.Score)
	}
	if providerCalled {
		t.Error("SearchOnly must not generate")
	}
	if len(e.History()) != 0 {
		t.Error("SearchOnly must not touch the session log")
	}
}

func TestHistoryCopyAndClear(t *testing.T) {
	e := NewEngine(storeReturning(), &MockProvider{}, Options{})

	for i := 0; i < 3; i++ {
		if _, err := e.Answer(context.Background(), fmt.Sprintf("question %d", i), "", 0); err != nil {
			t.Fatalf("Answer failed: %v", err)
		}
	}

	history := e.History()
	if len(history) != 3 {
		t.Fatalf("history length = %d, want 3", len(history))
	}
	if history[0].Question != "question 0" || history[2].Question != "question 2" {
		t.Errorf("history order wrong: %+v", history)
	}

	// Mutating the copy must not touch the engine's log.
	history[0].Question = "tampered"
	if e.History()[0].Question != "question 0" {
		t.Error("History must return a copy")
	}

	e.ClearHistory()
	if len(e.History()) != 0 {
		t.Error("ClearHistory must empty the log")
	}
}
