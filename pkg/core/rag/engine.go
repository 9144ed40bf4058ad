package rag

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"asksec/pkg/core/index"
	"asksec/pkg/core/llm"
	"asksec/pkg/core/prompt"
	"asksec/pkg/core/utils"
)

const (
	// maxQuestionChars bounds caller questions; anything longer is rejected
	// before retrieval.
	maxQuestionChars = 2000

	// fallbackAnswer replaces the answer when generation fails. Retrieval
	// already succeeded at that point, so citations are still returned.
	fallbackAnswer = "I apologize, but I was unable to generate an answer for this question. " +
		"Please review the cited filing excerpts directly."
)

var tickerRe = regexp.MustCompile(`^[A-Z]{1,5}$`)

// Options configures an Engine.
type Options struct {
	RetrievalK      int    // default number of passages per query (e.g. 6)
	GenerationModel string // passed through to the provider
}

// Exchange is one question/answer pair in the session log.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QueryResult is the structured response for one query.
type QueryResult struct {
	Answer     string     `json:"answer"`
	Sources    []Citation `json:"sources"`
	NumSources int        `json:"num_sources"`
}

// StructuredResult extends QueryResult with model-reported confidence and
// follow-up suggestions, available in structured answer mode.
type StructuredResult struct {
	QueryResult
	Confidence        float64  `json:"confidence"`
	FollowUpQuestions []string `json:"follow_up_questions,omitempty"`
}

// SearchHit is one retrieval-only result from SearchOnly.
type SearchHit struct {
	Content    string  `json:"content"`
	Ticker     string  `json:"ticker"`
	Company    string  `json:"company"`
	FilingDate string  `json:"filing_date"`
	Section    string  `json:"section"`
	Score      float64 `json:"score"`
}

// Engine answers questions against the indexed filing corpus. It holds one
// piece of mutable state, the conversation log, and assumes single-threaded
// use per instance; callers sharing an Engine across goroutines must
// serialize access themselves.
type Engine struct {
	retriever *Retriever
	provider  llm.Provider
	prompts   *prompt.Registry
	opts      Options
	history   []Exchange
}

// NewEngine builds an engine over an index store and a generation provider.
func NewEngine(store index.Store, provider llm.Provider, opts Options) *Engine {
	if opts.RetrievalK <= 0 {
		opts.RetrievalK = 6
	}
	return &Engine{
		retriever: NewRetriever(store),
		provider:  provider,
		prompts:   prompt.Get(),
		opts:      opts,
	}
}

// ValidateQuestion rejects blank or oversized questions. The returned
// question is trimmed.
func ValidateQuestion(question string) (string, error) {
	q := strings.TrimSpace(question)
	if q == "" {
		return "", invalidInputf("question is empty")
	}
	if len(q) > maxQuestionChars {
		return "", invalidInputf("question exceeds %d characters (got %d)", maxQuestionChars, len(q))
	}
	return q, nil
}

// NormalizeTicker validates an optional ticker filter. Lowercase input is
// normalized, not rejected; an empty string means no filter.
func NormalizeTicker(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return "", nil
	}
	if !tickerRe.MatchString(t) {
		return "", invalidInputf("ticker %q must be 1-5 letters", ticker)
	}
	return t, nil
}

// Answer runs the full query flow: validate, retrieve, format context,
// generate, log. Generation failure degrades to a fixed fallback answer
// while keeping the citations; retrieval failure propagates, since without
// retrieval there is no basis for any answer.
func (e *Engine) Answer(ctx context.Context, question string, ticker string, k int) (*QueryResult, error) {
	question, ticker, passages, err := e.prepare(ctx, question, ticker, k)
	if err != nil {
		return nil, err
	}

	answer := e.generate(ctx, prompt.AnalystQA, question, passages)

	e.history = append(e.history, Exchange{Question: question, Answer: answer})

	return &QueryResult{
		Answer:     answer,
		Sources:    BuildCitations(passages),
		NumSources: len(passages),
	}, nil
}

// AnswerStructured is Answer with the model asked for a JSON object carrying
// confidence and follow-up suggestions. Unparseable model output degrades to
// the raw text with zero confidence rather than failing the query.
func (e *Engine) AnswerStructured(ctx context.Context, question string, ticker string, k int) (*StructuredResult, error) {
	question, ticker, passages, err := e.prepare(ctx, question, ticker, k)
	if err != nil {
		return nil, err
	}

	raw := e.generateRaw(ctx, prompt.StructuredQA, question, passages, true)

	result := &StructuredResult{}
	if raw == "" {
		result.Answer = fallbackAnswer
	} else {
		var parsed struct {
			Answer            string   `json:"answer"`
			Confidence        float64  `json:"confidence"`
			FollowUpQuestions []string `json:"follow_up_questions"`
		}
		if err := utils.ParseModelJSON(raw, &parsed); err == nil && parsed.Answer != "" {
			result.Answer = parsed.Answer
			result.Confidence = parsed.Confidence
			result.FollowUpQuestions = parsed.FollowUpQuestions
		} else {
			result.Answer = utils.CleanMarkdown(raw)
		}
	}

	e.history = append(e.history, Exchange{Question: question, Answer: result.Answer})

	result.Sources = BuildCitations(passages)
	result.NumSources = len(passages)
	return result, nil
}

// SearchOnly retrieves without generating, useful for debugging retrieval
// quality.
func (e *Engine) SearchOnly(ctx context.Context, query string, k int, ticker string) ([]SearchHit, error) {
	query, err := ValidateQuestion(query)
	if err != nil {
		return nil, err
	}
	ticker, err = NormalizeTicker(ticker)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		k = e.opts.RetrievalK
	}

	passages, err := e.retriever.Retrieve(ctx, query, k, ticker)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHit, 0, len(passages))
	for _, sp := range passages {
		m := sp.Passage.Metadata
		hits = append(hits, SearchHit{
			Content:    sp.Passage.Content,
			Ticker:     m.Ticker,
			Company:    m.CompanyName,
			FilingDate: m.FilingDate,
			Section:    m.ItemTitle,
			Score:      sp.Score,
		})
	}
	return hits, nil
}

// History returns a copy of the session log.
func (e *Engine) History() []Exchange {
	out := make([]Exchange, len(e.history))
	copy(out, e.history)
	return out
}

// ClearHistory empties the session log.
func (e *Engine) ClearHistory() {
	e.history = nil
}

// prepare validates inputs and runs retrieval.
func (e *Engine) prepare(ctx context.Context, question, ticker string, k int) (string, string, []index.ScoredPassage, error) {
	question, err := ValidateQuestion(question)
	if err != nil {
		return "", "", nil, err
	}
	ticker, err = NormalizeTicker(ticker)
	if err != nil {
		return "", "", nil, err
	}
	if k <= 0 {
		k = e.opts.RetrievalK
	}

	passages, err := e.retriever.Retrieve(ctx, question, k, ticker)
	if err != nil {
		return "", "", nil, err
	}
	return question, ticker, passages, nil
}

// generate renders the prompt and calls the provider, substituting the
// fallback answer on failure.
func (e *Engine) generate(ctx context.Context, promptID, question string, passages []index.ScoredPassage) string {
	answer := e.generateRaw(ctx, promptID, question, passages, false)
	if answer == "" {
		return fallbackAnswer
	}
	return strings.TrimSpace(answer)
}

func (e *Engine) generateRaw(ctx context.Context, promptID, question string, passages []index.ScoredPassage, jsonMode bool) string {
	tmpl := e.prompts.MustLookup(promptID)
	userPrompt := tmpl.MustRender(map[string]interface{}{
		"Context":  FormatContext(passages),
		"Question": question,
	})

	options := map[string]interface{}{}
	if e.opts.GenerationModel != "" {
		options["model"] = e.opts.GenerationModel
	}
	if jsonMode {
		options["json"] = true
	}

	answer, err := e.provider.GenerateResponse(ctx, userPrompt, tmpl.SystemPrompt, options)
	if err != nil {
		fmt.Printf("[rag] Generation failed, returning fallback answer: %v\n", err)
		return ""
	}
	return answer
}
