// Package qdrant is a minimal REST adapter to a Qdrant collection. It
// assumes cosine distance and creates the collection on first use.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/google/uuid"

	"asksec/pkg/core/chunk"
	"asksec/pkg/core/index"
)

// Config holds connection details for a Qdrant instance.
type Config struct {
	URL        string
	APIKey     string
	Collection string
	Timeout    time.Duration
}

// Store implements index.Store against Qdrant's HTTP API.
type Store struct {
	cfg      Config
	embedder index.Embedder
	client   *http.Client

	created bool
}

var _ index.Store = (*Store)(nil)

// New creates a Qdrant-backed store. Vectors come from the embedder; the
// collection is created lazily on the first upsert once the vector dimension
// is known.
func New(cfg Config, embedder index.Embedder) *Store {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Store{
		cfg:      cfg,
		embedder: embedder,
		client:   &http.Client{Timeout: timeout},
	}
}

// pointID derives a deterministic UUID from the passage id, so re-indexing
// the same passage overwrites rather than duplicates.
func pointID(passageID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(passageID)).String()
}

func (s *Store) ensureCollection(ctx context.Context, dimension int) error {
	if s.created {
		return nil
	}
	body := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": "Cosine",
		},
	}
	// Qdrant returns 200 if the collection already exists with the same schema.
	if err := s.putJSON(ctx, fmt.Sprintf("%s/collections/%s", s.cfg.URL, s.cfg.Collection), body, nil); err != nil {
		return err
	}
	s.created = true
	return nil
}

// Upsert embeds the passages and writes them as points whose payload carries
// the content and full metadata.
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
	if err := s.ensureCollection(ctx, len(vectors[0])); err != nil {
		return fmt.Errorf("failed to ensure collection: %w", err)
	}

	points := make([]map[string]any, len(passages))
	for i, p := range passages {
		points[i] = map[string]any{
			"id":     pointID(p.ID),
			"vector": vectors[i],
			"payload": map[string]any{
				"passage_id":     p.ID,
				"content":        p.Content,
				"ticker":         p.Metadata.Ticker,
				"company_name":   p.Metadata.CompanyName,
				"filing_date":    p.Metadata.FilingDate,
				"item_number":    p.Metadata.ItemNumber,
				"item_title":     p.Metadata.ItemTitle,
				"source":         p.Metadata.Source,
				"section_length": p.Metadata.SectionLength,
				"chunk_index":    p.Metadata.ChunkIndex,
				"total_chunks":   p.Metadata.TotalChunks,
				"chunk_size":     p.Metadata.ChunkSize,
			},
		}
	}

	url := fmt.Sprintf("%s/collections/%s/points?wait=true", s.cfg.URL, s.cfg.Collection)
	return s.putJSON(ctx, url, map[string]any{"points": points}, nil)
}

// Search embeds the query and runs a ranked vector search with an optional
// exact-match payload filter.
func (s *Store) Search(ctx context.Context, query string, k int, filter map[string]string) ([]index.ScoredPassage, error) {
	vectors, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	req := map[string]any{
		"vector":       vectors[0],
		"limit":        k,
		"with_payload": true,
	}
	if len(filter) > 0 {
		var must []map[string]any
		for key, value := range filter {
			must = append(must, map[string]any{
				"key":   key,
				"match": map[string]any{"value": value},
			})
		}
		req["filter"] = map[string]any{"must": must}
	}

	var resp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	url := fmt.Sprintf("%s/collections/%s/points/search", s.cfg.URL, s.cfg.Collection)
	if err := s.postJSON(ctx, url, req, &resp); err != nil {
		return nil, fmt.Errorf("qdrant search failed: %w", err)
	}

	results := make([]index.ScoredPassage, 0, len(resp.Result))
	for _, r := range resp.Result {
		results = append(results, index.ScoredPassage{
			Passage: passageFromPayload(r.Payload),
			Score:   r.Score,
		})
	}
	return results, nil
}

// Companies lists distinct tickers by scrolling payloads. Passage volume per
// collection is modest (tens of filings), so a full scroll is acceptable.
func (s *Store) Companies(ctx context.Context) ([]string, error) {
	seen := make(map[string]bool)
	var offset any

	for {
		req := map[string]any{
			"limit":        1000,
			"with_payload": []string{"ticker"},
		}
		if offset != nil {
			req["offset"] = offset
		}

		var resp struct {
			Result struct {
				Points []struct {
					Payload map[string]any `json:"payload"`
				} `json:"points"`
				NextPageOffset any `json:"next_page_offset"`
			} `json:"result"`
		}
		url := fmt.Sprintf("%s/collections/%s/points/scroll", s.cfg.URL, s.cfg.Collection)
		if err := s.postJSON(ctx, url, req, &resp); err != nil {
			return nil, fmt.Errorf("qdrant scroll failed: %w", err)
		}

		for _, pt := range resp.Result.Points {
			if t, ok := pt.Payload["ticker"].(string); ok {
				seen[t] = true
			}
		}
		if resp.Result.NextPageOffset == nil || len(resp.Result.Points) == 0 {
			break
		}
		offset = resp.Result.NextPageOffset
	}

	tickers := make([]string, 0, len(seen))
	for t := range seen {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers, nil
}

func passageFromPayload(payload map[string]any) chunk.Passage {
	str := func(key string) string {
		v, _ := payload[key].(string)
		return v
	}
	num := func(key string) int {
		v, _ := payload[key].(float64)
		return int(v)
	}
	return chunk.Passage{
		ID:      str("passage_id"),
		Content: str("content"),
		Metadata: chunk.Metadata{
			Ticker:        str("ticker"),
			CompanyName:   str("company_name"),
			FilingDate:    str("filing_date"),
			ItemNumber:    str("item_number"),
			ItemTitle:     str("item_title"),
			Source:        str("source"),
			SectionLength: num("section_length"),
			ChunkIndex:    num("chunk_index"),
			TotalChunks:   num("total_chunks"),
			ChunkSize:     num("chunk_size"),
		},
	}
}

func (s *Store) putJSON(ctx context.Context, url string, body any, out any) error {
	return s.doJSON(ctx, http.MethodPut, url, body, out)
}

func (s *Store) postJSON(ctx context.Context, url string, body any, out any) error {
	return s.doJSON(ctx, http.MethodPost, url, body, out)
}

func (s *Store) doJSON(ctx context.Context, method, url string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("api-key", s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("qdrant %s %s failed: %s", method, url, resp.Status)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode qdrant response: %w", err)
		}
	}
	return nil
}
