package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"asksec/pkg/api/ask"
	"asksec/pkg/api/companies"
	"asksec/pkg/core/config"
	"asksec/pkg/core/index"
	"asksec/pkg/core/index/embed"
	"asksec/pkg/core/index/memory"
	"asksec/pkg/core/index/qdrant"
	"asksec/pkg/core/llm"
	"asksec/pkg/core/prompt"
	"asksec/pkg/core/rag"
	"asksec/pkg/core/store"
)

func main() {
	godotenv.Load()

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	embedder, err := embed.NewGeminiEmbedder(ctx, cfg.EmbeddingModel)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}

	var idx index.Store
	if cfg.QdrantURL != "" {
		idx = qdrant.New(qdrant.Config{
			URL:        cfg.QdrantURL,
			APIKey:     cfg.QdrantAPIKey,
			Collection: cfg.QdrantCollection,
		}, embedder)
		fmt.Printf("Using Qdrant index at %s (collection %s)\n", cfg.QdrantURL, cfg.QdrantCollection)
	} else {
		idx = memory.New(embedder)
		fmt.Println("QDRANT_URL not set, using in-memory index (dev mode)")
	}

	// Prompt overrides are optional; built-ins cover everything.
	if info, err := os.Stat("prompts"); err == nil && info.IsDir() {
		if err := prompt.LoadFromDirectory(prompt.Get(), "prompts"); err != nil {
			fmt.Printf("[WARNING] Failed to load prompt overrides: %v\n", err)
		} else {
			fmt.Printf("Loaded prompt overrides, %d templates registered\n", prompt.Get().Count())
		}
	}

	provider := &llm.GeminiProvider{Model: cfg.GenerationModel}

	askHandler := ask.NewHandler(func() *rag.Engine {
		return rag.NewEngine(idx, provider, rag.Options{
			RetrievalK:      cfg.RetrievalK,
			GenerationModel: cfg.GenerationModel,
		})
	})
	http.HandleFunc("/api/ask", askHandler.HandleAsk)
	http.HandleFunc("/api/session/clear", askHandler.HandleClearSession)

	// The filing catalog answers company listings when Postgres is
	// configured; otherwise the index itself does.
	var lister companies.Lister = idx
	if os.Getenv("DATABASE_URL") != "" {
		if err := store.InitDB(ctx); err != nil {
			fmt.Printf("[WARNING] Catalog unavailable, listing companies from index: %v\n", err)
		} else {
			lister = catalogLister{repo: store.NewFilingRepo()}
			defer store.Close()
		}
	}
	companiesHandler := companies.NewHandler(lister)
	http.HandleFunc("/api/companies", companiesHandler.HandleList)

	addr := fmt.Sprintf(":%d", cfg.Port)
	fmt.Printf("API server starting on %s...\n", addr)
	fmt.Println("  - POST /api/ask")
	fmt.Println("  - POST /api/session/clear")
	fmt.Println("  - GET  /api/companies")
	log.Fatal(http.ListenAndServe(addr, nil))
}

type catalogLister struct {
	repo *store.FilingRepo
}

func (c catalogLister) Companies(ctx context.Context) ([]string, error) {
	return c.repo.ListCompanies(ctx)
}
