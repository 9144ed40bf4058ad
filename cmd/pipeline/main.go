// The pipeline command runs the offline ingestion flow: load downloaded
// filings, extract sections, chunk them into passages, write the passage
// batch, and upsert everything into the vector index.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"asksec/pkg/core/chunk"
	"asksec/pkg/core/config"
	"asksec/pkg/core/index"
	"asksec/pkg/core/index/embed"
	"asksec/pkg/core/index/qdrant"
	"asksec/pkg/core/ingest"
	"asksec/pkg/core/store"
)

func main() {
	godotenv.Load()

	var (
		configPath = flag.String("config", "config.yaml", "config file path")
		dataDir    = flag.String("data", "", "raw filings directory (overrides config)")
		batchSize  = flag.Int("batch", 100, "passages per index upsert")
		dryRun     = flag.Bool("dry-run", false, "parse and chunk only, no indexing")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *dataDir != "" {
		cfg.RawDataDir = *dataDir
	}

	ctx := context.Background()

	filings, err := ingest.LoadFilings(cfg.RawDataDir)
	if err != nil {
		log.Fatalf("Failed to load filings: %v", err)
	}
	if len(filings) == 0 {
		log.Fatalf("No filings found under %s; run the download command first", cfg.RawDataDir)
	}
	fmt.Printf("Loaded %d filings from %s\n", len(filings), cfg.RawDataDir)

	parser := ingest.NewParserWithMinChars(cfg.MinSectionChars)
	chunker := chunk.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)

	var allPassages []chunk.Passage
	perFiling := make(map[string]struct{ sections, chunks int })

	for _, filing := range filings {
		fmt.Printf("\nProcessing %s (%s)...\n", filing.Meta.SourceKey(), filing.Meta.CompanyName)

		sections := parser.ParseFiling(filing.Text)
		if len(sections) == 0 {
			fmt.Printf("  No sections extracted, skipping\n")
			continue
		}
		fmt.Printf("  Extracted %d sections\n", len(sections))

		passages := chunker.ProcessFiling(sections, filing.Meta)
		allPassages = append(allPassages, passages...)
		perFiling[filing.Meta.SourceKey()] = struct{ sections, chunks int }{len(sections), len(passages)}
	}

	stats := chunk.ComputeStats(allPassages)
	fmt.Printf("\nChunking complete: %d passages (avg %.0f chars, min %d, max %d)\n",
		stats.TotalChunks, stats.AvgChunkSize, stats.MinChunkSize, stats.MaxChunkSize)
	for ticker, n := range stats.ChunksByCompany {
		fmt.Printf("  %s: %d passages\n", ticker, n)
	}

	batchPath, err := chunk.WriteBatch(cfg.BatchDir, allPassages)
	if err != nil {
		log.Fatalf("Failed to write passage batch: %v", err)
	}
	fmt.Printf("Wrote passage batch to %s\n", batchPath)

	if *dryRun {
		fmt.Println("Dry run, skipping index build")
		return
	}
	if cfg.QdrantURL == "" {
		log.Fatal("QDRANT_URL not configured; use -dry-run to chunk without indexing")
	}

	embedder, err := embed.NewGeminiEmbedder(ctx, cfg.EmbeddingModel)
	if err != nil {
		log.Fatalf("Failed to create embedder: %v", err)
	}
	idx := qdrant.New(qdrant.Config{
		URL:        cfg.QdrantURL,
		APIKey:     cfg.QdrantAPIKey,
		Collection: cfg.QdrantCollection,
	}, embedder)

	if err := upsertInBatches(ctx, idx, allPassages, *batchSize); err != nil {
		log.Fatalf("Failed to index passages: %v", err)
	}
	fmt.Printf("Indexed %d passages into %s\n", len(allPassages), cfg.QdrantCollection)

	recordCatalog(ctx, filings, perFiling)
}

func upsertInBatches(ctx context.Context, idx index.Store, passages []chunk.Passage, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 100
	}
	total := (len(passages) + batchSize - 1) / batchSize
	for i := 0; i < len(passages); i += batchSize {
		end := i + batchSize
		if end > len(passages) {
			end = len(passages)
		}
		if err := idx.Upsert(ctx, passages[i:end]); err != nil {
			return fmt.Errorf("batch %d/%d failed: %w", i/batchSize+1, total, err)
		}
		fmt.Printf("  Batch %d/%d indexed (%d passages)\n", i/batchSize+1, total, end-i)
	}
	return nil
}

// recordCatalog upserts processed-filing rows when Postgres is configured.
// Catalog failures are reported but never fail the run; the index is already
// built at this point.
func recordCatalog(ctx context.Context, filings []*ingest.Filing, perFiling map[string]struct{ sections, chunks int }) {
	if os.Getenv("DATABASE_URL") == "" {
		return
	}
	if err := store.InitDB(ctx); err != nil {
		fmt.Printf("[WARNING] Catalog not updated: %v\n", err)
		return
	}
	defer store.Close()

	repo := store.NewFilingRepo()
	for _, filing := range filings {
		counts, ok := perFiling[filing.Meta.SourceKey()]
		if !ok {
			continue
		}
		rec := store.FilingRecord{
			Ticker:          filing.Meta.Ticker,
			CompanyName:     filing.Meta.CompanyName,
			FilingDate:      filing.Meta.FilingDate,
			AccessionNumber: filing.Meta.AccessionNumber,
			NumSections:     counts.sections,
			NumChunks:       counts.chunks,
		}
		if err := repo.Save(ctx, rec); err != nil {
			fmt.Printf("[WARNING] Failed to catalog %s: %v\n", filing.Meta.SourceKey(), err)
		}
	}
	fmt.Println("Catalog updated")
}
