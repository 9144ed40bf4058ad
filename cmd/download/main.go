// The download command fetches recent 10-K filings from SEC EDGAR and
// writes them as plaintext with JSON metadata sidecars, ready for the
// pipeline command.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"

	"asksec/pkg/core/config"
	"asksec/pkg/core/ingest"
)

func main() {
	godotenv.Load()

	var (
		configPath = flag.String("config", "config.yaml", "config file path")
		tickers    = flag.String("tickers", "", "comma-separated tickers, e.g. AAPL,MSFT")
		numFilings = flag.Int("n", 2, "most recent 10-Ks per company")
		outDir     = flag.String("out", "", "output directory (overrides config)")
	)
	flag.Parse()

	if *tickers == "" {
		log.Fatal("Usage: download -tickers AAPL,MSFT [-n 2] [-out data/raw]")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *outDir != "" {
		cfg.RawDataDir = *outDir
	}

	downloader := ingest.NewDownloader(cfg.EdgarIdentity, cfg.RawDataDir)

	total := 0
	for _, ticker := range strings.Split(*tickers, ",") {
		ticker = strings.TrimSpace(ticker)
		if ticker == "" {
			continue
		}
		fmt.Printf("\nDownloading 10-K filings for %s...\n", strings.ToUpper(ticker))

		saved, err := downloader.Download10Ks(ticker, *numFilings)
		if err != nil {
			fmt.Printf("  Error: %v\n", err)
			continue
		}
		total += len(saved)
		fmt.Printf("  %d filings saved\n", len(saved))
	}

	fmt.Printf("\nDone: %d filings under %s\n", total, cfg.RawDataDir)
}
