package store

import (
	"context"
	"fmt"
	"time"
)

// FilingRecord is one processed filing in the catalog.
type FilingRecord struct {
	Ticker          string    `json:"ticker"`
	CompanyName     string    `json:"company_name"`
	FilingDate      string    `json:"filing_date"`
	AccessionNumber string    `json:"accession_number"`
	NumSections     int       `json:"num_sections"`
	NumChunks       int       `json:"num_chunks"`
	ProcessedAt     time.Time `json:"processed_at"`
}

// FilingRepo persists the processed-filings catalog.
//
// Schema (managed outside the app, migrations or manual):
//
//	CREATE TABLE IF NOT EXISTS processed_filings (
//	  ticker TEXT NOT NULL,
//	  filing_date TEXT NOT NULL,
//	  company_name TEXT,
//	  accession_number TEXT,
//	  num_sections INT,
//	  num_chunks INT,
//	  processed_at TIMESTAMPTZ,
//	  PRIMARY KEY (ticker, filing_date)
//	);
type FilingRepo struct{}

// NewFilingRepo creates a repository instance.
func NewFilingRepo() *FilingRepo {
	return &FilingRepo{}
}

// Save upserts a catalog record keyed by (ticker, filing date). Reprocessing
// a filing replaces its row.
func (r *FilingRepo) Save(ctx context.Context, rec FilingRecord) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	query := `
		INSERT INTO processed_filings
			(ticker, filing_date, company_name, accession_number, num_sections, num_chunks, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (ticker, filing_date)
		DO UPDATE SET
			company_name = EXCLUDED.company_name,
			accession_number = EXCLUDED.accession_number,
			num_sections = EXCLUDED.num_sections,
			num_chunks = EXCLUDED.num_chunks,
			processed_at = EXCLUDED.processed_at;
	`

	processedAt := rec.ProcessedAt
	if processedAt.IsZero() {
		processedAt = time.Now()
	}

	_, err := pool.Exec(ctx, query,
		rec.Ticker, rec.FilingDate, rec.CompanyName, rec.AccessionNumber,
		rec.NumSections, rec.NumChunks, processedAt)
	if err != nil {
		return fmt.Errorf("failed to save filing record: %w", err)
	}
	return nil
}

// IsProcessed reports whether a filing is already cataloged.
func (r *FilingRepo) IsProcessed(ctx context.Context, ticker, filingDate string) (bool, error) {
	pool := GetPool()
	if pool == nil {
		return false, fmt.Errorf("database pool not initialized")
	}

	var count int
	err := pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM processed_filings WHERE ticker = $1 AND filing_date = $2`,
		ticker, filingDate).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query filing record: %w", err)
	}
	return count > 0, nil
}

// ListCompanies returns the distinct tickers in the catalog, sorted.
func (r *FilingRepo) ListCompanies(ctx context.Context) ([]string, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	rows, err := pool.Query(ctx, `SELECT DISTINCT ticker FROM processed_filings ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var tickers []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan ticker: %w", err)
		}
		tickers = append(tickers, t)
	}
	return tickers, rows.Err()
}
