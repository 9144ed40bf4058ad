package ingest

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// FilingMeta is the JSON sidecar written next to each downloaded filing.
type FilingMeta struct {
	Ticker          string `json:"ticker"`
	CompanyName     string `json:"company_name"`
	FilingDate      string `json:"filing_date"` // ISO date, e.g. "2025-01-15"
	AccessionNumber string `json:"accession_number"`
	FormType        string `json:"form_type"`
	CIK             string `json:"cik"`
	FilePath        string `json:"file_path"`
}

// Filing pairs a filing's plaintext with its sidecar metadata.
type Filing struct {
	Meta FilingMeta
	Text string
}

// SourceKey returns the identifier used as passage provenance,
// e.g. "AAPL_10K_2025-01-15". It matches the on-disk base name.
func (m FilingMeta) SourceKey() string {
	return fmt.Sprintf("%s_10K_%s", m.Ticker, m.FilingDate)
}

// LoadFiling reads one filing given the path of its .txt file. The sidecar is
// expected at the same path with the _meta.json suffix.
func LoadFiling(txtPath string) (*Filing, error) {
	text, err := os.ReadFile(txtPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read filing %s: %w", txtPath, err)
	}

	metaPath := strings.TrimSuffix(txtPath, ".txt") + "_meta.json"
	metaData, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read sidecar %s: %w", metaPath, err)
	}

	var meta FilingMeta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse sidecar %s: %w", metaPath, err)
	}

	return &Filing{Meta: meta, Text: string(text)}, nil
}

// LoadFilings walks dir recursively and loads every filing that has both a
// .txt file and a _meta.json sidecar. Files without a sidecar are skipped.
// Results are sorted by (ticker, filing date) so downstream processing order
// is reproducible.
func LoadFilings(dir string) ([]*Filing, error) {
	var filings []*Filing

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".txt") {
			return nil
		}
		filing, err := LoadFiling(path)
		if err != nil {
			if os.IsNotExist(err) || strings.Contains(err.Error(), "sidecar") {
				fmt.Printf("[ingest] Skipping %s: %v\n", path, err)
				return nil
			}
			return err
		}
		filings = append(filings, filing)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	sort.Slice(filings, func(a, b int) bool {
		if filings[a].Meta.Ticker != filings[b].Meta.Ticker {
			return filings[a].Meta.Ticker < filings[b].Meta.Ticker
		}
		return filings[a].Meta.FilingDate < filings[b].Meta.FilingDate
	})

	return filings, nil
}
