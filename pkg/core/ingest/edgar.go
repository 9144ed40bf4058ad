// SEC EDGAR API integration for fetching 10-K filings.
// API documentation: https://www.sec.gov/developer
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	secSubmissionsURL   = "https://data.sec.gov/submissions/CIK%s.json"
	secArchivesURL      = "https://www.sec.gov/Archives/edgar/data/%s/%s"
	secCompanyTickerURL = "https://www.sec.gov/files/company_tickers.json"
)

// secCompanyInfo is the top-level company submissions response.
type secCompanyInfo struct {
	CIK     string `json:"cik"`
	Name    string `json:"name"`
	Filings struct {
		Recent secRecentFilings `json:"recent"`
	} `json:"filings"`
}

// secRecentFilings holds filing attributes as parallel arrays.
type secRecentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}

// FilingRef identifies one SEC filing available for download.
type FilingRef struct {
	AccessionNumber string
	FilingDate      string // ISO date as reported by EDGAR
	FormType        string
	PrimaryDocument string
	URL             string
}

// EDGARClient talks to the SEC EDGAR API. SEC requires a descriptive
// User-Agent including contact information.
type EDGARClient struct {
	httpClient *http.Client
	userAgent  string
}

// NewEDGARClient creates a client with the given identity string.
func NewEDGARClient(identity string) *EDGARClient {
	return &EDGARClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  identity,
	}
}

func (c *EDGARClient) get(url string, accept string) ([]byte, error) {
	req, err := http.NewRequest("GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("SEC request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("SEC returned status %d for %s", resp.StatusCode, url)
	}

	return io.ReadAll(resp.Body)
}

// LookupCIK resolves a ticker symbol to a zero-padded 10-digit CIK.
func (c *EDGARClient) LookupCIK(ticker string) (string, error) {
	body, err := c.get(secCompanyTickerURL, "application/json")
	if err != nil {
		return "", fmt.Errorf("failed to fetch ticker mapping: %w", err)
	}

	// Response shape: { "0": {"cik_str": 320193, "ticker": "AAPL", "title": "..."}, ... }
	var mapping map[string]struct {
		CIK    int    `json:"cik_str"`
		Ticker string `json:"ticker"`
		Title  string `json:"title"`
	}
	if err := json.Unmarshal(body, &mapping); err != nil {
		return "", fmt.Errorf("failed to parse ticker mapping: %w", err)
	}

	ticker = strings.ToUpper(ticker)
	for _, entry := range mapping {
		if entry.Ticker == ticker {
			return fmt.Sprintf("%010d", entry.CIK), nil
		}
	}
	return "", fmt.Errorf("ticker %s not found in SEC database", ticker)
}

// fetchCompanyInfo retrieves company submission data. CIK is zero-padded
// automatically if needed.
func (c *EDGARClient) fetchCompanyInfo(cik string) (*secCompanyInfo, error) {
	cik = fmt.Sprintf("%010s", strings.TrimLeft(cik, "0"))
	body, err := c.get(fmt.Sprintf(secSubmissionsURL, cik), "application/json")
	if err != nil {
		return nil, err
	}
	var info secCompanyInfo
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("failed to parse SEC response: %w", err)
	}
	return &info, nil
}

// Recent10Ks lists up to limit recent 10-K filings for the company.
func (c *EDGARClient) Recent10Ks(info *secCompanyInfo, limit int) []FilingRef {
	recent := info.Filings.Recent
	refs := make([]FilingRef, 0, limit)

	for i := range recent.AccessionNumber {
		if recent.Form[i] != "10-K" {
			continue
		}
		accession := strings.ReplaceAll(recent.AccessionNumber[i], "-", "")
		refs = append(refs, FilingRef{
			AccessionNumber: recent.AccessionNumber[i],
			FilingDate:      recent.FilingDate[i],
			FormType:        recent.Form[i],
			PrimaryDocument: recent.PrimaryDocument[i],
			URL:             fmt.Sprintf(secArchivesURL, info.CIK, accession+"/"+recent.PrimaryDocument[i]),
		})
		if limit > 0 && len(refs) >= limit {
			break
		}
	}
	return refs
}

// Downloader fetches 10-K filings, converts them to plaintext and writes the
// {TICKER}_10K_{date}.txt / _meta.json pair consumed by the pipeline.
type Downloader struct {
	client    *EDGARClient
	outputDir string
}

// NewDownloader creates a downloader writing under outputDir/{TICKER}/.
func NewDownloader(identity string, outputDir string) *Downloader {
	return &Downloader{client: NewEDGARClient(identity), outputDir: outputDir}
}

// Download10Ks fetches the numFilings most recent 10-Ks for a ticker and
// returns the paths of the written text files.
func (d *Downloader) Download10Ks(ticker string, numFilings int) ([]string, error) {
	ticker = strings.ToUpper(ticker)

	cik, err := d.client.LookupCIK(ticker)
	if err != nil {
		return nil, err
	}
	info, err := d.client.fetchCompanyInfo(cik)
	if err != nil {
		return nil, err
	}

	refs := d.client.Recent10Ks(info, numFilings)
	if len(refs) == 0 {
		return nil, fmt.Errorf("no 10-K filings found for %s", ticker)
	}

	tickerDir := filepath.Join(d.outputDir, ticker)
	if err := os.MkdirAll(tickerDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", tickerDir, err)
	}

	var saved []string
	for _, ref := range refs {
		html, err := d.client.get(ref.URL, "text/html")
		if err != nil {
			fmt.Printf("[edgar] Skipping %s %s: %v\n", ticker, ref.AccessionNumber, err)
			continue
		}
		text := HTMLToText(string(html))
		if len(text) < 1000 {
			fmt.Printf("[edgar] Skipping %s %s: conversion produced %d bytes\n", ticker, ref.AccessionNumber, len(text))
			continue
		}

		baseName := fmt.Sprintf("%s_10K_%s", ticker, ref.FilingDate)
		txtPath := filepath.Join(tickerDir, baseName+".txt")
		if err := os.WriteFile(txtPath, []byte(text), 0o644); err != nil {
			return saved, fmt.Errorf("failed to write %s: %w", txtPath, err)
		}

		meta := FilingMeta{
			Ticker:          ticker,
			CompanyName:     info.Name,
			FilingDate:      ref.FilingDate,
			AccessionNumber: ref.AccessionNumber,
			FormType:        ref.FormType,
			CIK:             cik,
			FilePath:        txtPath,
		}
		metaData, err := json.MarshalIndent(meta, "", "  ")
		if err != nil {
			return saved, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metaPath := filepath.Join(tickerDir, baseName+"_meta.json")
		if err := os.WriteFile(metaPath, metaData, 0o644); err != nil {
			return saved, fmt.Errorf("failed to write %s: %w", metaPath, err)
		}

		saved = append(saved, txtPath)
		fmt.Printf("[edgar] Saved %s (%d KB)\n", baseName, len(text)/1024)
	}

	return saved, nil
}
