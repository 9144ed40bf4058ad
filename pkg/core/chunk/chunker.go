package chunk

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"asksec/pkg/core/ingest"
)

// Metadata is the provenance stamped on every passage.
type Metadata struct {
	Ticker        string `json:"ticker"`
	CompanyName   string `json:"company_name"`
	FilingDate    string `json:"filing_date"`
	ItemNumber    string `json:"item_number"`
	ItemTitle     string `json:"item_title"`
	Source        string `json:"source"` // e.g. "AAPL_10K_2025-01-15"
	SectionLength int    `json:"section_length"`
	ChunkIndex    int    `json:"chunk_index"`
	TotalChunks   int    `json:"total_chunks"`
	ChunkSize     int    `json:"chunk_size"` // character length of this passage
}

// Passage is the unit indexed and retrieved for question answering. Passages
// are never mutated after creation; reprocessing a filing supersedes them
// under the same ids.
type Passage struct {
	ID       string   `json:"id"` // 12-hex-char deterministic hash
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

// PassageID is a pure function of (ticker, item number, chunk index), so
// re-chunking a section with the same parameters reproduces identical ids
// and re-indexing stays idempotent.
func PassageID(ticker, itemNumber string, chunkIndex int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%s_%d", ticker, itemNumber, chunkIndex)))
	return hex.EncodeToString(sum[:])[:12]
}

// Chunker turns sections into passages.
type Chunker struct {
	splitter *Splitter
}

// NewChunker creates a chunker with the given size budget and overlap.
func NewChunker(chunkSize, overlap int) *Chunker {
	return &Chunker{splitter: NewSplitter(chunkSize, overlap)}
}

// ChunkSection splits one section's content and stamps each piece with ids
// and metadata. The ChunkIndex, TotalChunks and ChunkSize fields of the
// provided metadata are filled in here; the rest passes through.
func (c *Chunker) ChunkSection(content string, meta Metadata) []Passage {
	pieces := c.splitter.Split(content)

	passages := make([]Passage, 0, len(pieces))
	for i, piece := range pieces {
		m := meta
		m.ChunkIndex = i
		m.TotalChunks = len(pieces)
		m.ChunkSize = len(piece)
		passages = append(passages, Passage{
			ID:       PassageID(m.Ticker, m.ItemNumber, i),
			Content:  piece,
			Metadata: m,
		})
	}
	return passages
}

// ProcessFiling chunks every section of a parsed filing. Sections are
// processed in item-number order ("1" < "1A" < "2" < "10"), not map order,
// so passage sequences are reproducible run to run.
func (c *Chunker) ProcessFiling(sections map[string]ingest.Section, meta ingest.FilingMeta) []Passage {
	var all []Passage
	for _, itemNum := range ingest.SortedItemNumbers(sections) {
		section := sections[itemNum]
		base := Metadata{
			Ticker:        meta.Ticker,
			CompanyName:   meta.CompanyName,
			FilingDate:    meta.FilingDate,
			ItemNumber:    section.ItemNumber,
			ItemTitle:     section.ItemTitle,
			Source:        meta.SourceKey(),
			SectionLength: len(section.Content),
		}
		passages := c.ChunkSection(section.Content, base)
		fmt.Printf("    Item %s (%s): %d chunks\n", itemNum, section.ItemTitle, len(passages))
		all = append(all, passages...)
	}
	return all
}
