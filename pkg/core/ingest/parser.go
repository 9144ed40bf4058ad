// Package ingest provides SEC EDGAR integration and 10-K section parsing.
// The parser splits a filing's plaintext into the numbered Item sections
// defined by SEC Form 10-K.
package ingest

import (
	"regexp"
	"sort"
	"strings"
)

// Section is one numbered, titled subdivision of a 10-K filing. Offsets are
// positions in the cleaned text (see CleanText), not the raw input.
type Section struct {
	ItemNumber  string `json:"item_number"` // "1", "1A", "7", ...
	ItemTitle   string `json:"item_title"`  // Canonical label, e.g. "Risk Factors"
	Content     string `json:"content"`
	StartOffset int    `json:"start_offset"`
	EndOffset   int    `json:"end_offset"`
}

// SectionDefinitions lists the recognized Form 10-K items in filing order.
var SectionDefinitions = []struct {
	ItemNumber string
	Title      string
}{
	// Part I
	{"1", "Business"},
	{"1A", "Risk Factors"},
	{"1B", "Unresolved Staff Comments"},
	{"1C", "Cybersecurity"},
	{"2", "Properties"},
	{"3", "Legal Proceedings"},
	{"4", "Mine Safety Disclosures"},
	// Part II
	{"5", "Market for Registrant's Common Equity"},
	{"6", "Selected Financial Data"}, // Discontinued Feb 2021, still present in older filings
	{"7", "Management's Discussion and Analysis"},
	{"7A", "Quantitative and Qualitative Disclosures About Market Risk"},
	{"8", "Financial Statements and Supplementary Data"},
	{"9", "Changes in and Disagreements With Accountants"},
	{"9A", "Controls and Procedures"},
	{"9B", "Other Information"},
	{"9C", "Disclosure Regarding Foreign Jurisdictions"},
	// Part III
	{"10", "Directors, Executive Officers and Corporate Governance"},
	{"11", "Executive Compensation"},
	{"12", "Security Ownership of Certain Beneficial Owners"},
	{"13", "Certain Relationships and Related Transactions"},
	{"14", "Principal Accountant Fees and Services"},
	// Part IV
	{"15", "Exhibits and Financial Statement Schedules"},
}

// MinSectionChars is the default minimum body length for a section to be
// treated as real content rather than a stray header reference.
const MinSectionChars = 500

// headerMatch records one located item header in the cleaned text.
type headerMatch struct {
	ItemNumber string
	Title      string
	Start      int
}

// Parser extracts Item sections from 10-K plaintext.
//
// Duplicate headers (a table of contents entry, a cross reference later in
// the document) are resolved by keeping the first occurrence per item number.
// A legitimate second discussion of the same item, as can appear in amended
// filings, is therefore folded into whichever section precedes it; the
// minimum-length filter removes most of the resulting artifacts.
type Parser struct {
	patterns []*regexp.Regexp
	minChars int
}

// NewParser builds a parser with patterns for every known item.
func NewParser() *Parser {
	return &Parser{patterns: buildSectionPatterns(), minChars: MinSectionChars}
}

// NewParserWithMinChars overrides the minimum section body length.
func NewParserWithMinChars(minChars int) *Parser {
	return &Parser{patterns: buildSectionPatterns(), minChars: minChars}
}

// buildSectionPatterns compiles one header pattern per item, indexed in
// SectionDefinitions order. A pattern matches variants like:
//
//	"ITEM 1A. RISK FACTORS"
//	"Item 1A - Risk Factors"
//	"Item 1A:"
//	"item 7"
//
// The \b after the item number keeps item "1" from matching inside "1A" or
// "10" headers (RE2 has no lookahead; a word boundary between digit and
// letter does the same job here).
func buildSectionPatterns() []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(SectionDefinitions))
	for _, def := range SectionDefinitions {
		expr := `(?i)\bITEM\s*` + regexp.QuoteMeta(def.ItemNumber) + `\b[.\s\-:]*(?:` + regexp.QuoteMeta(def.Title) + `)?`
		patterns = append(patterns, regexp.MustCompile(expr))
	}
	return patterns
}

var (
	spacesRe     = regexp.MustCompile(`[ \t]+`)
	newlinesRe   = regexp.MustCompile(`\n{3,}`)
	pageNumberRe = regexp.MustCompile(`\n\s*\d+\s*\n`)
	tocRe        = regexp.MustCompile(`(?i)Table of Contents`)
	asciiRepl    = strings.NewReplacer(
		"“", `"`, "”", `"`, // curly double quotes
		"‘", "'", "’", "'", // curly single quotes
		"—", "-", "–", "-", // em/en dashes
	)
)

// CleanText normalizes filing text before any offset is computed: runs of
// spaces and tabs collapse to one space, 3+ newlines collapse to two, bare
// page-number lines and "Table of Contents" markers are stripped, and curly
// quotes and dashes become their ASCII equivalents.
func CleanText(text string) string {
	text = spacesRe.ReplaceAllString(text, " ")
	text = newlinesRe.ReplaceAllString(text, "\n\n")
	text = pageNumberRe.ReplaceAllString(text, "\n")
	text = tocRe.ReplaceAllString(text, "")
	text = asciiRepl.Replace(text)
	return strings.TrimSpace(text)
}

// FindHeaders locates every item header match in already-cleaned text and
// returns them in document order. Duplicates are not removed here; this is
// the pure matching step, kept separate so patterns are testable without a
// full parse.
func (p *Parser) FindHeaders(text string) []headerMatch {
	var found []headerMatch
	for i, pattern := range p.patterns {
		for _, loc := range pattern.FindAllStringIndex(text, -1) {
			found = append(found, headerMatch{
				ItemNumber: SectionDefinitions[i].ItemNumber,
				Title:      SectionDefinitions[i].Title,
				Start:      loc[0],
			})
		}
	}
	sort.SliceStable(found, func(a, b int) bool { return found[a].Start < found[b].Start })
	return found
}

// ParseFiling cleans the text and extracts all sections, keyed by item
// number. Input with no recognized headers yields an empty map.
func (p *Parser) ParseFiling(text string) map[string]Section {
	text = CleanText(text)

	matches := p.FindHeaders(text)

	// Keep the first occurrence per item number.
	seen := make(map[string]bool, len(matches))
	retained := matches[:0]
	for _, m := range matches {
		if seen[m.ItemNumber] {
			continue
		}
		seen[m.ItemNumber] = true
		retained = append(retained, m)
	}

	sections := make(map[string]Section)
	for i, m := range retained {
		end := len(text)
		if i+1 < len(retained) {
			end = retained[i+1].Start
		}

		content := strings.TrimSpace(text[m.Start:end])
		if len(content) <= p.minChars {
			// A header with no real body: a stray TOC reference or a
			// boilerplate "not applicable" item.
			continue
		}

		sections[m.ItemNumber] = Section{
			ItemNumber:  m.ItemNumber,
			ItemTitle:   m.Title,
			Content:     content,
			StartOffset: m.Start,
			EndOffset:   end,
		}
	}

	return sections
}

// ExtractSections parses the filing and returns only the requested item
// numbers.
func (p *Parser) ExtractSections(text string, itemNumbers []string) map[string]Section {
	all := p.ParseFiling(text)
	out := make(map[string]Section, len(itemNumbers))
	for _, num := range itemNumbers {
		if sec, ok := all[num]; ok {
			out[num] = sec
		}
	}
	return out
}

// SortedItemNumbers returns the section keys ordered by numeric item then
// letter suffix ("1" < "1A" < "2" < "10"), giving chunking a stable,
// implementation-independent processing order.
func SortedItemNumbers(sections map[string]Section) []string {
	keys := make([]string, 0, len(sections))
	for k := range sections {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(a, b int) bool {
		na, sa := splitItemNumber(keys[a])
		nb, sb := splitItemNumber(keys[b])
		if na != nb {
			return na < nb
		}
		return sa < sb
	})
	return keys
}

func splitItemNumber(item string) (int, string) {
	i := 0
	for i < len(item) && item[i] >= '0' && item[i] <= '9' {
		i++
	}
	n := 0
	for _, c := range item[:i] {
		n = n*10 + int(c-'0')
	}
	return n, item[i:]
}

// SectionSummary reports per-section character counts, keyed like
// "Item 1A (Risk Factors)".
func SectionSummary(sections map[string]Section) map[string]int {
	out := make(map[string]int, len(sections))
	for num, sec := range sections {
		out["Item "+num+" ("+sec.ItemTitle+")"] = len(sec.Content)
	}
	return out
}
