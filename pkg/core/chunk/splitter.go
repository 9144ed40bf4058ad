// Package chunk splits extracted filing sections into retrieval-sized
// passages with deterministic ids and full provenance metadata.
package chunk

import "strings"

// DefaultSeparators orders split points from most to least preferred:
// paragraph break, line break, sentence end, clause breaks, words, and
// finally individual characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", "! ", "? ", "; ", ", ", " ", ""}

const (
	DefaultChunkSize    = 1500
	DefaultChunkOverlap = 300
)

// Splitter recursively splits text on a priority-ordered separator list,
// merging adjacent pieces while they fit the size budget and carrying a
// fixed character overlap across forced split points.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// NewSplitter creates a splitter with the given budget and overlap. Non
// positive arguments fall back to the defaults.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultChunkOverlap
	}
	return &Splitter{chunkSize: chunkSize, overlap: overlap, separators: DefaultSeparators}
}

// Split breaks text into pieces of at most chunkSize characters (single
// unbreakable runs may exceed it). Text already within budget comes back as
// a single piece, unchanged.
func (s *Splitter) Split(text string) []string {
	if len(text) <= s.chunkSize {
		if strings.TrimSpace(text) == "" {
			return nil
		}
		return []string{text}
	}
	return s.split(text, s.separators)
}

// split picks the highest-priority separator present in text, splits on it,
// recurses into any piece that is still over budget with the remaining
// separators, and merges the rest.
func (s *Splitter) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var rest []string
	for i, candidate := range separators {
		if candidate == "" || strings.Contains(text, candidate) {
			sep = candidate
			rest = separators[i+1:]
			break
		}
	}

	splits := splitOn(text, sep)

	var final []string
	var pending []string
	for _, piece := range splits {
		if len(piece) < s.chunkSize {
			pending = append(pending, piece)
			continue
		}
		if len(pending) > 0 {
			final = append(final, s.merge(pending, sep)...)
			pending = nil
		}
		if len(rest) == 0 {
			final = append(final, piece)
		} else {
			final = append(final, s.split(piece, rest)...)
		}
	}
	if len(pending) > 0 {
		final = append(final, s.merge(pending, sep)...)
	}
	return final
}

// splitOn splits text on sep keeping the separator attached to the preceding
// piece, so merged chunks read naturally. Empty sep splits into characters.
func splitOn(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, len(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	parts := strings.SplitAfter(text, sep)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// merge greedily joins pieces into chunks within the size budget. When a
// chunk closes, pieces are dropped from its front until the carried tail is
// within the overlap allowance, and the survivors seed the next chunk.
func (s *Splitter) merge(pieces []string, sep string) []string {
	var chunks []string
	var window []string
	total := 0

	flush := func() {
		if len(window) == 0 {
			return
		}
		chunk := strings.TrimSpace(strings.Join(window, ""))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, piece := range pieces {
		if total+len(piece) > s.chunkSize && total > 0 {
			flush()
			// Carry the overlap tail into the next chunk.
			for total > s.overlap || (total+len(piece) > s.chunkSize && total > 0) {
				total -= len(window[0])
				window = window[1:]
			}
		}
		window = append(window, piece)
		total += len(piece)
	}
	flush()
	return chunks
}
