package chunk

// Stats summarizes a passage batch for operational visibility. Counts are
// exact, no sampling.
type Stats struct {
	TotalChunks     int            `json:"total_chunks"`
	AvgChunkSize    float64        `json:"avg_chunk_size"`
	MinChunkSize    int            `json:"min_chunk_size"`
	MaxChunkSize    int            `json:"max_chunk_size"`
	ChunksByCompany map[string]int `json:"chunks_by_company"`
	ChunksBySection map[string]int `json:"chunks_by_section"`
}

// ComputeStats aggregates passage counts and content-length statistics,
// grouped by ticker and by section title.
func ComputeStats(passages []Passage) Stats {
	if len(passages) == 0 {
		return Stats{ChunksByCompany: map[string]int{}, ChunksBySection: map[string]int{}}
	}

	stats := Stats{
		TotalChunks:     len(passages),
		MinChunkSize:    len(passages[0].Content),
		ChunksByCompany: make(map[string]int),
		ChunksBySection: make(map[string]int),
	}

	total := 0
	for _, p := range passages {
		n := len(p.Content)
		total += n
		if n < stats.MinChunkSize {
			stats.MinChunkSize = n
		}
		if n > stats.MaxChunkSize {
			stats.MaxChunkSize = n
		}
		stats.ChunksByCompany[p.Metadata.Ticker]++
		stats.ChunksBySection[p.Metadata.ItemTitle]++
	}
	stats.AvgChunkSize = float64(total) / float64(len(passages))
	return stats
}
