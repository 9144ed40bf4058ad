package chunk

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Batch is the serialized passage set produced by one full processing run.
// The index build step consumes it; keeping it on disk makes re-indexing
// reproducible without re-parsing filings.
type Batch struct {
	CreatedAt time.Time `json:"created_at"`
	Passages  []Passage `json:"passages"`
	Stats     Stats     `json:"stats"`
}

// WriteBatch serializes passages (with their stats) to a timestamped JSON
// file under dir and returns the written path.
func WriteBatch(dir string, passages []Passage) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", dir, err)
	}

	batch := Batch{
		CreatedAt: time.Now().UTC(),
		Passages:  passages,
		Stats:     ComputeStats(passages),
	}

	data, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal batch: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("passages_%s.json", batch.CreatedAt.Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write batch %s: %w", path, err)
	}
	return path, nil
}

// ReadBatch loads a previously written passage batch.
func ReadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch %s: %w", path, err)
	}
	var batch Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, fmt.Errorf("failed to parse batch %s: %w", path, err)
	}
	return &batch, nil
}
