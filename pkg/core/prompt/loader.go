package prompt

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadFromDirectory registers every *.json template under dir, overriding
// built-ins with matching ids. File layout:
//
//	dir/
//	  qa/analyst.json        -> id "qa.analyst" unless the file sets one
//	  comparison/companies.json
func LoadFromDirectory(r *Registry, dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return fmt.Errorf("prompt directory not found: %s", dir)
	}

	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		var t Template
		if err := json.Unmarshal(data, &t); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if t.ID == "" {
			t.ID = idFromPath(path, dir)
		}
		if t.Category == "" {
			if i := strings.Index(t.ID, "."); i > 0 {
				t.Category = t.ID[:i]
			}
		}
		return r.Register(&t)
	})
}

// idFromPath maps "dir/qa/analyst.json" to "qa.analyst".
func idFromPath(path, baseDir string) string {
	rel, _ := filepath.Rel(baseDir, path)
	rel = strings.TrimSuffix(rel, ".json")
	return strings.ReplaceAll(rel, string(filepath.Separator), ".")
}
