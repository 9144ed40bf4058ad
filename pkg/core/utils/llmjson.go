package utils

import (
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// ParseModelJSON unmarshals JSON produced by a language model into out.
// Model JSON is frequently malformed (trailing commas, single quotes, code
// fences, missing braces), so parsing is attempted in three passes:
// strict JSON, repaired JSON, then lenient HJSON.
func ParseModelJSON(raw string, out interface{}) error {
	cleaned := CleanMarkdown(raw)

	if err := json.Unmarshal([]byte(cleaned), out); err == nil {
		return nil
	}

	if repaired, err := jsonrepair.RepairJSON(cleaned); err == nil {
		if err := json.Unmarshal([]byte(repaired), out); err == nil {
			return nil
		}
	}

	if err := hjson.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("model output is not parseable JSON: %w", err)
	}
	// hjson.Unmarshal only fills map/interface targets reliably; round-trip
	// through strict JSON to populate the typed struct.
	var loose interface{}
	if err := hjson.Unmarshal([]byte(cleaned), &loose); err != nil {
		return fmt.Errorf("model output is not parseable JSON: %w", err)
	}
	data, err := json.Marshal(loose)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
