// Package llm abstracts the generation model behind a provider interface so
// the query engine never depends on a specific vendor SDK.
package llm

import "context"

// Provider is the interface for all generation backends. The options map
// carries provider-specific knobs ("model", "temperature"); unknown keys are
// ignored.
type Provider interface {
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
}
