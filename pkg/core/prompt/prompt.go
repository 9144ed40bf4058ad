// Package prompt is a small prompt library for the filing QA flow. Built-in
// templates cover analyst QA, company comparison, summarization and
// follow-up condensing; a directory of JSON files can override any of them
// at runtime without code changes.
package prompt

import (
	"bytes"
	"fmt"
	"text/template"
)

// Template is a reusable prompt with metadata. UserTmpl is a Go template
// executed against the variables passed to Render.
type Template struct {
	ID           string `json:"id"`       // e.g. "qa.analyst"
	Name         string `json:"name"`     // Human-readable name
	Category     string `json:"category"` // qa, comparison, summary, ...
	Description  string `json:"description"`
	SystemPrompt string `json:"system_prompt"`
	UserTmpl     string `json:"user_prompt_template"`
	Version      string `json:"version"`
}

// Render executes the user template with the given variables.
func (t *Template) Render(vars map[string]interface{}) (string, error) {
	if t.UserTmpl == "" {
		return "", nil
	}
	tmpl, err := template.New(t.ID).Parse(t.UserTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", t.ID, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", t.ID, err)
	}
	return buf.String(), nil
}

// MustRender is like Render but panics on error. Built-in templates are
// covered by tests, so a panic here means a programming error.
func (t *Template) MustRender(vars map[string]interface{}) string {
	out, err := t.Render(vars)
	if err != nil {
		panic(err)
	}
	return out
}
