package utils

import (
	"strings"
	"testing"
)

func TestCleanMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"No fence", "plain answer", "plain answer"},
		{"Fence with language", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"Bare fence", "```\nhello\n```", "hello"},
		{"Fence no newline", "```hi```", "hi"},
		{"Surrounding whitespace", "  \n```md\ntext\n```\n ", "text"},
		{"Inner fence untouched", "before ```code``` after", "before ```code``` after"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanMarkdown(tt.input); got != tt.expected {
				t.Errorf("CleanMarkdown(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestParseModelJSON(t *testing.T) {
	type answer struct {
		Answer     string  `json:"answer"`
		Confidence float64 `json:"confidence"`
	}

	tests := []struct {
		name  string
		input string
	}{
		{"Strict", `{"answer": "Net sales rose 8%.", "confidence": 0.9}`},
		{"Code fence", "```json\n{\"answer\": \"Net sales rose 8%.\", \"confidence\": 0.9}\n```"},
		{"Trailing comma", `{"answer": "Net sales rose 8%.", "confidence": 0.9,}`},
		{"Unquoted keys", `{answer: "Net sales rose 8%.", confidence: 0.9}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got answer
			if err := ParseModelJSON(tt.input, &got); err != nil {
				t.Fatalf("ParseModelJSON failed: %v", err)
			}
			if got.Answer != "Net sales rose 8%." {
				t.Errorf("answer = %q", got.Answer)
			}
			if got.Confidence != 0.9 {
				t.Errorf("confidence = %f", got.Confidence)
			}
		})
	}
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("# Revenue\n\nNet sales **rose** 8%.")
	if err != nil {
		t.Fatalf("RenderHTML failed: %v", err)
	}
	if !strings.Contains(html, "<h1>") || !strings.Contains(html, "<strong>rose</strong>") {
		t.Errorf("unexpected html: %q", html)
	}
}
