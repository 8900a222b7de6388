// Package prompts holds the embedded prompt templates used for text enhancement.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"text/template"
)

//go:embed enhancement.json
var enhancementJSON []byte

// Input fills an enhancement template. Company and Position are only used by
// the experience prompt and may be empty.
type Input struct {
	Text     string
	Company  string
	Position string
}

// Set is the parsed enhancement prompt file.
type Set struct {
	System    string
	templates map[string]*template.Template
}

var load = sync.OnceValues(func() (*Set, error) {
	return Parse(enhancementJSON)
})

// Enhancement returns the embedded prompt set. It is parsed once.
func Enhancement() (*Set, error) {
	return load()
}

// Parse reads a prompt file: a JSON object with a "system" instruction and one
// template per enhancement kind.
func Parse(data []byte) (*Set, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file: %w", err)
	}

	system := strings.TrimSpace(raw["system"])
	if system == "" {
		return nil, fmt.Errorf("prompt file has no system instruction")
	}
	delete(raw, "system")

	set := &Set{System: system, templates: make(map[string]*template.Template, len(raw))}
	for kind, text := range raw {
		tmpl, err := template.New(kind).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("invalid %q prompt: %w", kind, err)
		}
		set.templates[kind] = tmpl
	}
	return set, nil
}

// Render fills the template for kind.
func (s *Set) Render(kind string, in Input) (string, error) {
	tmpl, ok := s.templates[kind]
	if !ok {
		return "", fmt.Errorf("no %q prompt", kind)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, in); err != nil {
		return "", fmt.Errorf("failed to render %q prompt: %w", kind, err)
	}
	return b.String(), nil
}
