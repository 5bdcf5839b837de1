// Package prompt loads and renders the RAG prompt template.
package prompt

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	contextVar  = "{context}"
	questionVar = "{question}"
)

// Template is a prompt with {context} and {question} placeholders, loaded
// from a YAML file so prompt wording can change without a rebuild.
type Template struct {
	text string
}

// file is the on-disk YAML shape of a prompt template.
type file struct {
	Template       string   `yaml:"template"`
	InputVariables []string `yaml:"input_variables"`
}

// Load reads a prompt template from a YAML file and verifies both
// placeholders are present.
func Load(path string) (*Template, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read prompt %s: %w", path, err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse prompt %s: %w", path, err)
	}
	return New(f.Template)
}

// New creates a template from raw text.
func New(text string) (*Template, error) {
	if !strings.Contains(text, contextVar) {
		return nil, fmt.Errorf("prompt template missing %s placeholder", contextVar)
	}
	if !strings.Contains(text, questionVar) {
		return nil, fmt.Errorf("prompt template missing %s placeholder", questionVar)
	}
	return &Template{text: text}, nil
}

// Render substitutes the retrieved context and the user question.
func (t *Template) Render(contextText, question string) string {
	return strings.NewReplacer(
		contextVar, contextText,
		questionVar, question,
	).Replace(t.text)
}
