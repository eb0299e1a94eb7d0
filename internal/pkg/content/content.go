// Package content holds the JSON document shapes stored on pages: the
// outline produced for each page and the two accepted forms of description
// content.
package content

import (
	"errors"
	"strings"

	"github.com/bytedance/sonic"
)

// Outline is one outline item, one per page.
type Outline struct {
	Title  string   `json:"title"`
	Points []string `json:"points"`
}

// Description content arrives in one of two variants. Historically the
// generator emitted a structured form {title, lines, layout_suggestion};
// current write paths emit free text only. Read paths accept either and
// normalize through Canonical.
type Description struct {
	// FreeText variant
	Text string `json:"text,omitempty"`

	// Structured variant
	Title            string   `json:"title,omitempty"`
	Lines            []string `json:"lines,omitempty"`
	LayoutSuggestion string   `json:"layout_suggestion,omitempty"`
}

// ErrEmptyDescription is returned when neither variant carries content.
var ErrEmptyDescription = errors.New("description content is empty")

// IsStructured reports whether the structured variant is populated.
func (d Description) IsStructured() bool {
	return d.Text == "" && (d.Title != "" || len(d.Lines) > 0)
}

// Canonical flattens either variant into the single free-text form used by
// prompt building and by all write paths.
func (d Description) Canonical() (string, error) {
	if d.Text != "" {
		return d.Text, nil
	}
	if !d.IsStructured() {
		return "", ErrEmptyDescription
	}

	var b strings.Builder
	if d.Title != "" {
		b.WriteString(d.Title)
		b.WriteString("\n")
	}
	for _, line := range d.Lines {
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	if d.LayoutSuggestion != "" {
		b.WriteString("Layout: ")
		b.WriteString(d.LayoutSuggestion)
	}
	return strings.TrimSpace(b.String()), nil
}

// FreeText builds the write-side description document.
func FreeText(text string) Description {
	return Description{Text: text}
}

// ParseDescription decodes a description document accepting both variants.
func ParseDescription(raw []byte) (Description, error) {
	var d Description
	if err := sonic.Unmarshal(raw, &d); err != nil {
		return Description{}, err
	}
	return d, nil
}

// ParseOutlineList decodes the outline array returned by the text model.
// The model sometimes wraps the JSON in a markdown fence; strip it first.
func ParseOutlineList(raw string) ([]Outline, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}

	var items []Outline
	if err := sonic.Unmarshal([]byte(s), &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.New("outline is empty")
	}
	return items, nil
}
