// Package target describes the single resource a process watches.
package target

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Target is immutable for the lifetime of the process.
type Target struct {
	URL string `validate:"required,http_url"`
	// Selector picks a sub-portion of the page. Empty means the whole body.
	Selector string
	// Format controls how a selected element is rendered: text or markdown.
	Format     string   `validate:"omitempty,oneof=text markdown"`
	Recipients []string `validate:"required,min=1,dive,required"`
}

var validate = validator.New()

// New builds a validated Target. Recipients are trimmed and blanks dropped.
func New(url, selector, format string, recipients []string) (Target, error) {
	t := Target{
		URL:        strings.TrimSpace(url),
		Selector:   strings.TrimSpace(selector),
		Format:     strings.ToLower(strings.TrimSpace(format)),
		Recipients: cleanList(recipients),
	}
	if t.Format == "" {
		t.Format = FormatText
	}
	if err := validate.Struct(t); err != nil {
		return Target{}, fmt.Errorf("invalid watch target: %w", err)
	}
	return t, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
