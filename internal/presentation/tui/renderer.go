package tui

import (
	"github.com/charmbracelet/glamour"

	"github.com/aretw0/leadflow/pkg/runner"
)

// NewRenderer returns a markdown renderer that styles step content for the
// terminal. It falls back to the raw markdown if glamour cannot be set up.
func NewRenderer() runner.ContentRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return func(s string) (string, error) { return s, nil }
	}
	return r.Render
}
