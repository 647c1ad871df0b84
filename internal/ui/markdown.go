package ui

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// DefaultTermWidth is used when the terminal width is unknown.
const DefaultTermWidth = 100

// RenderMarkdown renders markdown for terminal display. Outside a terminal
// the raw markdown is returned untouched so piped output stays greppable.
func RenderMarkdown(content string, width int) (string, error) {
	if !IsTerminal() {
		return content, nil
	}
	if width <= 0 {
		width = DefaultTermWidth
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	rendered, err := r.Render(content)
	if err != nil {
		return "", err
	}

	// glamour adds trailing newlines; keep exactly one.
	return strings.TrimRight(rendered, "\n") + "\n", nil
}
