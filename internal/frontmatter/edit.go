package frontmatter

import (
	"bytes"
	"fmt"
	"strings"
)

// Splice returns a new byte slice with [start, end) replaced by repl. The
// prefix and suffix are copied from src untouched; src itself is never
// mutated.
func Splice(src []byte, start, end int, repl []byte) ([]byte, error) {
	if start < 0 || end < start || end > len(src) {
		return nil, fmt.Errorf("splice span [%d, %d) out of bounds for %d bytes", start, end, len(src))
	}
	out := make([]byte, 0, len(src)-(end-start)+len(repl))
	out = append(out, src[:start]...)
	out = append(out, repl...)
	out = append(out, src[end:]...)
	return out, nil
}

// ReplaceContent returns the document bytes with exactly the primary block's
// YAML content region replaced. The replacement is rewritten to the
// document's own line-ending convention and terminated by exactly one line
// ending; every byte outside the content span is preserved.
func (d *Document) ReplaceContent(content string) ([]byte, error) {
	primary := d.Primary()
	if primary == nil {
		return nil, fmt.Errorf("document has no frontmatter block")
	}
	if primary.Unterminated {
		return nil, fmt.Errorf("frontmatter block is unterminated")
	}

	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	normalized = strings.TrimRight(normalized, "\n")
	if d.LineEnding != "\n" {
		normalized = strings.ReplaceAll(normalized, "\n", d.LineEnding)
	}
	normalized += d.LineEnding

	return Splice(d.Source, primary.ContentStart, primary.ContentEnd, []byte(normalized))
}

// RelocateToTop returns the document bytes with the primary block moved to
// the top of the document. A leading byte-order mark stays in place. The
// block's own bytes and the remaining text are otherwise unchanged.
func (d *Document) RelocateToTop() ([]byte, error) {
	primary := d.Primary()
	if primary == nil {
		return nil, fmt.Errorf("document has no frontmatter block")
	}
	if primary.Unterminated {
		return nil, fmt.Errorf("frontmatter block is unterminated")
	}
	if d.AtTop {
		return append([]byte(nil), d.Source...), nil
	}

	block := d.Source[primary.OpenStart:primary.CloseEnd]
	rest, err := Splice(d.Source, primary.OpenStart, primary.CloseEnd, nil)
	if err != nil {
		return nil, err
	}

	insertAt := 0
	if d.HasBOM {
		insertAt = len(BOM)
	}

	out := make([]byte, 0, len(d.Source)+len(d.LineEnding))
	out = append(out, rest[:insertAt]...)
	out = append(out, block...)
	// The block always ends with the closing delimiter's line ending unless
	// it closed at EOF without one.
	if !bytes.HasSuffix(block, []byte("\n")) {
		out = append(out, d.LineEnding...)
	}
	out = append(out, rest[insertAt:]...)
	return out, nil
}
