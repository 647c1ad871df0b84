package audit

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/magpie-md/magpie/internal/frontmatter"
	"github.com/magpie-md/magpie/internal/wikilink"
)

// Index answers link-target lookups against the whole vault. The vault layer
// builds it in phase one; audits only read it.
type Index interface {
	// Exists reports whether a link target resolves to a known document.
	Exists(target string) bool
	// Names returns every known document name, for near-miss suggestions.
	Names() []string
}

// maxLinkCandidates bounds the similarly-named suggestions per broken link.
const maxLinkCandidates = 3

// CheckLinks scans a document's body for wikilinks and internal markdown
// links whose targets do not resolve.
func (e *Engine) CheckLinks(doc *frontmatter.Document, idx Index) []Issue {
	body := doc.Body()
	if len(body) == 0 {
		return nil
	}
	startLine := doc.BodyStartLine()
	lineStarts := bodyLineStarts(body)

	var issues []Issue

	for _, m := range wikilink.FindAll(string(body)) {
		if idx.Exists(m.Target) {
			continue
		}
		issues = append(issues, brokenLink(m.Target, m.Literal, startLine+offsetLine(lineStarts, m.Start), idx))
	}

	for _, link := range markdownLinks(body) {
		if idx.Exists(link.target) {
			continue
		}
		issues = append(issues, brokenLink(link.target, link.target, startLine+offsetLine(lineStarts, link.offset), idx))
	}

	return issues
}

func brokenLink(target, literal string, line int, idx Index) Issue {
	issue := Issue{
		Code:     CodeBrokenLink,
		Severity: SeverityWarning,
		Line:     line,
		Target:   target,
		Message:  fmt.Sprintf("link %q does not resolve to a known document", literal),
	}
	issue.Suggestions = nearbyNames(target, idx.Names())
	if len(issue.Suggestions) > 0 {
		issue.Message += fmt.Sprintf(" (similar: %s)", quoteJoin(issue.Suggestions))
	}
	return issue
}

// nearbyNames reuses the field-suggestion matcher over document names.
func nearbyNames(target string, names []string) []string {
	out := Suggest(target, names)
	if len(out) > maxLinkCandidates {
		out = out[:maxLinkCandidates]
	}
	return out
}

type mdLink struct {
	target string
	offset int
}

// markdownLinks extracts internal markdown link destinations: relative
// paths, optionally ending in .md. External URLs and anchors are skipped.
func markdownLinks(body []byte) []mdLink {
	md := goldmark.New()
	reader := text.NewReader(body)
	root := md.Parser().Parse(reader)

	var links []mdLink
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		link, ok := n.(*ast.Link)
		if !ok {
			return ast.WalkContinue, nil
		}
		dest := string(link.Destination)
		if !isInternalTarget(dest) {
			return ast.WalkContinue, nil
		}

		offset := 0
		if txt, ok := link.FirstChild().(*ast.Text); ok {
			offset = txt.Segment.Start
		}
		links = append(links, mdLink{
			target: strings.TrimSuffix(dest, ".md"),
			offset: offset,
		})
		return ast.WalkContinue, nil
	})
	return links
}

func isInternalTarget(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "#") {
		return false
	}
	if u, err := url.Parse(dest); err == nil && u.Scheme != "" {
		return false
	}
	return true
}

func bodyLineStarts(body []byte) []int {
	starts := []int{0}
	for i, b := range body {
		if b == '\n' && i+1 < len(body) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// offsetLine converts a byte offset to a 0-indexed line within the body.
func offsetLine(lineStarts []int, offset int) int {
	for i := len(lineStarts) - 1; i >= 0; i-- {
		if lineStarts[i] <= offset {
			return i
		}
	}
	return 0
}

// mapIndex is a trivial Index over a fixed name set.
type mapIndex map[string]bool

func (m mapIndex) Exists(target string) bool { return m[target] }

func (m mapIndex) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	return names
}

// NewMapIndex builds an Index over a fixed set of document names.
func NewMapIndex(names ...string) Index {
	m := make(mapIndex, len(names))
	for _, name := range names {
		m[name] = true
	}
	return m
}
