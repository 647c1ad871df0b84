package audit

import (
	"strings"
	"testing"

	"github.com/magpie-md/magpie/internal/frontmatter"
)

func TestCheckLinks(t *testing.T) {
	e := newTestEngine(t)
	idx := NewMapIndex("projects/magpie", "people/alice", "people/alise-backup")

	src := strings.Join([]string{
		"---",
		"type: task",
		"status: raw",
		"---",
		"See [[projects/magpie]] and [[people/alcie|Alice]].",
		"Also [external](https://example.com) and [doc](people/alice.md).",
		"And [missing](people/bob.md).",
		"",
	}, "\n")

	issues := e.CheckLinks(frontmatter.Parse([]byte(src)), idx)
	if len(issues) != 2 {
		t.Fatalf("issues = %+v, want 2 broken links", issues)
	}

	if issues[0].Target != "people/alcie" {
		t.Errorf("first broken target = %q", issues[0].Target)
	}
	if issues[0].Line != 5 {
		t.Errorf("first broken line = %d, want 5", issues[0].Line)
	}
	if len(issues[0].Suggestions) == 0 || issues[0].Suggestions[0] != "people/alice" {
		t.Errorf("suggestions = %v", issues[0].Suggestions)
	}

	if issues[1].Target != "people/bob" {
		t.Errorf("second broken target = %q", issues[1].Target)
	}
}

func TestCheckLinksCandidateBound(t *testing.T) {
	e := newTestEngine(t)
	idx := NewMapIndex("note-1", "note-2", "note-3", "note-4", "note-5")

	src := "---\ntype: task\nstatus: raw\n---\n[[note-9]]\n"
	issues := e.CheckLinks(frontmatter.Parse([]byte(src)), idx)
	if len(issues) != 1 {
		t.Fatalf("issues = %+v", issues)
	}
	if len(issues[0].Suggestions) > maxLinkCandidates {
		t.Errorf("suggestions = %v, want at most %d", issues[0].Suggestions, maxLinkCandidates)
	}
}

func TestCheckLinksNoFrontmatterScansWholeDocument(t *testing.T) {
	e := newTestEngine(t)
	idx := NewMapIndex("known")

	issues := e.CheckLinks(frontmatter.Parse([]byte("[[unknown-doc]] on line 1\n")), idx)
	if len(issues) != 1 || issues[0].Line != 1 {
		t.Fatalf("issues = %+v", issues)
	}
}
