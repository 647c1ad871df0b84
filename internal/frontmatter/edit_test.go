package frontmatter

import (
	"bytes"
	"strings"
	"testing"
)

func TestSplice(t *testing.T) {
	src := []byte("abcdef")
	out, err := Splice(src, 2, 4, []byte("XY"))
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "abXYef" {
		t.Errorf("out = %q", out)
	}
	if string(src) != "abcdef" {
		t.Error("source mutated")
	}

	if _, err := Splice(src, 4, 2, nil); err == nil {
		t.Error("expected error for inverted span")
	}
	if _, err := Splice(src, 0, 100, nil); err == nil {
		t.Error("expected error for out-of-bounds span")
	}
}

// Locality: an edit built from recorded offsets changes only the bytes
// within the span; prefix and suffix are byte-identical to the original.
func TestSpliceLocality(t *testing.T) {
	src := "---\nstatus: rww\n---\n\nBody stays put.\n"
	doc := Parse([]byte(src))

	var pair Pair
	for _, p := range doc.Pairs {
		if p.Key == "status" {
			pair = p
		}
	}

	out, err := Splice(doc.Source, pair.ValStart, pair.ValEnd, []byte("raw"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out[:pair.ValStart], doc.Source[:pair.ValStart]) {
		t.Error("prefix changed")
	}
	if !bytes.Equal(out[pair.ValStart+3:], doc.Source[pair.ValEnd:]) {
		t.Error("suffix changed")
	}
	if string(out) != "---\nstatus: raw\n---\n\nBody stays put.\n" {
		t.Errorf("out = %q", out)
	}
}

func TestReplaceContentPreservesSurroundings(t *testing.T) {
	src := "---\nold: value\n---\n# Title\n\nBody.\n"
	doc := Parse([]byte(src))

	out, err := doc.ReplaceContent("new: value")
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "---\nnew: value\n---\n# Title\n\nBody.\n" {
		t.Errorf("out = %q", out)
	}
}

func TestReplaceContentCRLF(t *testing.T) {
	src := "---\r\nold: value\r\n---\r\nbody\r\n"
	doc := Parse([]byte(src))

	out, err := doc.ReplaceContent("a: 1\nb: 2")
	if err != nil {
		t.Fatal(err)
	}
	want := "---\r\na: 1\r\nb: 2\r\n---\r\nbody\r\n"
	if string(out) != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}

func TestReplaceContentSingleTrailingNewline(t *testing.T) {
	doc := Parse([]byte("---\nx: 1\n---\n"))
	out, err := doc.ReplaceContent("x: 2\n\n\n")
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "---\nx: 2\n---\n" {
		t.Errorf("out = %q", out)
	}
}

func TestRelocateToTop(t *testing.T) {
	src := "# Heading first\n\n---\ntype: task\n---\nrest\n"
	doc := Parse([]byte(src))

	out, err := doc.RelocateToTop()
	if err != nil {
		t.Fatal(err)
	}
	want := "---\ntype: task\n---\n# Heading first\n\nrest\n"
	if string(out) != want {
		t.Errorf("out = %q, want %q", out, want)
	}
}

func TestRelocateToTopKeepsBOM(t *testing.T) {
	src := BOM + "intro\n---\ntype: task\n---\n"
	doc := Parse([]byte(src))

	out, err := doc.RelocateToTop()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(out), BOM+"---\n") {
		t.Errorf("BOM not preserved at front: %q", out)
	}
	if !strings.Contains(string(out), "intro\n") {
		t.Errorf("body text lost: %q", out)
	}
}

func TestRelocateToTopAlreadyThere(t *testing.T) {
	src := "---\ntype: task\n---\nbody\n"
	doc := Parse([]byte(src))
	out, err := doc.RelocateToTop()
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != src {
		t.Errorf("out = %q, want unchanged", out)
	}
}
