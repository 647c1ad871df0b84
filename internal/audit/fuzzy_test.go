package audit

import (
	"reflect"
	"testing"

	"github.com/magpie-md/magpie/internal/frontmatter"
	"github.com/magpie-md/magpie/internal/schema"
)

func TestEditDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"status", "status", 0},
		{"status", "statsu", 1}, // adjacent transposition costs one
		{"staus", "status", 1},
		{"status", "category", 7},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
	}
	for _, tt := range tests {
		if got := editDistance(tt.a, tt.b); got != tt.want {
			t.Errorf("editDistance(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Due-Date", "due date"},
		{"due_date", "due date"},
		{"due date", "due date"},
		{"DueDate", "duedate"},
	}
	for _, tt := range tests {
		if got := normalizeKey(tt.in); got != tt.want {
			t.Errorf("normalizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSuggestThreshold(t *testing.T) {
	declared := []string{"status", "category", "title"}

	if got := Suggest("statsu", declared); !reflect.DeepEqual(got, []string{"status"}) {
		t.Errorf("statsu suggestions = %v, want [status]", got)
	}
	// category is far beyond the relative threshold from status.
	if got := Suggest("status", []string{"category"}); len(got) != 0 {
		t.Errorf("coincidental match accepted: %v", got)
	}
}

func TestSuggestRanking(t *testing.T) {
	// Exact separator-variant first, then plural, then fuzzy; at most three.
	declared := []string{"due-dates", "due_date", "due-datx", "duedate"}
	got := Suggest("Due Date", declared)
	if len(got) != 3 {
		t.Fatalf("suggestions = %v", got)
	}
	if got[0] != "due_date" {
		t.Errorf("exact normalized match not first: %v", got)
	}
	if got[1] != "due-dates" {
		t.Errorf("plural variant not second: %v", got)
	}
}

func migrationSchema(t *testing.T) *schema.Resolved {
	t.Helper()
	f, err := schema.Parse([]byte(`
version: 1
types:
  note:
    fields:
      description:
        type: text
      title:
        type: text
`))
	if err != nil {
		t.Fatal(err)
	}
	res, err := f.Resolve("note")
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestMigrationTargetPrefixMatch(t *testing.T) {
	res := migrationSchema(t)
	fields := map[string]frontmatter.Value{
		"desc": frontmatter.String("a note"),
	}

	target, ok := MigrationTarget("desc", frontmatter.String("a note"), res, fields)
	if !ok || target != "description" {
		t.Errorf("target = %q, %v; want description", target, ok)
	}
}

func TestMigrationTargetRefusesNonEmptyTarget(t *testing.T) {
	res := migrationSchema(t)
	fields := map[string]frontmatter.Value{
		"desc":        frontmatter.String("a note"),
		"description": frontmatter.String("already set"),
	}

	if target, ok := MigrationTarget("desc", frontmatter.String("a note"), res, fields); ok {
		t.Errorf("migration proposed into non-empty target %q", target)
	}
}

func TestMigrationTargetRefusesShapeMismatch(t *testing.T) {
	f, err := schema.Parse([]byte(`
version: 1
types:
  note:
    fields:
      priority:
        type: number
`))
	if err != nil {
		t.Fatal(err)
	}
	res, err := f.Resolve("note")
	if err != nil {
		t.Fatal(err)
	}

	value := frontmatter.String("high")
	if target, ok := MigrationTarget("priorities", value, res, nil); ok {
		t.Errorf("migration proposed despite shape mismatch: %q", target)
	}
}

func TestMigrationTargetRefusesAmbiguity(t *testing.T) {
	f, err := schema.Parse([]byte(`
version: 1
types:
  note:
    fields:
      description:
        type: text
      desc_ription:
        type: text
`))
	if err != nil {
		t.Fatal(err)
	}
	res, err := f.Resolve("note")
	if err != nil {
		t.Fatal(err)
	}

	if target, ok := MigrationTarget("desc", frontmatter.String("x"), res, nil); ok {
		t.Errorf("ambiguous match migrated to %q", target)
	}
}

func TestMigrationTargetRefusesFuzzyOnlyMatch(t *testing.T) {
	f, err := schema.Parse([]byte(`
version: 1
types:
  note:
    fields:
      status:
        type: text
`))
	if err != nil {
		t.Fatal(err)
	}
	res, err := f.Resolve("note")
	if err != nil {
		t.Fatal(err)
	}

	// A transposition is a suggestion, never an automatic move.
	if target, ok := MigrationTarget("statsu", frontmatter.String("x"), res, nil); ok {
		t.Errorf("fuzzy-only match migrated to %q", target)
	}
}
