package audit

import (
	"reflect"
	"testing"

	"github.com/magpie-md/magpie/internal/frontmatter"
	"github.com/magpie-md/magpie/internal/schema"
)

const engineSchema = `
version: 1
enums:
  status: [raw, done]
types:
  task:
    fields:
      status:
        type: select
        enum: status
        required: true
      due:
        type: date
      priority:
        type: number
      description:
        type: text
      kind:
        type: fixed-value
        value: work
`

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	f, err := schema.Parse([]byte(engineSchema))
	if err != nil {
		t.Fatal(err)
	}
	return New(f)
}

func audited(t *testing.T, e *Engine, src string) []Issue {
	t.Helper()
	return e.CheckDocument(frontmatter.Parse([]byte(src)))
}

func issuesByCode(issues []Issue, code Code) []Issue {
	var out []Issue
	for _, issue := range issues {
		if issue.Code == code {
			out = append(out, issue)
		}
	}
	return out
}

func TestCheckDocumentTypoAndMissingRequired(t *testing.T) {
	e := newTestEngine(t)
	issues := audited(t, e, "---\ntype: task\nstaus: \"x\"\n---\nbody\n")

	unknown := issuesByCode(issues, CodeUnknownField)
	if len(unknown) != 1 {
		t.Fatalf("unknown-field issues = %d, want 1", len(unknown))
	}
	if unknown[0].Severity != SeverityWarning {
		t.Errorf("unknown-field severity = %v, want warning", unknown[0].Severity)
	}
	if !reflect.DeepEqual(unknown[0].Suggestions, []string{"status"}) {
		t.Errorf("suggestions = %v, want [status]", unknown[0].Suggestions)
	}
	if unknown[0].AutoFixable {
		t.Error("a fuzzy-only match must not auto-migrate")
	}

	if got := issuesByCode(issues, CodeUnknownType); len(got) != 0 {
		t.Errorf("unexpected unknown-type issues: %v", got)
	}

	missing := issuesByCode(issues, CodeMissingRequiredField)
	if len(missing) != 1 || missing[0].Field != "status" {
		t.Fatalf("missing-required issues = %+v", missing)
	}
	if missing[0].Severity != SeverityError {
		t.Errorf("missing-required severity = %v, want error", missing[0].Severity)
	}
}

func TestCheckDocumentUnknownType(t *testing.T) {
	e := newTestEngine(t)
	issues := audited(t, e, "---\ntype: ghost\nstatus: raw\n---\n")

	if len(issues) != 1 || issues[0].Code != CodeUnknownType {
		t.Fatalf("issues = %+v, want a single unknown-type error", issues)
	}
	if issues[0].Severity != SeverityError {
		t.Errorf("severity = %v", issues[0].Severity)
	}
}

func TestCheckDocumentValidPasses(t *testing.T) {
	e := newTestEngine(t)
	issues := audited(t, e, "---\ntype: task\nstatus: raw\ndue: 2026-03-01\n---\n")
	if len(issues) != 0 {
		t.Errorf("issues = %+v, want none", issues)
	}
}

func TestCheckDocumentEnumMembership(t *testing.T) {
	e := newTestEngine(t)
	issues := audited(t, e, "---\ntype: task\nstatus: bogus\n---\n")

	invalid := issuesByCode(issues, CodeInvalidValue)
	if len(invalid) != 1 {
		t.Fatalf("invalid-value issues = %+v", issues)
	}
	if !reflect.DeepEqual(invalid[0].Expected, []string{"raw", "done"}) {
		t.Errorf("expected set = %v", invalid[0].Expected)
	}
	if invalid[0].Severity != SeverityError {
		t.Errorf("severity = %v", invalid[0].Severity)
	}
}

func TestCheckDocumentShapeMismatch(t *testing.T) {
	e := newTestEngine(t)
	issues := audited(t, e, "---\ntype: task\nstatus: raw\npriority: high\n---\n")

	mismatch := issuesByCode(issues, CodeShapeMismatch)
	if len(mismatch) != 1 || mismatch[0].Field != "priority" {
		t.Fatalf("shape issues = %+v", issues)
	}
}

func TestCheckDocumentEmptyValueAlwaysCompatible(t *testing.T) {
	e := newTestEngine(t)
	issues := audited(t, e, "---\ntype: task\nstatus: raw\npriority:\ndue: \"\"\n---\n")
	if got := issuesByCode(issues, CodeShapeMismatch); len(got) != 0 {
		t.Errorf("empty values flagged: %+v", got)
	}
	if got := issuesByCode(issues, CodeDateFormat); len(got) != 0 {
		t.Errorf("empty date flagged: %+v", got)
	}
}

func TestCheckDocumentDateFormat(t *testing.T) {
	e := newTestEngine(t)

	issues := audited(t, e, "---\ntype: task\nstatus: raw\ndue: 2024/3/5\n---\n")
	date := issuesByCode(issues, CodeDateFormat)
	if len(date) != 1 {
		t.Fatalf("date issues = %+v", issues)
	}
	if date[0].Suggested != "2024-03-05" || !date[0].AutoFixable {
		t.Errorf("date issue = %+v", date[0])
	}

	// Ambiguous month-first form: flagged but no guess offered.
	issues = audited(t, e, "---\ntype: task\nstatus: raw\ndue: 03/05/2024\n---\n")
	date = issuesByCode(issues, CodeDateFormat)
	if len(date) != 1 {
		t.Fatalf("date issues = %+v", issues)
	}
	if date[0].Suggested != "" || date[0].AutoFixable {
		t.Errorf("ambiguous date got a guess: %+v", date[0])
	}
}

func TestCheckDocumentAutoMigration(t *testing.T) {
	e := newTestEngine(t)
	issues := audited(t, e, "---\ntype: task\nstatus: raw\ndesc: a note\n---\n")

	unknown := issuesByCode(issues, CodeUnknownField)
	if len(unknown) != 1 {
		t.Fatalf("unknown-field issues = %+v", issues)
	}
	if unknown[0].MigrateTo != "description" || !unknown[0].AutoFixable {
		t.Errorf("migration not proposed: %+v", unknown[0])
	}

	// Non-empty target downgrades to suggestion only.
	issues = audited(t, e, "---\ntype: task\nstatus: raw\ndesc: a note\ndescription: set\n---\n")
	unknown = issuesByCode(issues, CodeUnknownField)
	if len(unknown) != 1 {
		t.Fatalf("unknown-field issues = %+v", issues)
	}
	if unknown[0].MigrateTo != "" || unknown[0].AutoFixable {
		t.Errorf("unsafe migration proposed: %+v", unknown[0])
	}
}

func TestCheckDocumentCanonicalKeyRename(t *testing.T) {
	e := newTestEngine(t)
	issues := audited(t, e, "---\ntype: task\nstatus: raw\nDue: 2026-03-01\n---\n")

	unknown := issuesByCode(issues, CodeUnknownField)
	if len(unknown) != 1 {
		t.Fatalf("unknown-field issues = %+v", issues)
	}
	if unknown[0].CanonicalKey != "due" || unknown[0].MigrateTo != "due" {
		t.Errorf("separator/case variant not canonicalized: %+v", unknown[0])
	}
}

func TestCheckDocumentFixedValue(t *testing.T) {
	e := newTestEngine(t)
	issues := audited(t, e, "---\ntype: task\nstatus: raw\nkind: play\n---\n")

	invalid := issuesByCode(issues, CodeInvalidValue)
	if len(invalid) != 1 || invalid[0].Suggested != "work" || !invalid[0].AutoFixable {
		t.Fatalf("fixed-value issue = %+v", issues)
	}
}

func TestCheckDocumentDuplicateKeys(t *testing.T) {
	e := newTestEngine(t)
	issues := audited(t, e, "---\ntype: task\nstatus: raw\nstatus: done\n---\n")

	dup := issuesByCode(issues, CodeDuplicateKey)
	if len(dup) != 1 || dup[0].DuplicateKey != "status" || dup[0].DuplicateCount != 2 {
		t.Fatalf("duplicate issues = %+v", issues)
	}
	if !dup[0].AutoFixable {
		t.Error("duplicate keys should be fixable")
	}
}

func TestCheckDocumentStructuralIssues(t *testing.T) {
	e := newTestEngine(t)

	issues := audited(t, e, "intro text\n---\ntype: task\nstatus: raw\n---\n")
	misplaced := issuesByCode(issues, CodeMisplacedFrontmatter)
	if len(misplaced) != 1 || !misplaced[0].AutoFixable {
		t.Fatalf("misplaced issues = %+v", issues)
	}

	issues = audited(t, e, "---\ntype: task\n")
	if len(issues) != 1 || issues[0].Code != CodeUnterminatedBlock {
		t.Fatalf("unterminated issues = %+v", issues)
	}

	issues = audited(t, e, "---\ntype: task\nstatus: raw\n---\nbody\n---\nextra: 1\n---\n")
	if got := issuesByCode(issues, CodeExtraBlock); len(got) != 1 {
		t.Fatalf("extra-block issues = %+v", issues)
	}
}

func TestCheckDocumentIsIdempotent(t *testing.T) {
	e := newTestEngine(t)
	src := "---\ntype: task\nstaus: x\ndue: 2024/3/5\nstatus: raw\nstatus: done\n---\n"

	first := audited(t, e, src)
	second := audited(t, e, src)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("audit not idempotent:\nfirst  = %+v\nsecond = %+v", first, second)
	}
}

func TestCheckSources(t *testing.T) {
	f, err := schema.Parse([]byte(`
version: 1
types:
  person:
    fields:
      team:
        type: text
dynamic_sources:
  people:
    directory: people
    filters:
      - "type == 'person'"
      - "ghost == 'x'"
      - "team == 'core"
`))
	if err != nil {
		t.Fatal(err)
	}

	issues := New(f).CheckSources()
	if len(issues) != 2 {
		t.Fatalf("source issues = %+v", issues)
	}
	for _, issue := range issues {
		if issue.Code != CodeInvalidSourceFilter || issue.Severity != SeverityError {
			t.Errorf("issue = %+v", issue)
		}
	}
}
