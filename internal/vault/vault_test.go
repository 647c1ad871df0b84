package vault

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/magpie-md/magpie/internal/audit"
	"github.com/magpie-md/magpie/internal/fix"
	"github.com/magpie-md/magpie/internal/testutil"
)

const vaultSchema = `
version: 1
enums:
  status: [raw, done]
types:
  task:
    output_dir: tasks
    fields:
      status:
        type: select
        enum: status
        required: true
      due:
        type: date
      parent:
        type: relation
        owner: true
`

func openTestVault(t *testing.T, tv *testutil.TestVault) *Vault {
	t.Helper()
	v, err := Open(tv.Path)
	if err != nil {
		t.Fatal(err)
	}
	return v
}

func TestWalkSkipsDotDirsAndNonMarkdown(t *testing.T) {
	tv := testutil.NewTestVault(t).
		WithSchema(vaultSchema).
		WithFile("tasks/a.md", "---\ntype: task\nstatus: raw\n---\n").
		WithFile("tasks/notes.txt", "not markdown").
		WithFile(".trash/old.md", "---\ntype: task\n---\n").
		WithFile("sub/deep/b.md", "body only\n").
		Build()

	v := openTestVault(t, tv)
	paths, err := v.Walk()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"sub/deep/b.md", "tasks/a.md"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("paths = %v, want %v", paths, want)
	}
}

func TestAuditRun(t *testing.T) {
	tv := testutil.NewTestVault(t).
		WithSchema(vaultSchema).
		WithFile("tasks/good.md", "---\ntype: task\nstatus: raw\n---\nSee [[tasks/bad]].\n").
		WithFile("tasks/bad.md", "---\ntype: task\nstaus: x\ndue: 2024/3/5\n---\n[[tasks/missing]]\n").
		Build()

	v := openTestVault(t, tv)
	report, err := v.Audit(context.Background(), 4)
	if err != nil {
		t.Fatal(err)
	}

	if report.Summary.FilesChecked != 2 {
		t.Errorf("files checked = %d", report.Summary.FilesChecked)
	}
	if report.Summary.FilesWithErrors != 1 {
		t.Errorf("files with errors = %d", report.Summary.FilesWithErrors)
	}
	if !report.HasErrors() {
		t.Error("report should carry errors")
	}

	var bad *audit.FileReport
	for i := range report.Files {
		if report.Files[i].Path == "tasks/bad.md" {
			bad = &report.Files[i]
		}
	}
	if bad == nil {
		t.Fatal("no report for tasks/bad.md")
	}

	codes := make(map[audit.Code]int)
	for _, issue := range bad.Issues {
		codes[issue.Code]++
	}
	for _, want := range []audit.Code{
		audit.CodeUnknownField,
		audit.CodeMissingRequiredField,
		audit.CodeDateFormat,
		audit.CodeBrokenLink,
	} {
		if codes[want] != 1 {
			t.Errorf("codes = %v, want one %s", codes, want)
		}
	}
}

func TestAuditIsDeterministicAcrossRuns(t *testing.T) {
	tv := testutil.NewTestVault(t).
		WithSchema(vaultSchema).
		WithFile("tasks/a.md", "---\ntype: task\nstaus: x\n---\n").
		WithFile("tasks/b.md", "---\ntype: task\nstatus: raw\ndue: 2024/3/5\n---\n").
		Build()

	v := openTestVault(t, tv)
	first, err := v.Audit(context.Background(), 8)
	if err != nil {
		t.Fatal(err)
	}
	second, err := v.Audit(context.Background(), 1)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("parallel and serial audits differ:\n%+v\n%+v", first, second)
	}
}

func TestAuditDetectsOwnershipCycles(t *testing.T) {
	tv := testutil.NewTestVault(t).
		WithSchema(vaultSchema).
		WithFile("tasks/a.md", "---\ntype: task\nstatus: raw\nparent: \"[[tasks/b]]\"\n---\n").
		WithFile("tasks/b.md", "---\ntype: task\nstatus: raw\nparent: \"[[tasks/a]]\"\n---\n").
		Build()

	v := openTestVault(t, tv)
	report, err := v.Audit(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}

	var cycles []audit.Issue
	for _, issue := range report.Global {
		if issue.Code == audit.CodeOwnershipCycle {
			cycles = append(cycles, issue)
		}
	}
	if len(cycles) != 1 {
		t.Fatalf("global issues = %+v, want one cycle", report.Global)
	}
	if !reflect.DeepEqual(cycles[0].CyclePath, []string{"tasks/a", "tasks/b"}) {
		t.Errorf("cycle path = %v", cycles[0].CyclePath)
	}
}

func TestAuditRecordsUnreadableFiles(t *testing.T) {
	tv := testutil.NewTestVault(t).
		WithSchema(vaultSchema).
		WithFile("tasks/locked.md", "---\ntype: task\nstatus: raw\n---\n").
		WithFile("tasks/fine.md", "---\ntype: task\nstatus: raw\n---\n").
		Build()

	locked := filepath.Join(tv.Path, "tasks", "locked.md")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Skipf("cannot drop read permission: %v", err)
	}
	if _, err := os.ReadFile(locked); err == nil {
		t.Skip("file still readable (running as root)")
	}

	v := openTestVault(t, tv)
	report, err := v.Audit(context.Background(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if report.Summary.ReadFailures != 1 {
		t.Errorf("read failures = %d, want 1", report.Summary.ReadFailures)
	}
	if report.Summary.FilesChecked != 2 {
		t.Errorf("files checked = %d; one bad file must not abort the run", report.Summary.FilesChecked)
	}
}

func TestFixRunWritesAtomically(t *testing.T) {
	tv := testutil.NewTestVault(t).
		WithSchema(vaultSchema).
		WithFile("tasks/a.md", "---\ntype: task\nstatus: raw\ndue: 2024/3/5\n---\nbody\n").
		Build()

	v := openTestVault(t, tv)
	run, err := v.Fix(context.Background(), fix.Options{Mode: fix.ModeAuto})
	if err != nil {
		t.Fatal(err)
	}

	if run.Summary.Fixed != 1 {
		t.Errorf("summary = %+v", run.Summary)
	}
	tv.AssertFileEquals("tasks/a.md", "---\ntype: task\nstatus: raw\ndue: 2024-03-05\n---\nbody\n")

	// The fixed vault audits clean.
	report, err := v.Audit(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if report.Summary.TotalErrors != 0 || report.Summary.TotalWarnings != 0 {
		t.Errorf("post-fix summary = %+v", report.Summary)
	}
}

func TestFixRunReportsFilesInWalkOrder(t *testing.T) {
	src := "---\ntype: task\nstatus: raw\ndue: 2024/3/5\n---\n"
	tv := testutil.NewTestVault(t).
		WithSchema(vaultSchema).
		WithFile("tasks/a.md", src).
		WithFile("tasks/b.md", src).
		WithFile("tasks/c.md", src).
		WithFile("tasks/d.md", src).
		Build()

	v := openTestVault(t, tv)
	run, err := v.Fix(context.Background(), fix.Options{Mode: fix.ModeDryRun})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"tasks/a.md", "tasks/b.md", "tasks/c.md", "tasks/d.md"}
	var got []string
	for _, ff := range run.Files {
		got = append(got, ff.Path)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("file order = %v, want %v", got, want)
	}
}

func TestFixDryRunLeavesFilesAlone(t *testing.T) {
	src := "---\ntype: task\nstatus: raw\ndue: 2024/3/5\n---\n"
	tv := testutil.NewTestVault(t).
		WithSchema(vaultSchema).
		WithFile("tasks/a.md", src).
		Build()

	v := openTestVault(t, tv)
	run, err := v.Fix(context.Background(), fix.Options{Mode: fix.ModeDryRun})
	if err != nil {
		t.Fatal(err)
	}
	if !run.Summary.DryRun || run.Summary.Fixed != 1 {
		t.Errorf("summary = %+v", run.Summary)
	}
	tv.AssertFileEquals("tasks/a.md", src)
}

func TestFilter(t *testing.T) {
	tv := testutil.NewTestVault(t).
		WithSchema(vaultSchema).
		WithFile("tasks/open.md", "---\ntype: task\nstatus: raw\n---\n").
		WithFile("tasks/closed.md", "---\ntype: task\nstatus: done\n---\n").
		WithFile("notes/plain.md", "no frontmatter\n").
		Build()

	v := openTestVault(t, tv)
	snap, err := v.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	docs, err := v.Filter(snap, []string{"type == 'task'", "status == 'raw'"})
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].Path != "tasks/open.md" {
		t.Errorf("matched = %+v", docs)
	}

	if _, err := v.Filter(snap, []string{"status == 'raw"}); err == nil {
		t.Error("broken query must error, not silently match nothing")
	}
}

func TestIndexResolvesSlugsAndBaseNames(t *testing.T) {
	ix := NewIndex()
	ix.Add("tasks/Write Report")

	for _, target := range []string{
		"tasks/Write Report",
		"Write Report",
		"write-report",
		"tasks/write-report",
	} {
		if !ix.Exists(target) {
			t.Errorf("target %q should resolve", target)
		}
	}
	if ix.Exists("tasks/other") {
		t.Error("unknown target resolved")
	}
}
