// Package fix applies audit issues as byte-range edits. Every fix is the
// narrowest possible splice into the original document bytes: a scalar
// value's span, a key token, or a whole line. Edits are planned against the
// audited parse, verified against the live bytes, and applied back to front
// so earlier spans never drift.
package fix

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/magpie-md/magpie/internal/audit"
	"github.com/magpie-md/magpie/internal/frontmatter"
	"github.com/magpie-md/magpie/internal/schema"
)

// Mode selects how fix decisions are made.
type Mode int

const (
	// ModeAuto applies every auto-fixable issue without asking.
	ModeAuto Mode = iota
	// ModeInteractive asks the Confirm callback before each fix.
	ModeInteractive
	// ModeDryRun performs every decision step but produces no content.
	ModeDryRun
)

// Outcome is the per-issue result of a fix attempt.
type Outcome int

const (
	OutcomeFixed Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFixed:
		return "fixed"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// MarshalJSON emits the outcome label, matching the audit severity encoding.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// DuplicateKeep selects which occurrence of a duplicated key survives
// deduplication.
type DuplicateKeep string

const (
	// KeepLast keeps the final occurrence, whose value the derived map
	// already reports.
	KeepLast DuplicateKeep = "last"
	// KeepFirst keeps the first declared occurrence.
	KeepFirst DuplicateKeep = "first"
)

// Options configures a fix pass.
type Options struct {
	Mode Mode
	// Confirm is consulted per issue in interactive mode. A nil callback
	// skips every fix rather than assuming consent.
	Confirm func(issue audit.Issue, description string) bool
	// DuplicateKeep defaults to KeepLast.
	DuplicateKeep DuplicateKeep
}

// Result is the outcome for one issue.
type Result struct {
	Issue   audit.Issue `json:"issue"`
	Outcome Outcome     `json:"outcome"`
	Reason  string      `json:"reason,omitempty"` // set for skipped and failed outcomes
}

// Summary aggregates fix results across a run.
type Summary struct {
	Fixed     int  `json:"fixed"`
	Skipped   int  `json:"skipped"`
	Failed    int  `json:"failed"`
	Remaining int  `json:"remaining"`
	DryRun    bool `json:"dryRun"`
}

// Summarize folds per-issue results into run totals. totalIssues is the
// audit's full issue count; everything not fixed remains.
func Summarize(results []Result, totalIssues int, dryRun bool) Summary {
	s := Summary{DryRun: dryRun}
	for _, r := range results {
		switch r.Outcome {
		case OutcomeFixed:
			s.Fixed++
		case OutcomeSkipped:
			s.Skipped++
		case OutcomeFailed:
			s.Failed++
		}
	}
	s.Remaining = totalIssues - s.Fixed
	return s
}

// edit is one planned splice. want is the exact text the span must still
// hold; a mismatch means the document changed since the audit and the fix
// fails rather than corrupting text.
type edit struct {
	start, end int
	want       string
	repl       string
	result     *Result
	seq        int // planning order; issues are planned in audit order
}

// Document applies the auto-fixable issues for one document and returns the
// new content. The returned bytes are nil when nothing changed or in
// dry-run mode; the per-issue results always cover every issue passed in.
func Document(doc *frontmatter.Document, res *schema.Resolved, issues []audit.Issue, opts Options) ([]byte, []Result) {
	if opts.DuplicateKeep == "" {
		opts.DuplicateKeep = KeepLast
	}

	results := make([]Result, len(issues))
	var edits []edit
	relocate := false

	for i, issue := range issues {
		results[i] = Result{Issue: issue}
		r := &results[i]

		if !issue.AutoFixable {
			r.Outcome = OutcomeSkipped
			r.Reason = "not auto-fixable"
			continue
		}
		if !confirmed(issue, opts) {
			r.Outcome = OutcomeSkipped
			r.Reason = "declined"
			continue
		}

		switch issue.Code {
		case audit.CodeMisplacedFrontmatter:
			relocate = true
		case audit.CodeDateFormat, audit.CodeInvalidValue:
			edits = append(edits, planValueReplace(doc, issue, r)...)
		case audit.CodeMissingRequiredField:
			edits = append(edits, planInsert(doc, res, issue, r)...)
		case audit.CodeUnknownField:
			edits = append(edits, planMigration(doc, issue, r)...)
		case audit.CodeDuplicateKey:
			edits = append(edits, planDedupe(doc, issue, opts.DuplicateKeep, r)...)
		default:
			r.Outcome = OutcomeSkipped
			r.Reason = "no fix strategy for " + string(issue.Code)
		}
	}

	content := applyEdits(doc, edits)

	if relocate {
		content = applyRelocation(doc, content, relocateResult(results))
	}

	if opts.Mode == ModeDryRun {
		return nil, results
	}
	return content, results
}

func confirmed(issue audit.Issue, opts Options) bool {
	if opts.Mode != ModeInteractive {
		return true
	}
	if opts.Confirm == nil {
		return false
	}
	return opts.Confirm(issue, issue.Message)
}

// applyEdits verifies and applies planned edits back to front. Spans are
// checked against the original bytes, which stay valid for every edit at a
// smaller offset than the ones already applied. Overlapping or mismatched
// edits fail without aborting the rest; edits planned for the same issue
// fail together so a two-part fix never half-applies.
//
// Inserts at the same offset stack in reverse application order, so ties
// are broken by descending planning order: the earliest-planned edit
// applies last and ends up first in the file. Missing required fields are
// planned in schema order and must land in schema order.
func applyEdits(doc *frontmatter.Document, edits []edit) []byte {
	if len(edits) == 0 {
		return nil
	}

	for i := range edits {
		edits[i].seq = i
	}
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start > edits[j].start
		}
		return edits[i].seq > edits[j].seq
	})

	// Verify everything before touching any bytes.
	accepted := make([]bool, len(edits))
	failed := make(map[*Result]bool)
	lastStart := len(doc.Source) + 1
	for i := range edits {
		e := &edits[i]
		if e.end > lastStart {
			e.result.Outcome = OutcomeFailed
			e.result.Reason = "edit overlaps another fix"
			failed[e.result] = true
			continue
		}
		got, err := doc.RawSpan(e.start, e.end)
		if err != nil || got != e.want {
			e.result.Outcome = OutcomeFailed
			e.result.Reason = "target text no longer matches the audited document"
			failed[e.result] = true
			continue
		}
		accepted[i] = true
		lastStart = e.start
	}

	content := append([]byte(nil), doc.Source...)
	applied := false
	for i := range edits {
		e := &edits[i]
		if !accepted[i] || failed[e.result] {
			continue
		}
		next, err := frontmatter.Splice(content, e.start, e.end, []byte(e.repl))
		if err != nil {
			e.result.Outcome = OutcomeFailed
			e.result.Reason = err.Error()
			failed[e.result] = true
			continue
		}
		content = next
		e.result.Outcome = OutcomeFixed
		applied = true
	}

	if !applied {
		return nil
	}
	return content
}

// applyRelocation moves the primary block to the top, after all span edits,
// by re-parsing whatever content the span edits produced.
func applyRelocation(doc *frontmatter.Document, content []byte, r *Result) []byte {
	base := content
	if base == nil {
		base = doc.Source
	}
	moved, err := frontmatter.Parse(base).RelocateToTop()
	if err != nil {
		r.Outcome = OutcomeFailed
		r.Reason = err.Error()
		return content
	}
	r.Outcome = OutcomeFixed
	return moved
}

func relocateResult(results []Result) *Result {
	for i := range results {
		if results[i].Issue.Code == audit.CodeMisplacedFrontmatter {
			return &results[i]
		}
	}
	return nil
}

// planValueReplace swaps the last occurrence's scalar value span for the
// issue's suggested replacement.
func planValueReplace(doc *frontmatter.Document, issue audit.Issue, r *Result) []edit {
	pair, ok := lastOccurrence(doc, issue.Field)
	if !ok || pair.ValStart < 0 {
		r.Outcome = OutcomeSkipped
		r.Reason = "value has no editable span"
		return nil
	}
	if issue.Original != "" && pair.Value.Display() != issue.Original {
		r.Outcome = OutcomeFailed
		r.Reason = "value changed since the audit"
		return nil
	}
	return []edit{{
		start:  pair.ValStart,
		end:    pair.ValEnd,
		want:   string(doc.Source[pair.ValStart:pair.ValEnd]),
		repl:   issue.Suggested,
		result: r,
	}}
}

// planInsert adds a missing required field, with its default value, in
// schema-declared order relative to the keys already present.
func planInsert(doc *frontmatter.Document, res *schema.Resolved, issue audit.Issue, r *Result) []edit {
	if res == nil {
		r.Outcome = OutcomeSkipped
		r.Reason = "no resolved type to order the insert"
		return nil
	}
	field, ok := res.Field(issue.Field)
	if !ok || field.Default == nil {
		r.Outcome = OutcomeSkipped
		r.Reason = "field has no default value"
		return nil
	}
	primary := doc.Primary()
	if primary == nil || primary.Unterminated {
		r.Outcome = OutcomeSkipped
		r.Reason = "no well-formed frontmatter block"
		return nil
	}

	at := insertOffset(doc, res, issue.Field, primary)
	line := fmt.Sprintf("%s: %s%s", issue.Field, renderScalar(field.Default), doc.LineEnding)
	return []edit{{start: at, end: at, want: "", repl: line, result: r}}
}

// insertOffset finds the line-start offset before the first present key that
// the schema declares after the inserted field; absent that, the end of the
// content region.
func insertOffset(doc *frontmatter.Document, res *schema.Resolved, name string, primary *frontmatter.Block) int {
	order := make(map[string]int, len(res.Fields))
	for i, f := range res.Fields {
		order[f.Name] = i
	}
	target := order[name]

	for _, pair := range doc.Pairs {
		idx, declared := order[pair.Key]
		if !declared || idx <= target {
			continue
		}
		start, _ := doc.LineSpan(pair.Line)
		return start
	}
	return primary.ContentEnd
}

// planMigration renames an unknown key to its migration target, or moves
// the value into an existing empty target and drops the unknown line.
func planMigration(doc *frontmatter.Document, issue audit.Issue, r *Result) []edit {
	if issue.MigrateTo == "" {
		r.Outcome = OutcomeSkipped
		r.Reason = "no migration target"
		return nil
	}
	source, ok := lastOccurrence(doc, issue.Field)
	if !ok {
		r.Outcome = OutcomeSkipped
		r.Reason = "source key not found"
		return nil
	}

	target, present := lastOccurrence(doc, issue.MigrateTo)
	if !present {
		// Pure rename: the key token becomes the declared spelling.
		return []edit{{
			start:  source.KeyStart,
			end:    source.KeyEnd,
			want:   issue.Field,
			repl:   issue.MigrateTo,
			result: r,
		}}
	}

	if source.ValStart < 0 || target.ValStart < 0 {
		r.Outcome = OutcomeSkipped
		r.Reason = "value has no editable span"
		return nil
	}

	value := string(doc.Source[source.ValStart:source.ValEnd])
	repl := value
	// An implicit-null target ("key:") has an empty span right after the
	// colon; the moved value needs its separating space.
	if target.ValStart == target.ValEnd && target.ValStart > 0 && doc.Source[target.ValStart-1] == ':' {
		repl = " " + value
	}
	lineStart, lineEnd := doc.LineSpan(source.Line)
	return []edit{
		{
			start:  target.ValStart,
			end:    target.ValEnd,
			want:   string(doc.Source[target.ValStart:target.ValEnd]),
			repl:   repl,
			result: r,
		},
		{
			start:  lineStart,
			end:    lineEnd,
			want:   string(doc.Source[lineStart:lineEnd]),
			repl:   "",
			result: r,
		},
	}
}

// planDedupe deletes every occurrence of a duplicated key except the kept
// one. Block-style values have no single-line span and are left for manual
// resolution.
func planDedupe(doc *frontmatter.Document, issue audit.Issue, keep DuplicateKeep, r *Result) []edit {
	occ := doc.Occurrences(issue.DuplicateKey)
	if len(occ) < 2 {
		r.Outcome = OutcomeSkipped
		r.Reason = "key is no longer duplicated"
		return nil
	}

	kept := len(occ) - 1
	if keep == KeepFirst {
		kept = 0
	}

	var edits []edit
	for i, pair := range occ {
		if i == kept {
			continue
		}
		if pair.ValStart < 0 && !pair.Value.IsNull() {
			r.Outcome = OutcomeSkipped
			r.Reason = "duplicate occurrence spans multiple lines"
			return nil
		}
		lineStart, lineEnd := doc.LineSpan(pair.Line)
		edits = append(edits, edit{
			start:  lineStart,
			end:    lineEnd,
			want:   string(doc.Source[lineStart:lineEnd]),
			repl:   "",
			result: r,
		})
	}
	return edits
}

func lastOccurrence(doc *frontmatter.Document, key string) (frontmatter.Pair, bool) {
	occ := doc.Occurrences(key)
	if len(occ) == 0 {
		return frontmatter.Pair{}, false
	}
	return occ[len(occ)-1], true
}

// renderScalar renders a default value as a YAML scalar. Strings that would
// read as another type are quoted.
func renderScalar(v interface{}) string {
	s := fmt.Sprintf("%v", v)
	if str, ok := v.(string); ok {
		if str == "" || needsQuoting(str) {
			return "'" + strings.ReplaceAll(str, "'", "''") + "'"
		}
	}
	return s
}

func needsQuoting(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "yes", "no", "on", "off", "null", "~":
		return true
	}
	if strings.ContainsAny(s, ":#{}[]'\"|>&*!%@`") {
		return true
	}
	return s != strings.TrimSpace(s)
}
