package audit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/magpie-md/magpie/internal/dates"
	"github.com/magpie-md/magpie/internal/frontmatter"
	"github.com/magpie-md/magpie/internal/query"
	"github.com/magpie-md/magpie/internal/schema"
)

// reservedKeys are frontmatter keys every document may carry regardless of
// its type's declared fields.
var reservedKeys = map[string]bool{
	"type": true,
	"tags": true,
}

// Engine runs per-document checks against a resolved schema. It holds no
// per-document state and is safe to share across concurrent audits.
type Engine struct {
	schema *schema.File
}

// New creates an audit engine for the given schema.
func New(s *schema.File) *Engine {
	return &Engine{schema: s}
}

// CheckDocument audits one document's structural parse. Link and ownership
// checks need the whole vault and live in CheckLinks / FindOwnershipCycles.
func (e *Engine) CheckDocument(doc *frontmatter.Document) []Issue {
	var issues []Issue

	primary := doc.Primary()
	if primary == nil {
		return nil
	}

	if primary.Unterminated {
		issues = append(issues, Issue{
			Code:     CodeUnterminatedBlock,
			Severity: SeverityWarning,
			Line:     primary.OpenLine,
			Message:  "frontmatter block is opened but never closed",
		})
		return issues
	}

	if !doc.AtTop {
		issues = append(issues, Issue{
			Code:        CodeMisplacedFrontmatter,
			Severity:    SeverityWarning,
			Line:        primary.OpenLine,
			Message:     fmt.Sprintf("frontmatter block starts on line %d, not at the top of the document", primary.OpenLine),
			AutoFixable: true,
		})
	}

	if len(doc.Blocks) > 1 {
		issues = append(issues, Issue{
			Code:     CodeExtraBlock,
			Severity: SeverityWarning,
			Line:     doc.Blocks[1].OpenLine,
			Message:  fmt.Sprintf("document contains %d frontmatter blocks; only the first is read", len(doc.Blocks)),
		})
	}

	for _, diag := range doc.ParseErrors {
		issues = append(issues, Issue{
			Code:     CodeParseDegraded,
			Severity: SeverityWarning,
			Line:     primary.OpenLine,
			Message:  "frontmatter parsed in degraded mode: " + diag,
		})
	}

	for _, dup := range doc.DuplicateKeys() {
		occ := doc.Occurrences(dup.Key)
		issues = append(issues, Issue{
			Code:           CodeDuplicateKey,
			Severity:       SeverityWarning,
			Line:           occ[0].Line,
			Message:        fmt.Sprintf("key %q appears %d times; the last value wins", dup.Key, dup.Count),
			DuplicateKey:   dup.Key,
			DuplicateCount: dup.Count,
			AutoFixable:    true,
		})
	}

	issues = append(issues, e.checkTyped(doc)...)
	return issues
}

// checkTyped runs the schema-dependent checks: type resolution, required
// fields, value shapes, enum membership, unknown fields, date formats.
func (e *Engine) checkTyped(doc *frontmatter.Document) []Issue {
	typePath := doc.TypePath()
	if typePath == "" {
		return nil
	}

	res, err := e.schema.Resolve(typePath)
	if err != nil {
		return []Issue{{
			Code:     CodeUnknownType,
			Severity: SeverityError,
			Line:     fieldLine(doc, "type"),
			Field:    "type",
			Message:  fmt.Sprintf("type %q is not declared in the schema", typePath),
		}}
	}

	var issues []Issue

	for _, field := range res.Fields {
		if !field.Required {
			continue
		}
		if v, ok := doc.Field(field.Name); !ok || v.IsEmpty() {
			issues = append(issues, Issue{
				Code:        CodeMissingRequiredField,
				Severity:    SeverityError,
				Field:       field.Name,
				Message:     fmt.Sprintf("required field %q is missing or empty", field.Name),
				AutoFixable: field.Default != nil,
			})
		}
	}

	for _, key := range presentKeys(doc) {
		if reservedKeys[key] {
			continue
		}
		value, _ := doc.Field(key)
		line := fieldLine(doc, key)

		field, known := res.Field(key)
		if !known {
			issues = append(issues, e.unknownFieldIssue(key, value, line, res, doc.Fields))
			continue
		}

		issues = append(issues, e.checkFieldValue(field, value, line)...)
	}

	return issues
}

// unknownFieldIssue builds the suggestion-or-migrate issue for a key the
// schema does not declare. A deterministic single match against an empty,
// shape-compatible target upgrades the issue to an automatic migration.
func (e *Engine) unknownFieldIssue(key string, value frontmatter.Value, line int, res *schema.Resolved, fields map[string]frontmatter.Value) Issue {
	issue := Issue{
		Code:     CodeUnknownField,
		Severity: SeverityWarning,
		Field:    key,
		Line:     line,
		Message:  fmt.Sprintf("field %q is not declared for this type", key),
	}

	issue.Suggestions = Suggest(key, res.Fields.Names())
	if len(issue.Suggestions) > 0 {
		issue.Message += fmt.Sprintf(" (did you mean %s?)", quoteJoin(issue.Suggestions))
	}

	if target, ok := MigrationTarget(key, value, res, fields); ok {
		issue.MigrateTo = target
		issue.AutoFixable = true
		if normalizeKey(key) == normalizeKey(target) {
			issue.CanonicalKey = target
		}
	}
	return issue
}

func (e *Engine) checkFieldValue(field *schema.FieldDef, value frontmatter.Value, line int) []Issue {
	if value.IsEmpty() {
		return nil
	}

	var issues []Issue

	if !field.Compatible(value) {
		issues = append(issues, Issue{
			Code:     CodeShapeMismatch,
			Severity: SeverityError,
			Field:    field.Name,
			Line:     line,
			Message:  fmt.Sprintf("field %q holds a %s but is declared as %s", field.Name, value.Kind(), field.Shape),
		})
		return issues
	}

	if options := e.optionSet(field); len(options) > 0 {
		if s, ok := value.AsString(); ok && !containsString(options, s) {
			issues = append(issues, Issue{
				Code:     CodeInvalidValue,
				Severity: SeverityError,
				Field:    field.Name,
				Line:     line,
				Expected: options,
				Message:  fmt.Sprintf("field %q has value %q; valid values are %s", field.Name, s, quoteJoin(options)),
			})
		}
	}

	if field.Shape == schema.ShapeDate {
		if s, ok := value.AsString(); ok && !dates.IsCanonical(s) {
			issue := Issue{
				Code:     CodeDateFormat,
				Severity: SeverityWarning,
				Field:    field.Name,
				Line:     line,
				Original: s,
				Message:  fmt.Sprintf("field %q has non-canonical date %q", field.Name, s),
			}
			if canonical, ok := dates.Canonicalize(s); ok {
				issue.Suggested = canonical
				issue.AutoFixable = true
				issue.Message += fmt.Sprintf(" (canonical form: %s)", canonical)
			}
			issues = append(issues, issue)
		}
	}

	if field.Shape == schema.ShapeFixed && field.Value != nil {
		want := fmt.Sprintf("%v", field.Value)
		if value.Display() != want {
			issues = append(issues, Issue{
				Code:        CodeInvalidValue,
				Severity:    SeverityError,
				Field:       field.Name,
				Line:        line,
				Expected:    []string{want},
				Suggested:   want,
				Original:    value.Display(),
				Message:     fmt.Sprintf("field %q is pinned to %q", field.Name, want),
				AutoFixable: true,
			})
		}
	}

	return issues
}

// CheckSources validates every dynamic source's filter expressions against
// the schema. These are configuration-level problems, reported once per run
// rather than per document.
func (e *Engine) CheckSources() []Issue {
	var issues []Issue

	names := make([]string, 0, len(e.schema.DynamicSources))
	for name := range e.schema.DynamicSources {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		src := e.schema.DynamicSources[name]
		for _, filter := range src.Filters {
			normalized := query.NormalizeKeys(filter, e.schema.AllFieldNames())
			node, err := query.Parse(normalized)
			if err != nil {
				issues = append(issues, Issue{
					Code:     CodeInvalidSourceFilter,
					Severity: SeverityError,
					Message:  fmt.Sprintf("dynamic source %q: filter %q: %v", name, filter, err),
				})
				continue
			}
			for _, problem := range query.ValidateComparisons(node, e.schema) {
				issues = append(issues, Issue{
					Code:     CodeInvalidSourceFilter,
					Severity: SeverityError,
					Message:  fmt.Sprintf("dynamic source %q: filter %q: %v", name, filter, problem),
				})
			}
		}
	}
	return issues
}

// presentKeys returns the document's derived keys in first-occurrence order
// so repeated audits emit issues in a stable order.
func presentKeys(doc *frontmatter.Document) []string {
	seen := make(map[string]bool, len(doc.Pairs))
	var keys []string
	for _, pair := range doc.Pairs {
		if !seen[pair.Key] {
			seen[pair.Key] = true
			keys = append(keys, pair.Key)
		}
	}
	return keys
}

// fieldLine returns the line of a key's last occurrence, which is the one
// whose value the derived map keeps.
func fieldLine(doc *frontmatter.Document, key string) int {
	occ := doc.Occurrences(key)
	if len(occ) == 0 {
		return 0
	}
	return occ[len(occ)-1].Line
}

func containsString(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

func quoteJoin(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = fmt.Sprintf("%q", v)
	}
	return strings.Join(quoted, ", ")
}

// optionSet returns a field's effective value set: the referenced enum's
// values, or its inline options.
func (e *Engine) optionSet(field *schema.FieldDef) []string {
	if field.Enum != "" {
		return e.schema.Enums[field.Enum]
	}
	return field.Options
}
