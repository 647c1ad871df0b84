// Package audit detects schema-conformance and structural-integrity problems
// in vault documents. Per-document checks are pure functions of the schema
// and one document's structural parse; link and ownership checks run against
// a vault-wide index built beforehand.
package audit

import "encoding/json"

// Severity indicates how serious an issue is.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "ERROR"
	case SeverityWarning:
		return "WARN"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON emits the severity label rather than its numeric value, which
// is what scripted consumers of "mag audit --json" match on.
func (s Severity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Code is a stable identifier for an issue kind. Codes are part of the
// reporting surface and documented under docs/.
type Code string

const (
	CodeUnknownType           Code = "unknown-type"
	CodeMissingRequiredField  Code = "missing-required-field"
	CodeInvalidValue          Code = "invalid-value"
	CodeShapeMismatch         Code = "shape-mismatch"
	CodeUnknownField          Code = "unknown-field"
	CodeDateFormat            Code = "date-format"
	CodeDuplicateKey          Code = "duplicate-key"
	CodeMisplacedFrontmatter  Code = "misplaced-frontmatter"
	CodeUnterminatedBlock     Code = "unterminated-frontmatter"
	CodeExtraBlock            Code = "extra-frontmatter-block"
	CodeParseDegraded         Code = "frontmatter-parse-degraded"
	CodeBrokenLink            Code = "broken-link"
	CodeOwnershipCycle        Code = "ownership-cycle"
	CodeInvalidSourceFilter   Code = "invalid-source-filter"
	CodeInvalidRelationTarget Code = "invalid-relation-target"
)

// Issue is one detected problem in one document. The metadata fields are
// code-specific; unused ones stay zero.
type Issue struct {
	Code     Code     `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Line     int      `json:"line,omitempty"`

	// Field-level metadata.
	Field       string   `json:"field,omitempty"`
	Expected    []string `json:"expected,omitempty"`    // valid value set for invalid-value
	Suggestions []string `json:"suggestions,omitempty"` // ranked candidate fields or link targets
	Suggested   string   `json:"suggested,omitempty"`   // replacement value (canonical date)
	Original    string   `json:"original,omitempty"`    // the audited value a fix must still find

	// Unknown-field migration metadata.
	CanonicalKey string `json:"canonicalKey,omitempty"` // declared spelling of a separator-variant key
	MigrateTo    string `json:"migrateTo,omitempty"`    // target field for a safe value move

	// Duplicate-key metadata.
	DuplicateKey   string `json:"duplicateKey,omitempty"`
	DuplicateCount int    `json:"duplicateCount,omitempty"`

	// Link and ownership metadata.
	Target    string   `json:"target,omitempty"`
	CyclePath []string `json:"cyclePath,omitempty"`

	AutoFixable bool `json:"autoFixable"`
}
