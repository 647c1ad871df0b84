// Package frontmatter provides structural parsing and byte-exact editing of
// YAML frontmatter in markdown documents.
//
// The parser never reflows or re-serializes a document. It records byte
// offsets for every delimiter, the YAML content region, and every top-level
// key/value pair, so that a single field can be corrected by splicing the
// located span while every other byte stays untouched.
package frontmatter

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/magpie-md/magpie/internal/dates"
)

// BOM is the UTF-8 byte-order mark.
const BOM = "\xef\xbb\xbf"

// Block is a ----delimited frontmatter block located in a document.
// All offsets are byte offsets into the original source.
type Block struct {
	OpenStart, OpenEnd   int // opening delimiter line, including its line ending
	CloseStart, CloseEnd int // closing delimiter line; -1/-1 when unterminated
	ContentStart         int // YAML content region between the delimiters
	ContentEnd           int
	OpenLine             int // 1-indexed
	CloseLine            int // 1-indexed, 0 when unterminated
	Unterminated         bool
}

// Pair is one occurrence of a top-level key in the primary block. Duplicate
// keys produce one Pair per occurrence; the derived Fields map keeps the last.
type Pair struct {
	Key   string
	Value Value
	Line  int // 1-indexed document line
	// Byte offsets of the key token and the scalar value span on the same
	// line. ValStart/ValEnd are -1 for block-style (multi-line) values.
	KeyStart, KeyEnd int
	ValStart, ValEnd int
}

// Document is the structural parse of one markdown document.
type Document struct {
	Source     []byte
	HasBOM     bool
	LineEnding string // the document's own convention: "\n" or "\r\n"

	Blocks []Block
	AtTop  bool // primary block starts on line 1 (ignoring a leading BOM)

	// HasMapping is true when the primary block's content is a YAML mapping.
	// Empty or non-mapping content means "no frontmatter", not an error.
	HasMapping  bool
	Fields      map[string]Value
	Pairs       []Pair
	ParseErrors []string

	lineStarts []int
}

// fallbackPairRe extracts key: value lines when YAML parsing fails outright.
var fallbackPairRe = regexp.MustCompile(`^([A-Za-z0-9_][A-Za-z0-9_ .-]*?):\s*(.*)$`)

// Parse splits raw document bytes into located frontmatter blocks and a
// best-effort key/value map. It never returns an error: syntactically broken
// YAML degrades to line-level extraction plus a recorded diagnostic.
func Parse(src []byte) *Document {
	d := &Document{
		Source:     src,
		HasBOM:     bytes.HasPrefix(src, []byte(BOM)),
		LineEnding: "\n",
		Fields:     make(map[string]Value),
	}
	if bytes.Contains(src, []byte("\r\n")) {
		d.LineEnding = "\r\n"
	}
	d.lineStarts = computeLineStarts(src)

	d.scanBlocks()

	primary := d.Primary()
	if primary == nil {
		return d
	}
	d.AtTop = primary.OpenLine == 1

	if primary.Unterminated {
		return d
	}

	d.parsePrimary(primary)
	return d
}

// Primary returns the first frontmatter block, or nil when the document has
// none.
func (d *Document) Primary() *Block {
	if len(d.Blocks) == 0 {
		return nil
	}
	return &d.Blocks[0]
}

// Field returns the derived value for key.
func (d *Document) Field(key string) (Value, bool) {
	v, ok := d.Fields[key]
	return v, ok
}

// TypePath returns the document's declared type path, if any.
func (d *Document) TypePath() string {
	if v, ok := d.Fields["type"]; ok {
		if s, ok := v.AsString(); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// Body returns the document text after the primary block, or the whole
// source when there is none.
func (d *Document) Body() []byte {
	primary := d.Primary()
	if primary == nil {
		return d.Source
	}
	if primary.Unterminated {
		return nil
	}
	return d.Source[primary.CloseEnd:]
}

// BodyStartLine returns the 1-indexed line number of the first body line.
func (d *Document) BodyStartLine() int {
	primary := d.Primary()
	if primary == nil || primary.Unterminated {
		return 1
	}
	return primary.CloseLine + 1
}

// LineSpan returns the byte span of a 1-indexed line, including its line
// ending. The end of the last line is len(Source).
func (d *Document) LineSpan(line int) (start, end int) {
	if line < 1 || line > len(d.lineStarts) {
		return 0, 0
	}
	start = d.lineStarts[line-1]
	if line < len(d.lineStarts) {
		return start, d.lineStarts[line]
	}
	return start, len(d.Source)
}

func computeLineStarts(src []byte) []int {
	starts := []int{0}
	for i, b := range src {
		if b == '\n' && i+1 < len(src) {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineContent returns a line's text without its line ending.
func (d *Document) lineContent(line int) string {
	start, end := d.LineSpan(line)
	return strings.TrimRight(string(d.Source[start:end]), "\r\n")
}

func (d *Document) scanBlocks() {
	var open *Block
	for line := 1; line <= len(d.lineStarts); line++ {
		text := d.lineContent(line)
		if line == 1 {
			text = strings.TrimPrefix(text, BOM)
		}
		if strings.TrimSpace(text) != "---" {
			continue
		}

		start, end := d.LineSpan(line)
		if open == nil {
			open = &Block{
				OpenStart:    start,
				OpenEnd:      end,
				OpenLine:     line,
				ContentStart: end,
				CloseStart:   -1,
				CloseEnd:     -1,
			}
			continue
		}

		open.CloseStart = start
		open.CloseEnd = end
		open.CloseLine = line
		open.ContentEnd = start
		d.Blocks = append(d.Blocks, *open)
		open = nil
	}

	if open != nil {
		open.Unterminated = true
		open.ContentEnd = len(d.Source)
		d.Blocks = append(d.Blocks, *open)
	}
}

func (d *Document) parsePrimary(primary *Block) {
	content := d.Source[primary.ContentStart:primary.ContentEnd]
	if len(bytes.TrimSpace(content)) == 0 {
		return
	}

	var root yaml.Node
	if err := yaml.Unmarshal(content, &root); err != nil {
		d.ParseErrors = append(d.ParseErrors, err.Error())
		d.extractFallback(primary)
		return
	}
	if len(root.Content) == 0 {
		return
	}

	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		// Scalar or sequence frontmatter: treated as absent, not malformed.
		return
	}
	d.HasMapping = true

	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode := mapping.Content[i]
		valNode := mapping.Content[i+1]
		pair := Pair{
			Key:   keyNode.Value,
			Value: valueFromNode(valNode),
			Line:  primary.OpenLine + keyNode.Line,
		}
		d.locatePair(&pair, keyNode, valNode)
		d.Pairs = append(d.Pairs, pair)
		d.Fields[pair.Key] = pair.Value
	}
}

// locatePair computes byte offsets for a pair from the key node's position.
// The value span is the scalar text after the colon on the key's line; block
// style values get no editable span.
func (d *Document) locatePair(pair *Pair, keyNode, valNode *yaml.Node) {
	lineStart, lineEnd := d.LineSpan(pair.Line)
	pair.KeyStart = lineStart + keyNode.Column - 1
	pair.KeyEnd = pair.KeyStart + len(keyNode.Value)
	pair.ValStart = -1
	pair.ValEnd = -1

	if valNode.Kind != yaml.ScalarNode {
		return
	}
	// Implicit nulls ("key:") are positioned at the next token by the YAML
	// parser; treat them as an empty span on the key's own line.
	implicitNull := valNode.Tag == "!!null" && valNode.Value == ""
	if valNode.Line != keyNode.Line && !implicitNull {
		return // block scalar or value on a following line
	}

	// Scan past the colon to the first non-space byte.
	i := pair.KeyEnd
	for i < lineEnd && d.Source[i] != ':' {
		i++
	}
	if i >= lineEnd {
		return
	}
	i++
	for i < lineEnd && d.Source[i] == ' ' {
		i++
	}
	pair.ValStart = i

	end := lineEnd
	for end > i && (d.Source[end-1] == '\n' || d.Source[end-1] == '\r') {
		end--
	}
	pair.ValEnd = end
}

// extractFallback walks the primary block line by line when YAML parsing
// failed, keeping whatever key: value pairs it can recognize.
func (d *Document) extractFallback(primary *Block) {
	for line := primary.OpenLine + 1; line < primary.CloseLine; line++ {
		text := d.lineContent(line)
		m := fallbackPairRe.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		key := strings.TrimSpace(m[1])
		raw := strings.TrimSpace(m[2])

		lineStart, lineEnd := d.LineSpan(line)
		pair := Pair{
			Key:      key,
			Value:    String(raw),
			Line:     line,
			KeyStart: lineStart + strings.Index(text, key),
		}
		pair.KeyEnd = pair.KeyStart + len(key)
		if raw == "" {
			pair.ValStart, pair.ValEnd = -1, -1
		} else {
			pair.ValStart = lineStart + strings.Index(text, raw)
			end := lineEnd
			for end > pair.ValStart && (d.Source[end-1] == '\n' || d.Source[end-1] == '\r') {
				end--
			}
			pair.ValEnd = end
		}
		d.Pairs = append(d.Pairs, pair)
		d.Fields[key] = pair.Value
		d.HasMapping = true
	}
}

var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	dates.Layout,
}

// valueFromNode normalizes a YAML node into a Value. Dates become canonical
// YYYY-MM-DD strings in UTC; nested structures are walked recursively, with
// duplicate nested keys resolved last-wins like the top level.
func valueFromNode(n *yaml.Node) Value {
	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias != nil {
			return valueFromNode(n.Alias)
		}
		return Null()
	case yaml.ScalarNode:
		return scalarValue(n)
	case yaml.SequenceNode:
		items := make([]Value, 0, len(n.Content))
		for _, item := range n.Content {
			items = append(items, valueFromNode(item))
		}
		return List(items)
	case yaml.MappingNode:
		entries := make(map[string]Value, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			entries[n.Content[i].Value] = valueFromNode(n.Content[i+1])
		}
		return Map(entries)
	default:
		return Null()
	}
}

func scalarValue(n *yaml.Node) Value {
	switch n.Tag {
	case "!!null":
		return Null()
	case "!!bool":
		if b, err := strconv.ParseBool(n.Value); err == nil {
			return Bool(b)
		}
		switch strings.ToLower(n.Value) {
		case "yes", "on":
			return Bool(true)
		case "no", "off":
			return Bool(false)
		}
		return String(n.Value)
	case "!!int":
		if i, err := strconv.ParseInt(strings.ReplaceAll(n.Value, "_", ""), 0, 64); err == nil {
			return Number(float64(i))
		}
		return String(n.Value)
	case "!!float":
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return Number(f)
		}
		return String(n.Value)
	case "!!timestamp":
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, n.Value); err == nil {
				return String(t.UTC().Format(dates.Layout))
			}
		}
		return String(n.Value)
	default:
		return String(n.Value)
	}
}

// DuplicateKeys returns the keys that occur more than once in the primary
// block, with their occurrence counts, in first-seen order.
func (d *Document) DuplicateKeys() []DuplicateKey {
	counts := make(map[string]int)
	var order []string
	for _, pair := range d.Pairs {
		if counts[pair.Key] == 0 {
			order = append(order, pair.Key)
		}
		counts[pair.Key]++
	}

	var out []DuplicateKey
	for _, key := range order {
		if counts[key] > 1 {
			out = append(out, DuplicateKey{Key: key, Count: counts[key]})
		}
	}
	return out
}

// DuplicateKey is a key that occurs more than once in the primary block.
type DuplicateKey struct {
	Key   string
	Count int
}

// Occurrences returns every pair for the given key, in document order.
func (d *Document) Occurrences(key string) []Pair {
	var out []Pair
	for _, pair := range d.Pairs {
		if pair.Key == key {
			out = append(out, pair)
		}
	}
	return out
}

// RawSpan returns the bytes at [start, end) for edit verification.
func (d *Document) RawSpan(start, end int) (string, error) {
	if start < 0 || end < start || end > len(d.Source) {
		return "", fmt.Errorf("span [%d, %d) out of bounds for %d bytes", start, end, len(d.Source))
	}
	return string(d.Source[start:end]), nil
}
