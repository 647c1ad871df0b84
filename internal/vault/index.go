package vault

import (
	"sort"
	"strings"

	"github.com/gosimple/slug"

	"github.com/magpie-md/magpie/internal/schema"
	"github.com/magpie-md/magpie/internal/wikilink"
)

// Snapshot is phase one of an audit run: every document loaded once, the
// name index, and the owner-relation graph. Phase two reads it without
// mutation, so concurrent per-document checks need no locking.
type Snapshot struct {
	Docs  []*Document
	Index *Index
	// OwnerGraph maps a document name to the target named by its owner
	// relation field.
	OwnerGraph map[string]string
}

// Snapshot loads every document and derives the index and owner graph.
func (v *Vault) Snapshot() (*Snapshot, error) {
	paths, err := v.Walk()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Index:      NewIndex(),
		OwnerGraph: make(map[string]string),
	}
	for _, rel := range paths {
		doc := v.load(rel)
		snap.Docs = append(snap.Docs, doc)
		if doc.ReadErr != nil {
			continue
		}
		snap.Index.Add(doc.Name)
		if owner, ok := v.ownerTarget(doc); ok {
			snap.OwnerGraph[doc.Name] = owner
		}
	}
	return snap, nil
}

// ownerTarget extracts the owner-relation target from a document, if its
// type declares one and the field holds a usable string.
func (v *Vault) ownerTarget(doc *Document) (string, bool) {
	typePath := doc.Parsed.TypePath()
	if typePath == "" {
		return "", false
	}
	res, err := v.Schema.Resolve(typePath)
	if err != nil {
		return "", false
	}
	for _, field := range res.Fields {
		if field.Shape != schema.ShapeRelation || !field.Owner {
			continue
		}
		value, ok := doc.Parsed.Field(field.Name)
		if !ok {
			continue
		}
		s, ok := value.AsString()
		if !ok || strings.TrimSpace(s) == "" {
			continue
		}
		if target, ok := wikilink.ParseExact(s); ok {
			return target, true
		}
		return strings.TrimSpace(s), true
	}
	return "", false
}

// Index resolves link targets against the vault's document set. A target
// matches a document's full name, its base name, or the slugged form of
// either, so "[[Write Report]]" finds tasks/write-report.md.
type Index struct {
	names   []string
	lookups map[string]bool
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{lookups: make(map[string]bool)}
}

// Add registers one document name.
func (ix *Index) Add(name string) {
	ix.names = append(ix.names, name)
	ix.lookups[name] = true
	ix.lookups[slug.Make(name)] = true

	base := name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		base = name[i+1:]
	}
	ix.lookups[base] = true
	ix.lookups[slug.Make(base)] = true
}

// Exists reports whether a link target resolves.
func (ix *Index) Exists(target string) bool {
	target = strings.TrimSpace(target)
	if ix.lookups[target] {
		return true
	}
	return ix.lookups[slug.Make(target)]
}

// Names returns every indexed document name, sorted.
func (ix *Index) Names() []string {
	out := append([]string(nil), ix.names...)
	sort.Strings(out)
	return out
}
