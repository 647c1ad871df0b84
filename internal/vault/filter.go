package vault

import (
	"fmt"
	"time"

	"github.com/magpie-md/magpie/internal/query"
)

// Filter returns the documents whose frontmatter satisfies every expression
// (implicit AND). A syntactically broken expression is a query error and
// aborts the call; documents whose evaluation errors are treated as
// non-matches, since a missing or oddly-shaped field is a document problem,
// not a query problem.
func (v *Vault) Filter(snap *Snapshot, exprs []string) ([]*Document, error) {
	known := v.Schema.AllFieldNames()

	nodes := make([]query.Node, 0, len(exprs))
	for _, expr := range exprs {
		node, err := query.Parse(query.NormalizeKeys(expr, known))
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", expr, err)
		}
		nodes = append(nodes, node)
	}

	now := time.Now()
	var matched []*Document
	for _, doc := range snap.Docs {
		if doc.ReadErr != nil || doc.Parsed == nil {
			continue
		}
		ctx := &query.Context{
			Fields: doc.Parsed.Fields,
			Path:   doc.Path,
			Now:    now,
		}
		ok, err := query.EvaluateAll(nodes, ctx)
		if err != nil || !ok {
			continue
		}
		matched = append(matched, doc)
	}
	return matched, nil
}
