package vault

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/magpie-md/magpie/internal/audit"
)

// Report is the outcome of one audit run over the whole vault.
type Report struct {
	Files   []audit.FileReport `json:"files"`
	Global  []audit.Issue      `json:"global,omitempty"` // cycles, source filters
	Summary audit.Summary      `json:"summary"`
}

// HasErrors reports whether any error-severity issue was found.
func (r *Report) HasErrors() bool {
	if r.Summary.TotalErrors > 0 || r.Summary.ReadFailures > 0 {
		return true
	}
	for _, issue := range r.Global {
		if issue.Severity == audit.SeverityError {
			return true
		}
	}
	return false
}

// Audit runs the two-phase audit: snapshot the vault, then run per-document
// checks in parallel. Per-document checks share only the read-only snapshot
// and schema, so they fan out across workers; the link index and owner
// graph already exist before any check runs.
func (v *Vault) Audit(ctx context.Context, workers int) (*Report, error) {
	snap, err := v.Snapshot()
	if err != nil {
		return nil, err
	}
	return v.auditSnapshot(ctx, snap, workers)
}

func (v *Vault) auditSnapshot(ctx context.Context, snap *Snapshot, workers int) (*Report, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	engine := audit.New(v.Schema)
	reports := make([]audit.FileReport, len(snap.Docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range snap.Docs {
		i, doc := i, doc
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			reports[i] = v.auditDocument(engine, doc, snap.Index)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Files: reports}
	report.Global = append(report.Global, audit.FindOwnershipCycles(snap.OwnerGraph)...)
	report.Global = append(report.Global, engine.CheckSources()...)
	report.Summary = audit.Summarize(reports)
	return report, nil
}

func (v *Vault) auditDocument(engine *audit.Engine, doc *Document, idx *Index) audit.FileReport {
	fr := audit.FileReport{Path: doc.Path}
	if doc.ReadErr != nil {
		fr.ReadError = doc.ReadErr.Error()
		return fr
	}
	fr.Issues = engine.CheckDocument(doc.Parsed)
	fr.Issues = append(fr.Issues, engine.CheckLinks(doc.Parsed, idx)...)
	return fr
}
