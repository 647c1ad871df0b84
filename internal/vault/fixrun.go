package vault

import (
	"context"
	"path/filepath"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/magpie-md/magpie/internal/atomicfile"
	"github.com/magpie-md/magpie/internal/audit"
	"github.com/magpie-md/magpie/internal/fix"
)

// FileFixes is the per-file outcome of a fix run.
type FileFixes struct {
	Path    string       `json:"path"`
	Results []fix.Result `json:"results"`
	Written bool         `json:"written"`
	// Err is a write failure; fix outcomes are in Results. WriteError
	// carries its message for JSON consumers.
	Err        error  `json:"-"`
	WriteError string `json:"writeError,omitempty"`
}

// FixRun is a whole fix pass: the audit it acted on, per-file outcomes, and
// the tally.
type FixRun struct {
	Report  *Report     `json:"report"`
	Files   []FileFixes `json:"files"`
	Summary fix.Summary `json:"summary"`
}

// Fix audits the vault and applies auto-fixes per opts. Fixes to different
// documents run concurrently; a document is only ever fixed by one goroutine,
// and each write is an atomic replace. Interactive mode forces a single
// worker so prompts stay ordered.
func (v *Vault) Fix(ctx context.Context, opts fix.Options) (*FixRun, error) {
	snap, err := v.Snapshot()
	if err != nil {
		return nil, err
	}
	report, err := v.auditSnapshot(ctx, snap, 0)
	if err != nil {
		return nil, err
	}

	workers := runtime.NumCPU()
	if opts.Mode == fix.ModeInteractive {
		workers = 1
	}

	run := &FixRun{Report: report}

	// Slots are indexed by document position so the reported order matches
	// the walk order regardless of which goroutine finishes first.
	slots := make([]*FileFixes, len(snap.Docs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, doc := range snap.Docs {
		i, doc := i, doc
		fileReport := report.Files[i]
		if doc.ReadErr != nil || len(fileReport.Issues) == 0 {
			continue
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ff := v.fixDocument(doc, fileReport.Issues, opts)
			slots[i] = &ff
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var results []fix.Result
	for _, ff := range slots {
		if ff == nil {
			continue
		}
		run.Files = append(run.Files, *ff)
		results = append(results, ff.Results...)
	}
	// Remaining counts every audited issue the run did not fix, including
	// global ones no per-document fix can touch.
	total := len(report.Global)
	for _, fr := range report.Files {
		total += len(fr.Issues)
	}
	run.Summary = fix.Summarize(results, total, opts.Mode == fix.ModeDryRun)
	return run, nil
}

func (v *Vault) fixDocument(doc *Document, issues []audit.Issue, opts fix.Options) FileFixes {
	ff := FileFixes{Path: doc.Path}

	res, err := v.Schema.Resolve(doc.Parsed.TypePath())
	if err != nil {
		res = nil // untyped documents still get structural fixes
	}

	content, results := fix.Document(doc.Parsed, res, issues, opts)
	ff.Results = results
	if content == nil || opts.Mode == fix.ModeDryRun {
		return ff
	}

	path := filepath.Join(v.Root, filepath.FromSlash(doc.Path))
	if err := atomicfile.Replace(path, content); err != nil {
		ff.Err = err
		ff.WriteError = err.Error()
		return ff
	}
	ff.Written = true
	return ff
}
