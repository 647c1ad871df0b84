// Package vault orchestrates audits, fixes and queries over a directory
// tree of markdown documents. It owns all I/O: walking, reading, and atomic
// writes. The audit, fix and query packages stay pure.
package vault

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/magpie-md/magpie/internal/frontmatter"
	"github.com/magpie-md/magpie/internal/schema"
)

// Vault is an opened vault: a root directory plus its loaded schema.
type Vault struct {
	Root   string
	Schema *schema.File
}

// Open resolves the root path and loads the vault's schema. A missing
// schema file yields an empty schema; a broken one aborts, since nothing
// downstream can run against an unparsable configuration.
func Open(root string) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve vault path: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("open vault: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open vault: %s is not a directory", abs)
	}

	sch, err := schema.Load(abs)
	if err != nil {
		return nil, err
	}
	return &Vault{Root: abs, Schema: sch}, nil
}

// Walk returns the vault-relative paths of every markdown file, in
// deterministic walk order. Dot-directories (.git, .trash, editors' caches)
// are skipped entirely.
func (v *Vault) Walk() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(v.Root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != v.Root {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, err := filepath.Rel(v.Root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk vault: %w", err)
	}
	return paths, nil
}

// Document is one markdown file loaded from the vault. ReadErr is recorded
// instead of propagated so a single unreadable file never aborts a run.
type Document struct {
	Path    string // vault-relative, slash-separated
	Name    string // Path without the .md extension; the link-target form
	Parsed  *frontmatter.Document
	ReadErr error
}

// load reads and parses one document by relative path.
func (v *Vault) load(rel string) *Document {
	doc := &Document{
		Path: rel,
		Name: strings.TrimSuffix(rel, ".md"),
	}
	data, err := os.ReadFile(filepath.Join(v.Root, filepath.FromSlash(rel)))
	if err != nil {
		doc.ReadErr = err
		return doc
	}
	doc.Parsed = frontmatter.Parse(data)
	return doc
}
