package indexer

import (
	"github.com/vflow-stack/flowcat/internal/catalog"
	ferrors "github.com/vflow-stack/flowcat/internal/errors"
)

// FileResult is the outcome for one workflow file.
type FileResult struct {
	File     string
	Path     string
	Entry    *catalog.Entry // nil when the file was rejected
	Err      error
	Warnings []string
	Changed  bool // runtime flags were (or, in a dry run, would be) rewritten
}

// OK reports whether the file made it into the catalog.
func (f FileResult) OK() bool {
	return f.Err == nil && f.Entry != nil
}

// Result is the outcome of one run.
type Result struct {
	Dir         string
	CatalogPath string
	DryRun      bool
	Catalog     *catalog.Catalog
	Files       []FileResult // in processing order
}

// Failed returns the rejected files in processing order.
func (r *Result) Failed() []FileResult {
	var out []FileResult
	for _, f := range r.Files {
		if !f.OK() {
			out = append(out, f)
		}
	}
	return out
}

// HasErrors reports whether any file was rejected.
func (r *Result) HasErrors() bool {
	return len(r.Failed()) > 0
}

// WarningCount totals advisory warnings across files.
func (r *Result) WarningCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Warnings)
	}
	return n
}

// Report is a serializable view of a Result, used for json and yaml output.
type Report struct {
	Dir         string       `json:"dir" yaml:"dir"`
	CatalogPath string       `json:"catalog_path" yaml:"catalog_path"`
	DryRun      bool         `json:"dry_run" yaml:"dry_run"`
	Valid       int          `json:"valid" yaml:"valid"`
	Invalid     int          `json:"invalid" yaml:"invalid"`
	Files       []FileReport `json:"files" yaml:"files"`
}

// FileReport is one file's line in a Report.
type FileReport struct {
	File     string                `json:"file" yaml:"file"`
	Valid    bool                  `json:"valid" yaml:"valid"`
	ID       string                `json:"id,omitempty" yaml:"id,omitempty"`
	Error    *ferrors.CatalogError `json:"error,omitempty" yaml:"error,omitempty"`
	Warnings []string              `json:"warnings,omitempty" yaml:"warnings,omitempty"`
	Changed  bool                  `json:"needs_normalize,omitempty" yaml:"needs_normalize,omitempty"`
}

// Report builds the serializable view.
func (r *Result) Report() Report {
	rep := Report{
		Dir:         r.Dir,
		CatalogPath: r.CatalogPath,
		DryRun:      r.DryRun,
		Files:       make([]FileReport, 0, len(r.Files)),
	}
	for _, f := range r.Files {
		fr := FileReport{
			File:     f.File,
			Valid:    f.OK(),
			Warnings: f.Warnings,
			Changed:  f.Changed,
		}
		if f.Entry != nil {
			fr.ID = f.Entry.ID
		}
		if f.Err != nil {
			fr.Error = ferrors.From(f.Err)
			rep.Invalid++
		} else {
			rep.Valid++
		}
		rep.Files = append(rep.Files, fr)
	}
	return rep
}
