// Package indexer runs the scan, validate, normalize and catalog pipeline
// over one workflow directory.
package indexer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vflow-stack/flowcat/internal/catalog"
	"github.com/vflow-stack/flowcat/internal/config"
	ferrors "github.com/vflow-stack/flowcat/internal/errors"
	"github.com/vflow-stack/flowcat/internal/logging"
	"github.com/vflow-stack/flowcat/internal/scanner"
	"github.com/vflow-stack/flowcat/internal/workflow"
)

// Options controls a single run.
type Options struct {
	// Dir is the directory holding the workflow files.
	Dir string

	// CatalogFileName is written inside Dir and skipped by the scan.
	CatalogFileName string

	// FormatVersion is stamped into the catalog.
	FormatVersion string

	// DownloadBaseURL prefixes each entry's download_url.
	DownloadBaseURL string

	// DryRun validates and reports without touching any file.
	DryRun bool

	// Now overrides the catalog timestamp clock. Nil means time.Now.
	Now func() time.Time
}

// OptionsFromConfig builds run options for dir from the loaded config.
func OptionsFromConfig(cfg *config.Config, dir string) Options {
	return Options{
		Dir:             dir,
		CatalogFileName: cfg.Catalog.FileName,
		FormatVersion:   cfg.Catalog.FormatVersion,
		DownloadBaseURL: cfg.Catalog.DownloadBaseURL,
	}
}

// CatalogPath returns where the catalog is written.
func (o Options) CatalogPath() string {
	return filepath.Join(o.Dir, o.CatalogFileName)
}

// Reporter receives each file's outcome as soon as it is known.
type Reporter interface {
	FileProcessed(FileResult)
}

// Indexer runs the pipeline.
type Indexer struct {
	opts     Options
	logger   *slog.Logger
	reporter Reporter
}

// New creates an Indexer. A nil logger discards diagnostics.
func New(opts Options, logger *slog.Logger) *Indexer {
	if logger == nil {
		logger = logging.NewForTest()
	}
	return &Indexer{
		opts:   opts,
		logger: logging.WithDir(logger, opts.Dir),
	}
}

// WithReporter streams per-file outcomes to r.
func (ix *Indexer) WithReporter(r Reporter) *Indexer {
	ix.reporter = r
	return ix
}

// Run processes every workflow file once and, unless DryRun is set, writes
// the catalog. Per-file failures are collected in the result and never stop
// the run; the returned error is reserved for an unusable directory, a
// catalog write failure, or cancellation.
func (ix *Indexer) Run(ctx context.Context) (*Result, error) {
	res := &Result{
		Dir:         ix.opts.Dir,
		CatalogPath: ix.opts.CatalogPath(),
		DryRun:      ix.opts.DryRun,
	}

	names, err := scanner.Scan(ix.opts.Dir, ix.opts.CatalogFileName)
	if err != nil {
		ix.logger.Error("scan failed", "error", err)
		return nil, err
	}
	ix.logger.Debug("scan complete", "candidates", len(names))

	var builderOpts []catalog.BuilderOption
	if ix.opts.Now != nil {
		builderOpts = append(builderOpts, catalog.WithClock(ix.opts.Now))
	}
	builder := catalog.NewBuilder(ix.opts.FormatVersion, builderOpts...)

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		fr := ix.processFile(name)
		if fr.Entry != nil {
			builder.Add(*fr.Entry)
		}
		res.Files = append(res.Files, fr)
		if ix.reporter != nil {
			ix.reporter.FileProcessed(fr)
		}
	}

	res.Catalog = builder.Build()
	if ix.opts.DryRun {
		ix.logger.Info("dry run, catalog not written", "entries", res.Catalog.TotalCount)
		return res, nil
	}

	if err := catalog.Write(res.CatalogPath, res.Catalog); err != nil {
		ix.logger.Error("writing catalog failed", "path", res.CatalogPath, "error", err)
		return res, err
	}
	ix.logger.Info("catalog written", "path", res.CatalogPath, "entries", res.Catalog.TotalCount, "failed", len(res.Failed()))
	return res, nil
}

// processFile reads, validates and normalizes one file. Invalid files are
// never written.
func (ix *Indexer) processFile(name string) FileResult {
	path := filepath.Join(ix.opts.Dir, name)
	log := logging.WithFile(ix.logger, name)
	fr := FileResult{File: name, Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			fr.Err = ferrors.IOPermissionDenied(path, err)
		} else {
			fr.Err = ferrors.IOReadError(path, err)
		}
		log.Warn("read failed", "error", err)
		return fr
	}

	doc, err := workflow.Parse(data)
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidUTF8) {
			fr.Err = ferrors.EncodingError(name, err)
		} else {
			fr.Err = ferrors.ParseError(name, err)
		}
		log.Warn("parse failed", "error", err)
		return fr
	}

	vr := workflow.Validate(doc, name)
	fr.Warnings = vr.Warnings
	if vr.HasErrors() {
		fr.Err = vr.Err()
		log.Warn("validation failed", "error", fr.Err)
		return fr
	}
	for _, w := range vr.Warnings {
		log.Info("validation warning", "warning", w)
	}

	meta, _ := doc.Meta()
	normalized := workflow.Normalize(doc)

	if ix.opts.DryRun {
		fr.Changed, err = workflow.NeedsWrite(normalized, data)
	} else {
		fr.Changed, err = workflow.Persist(path, normalized)
	}
	if err != nil {
		fr.Err = err
		log.Warn("normalize failed", "error", err)
		return fr
	}
	if fr.Changed {
		log.Debug("runtime flags normalized", "dry_run", ix.opts.DryRun)
	}

	entry := catalog.EntryFrom(meta, name, path, ix.opts.DownloadBaseURL)
	fr.Entry = &entry
	return fr
}
