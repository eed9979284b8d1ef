// Package console renders human-readable progress for flowcat runs.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vflow-stack/flowcat/internal/catalog"
	"github.com/vflow-stack/flowcat/internal/indexer"
)

const ruleWidth = 60

// Printer writes styled output. Styles degrade to plain text when w is not a terminal.
type Printer struct {
	w       io.Writer
	success lipgloss.Style
	failure lipgloss.Style
	warning lipgloss.Style
	info    lipgloss.Style
	muted   lipgloss.Style
}

// NewPrinter creates a Printer whose color profile is detected from w.
func NewPrinter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		success: r.NewStyle().Foreground(lipgloss.Color("10")),
		failure: r.NewStyle().Foreground(lipgloss.Color("9")),
		warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		info:    r.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		muted:   r.NewStyle().Faint(true),
	}
}

// Start announces the directory being scanned.
func (p *Printer) Start(dir string, dryRun bool) {
	line := "Scanning directory: " + dir
	if dryRun {
		line += " (dry run)"
	}
	fmt.Fprintln(p.w, p.info.Render(line))
	fmt.Fprintln(p.w, p.muted.Render(strings.Repeat("=", ruleWidth)))
}

// FileProcessed implements indexer.Reporter.
func (p *Printer) FileProcessed(fr indexer.FileResult) {
	if !fr.OK() {
		fmt.Fprintf(p.w, "%s %s: %v\n", p.failure.Render("✗"), fr.File, fr.Err)
		return
	}
	fmt.Fprintf(p.w, "%s %s\n", p.success.Render("✓"), FormatEntry(*fr.Entry))
	for _, w := range fr.Warnings {
		fmt.Fprintf(p.w, "    %s %s\n", p.warning.Render("⚠"), w)
	}
}

// FormatEntry renders an entry as "file: name (vX, Level N)".
func FormatEntry(e catalog.Entry) string {
	return fmt.Sprintf("%s: %s (v%s, Level %d)", e.Filename, e.Name, e.Version, e.Level)
}

// Summary prints collected errors and the final counts after a run.
func (p *Printer) Summary(res *indexer.Result) {
	failed := res.Failed()
	if len(failed) > 0 {
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, p.failure.Render("Validation failed:"))
		for _, f := range failed {
			fmt.Fprintf(p.w, "  %s %s: %v\n", p.failure.Render("✗"), f.File, f.Err)
		}
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, p.warning.Render(fmt.Sprintf("⚠ Skipped %d file(s)", len(failed))))
	}

	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.muted.Render(strings.Repeat("=", ruleWidth)))
	if res.DryRun {
		fmt.Fprintf(p.w, "%s %d workflow(s) would be indexed\n", p.success.Render("✓"), res.Catalog.TotalCount)
		fmt.Fprintf(p.w, "Catalog (not written): %s\n", res.CatalogPath)
	} else {
		fmt.Fprintf(p.w, "%s Indexed %d workflow(s)\n", p.success.Render("✓"), res.Catalog.TotalCount)
		fmt.Fprintf(p.w, "Catalog: %s\n", res.CatalogPath)
		fmt.Fprintf(p.w, "Updated: %s\n", res.Catalog.LastUpdated)
	}

	if len(failed) > 0 {
		fmt.Fprintln(p.w)
		fmt.Fprintln(p.w, p.warning.Render(fmt.Sprintf("⚠ %d error(s), please check!", len(failed))))
	}
}

// Catalog prints the entries of an existing catalog as a table.
func (p *Printer) Catalog(c *catalog.Catalog) {
	fmt.Fprintf(p.w, "%s %d workflow(s), updated %s\n\n",
		p.info.Render("Catalog v"+c.Version+":"), c.TotalCount, c.LastUpdated)
	if len(c.Workflows) == 0 {
		fmt.Fprintln(p.w, p.muted.Render("  (empty)"))
		return
	}

	idWidth := len("ID")
	for _, e := range c.Workflows {
		idWidth = max(idWidth, len(e.ID))
	}
	fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf("  %-*s  %-10s  %-5s  %s", idWidth, "ID", "VERSION", "LEVEL", "NAME")))
	for _, e := range c.Workflows {
		fmt.Fprintf(p.w, "  %-*s  %-10s  %-5d  %s\n", idWidth, e.ID, e.Version, e.Level, e.Name)
	}
}
