// Package catalog builds the index.json document that lists every valid
// workflow in a directory.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	ferrors "github.com/vflow-stack/flowcat/internal/errors"
	"github.com/vflow-stack/flowcat/internal/workflow"
)

// TimestampLayout is ISO-8601 local time without a zone, microsecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Catalog is the index.json document.
type Catalog struct {
	Version     string  `json:"version"`
	LastUpdated string  `json:"last_updated"`
	TotalCount  int     `json:"total_count"`
	Workflows   []Entry `json:"workflows"`
}

// Entry summarizes one valid workflow.
type Entry struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	Version     string   `json:"version"`
	Level       int      `json:"vFlowLevel"`
	Homepage    string   `json:"homepage"`
	Tags        []string `json:"tags"`
	UpdatedAt   string   `json:"updated_at"`
	Filename    string   `json:"filename"`
	DownloadURL string   `json:"download_url"`
	LocalPath   string   `json:"local_path"`
}

// EntryFrom projects a validated _meta envelope into a catalog entry.
// Every optional or mistyped field resolves through the fallback table.
func EntryFrom(meta workflow.Meta, filename, localPath, baseURL string) Entry {
	return Entry{
		ID:          stringOr(meta, workflow.MetaID, workflow.Stem(filename)),
		Name:        stringOr(meta, workflow.MetaName, DefaultName),
		Description: stringOr(meta, workflow.MetaDescription, DefaultDescription),
		Author:      stringOr(meta, workflow.MetaAuthor, DefaultAuthor),
		Version:     stringOr(meta, workflow.MetaVersion, DefaultVersion),
		Level:       intOr(meta, workflow.MetaLevel, DefaultLevel),
		Homepage:    stringOr(meta, workflow.MetaHomepage, DefaultHomepage),
		Tags:        stringsOr(meta, workflow.MetaTags, DefaultTags()),
		UpdatedAt:   stringOr(meta, workflow.MetaUpdatedAt, DefaultUpdatedAt),
		Filename:    filename,
		DownloadURL: baseURL + filename,
		LocalPath:   localPath,
	}
}

func stringOr(meta workflow.Meta, key, def string) string {
	if v, ok := meta.String(key); ok {
		return v
	}
	return def
}

func intOr(meta workflow.Meta, key string, def int) int {
	if v, ok := meta.Int(key); ok {
		return v
	}
	return def
}

func stringsOr(meta workflow.Meta, key string, def []string) []string {
	if v, ok := meta.Strings(key); ok {
		return v
	}
	return def
}

// Builder accumulates entries for one run.
type Builder struct {
	formatVersion string
	now           func() time.Time
	entries       []Entry
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithClock overrides the wall clock used for last_updated.
func WithClock(now func() time.Time) BuilderOption {
	return func(b *Builder) {
		b.now = now
	}
}

// NewBuilder creates a builder stamping catalogs with formatVersion.
func NewBuilder(formatVersion string, opts ...BuilderOption) *Builder {
	b := &Builder{
		formatVersion: formatVersion,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Add appends an entry.
func (b *Builder) Add(e Entry) {
	b.entries = append(b.entries, e)
}

// Len returns the number of entries collected so far.
func (b *Builder) Len() int {
	return len(b.entries)
}

// Build sorts the collected entries by id and returns the catalog.
func (b *Builder) Build() *Catalog {
	entries := make([]Entry, len(b.entries))
	copy(entries, b.entries)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].ID < entries[j].ID
	})

	return &Catalog{
		Version:     b.formatVersion,
		LastUpdated: b.now().Local().Format(TimestampLayout),
		TotalCount:  len(entries),
		Workflows:   entries,
	}
}

// Encode renders a catalog with two-space indent and no HTML escaping.
func Encode(c *Catalog) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write overwrites path with the catalog.
func Write(path string, c *Catalog) error {
	data, err := Encode(c)
	if err != nil {
		return fmt.Errorf("encoding catalog: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return ferrors.IOWriteError(path, err)
	}
	return nil
}

// Load reads a catalog previously written by Write.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ferrors.IOReadError(path, err)
	}

	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, ferrors.ParseError(filepath.Base(path), err)
	}
	if c.Workflows == nil {
		c.Workflows = []Entry{}
	}
	return &c, nil
}
