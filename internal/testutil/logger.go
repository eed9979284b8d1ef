package testutil

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// TestLogger captures structured logs for assertion in tests.
type TestLogger struct {
	mu      sync.RWMutex
	entries []LogEntry
	Logger  *slog.Logger
}

// LogEntry represents a captured log entry.
type LogEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// NewTestLogger creates a logger that captures every entry at debug and above.
func NewTestLogger(t *testing.T) *TestLogger {
	t.Helper()

	tl := &TestLogger{}
	tl.Logger = slog.New(&captureHandler{tl: tl})
	return tl
}

// captureHandler records entries, carrying attrs added through With.
type captureHandler struct {
	tl    *TestLogger
	attrs []slog.Attr
}

func (h *captureHandler) Enabled(context.Context, slog.Level) bool {
	return true
}

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	entry := LogEntry{
		Level:   r.Level,
		Message: r.Message,
		Attrs:   make(map[string]any, len(h.attrs)+r.NumAttrs()),
	}
	for _, a := range h.attrs {
		entry.Attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		entry.Attrs[a.Key] = a.Value.Any()
		return true
	})

	h.tl.mu.Lock()
	h.tl.entries = append(h.tl.entries, entry)
	h.tl.mu.Unlock()
	return nil
}

func (h *captureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &captureHandler{tl: h.tl, attrs: merged}
}

// Groups are flattened; nothing in flowcat logs with groups.
func (h *captureHandler) WithGroup(string) slog.Handler {
	return h
}

// Entries returns a copy of all captured log entries.
func (l *TestLogger) Entries() []LogEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]LogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Containing returns entries whose message contains substring.
func (l *TestLogger) Containing(substring string) []LogEntry {
	var out []LogEntry
	for _, e := range l.Entries() {
		if strings.Contains(e.Message, substring) {
			out = append(out, e)
		}
	}
	return out
}

// WithAttrValue returns entries whose attribute key equals value.
func (l *TestLogger) WithAttrValue(key string, value any) []LogEntry {
	var out []LogEntry
	for _, e := range l.Entries() {
		if v, ok := e.Attrs[key]; ok && v == value {
			out = append(out, e)
		}
	}
	return out
}

// CountLevel returns the count of entries at a specific level.
func (l *TestLogger) CountLevel(level slog.Level) int {
	n := 0
	for _, e := range l.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

// AssertContains asserts that at least one log entry contains the message.
func (l *TestLogger) AssertContains(t *testing.T, msg string) {
	t.Helper()

	if len(l.Containing(msg)) == 0 {
		t.Errorf("Expected log to contain message %q, but it wasn't found", msg)
	}
}

// AssertNoErrors asserts that there are no ERROR level entries.
func (l *TestLogger) AssertNoErrors(t *testing.T) {
	t.Helper()

	if n := l.CountLevel(slog.LevelError); n > 0 {
		t.Errorf("Expected no errors, got %d", n)
	}
}
