package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vflow-stack/flowcat/internal/config"
	"github.com/vflow-stack/flowcat/internal/console"
	"github.com/vflow-stack/flowcat/internal/indexer"
	"github.com/vflow-stack/flowcat/internal/logging"
	"github.com/vflow-stack/flowcat/internal/testutil"
	"github.com/vflow-stack/flowcat/internal/watch"
)

// A run normalizes the changed file, which fires one more event; the
// follow-up run finds nothing to rewrite and the watcher goes quiet.
func TestWatch_ConvergesAfterOwnWrites(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	opts := indexer.OptionsFromConfig(cfg, dir)
	logger := logging.NewForTest()
	var out bytes.Buffer
	printer := console.NewPrinter(&out)

	var runs atomic.Int32
	w := watch.New(dir, cfg.Catalog.FileName, 100*time.Millisecond, func(ctx context.Context) error {
		runs.Add(1)
		if err := indexOnce(ctx, opts, logger, printer); err != nil {
			t.Errorf("run %d: %v", runs.Load(), err)
		}
		return nil
	}, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// Give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)
	path := testutil.WriteValid(t, dir, "a")

	deadline := time.Now().Add(5 * time.Second)
	for runs.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}
	if got := runs.Load(); got != 2 {
		t.Fatalf("runs = %d after the first change, want 2", got)
	}

	time.Sleep(500 * time.Millisecond)
	if got := runs.Load(); got != 2 {
		t.Errorf("runs = %d, want the watcher to stay quiet at 2", got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}

	doc := testutil.ReadJSON(t, path)
	if doc["isEnabled"] != false {
		t.Errorf("isEnabled = %v, want false", doc["isEnabled"])
	}
	catalog := testutil.ReadJSON(t, filepath.Join(dir, cfg.Catalog.FileName))
	if catalog["total_count"] != float64(1) {
		t.Errorf("total_count = %v, want 1", catalog["total_count"])
	}
}
