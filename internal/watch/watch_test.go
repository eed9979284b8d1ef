package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vflow-stack/flowcat/internal/logging"
)

func TestRelevant(t *testing.T) {
	w := New("flows", "index.json", time.Millisecond, nil, logging.NewForTest())

	tests := []struct {
		name string
		ev   fsnotify.Event
		want bool
	}{
		{"write workflow", fsnotify.Event{Name: "flows/a.json", Op: fsnotify.Write}, true},
		{"create workflow", fsnotify.Event{Name: "flows/a.json", Op: fsnotify.Create}, true},
		{"remove workflow", fsnotify.Event{Name: "flows/a.json", Op: fsnotify.Remove}, true},
		{"rename workflow", fsnotify.Event{Name: "flows/a.json", Op: fsnotify.Rename}, true},
		{"chmod only", fsnotify.Event{Name: "flows/a.json", Op: fsnotify.Chmod}, false},
		{"catalog write", fsnotify.Event{Name: "flows/index.json", Op: fsnotify.Write}, false},
		{"editor swap file", fsnotify.Event{Name: "flows/.a.json.swp", Op: fsnotify.Write}, false},
		{"other file", fsnotify.Event{Name: "flows/README.md", Op: fsnotify.Write}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, w.Relevant(tt.ev))
		})
	}
}

func TestWatch_DebouncesIntoOneRun(t *testing.T) {
	dir := t.TempDir()
	var runs atomic.Int32
	ran := make(chan struct{}, 10)

	w := New(dir, "index.json", 100*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		ran <- struct{}{}
		return nil
	}, logging.NewForTest())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Watch(ctx) }()

	// Give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{}`), 0644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.json"), []byte(`{}`), 0644))

	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a run")
	}

	// No second run should follow from the same burst
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), runs.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after cancel")
	}
}

func TestWatch_MissingDir(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "absent"), "index.json", time.Millisecond,
		func(context.Context) error { return nil }, logging.NewForTest())

	err := w.Watch(context.Background())
	assert.Error(t, err)
}
