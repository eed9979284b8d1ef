// Package testutil provides fixtures and helpers for flowcat tests.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

// ValidWorkflow returns a workflow document whose _meta passes validation
// when stored as <id>.json. Runtime flags are set to true so normalization
// has something to do.
func ValidWorkflow(id string) map[string]any {
	return map[string]any{
		"id":                              "internal-" + id,
		"name":                            "Workflow " + id,
		"steps":                           []any{map[string]any{"type": "notify", "text": "hi"}},
		"isEnabled":                       true,
		"isFavorite":                      true,
		"wasEnabledBeforePermissionsLost": true,
		"_meta": map[string]any{
			"id":          id,
			"name":        "Flow " + id,
			"description": "Test workflow " + id,
			"author":      "tester",
			"version":     "1.0.0",
			"vFlowLevel":  2,
			"tags":        []string{"test"},
		},
	}
}

// WriteJSON marshals v into dir/name and returns the path.
func WriteJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	return WriteRaw(t, dir, name, string(data))
}

// WriteRaw writes content verbatim to dir/name and returns the path.
func WriteRaw(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// WriteValid writes ValidWorkflow(id) as dir/<id>.json and returns the path.
func WriteValid(t *testing.T, dir, id string) string {
	t.Helper()
	return WriteJSON(t, dir, id+".json", ValidWorkflow(id))
}

// ReadJSON decodes the JSON object stored at path.
func ReadJSON(t *testing.T, path string) map[string]any {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return out
}

// ReadBytes returns the content of path.
func ReadBytes(t *testing.T, path string) []byte {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}
