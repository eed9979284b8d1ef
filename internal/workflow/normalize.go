package workflow

import (
	"bytes"
	"encoding/json"
	"os"

	ferrors "github.com/vflow-stack/flowcat/internal/errors"
)

var jsonFalse = json.RawMessage("false")

// Normalize returns a copy of doc with every runtime flag present and false.
// Existing flags keep their position and absent ones are appended. All other
// keys pass through unchanged; doc itself is not modified.
func Normalize(doc *Document) *Document {
	out := doc.Clone()
	for _, flag := range RuntimeFlags {
		out.Set(flag, jsonFalse)
	}
	return out
}

// NeedsWrite reports whether the encoded form of doc differs from current.
func NeedsWrite(doc *Document, current []byte) (bool, error) {
	data, err := Encode(doc)
	if err != nil {
		return false, err
	}
	return !bytes.Equal(data, current), nil
}

// Persist overwrites path with the encoded doc. No backup is kept. The write
// is skipped when the file already holds exactly these bytes; changed
// reports whether the file was rewritten.
func Persist(path string, doc *Document) (changed bool, err error) {
	data, err := Encode(doc)
	if err != nil {
		return false, ferrors.IOWriteError(path, err)
	}

	current, err := os.ReadFile(path)
	if err == nil && bytes.Equal(current, data) {
		return false, nil
	}

	info, statErr := os.Stat(path)
	mode := os.FileMode(0644)
	if statErr == nil {
		mode = info.Mode().Perm()
	}

	if err := os.WriteFile(path, data, mode); err != nil {
		if os.IsPermission(err) {
			return false, ferrors.IOPermissionDenied(path, err)
		}
		return false, ferrors.IOWriteError(path, err)
	}
	return true, nil
}
