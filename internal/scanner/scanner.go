// Package scanner finds the workflow files to index in a directory.
package scanner

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ferrors "github.com/vflow-stack/flowcat/internal/errors"
	"github.com/vflow-stack/flowcat/internal/workflow"
)

// ErrDirNotFound is the cause of the error returned when the scan directory does not exist.
var ErrDirNotFound = errors.New("directory not found")

// Scan returns the names of the regular *.json files directly inside dir,
// in directory order (sorted by name), leaving out exclude (the catalog's own file name).
//
// A missing dir yields a SCAN_001 error wrapping ErrDirNotFound; an existing
// but empty dir yields an empty slice and a nil error.
func Scan(dir, exclude string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ferrors.ScanDirNotFound(dir, ErrDirNotFound)
		}
		return nil, ferrors.IOReadError(dir, err)
	}
	if !info.IsDir() {
		return nil, ferrors.ScanNotDir(dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ferrors.IOReadError(dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if name == exclude || !IsCandidate(name) {
			continue
		}
		if e.IsDir() {
			continue
		}
		// Resolve symlinks so a link to a workflow file still counts
		if e.Type()&fs.ModeSymlink != 0 {
			target, err := os.Stat(filepath.Join(dir, name))
			if err != nil || !target.Mode().IsRegular() {
				continue
			}
		} else if !e.Type().IsRegular() {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

// IsCandidate reports whether a file name looks like a workflow document.
func IsCandidate(name string) bool {
	return strings.HasSuffix(name, workflow.Ext)
}
