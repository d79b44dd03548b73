// Package fragments serves the pre-rendered per-year map fragments shown in
// the dashboard's map viewport. Fragments are opaque bytes; nothing here
// parses them.
package fragments

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrNotFound is returned when no fragment exists for a year.
var ErrNotFound = errors.New("map fragment not found")

// FileName is the fragment name of a year.
func FileName(year int) string {
	return fmt.Sprintf("map_%d.html", year)
}

// DirStore reads fragments from a local directory.
type DirStore struct {
	Dir string
}

// NewDirStore returns a store rooted at dir.
func NewDirStore(dir string) *DirStore {
	return &DirStore{Dir: dir}
}

// Fetch reads <dir>/map_<year>.html.
func (s *DirStore) Fetch(ctx context.Context, year int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, FileName(year)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%d: %w", year, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read fragment %d: %w", year, err)
	}
	return data, nil
}
