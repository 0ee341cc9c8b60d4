// Package archive walks markup files stored in zip archives.
package archive

import (
	"archive/zip"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// WalkFunc is called for every file visited by Walk. If an error is returned,
// processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Matcher selects archive entries by name.
type Matcher func(name string) bool

// Extensions matches names with any of exts, case insensitively.
func Extensions(exts ...string) Matcher {
	return func(name string) bool {
		ext := path.Ext(name)
		return slices.ContainsFunc(exts, func(e string) bool {
			return strings.EqualFold(e, ext)
		})
	}
}

// Walk calls walkFn for files under prefix accepted by match (nil accepts
// everything) in natural name order. Archives with absolute entries or
// entries containing ".." are rejected.
func Walk(archive, prefix string, match Matcher, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	files := make([]*zip.File, 0, len(r.File))
	for _, f := range r.File {
		if !isSafePath(f.Name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", f.Name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(f.Name, prefix) {
			continue
		}
		if match != nil && !match(f.Name) {
			continue
		}
		files = append(files, f)
	}
	slices.SortStableFunc(files, func(a, b *zip.File) int {
		switch {
		case natural.Less(a.Name, b.Name):
			return -1
		case natural.Less(b.Name, a.Name):
			return 1
		}
		return 0
	})

	for _, f := range files {
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	return !slices.Contains(strings.Split(name, "/"), "..")
}
