// Package walk enumerates input paths: a recursive directory walk over a
// root, filtered by an ignore predicate and restricted to regular files.
// It is a pure collaborator — the Manager snapshots
// its result into a shared []string once, before dispatching any job.
package walk

import (
	"io/fs"
	"path/filepath"
	"sort"

	"golang.org/x/xerrors"
)

// Paths walks root and returns every regular file's path relative to
// root, in sorted order, skipping any path for which ignore returns true.
// ignore may be nil.
func Paths(root string, ignore func(relPath string) bool) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if ignore != nil && ignore(rel) {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, xerrors.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}
