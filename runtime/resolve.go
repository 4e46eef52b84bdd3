package runtime

import (
	"io/fs"
	"path/filepath"
)

// BuildFileIndex walks root and maps base file names to full paths. The
// first occurrence of a duplicate name wins, matching the deterministic
// lexical order of the walk.
func BuildFileIndex(root string) (map[string]string, error) {
	index := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if _, ok := index[name]; !ok {
			index[name] = path
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return index, nil
}

// ResolveSelection maps selection entries (base names, or paths whose
// base names are used) through the index. Unresolvable names are
// dropped; duplicates resolve once.
func ResolveSelection(index map[string]string, names []string) []string {
	var resolved []string
	seen := make(map[string]bool)
	for _, name := range names {
		path, ok := index[filepath.Base(name)]
		if !ok || seen[path] {
			continue
		}
		seen[path] = true
		resolved = append(resolved, path)
	}
	return resolved
}
