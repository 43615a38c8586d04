// Package pathutil provides path canonicalization and display mapping.
//
// Candidates are deduplicated by canonical path (absolute, symlinks
// resolved), but displayed in a contracted form: paths under the home
// directory are shown with a leading ~/, and history paths under the
// current working directory are shown relative to it.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"
)

// Canonicalize returns the absolute, symlink-resolved form of path, used
// as the deduplication key. If the path (or a component of it) no longer
// exists, symlink resolution is skipped and the cleaned absolute path is
// returned instead, so stale history entries still get a stable key.
func Canonicalize(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return filepath.Clean(abs), nil
	}
	return resolved, nil
}

// Contract rewrites path for display. Paths under the home directory get
// a ~/ prefix. A path whose first component is a literal ~ gets a ./
// prefix so it cannot be mistaken for a contracted one when read back.
func Contract(path, home string) string {
	if home != "" {
		if rest, ok := strings.CutPrefix(path, home+string(filepath.Separator)); ok {
			return "~" + string(filepath.Separator) + rest
		}
		if path == home {
			return "~"
		}
	}
	first, _, _ := strings.Cut(path, string(filepath.Separator))
	if first == "~" {
		return "." + string(filepath.Separator) + path
	}
	return path
}

// Expand reverses Contract: a leading ~ component is replaced with the
// home directory. Other paths are returned unchanged, including ./~ ones
// (filepath.Abs cleans the ./ away later).
func Expand(path, home string) string {
	if path == "~" {
		return home
	}
	if rest, ok := strings.CutPrefix(path, "~"+string(filepath.Separator)); ok {
		return filepath.Join(home, rest)
	}
	return path
}

// MakeRelative strips the root prefix from path when root is a parent,
// matching how the external lister reports paths under the working
// directory. Paths outside root are returned unchanged.
func MakeRelative(path, root string) string {
	if root == "" || path == root {
		return path
	}
	if rest, ok := strings.CutPrefix(path, root+string(filepath.Separator)); ok {
		return rest
	}
	return path
}

// HomeDir returns the current user's home directory, or "" when it is
// not configured. Display contraction is skipped in that case.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return home
}
