// Package projectid derives the stable identifier used to namespace a
// project's records across the hash store, vector store, and graph store.
package projectid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"runtime"
	"strings"
)

// Length is the number of hex characters kept from the SHA-256 digest.
const Length = 32

// Derive normalizes root and returns a stable, filesystem- and
// collection-name-safe identifier for it.
//
// Normalization resolves symlinks and `..`/`.` segments so that two
// different spellings of the same directory collapse to one project. On
// case-insensitive filesystems (Windows, default macOS) the path is
// lowercased first so that case-only renames do not fork the identifier.
func Derive(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// The root may not exist yet (e.g. pre-registration validation);
		// fall back to the absolute, cleaned path.
		resolved = filepath.Clean(abs)
	}
	normalized := filepath.ToSlash(resolved)
	if runtime.GOOS == "windows" || runtime.GOOS == "darwin" {
		normalized = strings.ToLower(normalized)
	}
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])[:Length], nil
}
