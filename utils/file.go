package utils

import (
	"path/filepath"
	"strings"
)

// FileTitle derives a human-readable title from a file path: the base name
// without its extension.
func FileTitle(path string) string {
	base := filepath.Base(path)
	if idx := strings.LastIndex(base, "."); idx > 0 {
		base = base[:idx]
	}
	return base
}
