package core

import (
	"os"
	"strings"
)

// IsUnder reports whether path equals root or lies below it.
// Both arguments are expected to be cleaned.
func IsUnder(path, root string) bool {
	if path == root {
		return true
	}
	if !strings.HasPrefix(path, root) {
		return false
	}
	if strings.HasSuffix(root, string(os.PathSeparator)) {
		return true
	}
	return path[len(root)] == os.PathSeparator
}
