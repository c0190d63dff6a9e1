// Package platform normalizes and validates the native local/SSD root
// paths a user types on the command line, distinct from
// internal/relpath's logical, platform-neutral RelPath semantics used
// for paths inside a mapping.
package platform

import (
	"path/filepath"
	"runtime"
	"strings"
)

// NormalizePath cleans a native root path for the current platform,
// preserving a Windows UNC prefix through filepath.Clean.
func NormalizePath(path string) string {
	normalized := filepath.Clean(path)

	if runtime.GOOS == "windows" {
		if strings.HasPrefix(path, "\\\\") && !strings.HasPrefix(normalized, "\\\\") {
			normalized = "\\\\" + normalized
		}
	}

	return normalized
}

// ValidatePath rejects empty paths and, on Windows, characters the
// filesystem can't represent.
func ValidatePath(path string) error {
	if path == "" {
		return &PathError{Path: path, Message: "path is empty"}
	}

	if runtime.GOOS == "windows" {
		invalidChars := []string{"<", ">", "\"", "|", "?", "*"}
		for _, char := range invalidChars {
			if strings.Contains(path, char) {
				return &PathError{Path: path, Message: "path contains invalid character: " + char}
			}
		}
	}

	return nil
}

// PathError reports why a root path was rejected.
type PathError struct {
	Path    string
	Message string
}

func (e *PathError) Error() string {
	return "invalid path '" + e.Path + "': " + e.Message
}
