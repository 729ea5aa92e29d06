package errors

import (
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
)

// ValidatePath validates a node path from a file tree.
//
// Tree paths are relative, slash-separated and free of traversal sequences.
// The empty path is the tree root and is accepted.
func ValidatePath(path string) error {
	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateSessionID checks that id is a UUID as issued by the session stores.
func ValidateSessionID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "session id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid session id %q", id)
	}
	return nil
}

// ValidateGlob checks that pattern is a valid exclude glob.
func ValidateGlob(pattern string) error {
	if pattern == "" {
		return New(ErrCodeInvalidInput, "exclude pattern cannot be empty")
	}
	if !doublestar.ValidatePattern(pattern) {
		return New(ErrCodeInvalidInput, "invalid exclude pattern %q", pattern)
	}
	return nil
}
