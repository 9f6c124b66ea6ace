package errors

import (
	"strings"
	"unicode"
)

// ValidateNodeID validates a taxonomy node ID arriving from an external
// surface (API path parameter, CLI argument). It rejects IDs that could not
// have come from a valid taxonomy document.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters or null bytes
//   - Maximum length of 256 characters
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}
	if len(id) > 256 {
		return New(ErrCodeInvalidInput, "node id too long (max 256 characters)")
	}
	for _, r := range id {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id contains invalid control characters")
		}
	}
	return nil
}

// ValidateScope validates a persistence scope name - the key a set of
// position overrides is stored under. Scopes end up as keys in external
// stores, so the rules reject anything resembling a path or an injection
// vector.
func ValidateScope(scope string) error {
	if scope == "" {
		return New(ErrCodeInvalidInput, "scope cannot be empty")
	}
	if len(scope) > 128 {
		return New(ErrCodeInvalidInput, "scope too long (max 128 characters)")
	}
	for _, r := range scope {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "scope contains invalid control characters")
		}
	}
	if strings.ContainsAny(scope, "/\\") {
		return New(ErrCodeInvalidInput, "scope cannot contain path separators")
	}
	return nil
}

// ValidatePath validates a user-supplied file path (taxonomy input, output
// target) before it reaches the filesystem. Unlike scopes, paths name files
// the user owns, so absolute paths are fine; the rules only reject values
// that cannot be a real path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}
