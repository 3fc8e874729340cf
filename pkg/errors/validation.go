package errors

import (
	"regexp"
	"strings"
	"unicode"
)

var datacenterRegex = regexp.MustCompile(`^[a-z0-9]{1,16}$`)

// ValidateDatacenter checks a datacenter filter supplied by a user (CLI flag
// or query parameter). It only checks shape; whether the code is known is up
// to the registry.
func ValidateDatacenter(name string) error {
	if name == "" {
		return New(ErrCodeInvalidDatacenter, "datacenter cannot be empty")
	}
	if !datacenterRegex.MatchString(strings.ToLower(name)) {
		return New(ErrCodeInvalidDatacenter, "invalid datacenter code: %q", name)
	}
	return nil
}

// ValidateHostname rejects hostnames that cannot be node identifiers:
// empty names, control characters and overly long values.
func ValidateHostname(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "hostname cannot be empty")
	}
	if len(name) > 253 {
		return New(ErrCodeInvalidInput, "hostname too long (max 253 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "hostname contains control characters")
		}
	}
	return nil
}

// ValidatePath validates a user supplied output path.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.Split(strings.ReplaceAll(path, "\\", "/"), "/") {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}
	return nil
}
