package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// mavenIDRegex matches valid Maven groupId and artifactId segments.
var mavenIDRegex = regexp.MustCompile(`^[A-Za-z0-9_\-.]+$`)

// ValidateCoordinatePart validates a single groupId or artifactId.
//
// The validation rules are intentionally conservative:
//   - No empty values
//   - No control characters
//   - No path traversal sequences (..)
//   - Maximum length of 256 characters
//   - Only letters, digits, '-', '_' and '.'
func ValidateCoordinatePart(kind, value string) error {
	if value == "" {
		return New(ErrCodeInvalidCoordinate, "%s cannot be empty", kind)
	}

	if len(value) > 256 {
		return New(ErrCodeInvalidCoordinate, "%s too long (max 256 characters)", kind)
	}

	for _, r := range value {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidCoordinate, "%s contains invalid control characters", kind)
		}
	}

	// groupIds and artifactIds become path segments in the local repository
	if strings.Contains(value, "..") {
		return New(ErrCodeInvalidCoordinate, "%s contains invalid characters: %q", kind, "..")
	}

	if !mavenIDRegex.MatchString(value) {
		return New(ErrCodeInvalidCoordinate, "invalid %s: %q", kind, value)
	}

	return nil
}

// ValidateVersion validates a Maven version string. Versions are free-form in
// Maven, so only emptiness, whitespace and path separators are rejected.
func ValidateVersion(version string) error {
	if version == "" {
		return New(ErrCodeInvalidCoordinate, "version cannot be empty")
	}
	if strings.ContainsAny(version, "/\\ \t\n") {
		return New(ErrCodeInvalidCoordinate, "version contains invalid characters: %q", version)
	}
	return nil
}

// ValidatePath validates a directory or file path taken from configuration.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(kind, path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "%s cannot be empty", kind)
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "%s too long (max %d characters)", kind, maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "%s contains invalid characters", kind)
		}
	}

	return nil
}

// ValidateURL validates a connection URL for one of the given schemes.
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use one of the schemes %s", strings.Join(schemes, ", "))
}
