package errors

import (
	"strings"
	"unicode"
)

// ValidateLatitude validates a latitude value in degrees.
func ValidateLatitude(lat float64) error {
	if lat < -90 || lat > 90 {
		return New(ErrCodeInvalidCoordinate, "latitude %.4f out of range [-90, 90]", lat)
	}
	return nil
}

// ValidateLongitude validates a longitude value in degrees.
func ValidateLongitude(long float64) error {
	if long < -180 || long > 180 {
		return New(ErrCodeInvalidCoordinate, "longitude %.4f out of range [-180, 180]", long)
	}
	return nil
}

// ValidateVaultPath validates a document path within a vault for safety.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidateVaultPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	// Check for null bytes and control characters
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	// Must not be absolute path
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	// Check for path traversal
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	// No backslashes (potential Windows path injection)
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateZoomRange validates a min/max zoom pair.
func ValidateZoomRange(minZoom, maxZoom int) error {
	if minZoom < 0 {
		return New(ErrCodeInvalidZoom, "minZoom %d cannot be negative", minZoom)
	}
	if maxZoom < minZoom {
		return New(ErrCodeInvalidZoom, "maxZoom %d below minZoom %d", maxZoom, minZoom)
	}
	return nil
}

// ValidateTileServerURL validates a tile server URL template.
// It ensures the URL has a safe scheme (http or https).
func ValidateTileServerURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidBlock, "tileServer URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidBlock, "tileServer URL must use http or https scheme")
	}

	return nil
}
