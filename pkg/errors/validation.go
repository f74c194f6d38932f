package errors

import (
	"math"
	"strings"
	"unicode"
)

// maxImageIDLength bounds image IDs, which end up in URLs and cache keys.
const maxImageIDLength = 256

// ValidateImageID validates an image identifier for safety and correctness.
// IDs are used as keys in the viewer's display-flag table, in HTTP routes and
// in cache keys, so they must be non-empty and free of control characters.
func ValidateImageID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidImageData, "image id cannot be empty")
	}

	if len(id) > maxImageIDLength {
		return New(ErrCodeInvalidImageData, "image id too long (max %d characters)", maxImageIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidImageData, "image id contains invalid control characters")
		}
	}

	return nil
}

// ValidateDimensions rejects non-positive, NaN and infinite image dimensions.
// Packing an image with a zero height would divide by zero.
func ValidateDimensions(width, height float64) error {
	if !isPositiveFinite(width) || !isPositiveFinite(height) {
		return New(ErrCodeInvalidImageData, "dimensions must be positive, got %vx%v", width, height)
	}
	return nil
}

func isPositiveFinite(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}

// ValidatePath validates a relative asset path (for example a tier URL
// relative to the gallery base path). It prevents path traversal and
// ensures reasonable path length.
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

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}

// ValidateAssetRef accepts either an http(s) URL or a safe relative path.
// Catalog documents mix both when tiers are served from a relative base path.
func ValidateAssetRef(ref string) error {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return nil
	}
	if strings.Contains(ref, "://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return ValidatePath(ref)
}
