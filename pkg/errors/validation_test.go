package errors

import (
	"math"
	"testing"
)

func TestValidateImageID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "img-001", false},
		{"with dots", "2016/03/beach.jpg", false},
		{"unicode", "straße", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"control char", "img\x01", true},
		{"newline", "img\n1", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImageID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateImageID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidImageData) {
				t.Errorf("ValidateImageID(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateDimensions(t *testing.T) {
	tests := []struct {
		name          string
		width, height float64
		wantErr       bool
	}{
		{"landscape", 400, 300, false},
		{"fractional", 0.5, 0.25, false},

		{"zero height", 400, 0, true},
		{"zero width", 0, 300, true},
		{"negative", -1, 300, true},
		{"nan", math.NaN(), 300, true},
		{"inf", 400, math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDimensions(tt.width, tt.height)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateDimensions(%v, %v) error = %v, wantErr %v", tt.width, tt.height, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidImageData) {
				t.Errorf("ValidateDimensions() returned wrong error code: %v", err)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://example.com/gallery/data.json", false},
		{"http", "http://localhost:8080/data.json", false},

		{"empty", "", true},
		{"ftp", "ftp://example.com", true},
		{"file", "file:///etc/passwd", true},
		{"no scheme", "example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "img/a.jpg", false},
		{"valid nested", "assets/img/gallery/preview_xxs/a.jpg", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"absolute path", "/etc/passwd", true},
		{"path traversal", "../../../etc/passwd", true},
		{"null byte", "foo\x00bar", true},
		{"backslash", "foo\\bar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateAssetRef(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"https://cdn.example.com/raw/a.jpg", false},
		{"assets/img/gallery/raw/a.jpg", false},
		{"ftp://example.com/a.jpg", true},
		{"../secret.jpg", true},
	}

	for _, tt := range tests {
		if err := ValidateAssetRef(tt.input); (err != nil) != tt.wantErr {
			t.Errorf("ValidateAssetRef(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidImageData,
		ErrCodeInvalidPath,
		ErrCodeInvalidConfig,
		ErrCodeIndexOutOfRange,
		ErrCodeInvalidState,
		ErrCodeNotFound,
		ErrCodeSessionNotFound,
		ErrCodeFetchFailed,
		ErrCodeNetwork,
		ErrCodeTimeout,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}
