package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	cause := errors.New("connection refused")
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"plain", New(ErrCodeIndexOutOfRange, "index %d outside [0, %d)", 7, 5), "INDEX_OUT_OF_RANGE: index 7 outside [0, 5)"},
		{"wrapped", Wrap(ErrCodeFetchFailed, cause, "fetch page at offset %d", 10), "FETCH_FAILED: fetch page at offset 10: connection refused"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapUnwraps(t *testing.T) {
	cause := errors.New("page decode failed")
	err := Wrap(ErrCodeFetchFailed, cause, "fetch")
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if errors.Unwrap(err) != cause {
		t.Errorf("Unwrap() = %v", errors.Unwrap(err))
	}
}

func TestCodeHelpers(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    Code
		wantIs  bool
		wantGet Code
		wantMsg string
	}{
		{"coded", New(ErrCodeInvalidState, "viewer is closed"), ErrCodeInvalidState, true, ErrCodeInvalidState, "viewer is closed"},
		{"other code", New(ErrCodeInvalidState, "viewer is closed"), ErrCodeInvalidInput, false, ErrCodeInvalidState, "viewer is closed"},
		{"fmt wrapped", fmt.Errorf("open: %w", New(ErrCodeNotFound, "no such catalog")), ErrCodeNotFound, true, ErrCodeNotFound, "no such catalog"},
		{"plain", errors.New("boom"), ErrCodeInternal, false, "", "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.wantIs {
				t.Errorf("Is() = %v, want %v", got, tt.wantIs)
			}
			if got := GetCode(tt.err); got != tt.wantGet {
				t.Errorf("GetCode() = %q, want %q", got, tt.wantGet)
			}
			if got := UserMessage(tt.err); got != tt.wantMsg {
				t.Errorf("UserMessage() = %q, want %q", got, tt.wantMsg)
			}
		})
	}

	if Is(nil, ErrCodeInternal) || GetCode(nil) != "" {
		t.Error("nil error should carry no code")
	}
}

func TestIndexError(t *testing.T) {
	err := AtIndex(3, 10, New(ErrCodeInvalidImageData, "zero height"))

	if !Is(err, ErrCodeInvalidImageData) {
		t.Errorf("Is(err, ErrCodeInvalidImageData) = false, want true")
	}
	idx, ok := IndexOf(err)
	if !ok || idx != 3 {
		t.Errorf("IndexOf() = %d, %v, want 3, true", idx, ok)
	}
	if err.Error() != "INVALID_IMAGE_DATA: zero height" {
		t.Errorf("Error() = %q", err.Error())
	}

	if _, ok := IndexOf(errors.New("plain")); ok {
		t.Error("IndexOf(plain) should report false")
	}
}

func TestIsOutermostCode(t *testing.T) {
	err := Wrap(ErrCodeFetchFailed, New(ErrCodeNetwork, "connection refused"), "fetch page at offset %d", 5)
	if GetCode(err) != ErrCodeFetchFailed {
		t.Errorf("GetCode() = %v, want %v", GetCode(err), ErrCodeFetchFailed)
	}
	if UserMessage(err) != "fetch page at offset 5" {
		t.Errorf("UserMessage() = %q", UserMessage(err))
	}
}
