package buildinfo

import (
	"strings"
	"testing"
)

func TestShort(t *testing.T) {
	origVersion, origCommit := Version, Commit
	t.Cleanup(func() { Version, Commit = origVersion, origCommit })

	tests := []struct {
		version, commit, want string
	}{
		{"v1.2.3", "none", "v1.2.3"},
		{"v1.2.3", "", "v1.2.3"},
		{"v1.2.3", "1a2b3c4d5e6f", "v1.2.3 (1a2b3c4)"},
		{"dev", "abc", "dev (abc)"},
	}
	for _, tt := range tests {
		Version, Commit = tt.version, tt.commit
		if got := Short(); got != tt.want {
			t.Errorf("Short() with %q/%q = %q, want %q", tt.version, tt.commit, got, tt.want)
		}
	}
}

func TestTemplate(t *testing.T) {
	if !strings.Contains(Template(), "{{.Name}} version") {
		t.Errorf("Template() = %q", Template())
	}
	if !strings.Contains(String(), "commit:") {
		t.Errorf("String() = %q", String())
	}
}
