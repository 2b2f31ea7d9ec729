package version

import (
	"strings"
	"testing"
)

func TestVersionStringNonEmpty(t *testing.T) {
	if s := String(); s == "" {
		t.Fatalf("version string is empty")
	}
}

func TestVersionStringUsesStampedValues(t *testing.T) {
	oldV, oldC := Version, Commit
	t.Cleanup(func() { Version, Commit = oldV, oldC })
	Version, Commit = "v1.2.3", "abcdef0"
	if s := String(); !strings.Contains(s, "v1.2.3") || !strings.Contains(s, "abcdef0") {
		t.Fatalf("unexpected version string %q", s)
	}
}
