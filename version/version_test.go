package version

import (
	"bytes"
	"strings"
	"testing"
)

func TestDescribe(t *testing.T) {
	tt := []struct {
		v       string
		release bool
		want    string
	}{
		{"2026.1", true, "vrp 2026.1"},
		{"devel", false, "vrp (no version)"},
		{"v0.0.0-20260101-abcdef", false, "vrp (devel, v0.0.0-20260101-abcdef)"},
	}
	for _, tc := range tt {
		if got := describe("vrp", tc.v, tc.release); got != tc.want {
			t.Errorf("describe(%q, %t) = %q, want %q", tc.v, tc.release, got, tc.want)
		}
	}
}

func TestVerbose(t *testing.T) {
	var buf bytes.Buffer
	Verbose(&buf)
	if !strings.Contains(buf.String(), "Compiled with Go version:") {
		t.Errorf("Verbose output lacks the Go version:\n%s", buf.String())
	}
}
