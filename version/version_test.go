package version

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	s := String()
	for _, k := range []string{"GitCommit: ", "ReleaseVersion: " + ReleaseVersion, "BuildTime: "} {
		if !strings.Contains(s, k) {
			t.Fatalf("%q missing %q", s, k)
		}
	}
	if len(ReleaseVersion) != len("200601021504") {
		t.Fatalf("unexpected ReleaseVersion %q", ReleaseVersion)
	}
}
