package version

import (
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	if Version == "" {
		t.Error("Version should not be empty")
	}

	// Default value should be "unknown" until set by build
	if Version != "unknown" {
		t.Logf("Version is: %s (expected 'unknown' or version set via ldflags)", Version)
	}
}

func TestBuildInfo(t *testing.T) {
	if BuildTime == "" {
		t.Error("BuildTime should be initialized")
	}

	if GitCommit == "" {
		t.Error("GitCommit should be initialized")
	}
}

func TestStringAndUserAgent(t *testing.T) {
	if !strings.HasPrefix(String(), "assignctl "+Version) {
		t.Errorf("unexpected version line %q", String())
	}
	if UserAgent() != "assignctl/"+Version {
		t.Errorf("unexpected user agent %q", UserAgent())
	}
}
