package version

import (
	"strings"
	"testing"
)

func setVars(t *testing.T, version, commit, buildTime string) {
	t.Helper()
	origVersion, origCommit, origBuildTime := Version, Commit, BuildTime
	t.Cleanup(func() {
		Version, Commit, BuildTime = origVersion, origCommit, origBuildTime
	})
	Version, Commit, BuildTime = version, commit, buildTime
}

func TestString(t *testing.T) {
	t.Run("ldflags values win", func(t *testing.T) {
		setVars(t, "1.2.3", "abc1234", "2024-01-15T10:00:00Z")

		want := "1.2.3 (abc1234) built 2024-01-15T10:00:00Z"
		if got := String(); got != want {
			t.Errorf("String() = %q, want %q", got, want)
		}
	})

	t.Run("default values", func(t *testing.T) {
		setVars(t, "dev", "unknown", "unknown")

		got := String()
		if !strings.HasPrefix(got, "dev (") {
			t.Errorf("String() = %q, should start with %q", got, "dev (")
		}
		if !strings.Contains(got, ") built ") {
			t.Errorf("String() = %q, should contain 'built'", got)
		}
	})
}

func TestGet(t *testing.T) {
	setVars(t, "2.0.0", "deadbee", "2025-06-01T00:00:00Z")

	info := Get()
	if info.Version != "2.0.0" || info.Commit != "deadbee" || info.BuildTime != "2025-06-01T00:00:00Z" {
		t.Errorf("Get() = %+v", info)
	}
}

func TestShortRevision(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"0123456789abcdef", "0123456"},
		{"abc", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := shortRevision(tt.in); got != tt.want {
			t.Errorf("shortRevision(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
