package version

import (
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Tests here mutate package globals and must not run in parallel.

func TestApply_FromBuildInfo(t *testing.T) {
	saveVersion(t)

	apply(&debug.BuildInfo{
		Main: debug.Module{Version: "v1.2.3"},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		},
	})

	assert.Equal(t, "v1.2.3", Version)
	assert.Equal(t, "abc123", Commit)
	assert.Equal(t, "2026-01-02T03:04:05Z", Date)
	assert.Equal(t, "paracord v1.2.3 (commit: abc123, built: 2026-01-02T03:04:05Z)", String())
}

func TestApply_KeepsLdflags(t *testing.T) {
	saveVersion(t)

	Version = "v9.9.9"

	apply(&debug.BuildInfo{Main: debug.Module{Version: "(devel)"}})

	assert.Equal(t, "v9.9.9", Version)
	assert.Equal(t, "none", Commit)
}

func saveVersion(t *testing.T) {
	t.Helper()

	v, c, d := Version, Commit, Date
	Version, Commit, Date = "dev", "none", "unknown"

	t.Cleanup(func() { Version, Commit, Date = v, c, d })
}
