// Package version reports the build version of the paracord binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Set with -ldflags "-X github.com/Sumatoshi-tech/paracord/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// InitBinaryVersion fills unset values from the module build info, which is
// present for `go install`ed binaries.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	apply(info)
}

func apply(info *debug.BuildInfo) {
	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == "none" {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == "unknown" {
				Date = setting.Value
			}
		}
	}
}

// String returns the one-line version banner.
func String() string {
	return fmt.Sprintf("paracord %s (commit: %s, built: %s)", Version, Commit, Date)
}
