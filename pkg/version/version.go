// Package version reports build information for the pieces binary.
package version

import (
	"fmt"
	"runtime/debug"
)

const unknown = "unknown"

// Set at link time with -ldflags "-X github.com/Sumatoshi-tech/pieces/pkg/version.Version=...".
var (
	Version = "dev"
	Commit  = unknown
	Date    = unknown
)

// Init fills Commit and Date from the embedded VCS build settings when they
// were not provided at link time.
func Init() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	if Version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			if Commit == unknown {
				Commit = setting.Value
			}
		case "vcs.time":
			if Date == unknown {
				Date = setting.Value
			}
		}
	}
}

// String formats the build information as printed by the version command.
func String() string {
	return fmt.Sprintf("pieces %s (commit: %s, built: %s)", Version, Commit, Date)
}
