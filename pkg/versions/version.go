// Package versions exposes build metadata for the mintwell API server.
package versions

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"time"
)

const unknown = "unknown"

// Populated at build time via -ldflags; defaults describe a local dev build.
var (
	Version   = "dev"
	Commit    = unknown
	BuildDate = unknown
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// GetVersionInfo returns version info for the running binary, filling in
// commit and build date from embedded VCS data when ldflags left them unset.
func GetVersionInfo() VersionInfo {
	return buildVersionInfo(Version, Commit, BuildDate)
}

func buildVersionInfo(version, commit, date string) VersionInfo {
	if version == "dev" {
		commit, date = fromBuildInfo(commit, date)
	}

	if date != unknown {
		if t, err := time.Parse(time.RFC3339, date); err == nil {
			date = t.Format("2006-01-02 15:04:05 MST")
		}
	}

	if version == "dev" && commit != unknown {
		short := commit
		if len(short) > 8 {
			short = short[:8]
		}
		version = "build-" + short
	}

	return VersionInfo{
		Version:   version,
		Commit:    commit,
		BuildDate: date,
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
}

// fromBuildInfo fills unknown fields from the module's embedded VCS metadata.
func fromBuildInfo(commit, date string) (string, string) {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, date
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if commit == unknown {
				commit = s.Value
			}
		case "vcs.time":
			if date == unknown {
				date = s.Value
			}
		}
	}
	return commit, date
}
