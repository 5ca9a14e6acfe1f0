// Package version exposes build information for logs and the admin endpoints.
package version

import (
	"runtime/debug"
	"time"
)

// Information describes the running build.
type Information struct {
	GitCommit string    `json:"git_commit"`
	GitDirty  bool      `json:"git_dirty"`
	Version   string    `json:"version"`
	GoVersion string    `json:"go_version"`
	Date      time.Time `json:"git_date"`
}

// Version may be set at link time with -ldflags "-X .../version.Version=v1.2.3".
var Version = "dev"

// Info is populated from the embedded module build information.
var Info = read()

func read() Information {
	info := Information{Version: Version}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	if info.Version == "dev" && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.Version = bi.Main.Version
	}

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			info.GitCommit = s.Value
		case "vcs.modified":
			info.GitDirty = s.Value == "true"
		case "vcs.time":
			if d, err := time.Parse(time.RFC3339, s.Value); err == nil {
				info.Date = d.UTC()
			}
		}
	}
	return info
}
