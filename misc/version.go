// Package misc keeps program identification.
package misc

import (
	"runtime/debug"
)

// Set with -ldflags "-X rtdoc/misc.version=... -X rtdoc/misc.gitHash=...".
var (
	version = ""
	gitHash = ""
)

const appName = "rtdoc"

func GetAppName() string {
	return appName
}

// GetVersion returns linked in version or module version from build info.
func GetVersion() string {
	if version != "" {
		return version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		return bi.Main.Version
	}
	return "(devel)"
}

// GetGitHash returns linked in commit or vcs revision recorded by go build.
func GetGitHash() string {
	if gitHash != "" {
		return gitHash
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
