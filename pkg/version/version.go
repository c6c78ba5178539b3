// Package version exposes build-time version metadata for the bibsift
// binary.
package version

import "runtime/debug"

// Version is the bibsift release version, overridable at link time via
// -ldflags "-X github.com/bibsift/bibsift/pkg/version.Version=...".
var Version = "dev"

// GitHash is the Git hash the binary was built from. When not set at
// link time it falls back to the VCS revision embedded in build info.
var GitHash = "<unknown>"

func init() {
	if GitHash != "<unknown>" {
		return
	}

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			GitHash = setting.Value

			return
		}
	}
}
