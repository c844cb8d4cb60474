// Package vcs reports the build revision stamped by the Go toolchain.
package vcs

import (
	"runtime/debug"
)

const shortRevision = 12

// Version returns the short VCS revision, suffixed with "-dirty" for builds
// from a modified tree. Builds without VCS data fall back to the module
// version, or "unavailable".
func Version() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "unavailable"
	}

	var (
		revision string
		modified bool
	)

	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			revision = s.Value
		case "vcs.modified":
			modified = s.Value == "true"
		}
	}

	if revision == "" {
		if bi.Main.Version != "" && bi.Main.Version != "(devel)" {
			return bi.Main.Version
		}
		return "unavailable"
	}

	if len(revision) > shortRevision {
		revision = revision[:shortRevision]
	}

	if modified {
		revision += "-dirty"
	}

	return revision
}
