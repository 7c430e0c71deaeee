package version

import (
	"runtime/debug"
	"strings"
)

// Version and Commit are set at build time with:
// -ldflags "-X github.com/fboessen22/jobdash/internal/version.Version=vX.Y.Z -X github.com/fboessen22/jobdash/internal/version.Commit=<sha>"
var (
	Version = "dev"
	Commit  = ""
)

func Current() string {
	v := strings.TrimSpace(Version)
	if v == "" {
		return "dev"
	}
	return v
}

// String is the version followed by the short commit when one is known.
// Without an ldflags commit it falls back to the VCS revision stamped by the
// Go toolchain.
func String() string {
	commit := strings.TrimSpace(Commit)
	if commit == "" {
		commit = buildRevision()
	}
	if len(commit) > 12 {
		commit = commit[:12]
	}
	if commit == "" {
		return Current()
	}
	return Current() + " (" + commit + ")"
}

func buildRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}
