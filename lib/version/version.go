// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// These variables are set via -ldflags at build time:
//
//	go build -ldflags "-X github.com/bureau-foundation/courier/lib/version.GitCommit=$(git rev-parse --short HEAD)"
var (
	// GitCommit is the short git SHA of the build.
	GitCommit = "unknown"

	// GitDirty indicates whether there were uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC timestamp of the build.
	BuildTime = "unknown"

	// Version is the semantic version. This is set manually for releases.
	Version = "0.1.0-dev"
)

type buildStamp struct {
	commit string
	dirty  bool
	time   string
}

var embeddedStamp = sync.OnceValue(func() buildStamp {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return buildStamp{}
	}
	return stampFromSettings(info.Settings)
})

func stampFromSettings(settings []debug.BuildSetting) buildStamp {
	var stamp buildStamp
	for _, setting := range settings {
		switch setting.Key {
		case "vcs.revision":
			stamp.commit = setting.Value
			if len(stamp.commit) > 7 {
				stamp.commit = stamp.commit[:7]
			}
		case "vcs.modified":
			stamp.dirty = setting.Value == "true"
		case "vcs.time":
			stamp.time = setting.Value
		}
	}
	return stamp
}

// resolve merges the injected variables with the embedded stamp.
// Injected values win.
func resolve(stamp buildStamp) (commit string, dirty bool, built string) {
	commit, dirty, built = GitCommit, GitDirty == "true", BuildTime
	if commit == "unknown" && stamp.commit != "" {
		commit, dirty = stamp.commit, stamp.dirty
	}
	if built == "unknown" && stamp.time != "" {
		built = stamp.time
	}
	return commit, dirty, built
}

// Info returns a formatted version string suitable for --version output.
func Info() string {
	return format(resolve(embeddedStamp()))
}

func format(commit string, dirty bool, built string) string {
	suffix := ""
	if dirty {
		suffix = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, commit, suffix, built)
}

// Full returns detailed version information including Go version.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
