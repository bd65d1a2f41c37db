// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestStampFromSettings(t *testing.T) {
	stamp := stampFromSettings([]debug.BuildSetting{
		{Key: "vcs", Value: "git"},
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.time", Value: "2026-03-01T12:00:00Z"},
		{Key: "vcs.modified", Value: "true"},
	})
	if stamp.commit != "0123456" || !stamp.dirty || stamp.time != "2026-03-01T12:00:00Z" {
		t.Errorf("stamp = %+v", stamp)
	}
}

func TestResolve(t *testing.T) {
	embedded := buildStamp{commit: "abcdef0", dirty: true, time: "2026-03-01T12:00:00Z"}

	tests := []struct {
		name      string
		gitCommit string
		gitDirty  string
		buildTime string
		want      string
	}{
		{"embedded stamp", "unknown", "false", "unknown", "0.1.0-dev (abcdef0-dirty, 2026-03-01T12:00:00Z)"},
		{"injected wins", "1111111", "false", "2026-04-01T00:00:00Z", "0.1.0-dev (1111111, 2026-04-01T00:00:00Z)"},
		{"injected dirty", "2222222", "true", "unknown", "0.1.0-dev (2222222-dirty, 2026-03-01T12:00:00Z)"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			savedCommit, savedDirty, savedTime, savedVersion := GitCommit, GitDirty, BuildTime, Version
			t.Cleanup(func() {
				GitCommit, GitDirty, BuildTime, Version = savedCommit, savedDirty, savedTime, savedVersion
			})
			GitCommit, GitDirty, BuildTime, Version = test.gitCommit, test.gitDirty, test.buildTime, "0.1.0-dev"

			if got := format(resolve(embedded)); got != test.want {
				t.Errorf("got %q, want %q", got, test.want)
			}
		})
	}
}

func TestFull(t *testing.T) {
	full := Full()
	if !strings.HasPrefix(full, Version+" (") || !strings.Contains(full, "Platform: ") {
		t.Errorf("Full() = %q", full)
	}
}
