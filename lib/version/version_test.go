// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	tests := []struct {
		name   string
		commit string
		dirty  string
		want   string
	}{
		{name: "clean", commit: "abc1234", dirty: "false", want: Version + " (abc1234)"},
		{name: "dirty", commit: "abc1234", dirty: "true", want: Version + " (abc1234-dirty)"},
		{name: "development", commit: "unknown", dirty: "false", want: Version + " (unknown)"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			savedCommit, savedDirty := GitCommit, GitDirty
			t.Cleanup(func() { GitCommit, GitDirty = savedCommit, savedDirty })
			GitCommit, GitDirty = test.commit, test.dirty

			if got := Info(); got != test.want {
				t.Errorf("Info() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestBanner(t *testing.T) {
	got := Banner("hexlog", "rlimit")
	if !strings.HasPrefix(got, "hexlog "+Version+" ") {
		t.Errorf("Banner = %q, want prefix %q", got, "hexlog "+Version)
	}
	if !strings.HasSuffix(got, "(using rlimit mode process restriction)") {
		t.Errorf("Banner = %q, want the restriction mode suffix", got)
	}
}

func TestFull(t *testing.T) {
	full := Full()
	if !strings.HasPrefix(full, Info()) {
		t.Errorf("Full() = %q, want it to start with Info()", full)
	}
	if !strings.Contains(full, "Go: ") {
		t.Errorf("Full() = %q, missing Go version", full)
	}
}
