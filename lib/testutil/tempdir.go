// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"testing"

	"golang.org/x/sys/unix"
)

// SocketDir creates a temporary directory directly under /tmp, short
// enough that socket paths inside it fit in sun_path. The directory is
// removed when the test completes.
func SocketDir(t *testing.T) string {
	t.Helper()
	directory, err := os.MkdirTemp("/tmp", "courier-test-*")
	if err != nil {
		t.Fatalf("creating socket directory: %v", err)
	}
	t.Cleanup(func() {
		_ = os.RemoveAll(directory)
	})
	return directory
}

// SocketPair returns two connected AF_UNIX stream sockets in
// non-blocking, close-on-exec mode. The caller owns both descriptors;
// they are usually handed to channels, which close them.
func SocketPair(t *testing.T) (first, second int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		t.Fatalf("socketpair: %v", err)
	}
	return fds[0], fds[1]
}
