// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zeebo/blake3"
	"golang.org/x/sys/unix"
)

// socketPrefix starts every channel socket file name.
const socketPrefix = "courier_"

// maxSocketPath is the longest path that fits in sockaddr_un.sun_path
// with its terminating NUL.
const maxSocketPath = len(unix.RawSockaddrUnix{}.Path) - 1

// PipeName returns the socket path for channelID inside directory.
// Both ends derive the same path from the same id, so no discovery is
// needed. Ids that contain a path separator, or whose path would not
// fit in sun_path, are replaced by a hex BLAKE3 digest of the id.
func PipeName(directory, channelID string) string {
	path := filepath.Join(directory, socketPrefix+channelID)
	if len(path) <= maxSocketPath && !strings.ContainsRune(channelID, filepath.Separator) && channelID != "" {
		return path
	}
	digest := blake3.Sum256([]byte(channelID))
	return filepath.Join(directory, socketPrefix+hex.EncodeToString(digest[:16]))
}

// GenerateChannelID returns a fresh channel id of the form
// "<pid>.<random hex>".
func GenerateChannelID() string {
	var token [8]byte
	// crypto/rand.Read never returns an error on Linux.
	_, _ = rand.Read(token[:])
	return fmt.Sprintf("%d.%s", os.Getpid(), hex.EncodeToString(token[:]))
}

// DefaultSocketDirectory is the rendezvous directory used when
// ChannelOptions.SocketDirectory is empty.
func DefaultSocketDirectory() string {
	return os.TempDir()
}
