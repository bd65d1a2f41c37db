// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ipc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"golang.org/x/sys/unix"
)

// pipe is the connected byte stream under a Channel. The production
// implementation is a Unix stream socket; tests substitute scripted
// pipes to control fragmentation and backpressure.
type pipe interface {
	// fd returns the descriptor the host loop watches.
	fd() int
	// read fills buffer and oob. It returns unix.EAGAIN when no data
	// is available and n == 0 with a nil error at end of stream.
	read(buffer, oob []byte) (n, oobn int, err error)
	// write sends data, with oob as ancillary data on the first byte.
	// It returns unix.EAGAIN when nothing could be written.
	write(data, oob []byte) (int, error)
	close() error
}

// socketPipe is a non-blocking AF_UNIX stream socket.
type socketPipe struct {
	descriptor int
}

func (p *socketPipe) fd() int { return p.descriptor }

func (p *socketPipe) read(buffer, oob []byte) (int, int, error) {
	n, oobn, _, _, err := unix.Recvmsg(p.descriptor, buffer, oob, unix.MSG_CMSG_CLOEXEC)
	return n, oobn, err
}

func (p *socketPipe) write(data, oob []byte) (int, error) {
	// MSG_NOSIGNAL: a vanished peer is reported as EPIPE rather than
	// SIGPIPE.
	return unix.SendmsgN(p.descriptor, data, oob, nil, unix.MSG_NOSIGNAL)
}

func (p *socketPipe) close() error { return unix.Close(p.descriptor) }

// listenSocket creates a non-blocking listening socket at path after
// removing any stale socket a previous process left behind. The
// backlog is 1: a server channel accepts exactly one peer.
func listenSocket(path string) (int, error) {
	if len(path) > maxSocketPath {
		return -1, fmt.Errorf("socket path %q exceeds %d bytes", path, maxSocketPath)
	}
	if err := removeStaleSocket(path); err != nil {
		return -1, err
	}
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	if err := unix.Bind(fd, &unix.SockaddrUnix{Name: path}); err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("bind %s: %w", path, err)
	}
	if err := unix.Listen(fd, 1); err != nil {
		unix.Close(fd)
		unix.Unlink(path)
		return -1, fmt.Errorf("listen %s: %w", path, err)
	}
	return fd, nil
}

// removeStaleSocket unlinks a leftover socket at path. Anything other
// than a socket is left alone and reported.
func removeStaleSocket(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking for stale socket %s: %w", path, err)
	}
	if info.Mode().Type() != fs.ModeSocket {
		return fmt.Errorf("%s exists and is not a socket", path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing stale socket %s: %w", path, err)
	}
	return nil
}

// acceptSocket accepts one pending connection. It returns unix.EAGAIN
// when none is pending.
func acceptSocket(listenFD int) (int, error) {
	for {
		fd, _, err := unix.Accept4(listenFD, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err == unix.EINTR {
			continue
		}
		return fd, err
	}
}

// connectSocket connects a non-blocking socket to the server at path.
// A Unix socket connect completes immediately or fails; EAGAIN means
// the server's backlog is full, which for a one-peer server means it
// already has a client.
func connectSocket(path string) (int, error) {
	if len(path) > maxSocketPath {
		return -1, fmt.Errorf("socket path %q exceeds %d bytes", path, maxSocketPath)
	}
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, fmt.Errorf("socket: %w", err)
	}
	for {
		err = unix.Connect(fd, &unix.SockaddrUnix{Name: path})
		if err != unix.EINTR {
			break
		}
	}
	if err != nil {
		unix.Close(fd)
		return -1, fmt.Errorf("connect %s: %w", path, err)
	}
	return fd, nil
}

// adoptSocket puts a caller-supplied connected socket into
// non-blocking mode.
func adoptSocket(fd int) error {
	if err := unix.SetNonblock(fd, true); err != nil {
		return fmt.Errorf("set non-blocking on fd %d: %w", fd, err)
	}
	return nil
}

// parseRights extracts descriptors from SCM_RIGHTS control messages.
func parseRights(oob []byte) ([]int, error) {
	messages, err := unix.ParseSocketControlMessage(oob)
	if err != nil {
		return nil, fmt.Errorf("parse control message: %w", err)
	}
	var fds []int
	for i := range messages {
		rights, err := unix.ParseUnixRights(&messages[i])
		if err != nil {
			// Close what was already extracted; the caller never sees
			// them.
			for _, fd := range fds {
				unix.Close(fd)
			}
			return nil, fmt.Errorf("parse SCM_RIGHTS: %w", err)
		}
		fds = append(fds, rights...)
	}
	return fds, nil
}
