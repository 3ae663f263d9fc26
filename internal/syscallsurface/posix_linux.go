/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

//go:build linux

package syscallsurface

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Available is true on Linux, where New returns a working Surface.
const Available = true

// posix is the concrete Surface binding to the host C library via
// golang.org/x/sys/unix.
type posix struct{}

// New returns the production Surface implementation.
func New() Surface { return posix{} }

func (posix) Getpid() int { return unix.Getpid() }

func (posix) Getuid() int { return unix.Getuid() }

func (posix) Kill(pid int, signal int) error {
	err := unix.Kill(pid, unix.Signal(signal))
	if err == unix.ESRCH {
		return fmt.Errorf("kill %d: %w", pid, ErrNoSuchProcess)
	}
	return err
}

func (posix) Chmod(path string, mode os.FileMode) error {
	return unix.Chmod(path, uint32(mode.Perm()))
}

func (posix) StatOwner(path string) (uint32, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, err
	}
	return st.Uid, nil
}

// Socket/Connect implement the fixed sockaddr_un layout: family u16 +
// NUL-terminated path, using the host definition via
// unix.SockaddrUnix rather than hand-rolling the struct, since
// golang.org/x/sys/unix already encodes the correct per-platform path
// length.
func (posix) Socket() (int, error) {
	return unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
}

func (posix) Connect(handle int, path string) error {
	addr := &unix.SockaddrUnix{Name: path}
	return unix.Connect(handle, addr)
}

func (posix) Read(handle int, buf []byte) (int, error) {
	return unix.Read(handle, buf)
}

func (posix) Write(handle int, buf []byte) (int, error) {
	return unix.Write(handle, buf)
}

func (posix) Close(handle int) error {
	return unix.Close(handle)
}

func (posix) NotifyVM(dir, name string, count int) error {
	return notifySemaphore(dir, name, count)
}

func (posix) CancelNotify(dir, name string, count int) error {
	return cancelSemaphore(dir, name, count)
}
