/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package syscallsurface is the abstract capability set both
// attachers need from the host: getpid/getuid/kill/chmod, UNIX-domain
// socket primitives, and the OpenJ9 notifier semaphore. Both attachers
// reach these calls only through this interface, so tests can swap in
// a mock (see internal/syscallsurface/syscallsurfacetest). Filesystem
// work (sentinel and replyInfo files, socket existence checks) goes
// through package os, and internal/openj9 takes its advisory file
// locks with golang.org/x/sys/unix directly.
package syscallsurface

import (
	"errors"
	"os"
)

// Surface is the full capability set both attachers need from the
// host. A single process normally uses exactly one concrete
// implementation (POSIX, below) for its entire lifetime.
type Surface interface {
	// Getpid returns the calling process's own pid, used to exclude
	// self from the OpenJ9 peer-lock set.
	Getpid() int

	// Getuid returns the calling process's real uid, used to
	// filter the OpenJ9 advertisement directory scan.
	Getuid() int

	// Kill sends signal to pid. Implementations must make ESRCH
	// ("no such process") distinguishable via errors.Is(err, ErrNoSuchProcess).
	Kill(pid int, signal int) error

	// Chmod sets path's mode bits.
	Chmod(path string, mode os.FileMode) error

	// StatOwner returns the owning uid of path, used for OpenJ9
	// attachInfo ownership checks.
	StatOwner(path string) (uid uint32, err error)

	// Socket opens a UNIX-domain stream socket and returns a handle.
	Socket() (handle int, err error)

	// Connect connects handle to the UNIX-domain socket at path.
	Connect(handle int, path string) error

	// Read reads into buf from handle. Returns 0 at end of stream.
	Read(handle int, buf []byte) (int, error)

	// Write writes buf to handle. Implementations may perform a
	// short write; callers are responsible for looping (see
	// internal/conn, which enforces the "fully written or IoShort"
	// contract).
	Write(handle int, buf []byte) (int, error)

	// Close closes handle.
	Close(handle int) error

	// NotifyVM posts count times on the named OpenJ9 notifier
	// semaphore under dir, waking every advertised VM so it inspects
	// its replyInfo.
	NotifyVM(dir, name string, count int) error

	// CancelNotify is NotifyVM's inverse, consuming count posts.
	CancelNotify(dir, name string, count int) error
}

// ErrNoSuchProcess is the sentinel Kill implementations wrap so
// callers can test for ESRCH without depending on a platform errno
// type.
var ErrNoSuchProcess = errNoSuchProcess{}

type errNoSuchProcess struct{}

func (errNoSuchProcess) Error() string { return "no such process" }

// ProcessExists reports whether pid still exists: kill(pid, 0) != ESRCH.
func ProcessExists(s Surface, pid int) bool {
	err := s.Kill(pid, 0)
	if err == nil {
		return true
	}
	return !errors.Is(err, ErrNoSuchProcess)
}
