/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

package openj9

import (
	"os"

	"golang.org/x/sys/unix"
)

// fileLock is an OS-level advisory write lock on a single file handle.
type fileLock struct {
	f *os.File
}

// lockFile opens (creating if absent) and exclusively locks path.
func lockFile(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX); err != nil {
		f.Close()
		return nil, err
	}
	return &fileLock{f: f}, nil
}

// tryLockFile is lockFile without blocking; callers treat failure as
// "skip this peer".
func tryLockFile(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, err
	}
	return &fileLock{f: f}, nil
}

func (l *fileLock) release() {
	if l == nil || l.f == nil {
		return
	}
	unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
	l.f.Close()
}
