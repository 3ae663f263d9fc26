/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

//go:build !linux

package syscallsurface

import (
	"os"

	"github.com/jvmattach/attachcore/internal/attacherrors"
)

// Available is false outside Linux: the cgo notifier semaphore and
// /proc-based process resolution this port's concrete Surface relies
// on are both Linux-specific. Callers (vm.go) check this before
// calling New so an unsupported host fails with ErrUnsupportedPlatform
// instead of ever reaching a syscall.
const Available = false

// New returns a stub Surface whose every method fails with
// ErrUnsupportedPlatform, rather than panicking: calling the public
// API on an unsupported platform is valid input, not a programming
// error. Callers should check Available first.
func New() Surface { return unsupported{} }

type unsupported struct{}

func (unsupported) Getpid() int { return 0 }

func (unsupported) Getuid() int { return 0 }

func (unsupported) Kill(pid int, signal int) error { return attacherrors.ErrUnsupportedPlatform }

func (unsupported) Chmod(path string, mode os.FileMode) error {
	return attacherrors.ErrUnsupportedPlatform
}

func (unsupported) StatOwner(path string) (uint32, error) {
	return 0, attacherrors.ErrUnsupportedPlatform
}

func (unsupported) Socket() (int, error) { return 0, attacherrors.ErrUnsupportedPlatform }

func (unsupported) Connect(handle int, path string) error { return attacherrors.ErrUnsupportedPlatform }

func (unsupported) Read(handle int, buf []byte) (int, error) {
	return 0, attacherrors.ErrUnsupportedPlatform
}

func (unsupported) Write(handle int, buf []byte) (int, error) {
	return 0, attacherrors.ErrUnsupportedPlatform
}

func (unsupported) Close(handle int) error { return attacherrors.ErrUnsupportedPlatform }

func (unsupported) NotifyVM(dir, name string, count int) error {
	return attacherrors.ErrUnsupportedPlatform
}

func (unsupported) CancelNotify(dir, name string, count int) error {
	return attacherrors.ErrUnsupportedPlatform
}
