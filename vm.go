/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package attachcore is the attachment core: a client library that
// attaches to a running HotSpot- or OpenJ9-family JVM on a Linux
// host, asks it to load an instrumentation agent, and detaches
// cleanly. On other hosts every Attach function fails with
// ErrUnsupportedPlatform. See VirtualMachine for the entry point.
package attachcore

import (
	"errors"
	"time"

	"github.com/jvmattach/attachcore/config"
	"github.com/jvmattach/attachcore/internal/hotspot"
	"github.com/jvmattach/attachcore/internal/openj9"
	"github.com/jvmattach/attachcore/internal/process"
	"github.com/jvmattach/attachcore/internal/syscallsurface"
)

// session is the capability both family-specific attachers expose;
// VirtualMachine dispatches to whichever one Attach chose.
type session interface {
	LoadAgent(path, arg string) error
	LoadAgentPath(path, arg string) error
	Detach() error
}

// VirtualMachine is one attached session, HotSpot or OpenJ9. It is
// the union of the two attachers' behaviour and adds no logic beyond
// dispatching to the one that attached.
type VirtualMachine struct {
	pid int
	s   session
}

// AttachHotSpot performs the HotSpot handshake against pid using
// policy for the signal-and-poll phases.
func AttachHotSpot(pid int, policy RetryPolicy) (*VirtualMachine, error) {
	if !syscallsurface.Available {
		return nil, wrapError("AttachHotSpot", pid, ErrUnsupportedPlatform)
	}
	surface := syscallsurface.New()

	info, err := process.Resolve(pid)
	if err != nil {
		if errors.Is(err, process.ErrUnsupportedPlatform) {
			return nil, wrapError("AttachHotSpot", pid, ErrUnsupportedPlatform)
		}
		info = &process.Info{NsPID: pid}
	}
	tmpDir, err := process.TmpPath(pid)
	if err != nil {
		tmpDir = "/tmp"
	}

	s, err := hotspot.Attach(surface, pid, info.NsPID, tmpDir, policy)
	if err != nil {
		return nil, err
	}
	return &VirtualMachine{pid: pid, s: s}, nil
}

// AttachOpenJ9 performs the OpenJ9 handshake against pid, using
// config.ResolvedAdvertisementDir and the configured rendezvous
// timeout.
func AttachOpenJ9(pid int) (*VirtualMachine, error) {
	return AttachOpenJ9WithTimeout(pid, ConfiguredRendezvousTimeout())
}

// AttachOpenJ9WithTimeout is AttachOpenJ9 with an explicit bound on
// the rendezvous accept.
func AttachOpenJ9WithTimeout(pid int, timeout time.Duration) (*VirtualMachine, error) {
	if !syscallsurface.Available {
		return nil, wrapError("AttachOpenJ9", pid, ErrUnsupportedPlatform)
	}
	surface := syscallsurface.New()
	dir := config.ResolvedAdvertisementDir()

	s, err := openj9.Attach(surface, dir, pid, timeout)
	if err != nil {
		return nil, err
	}
	return &VirtualMachine{pid: pid, s: s}, nil
}

// ConfiguredRetryPolicy returns the environment-bound RetryPolicy
// (ATTACHCORE_RETRY_ATTEMPTS / ATTACHCORE_RETRY_PAUSE), falling back
// to DefaultRetryPolicy when unset or invalid.
func ConfiguredRetryPolicy() RetryPolicy {
	policy := RetryPolicy{Attempts: config.Config.RetryAttempts, Pause: config.Config.RetryPause}
	if policy.Validate() != nil {
		return DefaultRetryPolicy
	}
	return policy
}

// ConfiguredRendezvousTimeout returns the environment-bound OpenJ9
// rendezvous timeout (ATTACHCORE_RENDEZVOUS_TIMEOUT), falling back to
// DefaultRendezvousTimeout.
func ConfiguredRendezvousTimeout() time.Duration {
	if config.Config.RendezvousTimeout > 0 {
		return config.Config.RendezvousTimeout
	}
	return DefaultRendezvousTimeout
}

// LoadAgent asks the target to load a bytecode-instrumentation agent
// bundle from jarPath, optionally passing arg.
func (vm *VirtualMachine) LoadAgent(jarPath string, arg string) error {
	return wrapError("LoadAgent", vm.pid, vm.s.LoadAgent(jarPath, arg))
}

// LoadAgentPath asks the target to load a native agent library from
// libraryPath, optionally passing arg.
func (vm *VirtualMachine) LoadAgentPath(libraryPath string, arg string) error {
	return wrapError("LoadAgentPath", vm.pid, vm.s.LoadAgentPath(libraryPath, arg))
}

// Detach closes the session's endpoint. Idempotent: any operation
// after the first Detach fails with ErrAlreadyDetached.
func (vm *VirtualMachine) Detach() error {
	return wrapError("Detach", vm.pid, vm.s.Detach())
}
