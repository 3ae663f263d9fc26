/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package conn implements the ConnectionBackend abstraction: a byte
// stream with full-write semantics shared by both attachers, built
// over the mockable SyscallSurface rather than calling net.Dial
// directly so the HotSpot attacher is testable without a real kernel.
package conn

import (
	"fmt"
	"io"

	"github.com/jvmattach/attachcore/internal/attacherrors"
	"github.com/jvmattach/attachcore/internal/syscallsurface"
)

// Backend is a byte stream. Write must fully write buf or return
// ErrIOShort; partial writes are never retried by the caller.
type Backend interface {
	Read(buf []byte) (int, error)
	Write(buf []byte) error
	Close() error
}

// unixBackend is the HotSpot rendezvous backend: a UNIX-domain stream
// socket reached entirely through syscallsurface.Surface, so it is
// mockable.
type unixBackend struct {
	surface syscallsurface.Surface
	handle  int
}

// DialUnix opens a UNIX-domain stream socket at path via surface.
func DialUnix(surface syscallsurface.Surface, path string) (Backend, error) {
	handle, err := surface.Socket()
	if err != nil {
		return nil, fmt.Errorf("%w: socket: %v", attacherrors.ErrConnectFailed, err)
	}
	if err := surface.Connect(handle, path); err != nil {
		surface.Close(handle)
		return nil, fmt.Errorf("%w: connect %s: %v", attacherrors.ErrConnectFailed, path, err)
	}
	return &unixBackend{surface: surface, handle: handle}, nil
}

func (b *unixBackend) Read(buf []byte) (int, error) {
	n, err := b.surface.Read(b.handle, buf)
	if err != nil {
		return n, err
	}
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (b *unixBackend) Write(buf []byte) error {
	written := 0
	for written < len(buf) {
		n, err := b.surface.Write(b.handle, buf[written:])
		if err != nil {
			return fmt.Errorf("%w: %v", attacherrors.ErrIOShort, err)
		}
		if n <= 0 {
			return attacherrors.ErrIOShort
		}
		written += n
	}
	return nil
}

func (b *unixBackend) Close() error {
	return b.surface.Close(b.handle)
}

// rwcBackend adapts any io.ReadWriteCloser (a net.Conn, or a
// net.Pipe() half in tests) to Backend. The OpenJ9 TCP loopback
// rendezvous uses this directly over a *net.TCPConn; stdlib net is
// the right tool here since there is no ecosystem library that
// improves on a loopback accept/dial.
type rwcBackend struct {
	rwc io.ReadWriteCloser
}

// FromReadWriteCloser wraps rwc as a Backend, enforcing the
// full-write contract.
func FromReadWriteCloser(rwc io.ReadWriteCloser) Backend {
	return &rwcBackend{rwc: rwc}
}

func (b *rwcBackend) Read(buf []byte) (int, error) {
	return b.rwc.Read(buf)
}

func (b *rwcBackend) Write(buf []byte) error {
	written := 0
	for written < len(buf) {
		n, err := b.rwc.Write(buf[written:])
		if err != nil {
			return fmt.Errorf("%w: %v", attacherrors.ErrIOShort, err)
		}
		if n <= 0 {
			return attacherrors.ErrIOShort
		}
		written += n
	}
	return nil
}

func (b *rwcBackend) Close() error {
	return b.rwc.Close()
}
