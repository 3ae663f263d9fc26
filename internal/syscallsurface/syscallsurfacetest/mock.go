/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package syscallsurfacetest provides a testify/mock-based double for
// syscallsurface.Surface. It lives outside _test.go so both
// internal/hotspot and internal/openj9 tests can import the same
// double.
package syscallsurfacetest

import (
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/jvmattach/attachcore/internal/syscallsurface"
)

// Surface is a scriptable syscallsurface.Surface double.
type Surface struct {
	mock.Mock
}

var _ syscallsurface.Surface = (*Surface)(nil)

func New() *Surface { return &Surface{} }

func (m *Surface) Getpid() int {
	return m.Called().Int(0)
}

func (m *Surface) Getuid() int {
	return m.Called().Int(0)
}

func (m *Surface) Kill(pid int, signal int) error {
	return m.Called(pid, signal).Error(0)
}

func (m *Surface) Chmod(path string, mode os.FileMode) error {
	return m.Called(path, mode).Error(0)
}

func (m *Surface) StatOwner(path string) (uint32, error) {
	args := m.Called(path)
	return args.Get(0).(uint32), args.Error(1)
}

func (m *Surface) Socket() (int, error) {
	args := m.Called()
	return args.Int(0), args.Error(1)
}

func (m *Surface) Connect(handle int, path string) error {
	return m.Called(handle, path).Error(0)
}

func (m *Surface) Read(handle int, buf []byte) (int, error) {
	args := m.Called(handle, buf)
	return args.Int(0), args.Error(1)
}

func (m *Surface) Write(handle int, buf []byte) (int, error) {
	args := m.Called(handle, buf)
	return args.Int(0), args.Error(1)
}

func (m *Surface) Close(handle int) error {
	return m.Called(handle).Error(0)
}

func (m *Surface) NotifyVM(dir, name string, count int) error {
	return m.Called(dir, name, count).Error(0)
}

func (m *Surface) CancelNotify(dir, name string, count int) error {
	return m.Called(dir, name, count).Error(0)
}
