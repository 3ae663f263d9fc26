/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

package hotspot

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jvmattach/attachcore/internal/attacherrors"
	"github.com/jvmattach/attachcore/internal/retrypolicy"
	"github.com/jvmattach/attachcore/internal/syscallsurface/syscallsurfacetest"
)

const testPID = 1234

func listenUnixSocket(t *testing.T, path string) net.Listener {
	t.Helper()
	l, err := net.Listen("unix", path)
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

// TestAttachHappyPath covers the HotSpot happy-path scenario: socket
// present from step 0, load_agent writes the exact six-field payload
// and a "0\n" reply succeeds.
func TestAttachHappyPath(t *testing.T) {
	tmpDir := t.TempDir()
	socketPath := filepath.Join(tmpDir, fmt.Sprintf(".java_pid%d", testPID))
	listenUnixSocket(t, socketPath)

	surface := syscallsurfacetest.New()
	surface.On("Socket").Return(42, nil)
	surface.On("Connect", 42, socketPath).Return(nil)

	payload := []byte("1\x00load\x00instrument\x00false\x00/a.jar=opt=1\x00")
	surface.On("Write", 42, payload).Return(len(payload), nil)
	surface.On("Read", 42, mock.Anything).Run(func(args mock.Arguments) {
		buf := args.Get(1).([]byte)
		copy(buf, "0\n")
	}).Return(2, nil)

	session, err := Attach(surface, testPID, testPID, tmpDir, retrypolicy.Default)
	require.NoError(t, err)

	err = session.LoadAgent("/a.jar", "opt=1")
	assert.NoError(t, err)

	surface.AssertExpectations(t)
}

// TestAttachProtocolMismatch covers reply "101\n" -> ErrProtocolMismatch.
func TestAttachProtocolMismatch(t *testing.T) {
	tmpDir := t.TempDir()
	socketPath := filepath.Join(tmpDir, fmt.Sprintf(".java_pid%d", testPID))
	listenUnixSocket(t, socketPath)

	surface := syscallsurfacetest.New()
	surface.On("Socket").Return(42, nil)
	surface.On("Connect", 42, socketPath).Return(nil)
	surface.On("Write", 42, mock.Anything).Return(37, nil)
	surface.On("Read", 42, mock.Anything).Run(func(args mock.Arguments) {
		buf := args.Get(1).([]byte)
		copy(buf, "101\n")
	}).Return(4, nil)

	session, err := Attach(surface, testPID, testPID, tmpDir, retrypolicy.Default)
	require.NoError(t, err)

	err = session.LoadAgent("/a.jar", "opt=1")
	assert.True(t, errors.Is(err, attacherrors.ErrProtocolMismatch))
}

// TestLoadAgentPathNativeFraming covers the native-agent variant: the
// fourth field flips to "true".
func TestLoadAgentPathNativeFraming(t *testing.T) {
	tmpDir := t.TempDir()
	socketPath := filepath.Join(tmpDir, fmt.Sprintf(".java_pid%d", testPID))
	listenUnixSocket(t, socketPath)

	surface := syscallsurfacetest.New()
	surface.On("Socket").Return(42, nil)
	surface.On("Connect", 42, socketPath).Return(nil)

	payload := []byte("1\x00load\x00instrument\x00true\x00/lib/x.so\x00")
	surface.On("Write", 42, payload).Return(len(payload), nil)
	surface.On("Read", 42, mock.Anything).Run(func(args mock.Arguments) {
		buf := args.Get(1).([]byte)
		copy(buf, "0\n")
	}).Return(2, nil)

	session, err := Attach(surface, testPID, testPID, tmpDir, retrypolicy.Default)
	require.NoError(t, err)

	assert.NoError(t, session.LoadAgentPath("/lib/x.so", ""))
	surface.AssertExpectations(t)
}

// TestLoadAgentRejectedDrainsErrorMessage covers a non-0, non-101
// reply code: the rest of the stream becomes the rejection message.
func TestLoadAgentRejectedDrainsErrorMessage(t *testing.T) {
	tmpDir := t.TempDir()
	socketPath := filepath.Join(tmpDir, fmt.Sprintf(".java_pid%d", testPID))
	listenUnixSocket(t, socketPath)

	surface := syscallsurfacetest.New()
	surface.On("Socket").Return(42, nil)
	surface.On("Connect", 42, socketPath).Return(nil)
	surface.On("Write", 42, mock.Anything).Return(37, nil)
	surface.On("Read", 42, mock.Anything).Run(func(args mock.Arguments) {
		buf := args.Get(1).([]byte)
		copy(buf, "50\nagent load failed")
	}).Return(20, nil).Once()
	surface.On("Read", 42, mock.Anything).Return(0, nil)

	session, err := Attach(surface, testPID, testPID, tmpDir, retrypolicy.Default)
	require.NoError(t, err)

	err = session.LoadAgent("/a.jar", "opt=1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, attacherrors.ErrAgentRejected))

	var rejected *attacherrors.AgentRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, "agent load failed", rejected.Message)
}

// TestSessionDetachIsIdempotent covers repeated Detach and operations
// after it.
func TestSessionDetachIsIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	socketPath := filepath.Join(tmpDir, fmt.Sprintf(".java_pid%d", testPID))
	listenUnixSocket(t, socketPath)

	surface := syscallsurfacetest.New()
	surface.On("Socket").Return(42, nil)
	surface.On("Connect", 42, socketPath).Return(nil)
	surface.On("Close", 42).Return(nil).Once()

	session, err := Attach(surface, testPID, testPID, tmpDir, retrypolicy.Default)
	require.NoError(t, err)

	require.NoError(t, session.Detach())

	err = session.Detach()
	assert.True(t, errors.Is(err, attacherrors.ErrAlreadyDetached))

	err = session.LoadAgent("/a.jar", "")
	assert.True(t, errors.Is(err, attacherrors.ErrAlreadyDetached))
	surface.AssertExpectations(t)
}

// TestAttachSignalAndWait covers the socket appearing only after a
// few poll iterations, and confirms the sentinel is cleaned up.
func TestAttachSignalAndWait(t *testing.T) {
	tmpDir := t.TempDir()
	socketPath := filepath.Join(tmpDir, fmt.Sprintf(".java_pid%d", testPID))

	surface := syscallsurfacetest.New()
	surface.On("Kill", testPID, sigQuit).Run(func(args mock.Arguments) {
		go func() {
			time.Sleep(30 * time.Millisecond)
			l, err := net.Listen("unix", socketPath)
			if err != nil {
				t.Errorf("could not create attach socket: %v", err)
				return
			}
			t.Cleanup(func() { l.Close() })
		}()
	}).Return(nil)
	surface.On("Socket").Return(7, nil)
	surface.On("Connect", 7, socketPath).Return(nil)

	policy := retrypolicy.Policy{Attempts: 10, Pause: 10 * time.Millisecond}
	session, err := Attach(surface, testPID, testPID, tmpDir, policy)
	require.NoError(t, err)
	require.NotNil(t, session)

	sentinelPath := filepath.Join(tmpDir, fmt.Sprintf(".attach_pid%d", testPID))
	_, statErr := os.Stat(sentinelPath)
	assert.True(t, os.IsNotExist(statErr), "sentinel should be removed after attach")
}
