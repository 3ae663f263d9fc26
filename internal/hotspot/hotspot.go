/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package hotspot implements the HotSpot-family attach handshake: a
// sentinel file plus SIGQUIT asks the target to open a UNIX-domain
// rendezvous socket, over which a six-field NUL-terminated command is
// exchanged. The signal and all socket I/O go through
// syscallsurface.Surface so they can be mocked; the sentinel file and
// the socket existence check use the real filesystem.
package hotspot

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jvmattach/attachcore/internal/attacherrors"
	"github.com/jvmattach/attachcore/internal/attachlog"
	"github.com/jvmattach/attachcore/internal/conn"
	"github.com/jvmattach/attachcore/internal/deleteonexit"
	"github.com/jvmattach/attachcore/internal/retrypolicy"
	"github.com/jvmattach/attachcore/internal/syscallsurface"
)

const sigQuit = 3

// Session is one attached HotSpot connection. It owns the sentinel
// file's fate (already resolved by the time Attach returns) and the
// UNIX-domain socket.
type Session struct {
	surface  syscallsurface.Surface
	backend  conn.Backend
	pid      int
	detached bool
}

// Attach performs the full HotSpot handshake: it locates or triggers the rendezvous socket, connects to it,
// and always resolves the sentinel file's lifecycle before returning,
// success or failure.
func Attach(surface syscallsurface.Surface, pid, nsPID int, tmpDir string, policy retrypolicy.Policy) (*Session, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	socketPath := filepath.Join(tmpDir, fmt.Sprintf(".java_pid%d", nsPID))

	if !socketExists(socketPath) {
		sentinelPath, err := createSentinel(pid, nsPID, tmpDir)
		if err != nil {
			return nil, attacherrors.Wrap("hotspot.attach", pid, err)
		}
		signalErr := signalAndWait(surface, pid, socketPath, policy)
		resolveSentinel(sentinelPath)
		if signalErr != nil {
			return nil, attacherrors.Wrap("hotspot.attach", pid, signalErr)
		}
	}

	backend, err := conn.DialUnix(surface, socketPath)
	if err != nil {
		return nil, attacherrors.Wrap("hotspot.attach", pid, err)
	}

	return &Session{surface: surface, backend: backend, pid: pid}, nil
}

func socketExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeSocket != 0
}

// createSentinel tries the canonical location first, falling back to
// tmpDir on any I/O failure.
func createSentinel(pid, nsPID int, tmpDir string) (string, error) {
	canonical := filepath.Join("/proc", fmt.Sprintf("%d", pid), "cwd", fmt.Sprintf(".attach_pid%d", nsPID))
	if err := touch(canonical); err == nil {
		return canonical, nil
	}

	fallback := filepath.Join(tmpDir, fmt.Sprintf(".attach_pid%d", nsPID))
	if err := touch(fallback); err != nil {
		return "", fmt.Errorf("%w: %v", attacherrors.ErrSentinelCreate, err)
	}
	return fallback, nil
}

func touch(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0660)
	if err != nil {
		return err
	}
	return f.Close()
}

// resolveSentinel deletes the sentinel now that it has served its
// purpose, or schedules it for deletion at process exit if the
// target VM still has it open.
func resolveSentinel(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		attachlog.Log.Debug().Err(err).Str("path", path).Msg("could not remove hotspot sentinel, scheduling delete-on-exit")
		deleteonexit.Register(path)
	}
}

// signalAndWait sends SIGQUIT and polls for the socket to appear.
func signalAndWait(surface syscallsurface.Surface, pid int, socketPath string, policy retrypolicy.Policy) error {
	if err := surface.Kill(pid, sigQuit); err != nil {
		return fmt.Errorf("%w: %v", attacherrors.ErrSignalFailed, err)
	}

	for i := 0; i < policy.Attempts; i++ {
		if socketExists(socketPath) {
			return nil
		}
		time.Sleep(policy.Pause)
	}
	if socketExists(socketPath) {
		return nil
	}
	return attacherrors.ErrTargetUnresponsive
}

// LoadAgent asks the target to load a bytecode-instrumentation agent
// bundle.
func (s *Session) LoadAgent(jarPath string, arg string) error {
	return s.loadCommand(jarPath, arg, false)
}

// LoadAgentPath asks the target to load a native agent library.
func (s *Session) LoadAgentPath(libraryPath string, arg string) error {
	return s.loadCommand(libraryPath, arg, true)
}

func (s *Session) loadCommand(path, arg string, native bool) error {
	if s.detached {
		return attacherrors.ErrAlreadyDetached
	}

	payload := path
	if arg != "" {
		payload = path + "=" + arg
	}

	boolField := "false"
	if native {
		boolField = "true"
	}

	var buf bytes.Buffer
	writeField(&buf, "1")
	writeField(&buf, "load")
	writeField(&buf, "instrument")
	writeField(&buf, boolField)
	writeField(&buf, payload)

	if err := s.backend.Write(buf.Bytes()); err != nil {
		return attacherrors.Wrap("hotspot.load", s.pid, err)
	}

	return s.readReply()
}

func writeField(buf *bytes.Buffer, field string) {
	buf.WriteString(field)
	buf.WriteByte(0)
}

// readReply parses the target's response: an ASCII decimal code plus
// newline, followed by an error message for codes other than 0/101.
func (s *Session) readReply() error {
	reply := make([]byte, 0, 4096)
	chunk := make([]byte, 4096)
	var readErr error
	for !bytes.ContainsRune(reply, '\n') {
		n, err := s.backend.Read(chunk)
		if n > 0 {
			reply = append(reply, chunk[:n]...)
		}
		if err != nil {
			readErr = err
			break
		}
	}

	idx := bytes.IndexByte(reply, '\n')
	if idx < 0 {
		return fmt.Errorf("%w: reading load reply: %v", attacherrors.ErrIO, readErr)
	}
	line := reply[:idx]
	rest := reply[idx+1:]

	switch string(bytes.TrimSpace(line)) {
	case "0":
		return nil
	case "101":
		return attacherrors.ErrProtocolMismatch
	default:
		// The rest of the stream is the target's error message.
		for readErr == nil {
			n, err := s.backend.Read(chunk)
			if n > 0 {
				rest = append(rest, chunk[:n]...)
			}
			if err != nil {
				break
			}
		}
		return &attacherrors.AgentRejectedError{Message: string(rest)}
	}
}

// Detach closes the underlying socket. Idempotent: repeated calls
// return ErrAlreadyDetached without side effects.
func (s *Session) Detach() error {
	if s.detached {
		return attacherrors.ErrAlreadyDetached
	}
	s.detached = true
	return s.backend.Close()
}
