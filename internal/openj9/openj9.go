/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package openj9 implements the OpenJ9-family attach handshake: a
// filesystem rendezvous under the shared advertisement directory, a
// published nonce, a semaphore wakeup, and a TCP loopback accept.
package openj9

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jvmattach/attachcore/internal/attacherrors"
	"github.com/jvmattach/attachcore/internal/attachlog"
	"github.com/jvmattach/attachcore/internal/conn"
	"github.com/jvmattach/attachcore/internal/deleteonexit"
	"github.com/jvmattach/attachcore/internal/syscallsurface"
)

// Session is one attached OpenJ9 connection over the TCP rendezvous
// socket.
type Session struct {
	backend  conn.Backend
	pid      int
	detached bool
}

// Attach performs the full OpenJ9 handshake. advertisementDir is the resolved `.com_ibm_tools_attach`-style
// directory (config.ResolvedAdvertisementDir at the call site).
func Attach(surface syscallsurface.Surface, advertisementDir string, pid int, timeout time.Duration) (*Session, error) {
	if err := os.MkdirAll(advertisementDir, 0755); err != nil {
		return nil, attacherrors.Wrap("openj9.attach", pid, err)
	}

	// Phase A.
	attachLock, err := lockFile(filepath.Join(advertisementDir, "_attachlock"))
	if err != nil {
		return nil, attacherrors.Wrap("openj9.attach", pid, err)
	}
	defer attachLock.release()

	// Phase B.
	vms, err := scanUnderMasterLock(surface, advertisementDir)
	if err != nil {
		return nil, attacherrors.Wrap("openj9.attach", pid, err)
	}

	// Phase C.
	target, ok := findTarget(vms, strconv.Itoa(pid))
	if !ok {
		return nil, attacherrors.Wrap("openj9.attach", pid, attacherrors.ErrTargetNotAdvertised)
	}

	// Phase D.
	listener, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 0})
	if err != nil {
		return nil, attacherrors.Wrap("openj9.attach", pid, fmt.Errorf("%w: %v", attacherrors.ErrConnectFailed, err))
	}
	defer listener.Close()

	nonce, err := randomNonce()
	if err != nil {
		return nil, attacherrors.Wrap("openj9.attach", pid, err)
	}

	replyPath := filepath.Join(target.dir, "replyInfo")
	port := listener.Addr().(*net.TCPAddr).Port
	if err := writeReplyInfo(surface, replyPath, nonce, port); err != nil {
		return nil, attacherrors.Wrap("openj9.attach", pid, err)
	}
	defer resolveReplyInfo(replyPath)

	// Phase E.
	selfPID := strconv.Itoa(surface.Getpid())
	locks := lockPeers(vms, selfPID, advertisementDir)
	defer unlockPeers(locks)

	notifications := countNotifiableItems(advertisementDir)
	if err := surface.NotifyVM(advertisementDir, "_notifier", notifications); err != nil {
		attachlog.Log.Debug().Err(err).Msg("openj9 notifier semaphore post failed, continuing")
	}
	defer func() {
		if err := surface.CancelNotify(advertisementDir, "_notifier", notifications); err != nil {
			attachlog.Log.Debug().Err(err).Msg("openj9 notifier semaphore cancel failed")
		}
	}()

	// Phase F.
	backend, err := acceptRendezvous(listener, nonce, timeout)
	if err != nil {
		return nil, attacherrors.Wrap("openj9.attach", pid, err)
	}

	return &Session{backend: backend, pid: pid}, nil
}

func scanUnderMasterLock(surface syscallsurface.Surface, advertisementDir string) ([]advertisement, error) {
	masterLock, err := lockFile(filepath.Join(advertisementDir, "_master"))
	if err != nil {
		return nil, err
	}
	defer masterLock.release()

	return scanAdvertisementDir(surface, advertisementDir)
}

func randomNonce() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}

func writeReplyInfo(surface syscallsurface.Surface, path string, nonce string, port int) error {
	content := fmt.Sprintf("%s\n%d\n", nonce, port)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return err
	}
	// WriteFile applies its mode only when it creates the file, and
	// then through the umask; force it.
	return surface.Chmod(path, 0600)
}

func resolveReplyInfo(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		attachlog.Log.Debug().Err(err).Str("path", path).Msg("could not remove openj9 replyInfo, scheduling delete-on-exit")
		deleteonexit.Register(path)
	}
}

func lockPeers(vms []advertisement, selfPID, advertisementDir string) []*fileLock {
	var locks []*fileLock
	for _, vm := range vms {
		if strings.EqualFold(vm.processID, selfPID) {
			continue
		}
		syncPath := vm.raw["attachNotificationSync"]
		if syncPath == "" {
			syncPath = filepath.Join(advertisementDir, "attachNotificationSync")
		}
		lock, err := tryLockFile(syncPath)
		if err != nil {
			continue
		}
		locks = append(locks, lock)
	}
	return locks
}

func unlockPeers(locks []*fileLock) {
	for _, lock := range locks {
		lock.release()
	}
}

func acceptRendezvous(listener *net.TCPListener, nonce string, timeout time.Duration) (conn.Backend, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	listener.SetDeadline(time.Now().Add(timeout))

	tcpConn, err := listener.Accept()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", attacherrors.ErrTargetUnresponsive, err)
	}

	backend := conn.FromReadWriteCloser(tcpConn)
	message, err := readUntilNUL(backend)
	if err != nil {
		backend.Close()
		return nil, fmt.Errorf("%w: reading rendezvous greeting: %v", attacherrors.ErrIO, err)
	}

	needle := " " + nonce + " "
	if !strings.Contains(message, needle) {
		backend.Close()
		return nil, attacherrors.ErrNonceMismatch
	}

	return backend, nil
}

func readUntilNUL(backend conn.Backend) (string, error) {
	var buf bytes.Buffer
	chunk := make([]byte, 4096)
	for {
		n, err := backend.Read(chunk)
		if n > 0 {
			if idx := bytes.IndexByte(chunk[:n], 0); idx >= 0 {
				buf.Write(chunk[:idx])
				return buf.String(), nil
			}
			buf.Write(chunk[:n])
		}
		if err != nil {
			return buf.String(), err
		}
	}
}

// LoadAgent asks the target to load a bytecode-instrumentation agent
// bundle.
func (s *Session) LoadAgent(jarPath, arg string) error {
	return s.command(fmt.Sprintf("ATTACH_LOADAGENT(instrument,%s=%s)", jarPath, arg))
}

// LoadAgentPath asks the target to load a native agent library.
func (s *Session) LoadAgentPath(libraryPath, arg string) error {
	if arg == "" {
		return s.command(fmt.Sprintf("ATTACH_LOADAGENTPATH(%s)", libraryPath))
	}
	return s.command(fmt.Sprintf("ATTACH_LOADAGENTPATH(%s,%s)", libraryPath, arg))
}

func (s *Session) command(payload string) error {
	if s.detached {
		return attacherrors.ErrAlreadyDetached
	}

	data := append([]byte(payload), 0)
	if err := s.backend.Write(data); err != nil {
		return attacherrors.Wrap("openj9.command", s.pid, err)
	}

	reply, err := readUntilNUL(s.backend)
	if err != nil {
		return attacherrors.Wrap("openj9.command", s.pid, fmt.Errorf("%w: reading reply: %v", attacherrors.ErrIO, err))
	}

	switch {
	case strings.HasPrefix(reply, "ATTACH_ERR"):
		return &attacherrors.AgentRejectedError{Message: reply}
	case strings.HasPrefix(reply, "ATTACH_ACK"), strings.HasPrefix(reply, "ATTACH_RESULT="):
		return nil
	default:
		return &attacherrors.UnexpectedResponseError{Payload: reply}
	}
}

// Detach sends ATTACH_DETACH, ignores the reply, and closes the
// socket unconditionally. Idempotent.
func (s *Session) Detach() error {
	if s.detached {
		return attacherrors.ErrAlreadyDetached
	}
	s.detached = true

	data := append([]byte("ATTACH_DETACH"), 0)
	s.backend.Write(data)
	readUntilNUL(s.backend)
	return s.backend.Close()
}
