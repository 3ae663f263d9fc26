/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

package openj9

import (
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvmattach/attachcore/internal/attacherrors"
	"github.com/jvmattach/attachcore/internal/conn"
)

// pipeSession builds a Session over one half of a net.Pipe and a
// goroutine serving the scripted reply on the other half.
func pipeSession(t *testing.T, reply string) (*Session, chan string) {
	t.Helper()
	ours, theirs := net.Pipe()
	t.Cleanup(func() {
		ours.Close()
		theirs.Close()
	})

	received := make(chan string, 1)
	go func() {
		cmd, err := readNUL(theirs)
		if err != nil {
			return
		}
		received <- cmd
		theirs.Write(append([]byte(reply), 0))
	}()

	return &Session{backend: conn.FromReadWriteCloser(ours), pid: 777}, received
}

func TestSessionLoadAgentFraming(t *testing.T) {
	session, received := pipeSession(t, "ATTACH_ACK")

	require.NoError(t, session.LoadAgent("/a.jar", "opt=1"))
	assert.Equal(t, "ATTACH_LOADAGENT(instrument,/a.jar=opt=1)", <-received)
}

func TestSessionLoadAgentEmptyArg(t *testing.T) {
	session, received := pipeSession(t, "ATTACH_RESULT=0")

	require.NoError(t, session.LoadAgent("/a.jar", ""))
	assert.Equal(t, "ATTACH_LOADAGENT(instrument,/a.jar=)", <-received)
}

func TestSessionLoadAgentPathWithArg(t *testing.T) {
	session, received := pipeSession(t, "ATTACH_ACK")

	require.NoError(t, session.LoadAgentPath("/lib/x.so", "verbose"))
	assert.Equal(t, "ATTACH_LOADAGENTPATH(/lib/x.so,verbose)", <-received)
}

func TestSessionAgentRejected(t *testing.T) {
	session, _ := pipeSession(t, "ATTACH_ERR AgentInitializationException")

	err := session.LoadAgent("/a.jar", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, attacherrors.ErrAgentRejected))

	var rejected *attacherrors.AgentRejectedError
	require.True(t, errors.As(err, &rejected))
	assert.Contains(t, rejected.Message, "AgentInitializationException")
}

func TestSessionUnexpectedResponse(t *testing.T) {
	session, _ := pipeSession(t, "GARBAGE")

	err := session.LoadAgent("/a.jar", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, attacherrors.ErrUnexpectedResponse))
}

func TestSessionDetachIsIdempotent(t *testing.T) {
	session, received := pipeSession(t, "ATTACH_ACK")

	require.NoError(t, session.Detach())
	assert.Equal(t, "ATTACH_DETACH", <-received)

	err := session.Detach()
	assert.True(t, errors.Is(err, attacherrors.ErrAlreadyDetached))

	err = session.LoadAgent("/a.jar", "")
	assert.True(t, errors.Is(err, attacherrors.ErrAlreadyDetached))
}
