/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

package attachcore

import "github.com/jvmattach/attachcore/internal/attacherrors"

// Sentinel errors for the taxonomy in the attach handshake design. Use
// errors.Is against these; AttachError.Unwrap exposes them through any
// wrapping this package adds. They are defined in internal/attacherrors
// so internal/conn, internal/hotspot, and internal/openj9 can return
// them without importing this package.
var (
	// ErrUnsupportedPlatform indicates a host this package does not
	// support: any non-Linux host, including other POSIX systems.
	ErrUnsupportedPlatform = attacherrors.ErrUnsupportedPlatform

	// ErrSentinelCreate indicates neither sentinel location could be created.
	ErrSentinelCreate = attacherrors.ErrSentinelCreate

	// ErrSignalFailed indicates sending SIGQUIT to the target failed. A
	// target that never opens its socket yields ErrTargetUnresponsive.
	ErrSignalFailed = attacherrors.ErrSignalFailed

	// ErrTargetUnresponsive indicates the retry budget was exhausted
	// waiting for a rendezvous endpoint to appear.
	ErrTargetUnresponsive = attacherrors.ErrTargetUnresponsive

	// ErrConnectFailed indicates the rendezvous endpoint could not be
	// opened or connected.
	ErrConnectFailed = attacherrors.ErrConnectFailed

	// ErrProtocolMismatch indicates the HotSpot target replied with code 101.
	ErrProtocolMismatch = attacherrors.ErrProtocolMismatch

	// ErrAgentRejected indicates the target accepted the connection but
	// refused the agent. The message is carried by AgentRejectedError.
	ErrAgentRejected = attacherrors.ErrAgentRejected

	// ErrUnexpectedResponse indicates a reply that matched no known prefix.
	ErrUnexpectedResponse = attacherrors.ErrUnexpectedResponse

	// ErrTargetNotAdvertised indicates no OpenJ9 attachInfo matched the
	// requested pid.
	ErrTargetNotAdvertised = attacherrors.ErrTargetNotAdvertised

	// ErrNonceMismatch indicates an OpenJ9 peer connected without the
	// expected nonce.
	ErrNonceMismatch = attacherrors.ErrNonceMismatch

	// ErrIOShort indicates a partial write, fatal by contract.
	ErrIOShort = attacherrors.ErrIOShort

	// ErrIO indicates a syscall-level read or write failure; the
	// underlying cause is wrapped alongside it.
	ErrIO = attacherrors.ErrIO

	// ErrAlreadyDetached indicates an operation was attempted on a
	// session that already called Detach.
	ErrAlreadyDetached = attacherrors.ErrAlreadyDetached
)

// AttachError wraps a taxonomy error with the pid and operation that
// produced it. errors.Is/As see through it to the sentinel and to any
// *AgentRejectedError it carries.
type AttachError = attacherrors.AttachError

// AgentRejectedError carries the target's error message for a HotSpot
// reply code that was neither 0 nor 101, or an OpenJ9 ATTACH_ERR reply.
type AgentRejectedError = attacherrors.AgentRejectedError

// UnexpectedResponseError carries the raw payload for a reply that
// matched no known prefix.
type UnexpectedResponseError = attacherrors.UnexpectedResponseError

func wrapError(op string, pid int, err error) error {
	return attacherrors.Wrap(op, pid, err)
}
