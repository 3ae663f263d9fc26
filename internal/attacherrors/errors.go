/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package attacherrors holds the attach handshake's error taxonomy as
// a shared internal package so internal/conn, internal/hotspot, and
// internal/openj9 can all return them without importing the root
// attachcore package (which imports them, so that would cycle). The
// root package re-exports these as its public API.
package attacherrors

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedPlatform = errors.New("attachcore: unsupported platform")
	ErrSentinelCreate      = errors.New("attachcore: could not create sentinel file")
	ErrSignalFailed        = errors.New("attachcore: signal delivery failed")
	ErrTargetUnresponsive  = errors.New("attachcore: target VM unresponsive")
	ErrConnectFailed       = errors.New("attachcore: could not connect to target VM")
	ErrProtocolMismatch    = errors.New("attachcore: protocol mismatch with target VM")
	ErrAgentRejected       = errors.New("attachcore: target VM rejected agent")
	ErrUnexpectedResponse  = errors.New("attachcore: unexpected response from target VM")
	ErrTargetNotAdvertised = errors.New("attachcore: target VM not advertised")
	ErrNonceMismatch       = errors.New("attachcore: nonce mismatch on rendezvous")
	ErrIOShort             = errors.New("attachcore: short write")
	ErrIO                  = errors.New("attachcore: i/o error")
	ErrAlreadyDetached     = errors.New("attachcore: session already detached")
)

// AttachError wraps a taxonomy error with the pid and operation that
// produced it.
type AttachError struct {
	Op  string
	PID int
	Err error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("attachcore: %s (pid=%d): %v", e.Op, e.PID, e.Err)
}

func (e *AttachError) Unwrap() error { return e.Err }

// Wrap builds an *AttachError, or returns nil if err is nil.
func Wrap(op string, pid int, err error) error {
	if err == nil {
		return nil
	}
	return &AttachError{Op: op, PID: pid, Err: err}
}

// AgentRejectedError carries the target's error message for a
// HotSpot reply code that was neither 0 nor 101, or an OpenJ9
// ATTACH_ERR reply.
type AgentRejectedError struct {
	Message string
}

func (e *AgentRejectedError) Error() string {
	return fmt.Sprintf("%v: %s", ErrAgentRejected, e.Message)
}

func (e *AgentRejectedError) Unwrap() error { return ErrAgentRejected }

// UnexpectedResponseError carries the raw payload for a reply that
// matched no known prefix.
type UnexpectedResponseError struct {
	Payload string
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("%v: %q", ErrUnexpectedResponse, e.Payload)
}

func (e *UnexpectedResponseError) Unwrap() error { return ErrUnexpectedResponse }
