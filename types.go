/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

package attachcore

import (
	"fmt"
	"strconv"

	"github.com/jvmattach/attachcore/internal/retrypolicy"
)

// AttachTarget is an opaque target process identifier. It is always a
// decimal string, matching the form attachInfo/attachLock files key on.
type AttachTarget string

// NewAttachTarget validates and wraps a pid.
func NewAttachTarget(pid int) (AttachTarget, error) {
	if pid <= 0 {
		return "", fmt.Errorf("attachcore: invalid pid %d", pid)
	}
	return AttachTarget(strconv.Itoa(pid)), nil
}

// Int returns the numeric pid. Panics if t was not built through
// NewAttachTarget or ParseAttachTarget.
func (t AttachTarget) Int() int {
	pid, err := strconv.Atoi(string(t))
	if err != nil {
		panic("attachcore: AttachTarget does not hold a valid pid: " + err.Error())
	}
	return pid
}

func (t AttachTarget) String() string {
	return string(t)
}

// ParseAttachTarget parses a decimal pid string, case-insensitively
// (OpenJ9 attachInfo comparisons are themselves case-insensitive).
func ParseAttachTarget(s string) (AttachTarget, error) {
	pid, err := strconv.Atoi(s)
	if err != nil {
		return "", fmt.Errorf("attachcore: invalid pid %q: %w", s, err)
	}
	return NewAttachTarget(pid)
}

// RetryPolicy bounds the HotSpot signal-and-poll phases. It is an
// explicit value, never hidden state.
type RetryPolicy = retrypolicy.Policy

// DefaultRetryPolicy matches the attempts/pause the HotSpot attach API
// itself uses historically.
var DefaultRetryPolicy = retrypolicy.Default

// DefaultRendezvousTimeout is the OpenJ9 accept() timeout absent an
// explicit override.
const DefaultRendezvousTimeout = retrypolicy.DefaultRendezvousTimeout
