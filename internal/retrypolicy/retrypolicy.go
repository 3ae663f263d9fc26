/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package retrypolicy holds the explicit attempts/pause value object
// used to bound the HotSpot signal-and-poll phases, rather than
// hidden state. It lives here, rather than the root package, so
// internal/hotspot can depend on it without the root package
// importing internal/hotspot creating a cycle; the root package
// type-aliases it as its public RetryPolicy.
package retrypolicy

import (
	"fmt"
	"time"
)

// Policy bounds the HotSpot signal-and-poll phases.
type Policy struct {
	Attempts int
	Pause    time.Duration
}

// Default matches the attempts/pause the HotSpot attach API itself
// uses historically.
var Default = Policy{Attempts: 10, Pause: 200 * time.Millisecond}

func (p Policy) Validate() error {
	if p.Attempts <= 0 {
		return fmt.Errorf("attachcore: RetryPolicy.Attempts must be positive, got %d", p.Attempts)
	}
	if p.Pause < 0 {
		return fmt.Errorf("attachcore: RetryPolicy.Pause must not be negative, got %s", p.Pause)
	}
	return nil
}

// DefaultRendezvousTimeout is the OpenJ9 accept() timeout absent an
// explicit override.
const DefaultRendezvousTimeout = 5 * time.Second
