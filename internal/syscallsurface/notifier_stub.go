/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

//go:build linux && !cgo

package syscallsurface

import "github.com/jvmattach/attachcore/internal/attachlog"

// Without cgo there is no portable way to reach sem_open from this
// process; notification becomes a no-op. The rendezvous in
// internal/openj9 still works because the accept() call does not
// depend on the target having been woken — a well-behaved target
// simply notices the new replyInfo sooner with the semaphore posted.
func notifySemaphore(dir, name string, count int) error {
	attachlog.Log.Debug().Str("dir", dir).Str("name", name).Msg("cgo disabled: skipping OpenJ9 notifier semaphore")
	return nil
}

func cancelSemaphore(dir, name string, count int) error {
	return nil
}
