/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

// Package deleteonexit implements the process-wide delete-on-exit
// registry: files the attacher could not unlink immediately
// (typically because the target VM still has them open) are
// scheduled for a best-effort unlink when Drain runs, mirroring the
// role Java's File.deleteOnExit() plays for the JVM-side half of this
// handshake. Nothing calls Drain automatically: cmd/attachcore calls
// it before exiting, and other programs must do the same.
package deleteonexit

import (
	"os"
	"sync"
)

var (
	mu       sync.Mutex
	paths    = make(map[string]struct{})
	hookOnce sync.Once
)

// Register schedules path for deletion at process exit. It is a
// no-op if path is already registered.
func Register(path string) {
	mu.Lock()
	paths[path] = struct{}{}
	mu.Unlock()
	installHook()
}

// Cancel removes path from the registry, e.g. once the attacher
// manages to delete it on a later attempt.
func Cancel(path string) {
	mu.Lock()
	delete(paths, path)
	mu.Unlock()
}

// Drain unlinks every registered path and empties the registry. It is
// called by cmd/attachcore before the process exits, and directly by
// tests.
func Drain() {
	mu.Lock()
	pending := paths
	paths = make(map[string]struct{})
	mu.Unlock()

	for path := range pending {
		os.Remove(path)
	}
}

// installHook installs no exit or signal hook: Go's runtime has no
// universal atexit, so registered paths are unlinked only when a
// caller runs Drain. A process that ends through a signal, or through
// os.Exit without calling Drain first, leaves them in place.
func installHook() {
	hookOnce.Do(func() {
		// Nothing to wire here; see the comment above.
		// cmd/attachcore calls Drain explicitly for the CLI entry
		// point.
	})
}
