/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

//go:build linux && cgo

package syscallsurface

/*
#include <fcntl.h>
#include <semaphore.h>
#include <stdlib.h>

static sem_t *attachcore_sem_open(const char *name) {
	return sem_open(name, O_CREAT, 0666, 0);
}
*/
import "C"

import (
	"crypto/sha1"
	"fmt"
	"unsafe"
)

// semName derives a portable POSIX named-semaphore name (leading '/',
// no further slashes, under NAME_MAX) from the advertisement
// directory and the coordination file name (normally "_notifier").
//
// NotifyVM/CancelNotify wake peers through a direct sem_open/sem_post/
// sem_wait binding rather than anything reflective.
func semName(dir, name string) string {
	sum := sha1.Sum([]byte(dir + "/" + name))
	return fmt.Sprintf("/attachcore.%x", sum[:8])
}

func withSemaphore(dir, name string, fn func(sem *C.sem_t) error) error {
	cname := C.CString(semName(dir, name))
	defer C.free(unsafe.Pointer(cname))

	sem, errno := C.attachcore_sem_open(cname)
	if sem == nil {
		return fmt.Errorf("sem_open(%s/%s): %w", dir, name, errno)
	}
	defer C.sem_close(sem)

	return fn(sem)
}

func notifySemaphore(dir, name string, count int) error {
	if count == 0 {
		return nil
	}
	return withSemaphore(dir, name, func(sem *C.sem_t) error {
		for i := 0; i < count; i++ {
			if ret, errno := C.sem_post(sem); ret != 0 {
				return fmt.Errorf("sem_post(%s/%s): %w", dir, name, errno)
			}
		}
		return nil
	})
}

func cancelSemaphore(dir, name string, count int) error {
	if count == 0 {
		return nil
	}
	return withSemaphore(dir, name, func(sem *C.sem_t) error {
		for i := 0; i < count; i++ {
			if ret, _ := C.sem_trywait(sem); ret != 0 {
				// Best-effort: a peer may already have consumed the
				// post. Not fatal.
				return nil
			}
		}
		return nil
	})
}
