/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

//go:build linux

package process

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Resolve retrieves process information for the given host pid by
// parsing /proc/<pid>/status for Uid, Gid, and NStgid.
func Resolve(pid int) (*Info, error) {
	statusPath := filepath.Join("/proc", strconv.Itoa(pid), "status")
	f, err := os.Open(statusPath)
	if err != nil {
		return nil, fmt.Errorf("process %d not found: %w", pid, err)
	}
	defer f.Close()

	info := &Info{NsPID: pid}
	scanner := bufio.NewScanner(f)
	nspidFound := false

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}

		switch fields[0] {
		case "Uid:":
			if len(fields) >= 3 {
				uid, _ := strconv.ParseUint(fields[2], 10, 32)
				info.EUid = uint32(uid)
			}
		case "Gid:":
			if len(fields) >= 3 {
				gid, _ := strconv.ParseUint(fields[2], 10, 32)
				info.EGid = uint32(gid)
			}
		case "NStgid:":
			// Last field is the innermost namespace pid.
			if nspid, err := strconv.Atoi(fields[len(fields)-1]); err == nil {
				info.NsPID = nspid
				nspidFound = true
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading /proc/%d/status: %w", pid, err)
	}

	// Kernels older than 4.1 don't export NStgid; fall back to a
	// /proc/<pid>/sched scan for the host-to-container pid mapping.
	if !nspidFound {
		info.NsPID = altLookupNsPID(pid)
	}

	return info, nil
}

func altLookupNsPID(pid int) int {
	pidNsPath := filepath.Join("/proc", strconv.Itoa(pid), "ns", "pid")

	var selfStat, targetStat unix.Stat_t
	if unix.Stat("/proc/self/ns/pid", &selfStat) == nil && unix.Stat(pidNsPath, &targetStat) == nil {
		if selfStat.Ino == targetStat.Ino {
			return pid
		}
	}

	procPath := filepath.Join("/proc", strconv.Itoa(pid), "root", "proc")
	dir, err := os.Open(procPath)
	if err != nil {
		return pid
	}
	defer dir.Close()

	entries, err := dir.Readdirnames(-1)
	if err != nil {
		return pid
	}

	for _, entry := range entries {
		if len(entry) == 0 || entry[0] < '1' || entry[0] > '9' {
			continue
		}
		schedPath := filepath.Join("/proc", strconv.Itoa(pid), "root", "proc", entry, "sched")
		if schedGetHostPID(schedPath) == pid {
			if nspid, err := strconv.Atoi(entry); err == nil {
				return nspid
			}
		}
	}

	return pid
}

// schedGetHostPID extracts the host pid from the first line of
// /proc/<pid>/sched, which reads like "java (1234, #threads: 12)".
func schedGetHostPID(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return -1
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return -1
	}

	line := scanner.Text()
	idx := strings.LastIndex(line, "(")
	if idx == -1 {
		return -1
	}

	pidStr := strings.TrimSpace(line[idx+1:])
	if commaIdx := strings.Index(pidStr, ","); commaIdx != -1 {
		pidStr = pidStr[:commaIdx]
	}

	pid, err := strconv.Atoi(pidStr)
	if err != nil {
		return -1
	}
	return pid
}

// tmpPathPlatform returns /proc/<pid>/root/tmp, which is the target's
// own /tmp whether or not it is containerized, and leaves the fallback
// to the caller in TmpPath when that path doesn't resolve (e.g. the
// target is gone or its root is not accessible to the caller).
func tmpPathPlatform(pid int) (string, error) {
	path := filepath.Join("/proc", strconv.Itoa(pid), "root", "tmp")
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return "/tmp", err
	}
	return path, nil
}
