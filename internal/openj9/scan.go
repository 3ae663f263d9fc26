/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

// Directory scan and dead-VM garbage collection for the shared
// advertisement directory both OpenJ9 attach clients and targets use
// to find each other.
package openj9

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jvmattach/attachcore/internal/attachlog"
	"github.com/jvmattach/attachcore/internal/deleteonexit"
	"github.com/jvmattach/attachcore/internal/syscallsurface"
)

// advertisement is one parsed attachInfo entry.
type advertisement struct {
	dir       string // full path to the vmId subdirectory
	vmID      string
	processID string
	userUID   uint64
	raw       map[string]string
}

// scanAdvertisementDir lists dir's subdirectories, parses attachInfo
// for each one the caller owns (or owns everything as root), and
// garbage-collects subdirectories whose VM is no longer alive.
func scanAdvertisementDir(surface syscallsurface.Surface, dir string) ([]advertisement, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	uid := uint32(surface.Getuid())
	var vms []advertisement

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		subPath := filepath.Join(dir, entry.Name())

		ownerUID, err := surface.StatOwner(subPath)
		if err != nil {
			continue
		}
		if uid != 0 && ownerUID != uid {
			continue
		}

		attachInfoPath := filepath.Join(subPath, "attachInfo")
		raw, err := parseAttachInfo(attachInfoPath)
		if err != nil {
			continue
		}

		processID := raw["processId"]
		targetUID := parseUintOr(raw["userUid"], 0)
		if uid != 0 && processID == "0" {
			if owner, err := surface.StatOwner(attachInfoPath); err == nil {
				targetUID = uint64(owner)
			}
		}

		alive := processID == "" || processID == "0" || processExists(surface, processID)
		if alive {
			vms = append(vms, advertisement{
				dir:       subPath,
				vmID:      entry.Name(),
				processID: processID,
				userUID:   targetUID,
				raw:       raw,
			})
			continue
		}

		if uid == 0 || targetUID == uint64(uid) {
			gcAdvertisement(subPath)
		}
	}

	return vms, nil
}

func gcAdvertisement(dir string) {
	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			if err := os.Remove(path); err != nil {
				attachlog.Log.Debug().Err(err).Str("path", path).Msg("could not remove stale openj9 advertisement file, scheduling delete-on-exit")
				deleteonexit.Register(path)
			}
		}
	}
	if err := os.Remove(dir); err != nil {
		attachlog.Log.Debug().Err(err).Str("path", dir).Msg("could not remove stale openj9 advertisement directory, scheduling delete-on-exit")
		deleteonexit.Register(dir)
	}
}

func processExists(surface syscallsurface.Surface, pid string) bool {
	n, err := strconv.Atoi(pid)
	if err != nil {
		return true
	}
	return syscallsurface.ProcessExists(surface, n)
}

// parseAttachInfo reads a Java Properties-style key=value file, one
// entry per line.
func parseAttachInfo(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.IndexByte(line, '=')
		if idx < 0 {
			continue
		}
		out[strings.TrimSpace(line[:idx])] = strings.TrimSpace(line[idx+1:])
	}
	return out, scanner.Err()
}

func parseUintOr(s string, fallback uint64) uint64 {
	if s == "" {
		return fallback
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

// findTarget locates the advertisement whose processId case-
// insensitively equals pid.
func findTarget(vms []advertisement, pid string) (advertisement, bool) {
	for _, vm := range vms {
		if strings.EqualFold(vm.processID, pid) {
			return vm, true
		}
	}
	return advertisement{}, false
}

// countNotifiableItems counts direct children of dir excluding the
// _attachlock/_master/_notifier coordination files themselves.
func countNotifiableItems(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	count := 0
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".trash_") {
			continue
		}
		switch strings.ToLower(name) {
		case "_attachlock", "_master", "_notifier":
			continue
		}
		count++
	}
	return count
}
