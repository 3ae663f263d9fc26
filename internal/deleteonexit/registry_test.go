/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

package deleteonexit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDrainRemovesRegisteredPaths(t *testing.T) {
	dir := t.TempDir()
	keep := filepath.Join(dir, "keep")
	gone := filepath.Join(dir, "gone")
	require.NoError(t, os.WriteFile(keep, nil, 0644))
	require.NoError(t, os.WriteFile(gone, nil, 0644))

	Register(gone)
	Register(gone) // duplicate registration is a no-op
	Register(keep)
	Cancel(keep)

	Drain()

	_, err := os.Stat(gone)
	assert.True(t, os.IsNotExist(err))

	_, err = os.Stat(keep)
	assert.NoError(t, err, "cancelled path must survive the drain")
}

func TestDrainEmptiesTheRegistry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "once")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	Register(path)
	Drain()

	// Recreate; a second drain must not touch it since the registry
	// was emptied.
	require.NoError(t, os.WriteFile(path, nil, 0644))
	Drain()

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
