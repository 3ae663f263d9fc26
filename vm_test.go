/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

package attachcore

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jvmattach/attachcore/config"
)

// fakeSession mimics the idempotent-detach behaviour both real
// sessions (hotspot.Session, openj9.Session) implement on their own,
// since VirtualMachine itself adds no idempotency beyond error
// wrapping.
type fakeSession struct {
	loadAgentCalls     []string
	loadAgentPathCalls []string
	detached           bool
	loadAgentErr       error
}

func (f *fakeSession) LoadAgent(path, arg string) error {
	f.loadAgentCalls = append(f.loadAgentCalls, path+"|"+arg)
	return f.loadAgentErr
}

func (f *fakeSession) LoadAgentPath(path, arg string) error {
	f.loadAgentPathCalls = append(f.loadAgentPathCalls, path+"|"+arg)
	return nil
}

func (f *fakeSession) Detach() error {
	if f.detached {
		return ErrAlreadyDetached
	}
	f.detached = true
	return nil
}

func TestVirtualMachineDispatchesToSession(t *testing.T) {
	fake := &fakeSession{}
	vm := &VirtualMachine{pid: 55, s: fake}

	require.NoError(t, vm.LoadAgent("/a.jar", "opt"))
	require.NoError(t, vm.LoadAgentPath("/lib.so", ""))

	assert.Equal(t, []string{"/a.jar|opt"}, fake.loadAgentCalls)
	assert.Equal(t, []string{"/lib.so|"}, fake.loadAgentPathCalls)
}

func TestVirtualMachineWrapsSessionError(t *testing.T) {
	fake := &fakeSession{loadAgentErr: ErrAgentRejected}
	vm := &VirtualMachine{pid: 55, s: fake}

	err := vm.LoadAgent("/a.jar", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAgentRejected))

	var attachErr *AttachError
	require.True(t, errors.As(err, &attachErr))
	assert.Equal(t, 55, attachErr.PID)
}

func TestConfiguredRetryPolicyFallsBackWhenInvalid(t *testing.T) {
	saved := config.Config
	t.Cleanup(func() { config.Config = saved })

	config.Config.RetryAttempts = 5
	config.Config.RetryPause = 50 * time.Millisecond
	assert.Equal(t, RetryPolicy{Attempts: 5, Pause: 50 * time.Millisecond}, ConfiguredRetryPolicy())

	config.Config.RetryAttempts = 0
	assert.Equal(t, DefaultRetryPolicy, ConfiguredRetryPolicy())
}

func TestConfiguredRendezvousTimeout(t *testing.T) {
	saved := config.Config
	t.Cleanup(func() { config.Config = saved })

	config.Config.RendezvousTimeout = time.Second
	assert.Equal(t, time.Second, ConfiguredRendezvousTimeout())

	config.Config.RendezvousTimeout = 0
	assert.Equal(t, DefaultRendezvousTimeout, ConfiguredRendezvousTimeout())
}

func TestVirtualMachineDetachIsIdempotent(t *testing.T) {
	fake := &fakeSession{}
	vm := &VirtualMachine{pid: 1, s: fake}

	require.NoError(t, vm.Detach())

	err := vm.Detach()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyDetached))
}
