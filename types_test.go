/*
 * Copyright The attachcore authors
 * SPDX-License-Identifier: Apache-2.0
 */

package attachcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttachTargetRoundTrip(t *testing.T) {
	target, err := NewAttachTarget(4242)
	require.NoError(t, err)
	assert.Equal(t, "4242", target.String())
	assert.Equal(t, 4242, target.Int())

	parsed, err := ParseAttachTarget("4242")
	require.NoError(t, err)
	assert.Equal(t, target, parsed)
}

func TestNewAttachTargetRejectsNonPositivePID(t *testing.T) {
	_, err := NewAttachTarget(0)
	assert.Error(t, err)

	_, err = NewAttachTarget(-1)
	assert.Error(t, err)
}

func TestParseAttachTargetRejectsNonNumeric(t *testing.T) {
	_, err := ParseAttachTarget("not-a-pid")
	assert.Error(t, err)
}

func TestRetryPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  RetryPolicy
		wantErr bool
	}{
		{"valid", RetryPolicy{Attempts: 10, Pause: 200 * time.Millisecond}, false},
		{"zero attempts", RetryPolicy{Attempts: 0, Pause: time.Millisecond}, true},
		{"negative attempts", RetryPolicy{Attempts: -1, Pause: time.Millisecond}, true},
		{"negative pause", RetryPolicy{Attempts: 1, Pause: -time.Millisecond}, true},
		{"zero pause is fine", RetryPolicy{Attempts: 1, Pause: 0}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.policy.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
