package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransferStateMachine_ValidTransitions(t *testing.T) {
	sm := NewTransferStateMachine()

	tests := []struct {
		name        string
		from        TransferState
		event       TransferTransition
		expectedTo  TransferState
		shouldError bool
	}{
		// Valid transitions
		{"NoDynamicFields -> ReadyForTransfer via PassThrough", TransferStateNoDynamicFields, TransitionPassThrough, TransferStateReadyForTransfer, false},
		{"HasDynamicFields -> CheckingSchema via CheckSchema", TransferStateHasDynamicFields, TransitionCheckSchema, TransferStateCheckingSchema, false},
		{"CheckingSchema -> ReadyForTransfer via AllExist", TransferStateCheckingSchema, TransitionAllExist, TransferStateReadyForTransfer, false},
		{"CheckingSchema -> Provisioning via SomeMissing", TransferStateCheckingSchema, TransitionSomeMissing, TransferStateProvisioning, false},
		{"Provisioning -> ReadyForTransfer via Provisioned", TransferStateProvisioning, TransitionProvisioned, TransferStateReadyForTransfer, false},
		{"Provisioning -> BlockedOnSchema via ProvisionFailed", TransferStateProvisioning, TransitionProvisionFailed, TransferStateBlockedOnSchema, false},

		// Invalid transitions
		{"NoDynamicFields cannot CheckSchema", TransferStateNoDynamicFields, TransitionCheckSchema, TransferStateNoDynamicFields, true},
		{"HasDynamicFields cannot PassThrough", TransferStateHasDynamicFields, TransitionPassThrough, TransferStateHasDynamicFields, true},
		{"CheckingSchema cannot Provisioned directly", TransferStateCheckingSchema, TransitionProvisioned, TransferStateCheckingSchema, true},
		{"ReadyForTransfer is terminal", TransferStateReadyForTransfer, TransitionCheckSchema, TransferStateReadyForTransfer, true},
		{"BlockedOnSchema is terminal", TransferStateBlockedOnSchema, TransitionProvisioned, TransferStateBlockedOnSchema, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := sm.Transition(tc.from, tc.event)

			if tc.shouldError {
				assert.Error(t, err)
				assert.Equal(t, tc.from, next, "state must not change on invalid transition")
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tc.expectedTo, next)
			}
		})
	}
}

func TestTransferStateMachine_CanTransition(t *testing.T) {
	sm := NewTransferStateMachine()

	assert.True(t, sm.CanTransition(TransferStateNoDynamicFields, TransitionPassThrough))
	assert.True(t, sm.CanTransition(TransferStateProvisioning, TransitionProvisionFailed))
	assert.False(t, sm.CanTransition(TransferStateReadyForTransfer, TransitionPassThrough))
	assert.False(t, sm.CanTransition(TransferStateBlockedOnSchema, TransitionCheckSchema))
}

func TestTransferStateMachine_IsTerminal(t *testing.T) {
	sm := NewTransferStateMachine()

	assert.True(t, sm.IsTerminal(TransferStateReadyForTransfer))
	assert.True(t, sm.IsTerminal(TransferStateBlockedOnSchema))
	assert.False(t, sm.IsTerminal(TransferStateCheckingSchema))
	assert.False(t, sm.IsTerminal(TransferStateProvisioning))
}
