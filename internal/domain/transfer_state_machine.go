package domain

import (
	"fmt"
)

// TransferState represents the schema-preparation phase of one transfer attempt
type TransferState string

const (
	// TransferStateNoDynamicFields indicates the record carries no provisionable fields
	TransferStateNoDynamicFields TransferState = "NoDynamicFields"
	// TransferStateHasDynamicFields indicates dynamic fields were classified
	TransferStateHasDynamicFields TransferState = "HasDynamicFields"
	// TransferStateCheckingSchema indicates the remote schema is being described
	TransferStateCheckingSchema TransferState = "CheckingSchema"
	// TransferStateProvisioning indicates missing fields are being created remotely
	TransferStateProvisioning TransferState = "Provisioning"
	// TransferStateReadyForTransfer indicates the schema is consistent; the data write may proceed
	TransferStateReadyForTransfer TransferState = "ReadyForTransfer"
	// TransferStateBlockedOnSchema indicates provisioning failures prevent the data write
	TransferStateBlockedOnSchema TransferState = "BlockedOnSchema"
)

// TransferTransition represents an event that advances the preparation phase
type TransferTransition string

const (
	// TransitionPassThrough skips schema work when no dynamic fields exist
	TransitionPassThrough TransferTransition = "PassThrough"
	// TransitionCheckSchema starts the remote schema describe
	TransitionCheckSchema TransferTransition = "CheckSchema"
	// TransitionAllExist records that every candidate field already exists
	TransitionAllExist TransferTransition = "AllExist"
	// TransitionSomeMissing records that at least one field must be provisioned
	TransitionSomeMissing TransferTransition = "SomeMissing"
	// TransitionProvisioned records that all missing fields were created or skipped
	TransitionProvisioned TransferTransition = "Provisioned"
	// TransitionProvisionFailed records that at least one field creation failed
	TransitionProvisionFailed TransferTransition = "ProvisionFailed"
)

// TransferStateMachine enforces valid transitions for the schema
// preparation phase. Invalid transitions return an error (fail-fast).
type TransferStateMachine struct {
	// transitions maps (current state, transition) -> next state
	transitions map[stateTransitionKey]TransferState
}

type stateTransitionKey struct {
	state      TransferState
	transition TransferTransition
}

// NewTransferStateMachine creates the state machine for a transfer attempt.
// State diagram:
//
//	[NoDynamicFields] ──PassThrough──────────────────► [ReadyForTransfer]
//
//	[HasDynamicFields] ──CheckSchema──► [CheckingSchema]
//	      [CheckingSchema] ──AllExist───────────────► [ReadyForTransfer]
//	      [CheckingSchema] ──SomeMissing──► [Provisioning]
//	            [Provisioning] ──Provisioned────────► [ReadyForTransfer]
//	            [Provisioning] ──ProvisionFailed────► [BlockedOnSchema]
//
// ReadyForTransfer and BlockedOnSchema are terminal.
func NewTransferStateMachine() *TransferStateMachine {
	sm := &TransferStateMachine{
		transitions: make(map[stateTransitionKey]TransferState),
	}

	sm.addTransition(TransferStateNoDynamicFields, TransitionPassThrough, TransferStateReadyForTransfer)
	sm.addTransition(TransferStateHasDynamicFields, TransitionCheckSchema, TransferStateCheckingSchema)
	sm.addTransition(TransferStateCheckingSchema, TransitionAllExist, TransferStateReadyForTransfer)
	sm.addTransition(TransferStateCheckingSchema, TransitionSomeMissing, TransferStateProvisioning)
	sm.addTransition(TransferStateProvisioning, TransitionProvisioned, TransferStateReadyForTransfer)
	sm.addTransition(TransferStateProvisioning, TransitionProvisionFailed, TransferStateBlockedOnSchema)

	return sm
}

func (sm *TransferStateMachine) addTransition(from TransferState, via TransferTransition, to TransferState) {
	key := stateTransitionKey{state: from, transition: via}
	sm.transitions[key] = to
}

// Transition attempts to advance from the current state using the given event.
// Returns the new state or an error if the transition is invalid.
func (sm *TransferStateMachine) Transition(current TransferState, event TransferTransition) (TransferState, error) {
	key := stateTransitionKey{state: current, transition: event}
	next, ok := sm.transitions[key]
	if !ok {
		return current, fmt.Errorf("invalid state transition: cannot %s from %s", event, current)
	}
	return next, nil
}

// CanTransition checks if a transition is valid without performing it.
func (sm *TransferStateMachine) CanTransition(current TransferState, event TransferTransition) bool {
	key := stateTransitionKey{state: current, transition: event}
	_, ok := sm.transitions[key]
	return ok
}

// IsTerminal returns true if the state is a terminal state (no further transitions).
func (sm *TransferStateMachine) IsTerminal(state TransferState) bool {
	return state == TransferStateReadyForTransfer || state == TransferStateBlockedOnSchema
}
