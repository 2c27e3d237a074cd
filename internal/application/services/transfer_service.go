package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/leadbridge/backend/internal/domain"
	"github.com/leadbridge/backend/internal/domain/lead"
	"github.com/leadbridge/backend/internal/domain/ports"
	"github.com/leadbridge/backend/pkg/errors"
)

// TransferRequest is one unit of work: a record to push plus its
// per-tenant transfer configuration.
type TransferRequest struct {
	TenantID     string
	RecordID     string
	Record       lead.Record
	Labels       map[string]string // per-field display labels (alias source)
	ActiveFields []string          // nil means "no active-field filtering"
	Attachments  []string          // carried for the caller; not processed by the core
}

// TransferResult reports the terminal preparation state, the provisioning
// outcome (if any) and the ledger entry written for the attempt.
type TransferResult struct {
	State     domain.TransferState `json:"state"`
	RemoteID  string               `json:"remote_id,omitempty"`
	Provision *ProvisionOutcome    `json:"provision,omitempty"`
	Entry     *lead.LedgerEntry    `json:"entry,omitempty"`
}

// TransferService sequences classification, picklist validation, schema
// checking, provisioning and the data write. It owns no persistent state
// beyond the ledger outcome it records and is safe to re-invoke per
// attempt; concurrent attempts for the same record race on the ledger's
// last-write-wins semantics.
type TransferService struct {
	picklist    *PicklistService
	checker     *SchemaChecker
	provisioner *ProvisionService
	validation  *ValidationService
	crm         ports.CRMClient
	ledger      ports.LedgerStore
	states      *domain.TransferStateMachine
	objectType  string
}

// NewTransferService creates a new TransferService
func NewTransferService(
	picklist *PicklistService,
	checker *SchemaChecker,
	provisioner *ProvisionService,
	validation *ValidationService,
	crm ports.CRMClient,
	ledger ports.LedgerStore,
	objectType string,
) *TransferService {
	return &TransferService{
		picklist:    picklist,
		checker:     checker,
		provisioner: provisioner,
		validation:  validation,
		crm:         crm,
		ledger:      ledger,
		states:      domain.NewTransferStateMachine(),
		objectType:  objectType,
	}
}

// Transfer runs one full transfer attempt. The data write is only
// attempted once the preparation state machine reaches ReadyForTransfer;
// provisioning failures end in BlockedOnSchema with no write.
func (ts *TransferService) Transfer(ctx context.Context, req TransferRequest) (*TransferResult, error) {
	if req.TenantID == "" {
		return nil, errors.NewValidationError("tenant_id", "tenant ID is required")
	}
	if req.RecordID == "" {
		return nil, errors.NewValidationError("record_id", "record ID is required")
	}
	if err := ts.checkRequiredFields(req.Record); err != nil {
		return nil, err
	}

	// Guard rules run before any remote work
	if err := ts.validation.Validate(req.TenantID, req.Record); err != nil {
		ts.recordFailure(ctx, req, err)
		return nil, err
	}

	// Work on a copy: picklist validation repairs fields in place
	record := req.Record.Clone()
	ts.picklist.Validate(ctx, ts.objectType, record)

	candidates := lead.Classify(record, req.Labels, req.ActiveFields)

	state, provision, err := ts.prepareSchema(ctx, candidates)
	if err != nil {
		ts.recordFailure(ctx, req, err)
		return nil, err
	}

	result := &TransferResult{State: state, Provision: provision}

	if state == domain.TransferStateBlockedOnSchema {
		// Surface the provisioning failures without writing data
		failErr := errors.NewRemoteAPIError("provision fields", "", provisionFailureSummary(provision))
		result.Entry = ts.recordFailure(ctx, req, failErr)
		return result, nil
	}

	payload := buildPayload(record, candidates)
	remoteID, err := ts.crm.UpsertRecord(ctx, ts.objectType, payload)
	if err != nil {
		log.Printf("❌ Data write failed for %s/%s: %v", req.TenantID, req.RecordID, err)
		result.Entry = ts.recordFailure(ctx, req, err)
		return result, err
	}

	log.Printf("✅ Record %s/%s transferred as %s", req.TenantID, req.RecordID, remoteID)
	entry, ledgerErr := ts.ledger.SetStatus(ctx, req.TenantID, req.RecordID, ports.StatusUpdate{
		Status:   lead.TransferSuccess,
		RemoteID: remoteID,
	})
	if ledgerErr != nil {
		// The write reached the CRM; a ledger failure must not undo that
		log.Printf("⚠️  Failed to record transfer success for %s/%s: %v", req.TenantID, req.RecordID, ledgerErr)
	}

	result.RemoteID = remoteID
	result.Entry = entry
	return result, nil
}

// prepareSchema walks the preparation state machine until a terminal state
func (ts *TransferService) prepareSchema(ctx context.Context, candidates []lead.CandidateField) (domain.TransferState, *ProvisionOutcome, error) {
	if len(candidates) == 0 {
		state, err := ts.states.Transition(domain.TransferStateNoDynamicFields, domain.TransitionPassThrough)
		return state, nil, err
	}

	state, err := ts.states.Transition(domain.TransferStateHasDynamicFields, domain.TransitionCheckSchema)
	if err != nil {
		return state, nil, err
	}

	names := make([]string, 0, len(candidates))
	byRemoteName := make(map[string]lead.CandidateField, len(candidates))
	for _, c := range candidates {
		names = append(names, c.RemoteName)
		byRemoteName[c.RemoteName] = c
	}

	existence := ts.checker.CheckExistence(ctx, ts.objectType, names)
	if len(existence.Missing) == 0 {
		state, err = ts.states.Transition(state, domain.TransitionAllExist)
		return state, nil, err
	}

	state, err = ts.states.Transition(state, domain.TransitionSomeMissing)
	if err != nil {
		return state, nil, err
	}

	missing := make([]lead.CandidateField, 0, len(existence.Missing))
	for name := range existence.Missing {
		missing = append(missing, byRemoteName[name])
	}

	outcome := ts.provisioner.Provision(ctx, ts.objectType, missing)
	if outcome.AllSucceeded() {
		state, err = ts.states.Transition(state, domain.TransitionProvisioned)
	} else {
		state, err = ts.states.Transition(state, domain.TransitionProvisionFailed)
	}
	return state, outcome, err
}

// checkRequiredFields enforces the mandatory standard fields
func (ts *TransferService) checkRequiredFields(record lead.Record) error {
	for _, name := range lead.RequiredFields {
		if record.StringValue(name) == "" {
			return errors.NewValidationError(name, "required field is missing or empty")
		}
	}
	return nil
}

// recordFailure upserts a Failed ledger entry; ledger problems are
// logged, never allowed to mask the original failure.
func (ts *TransferService) recordFailure(ctx context.Context, req TransferRequest, cause error) *lead.LedgerEntry {
	entry, err := ts.ledger.SetStatus(ctx, req.TenantID, req.RecordID, ports.StatusUpdate{
		Status:       lead.TransferFailed,
		ErrorMessage: cause.Error(),
	})
	if err != nil {
		log.Printf("⚠️  Failed to record transfer failure for %s/%s: %v", req.TenantID, req.RecordID, err)
		return nil
	}
	return entry
}

// buildPayload assembles the flat field map for the data write: every
// non-dynamic field of the record plus the classified candidates under
// their remote names. Dynamic fields that were classified out (inactive)
// are omitted entirely.
func buildPayload(record lead.Record, candidates []lead.CandidateField) map[string]interface{} {
	payload := make(map[string]interface{}, len(record))
	for name, value := range record {
		if lead.IsDynamicFieldName(name) {
			continue
		}
		payload[name] = value
	}
	for _, c := range candidates {
		// Nil values pass through: clearing a remote field is an instruction
		payload[c.RemoteName] = c.Value
	}
	return payload
}

// provisionFailureSummary flattens the failed set into one message
func provisionFailureSummary(outcome *ProvisionOutcome) string {
	names := make([]string, 0, len(outcome.Failed))
	for name := range outcome.Failed {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, outcome.Failed[name]))
	}
	return "schema provisioning failed for " + strings.Join(parts, "; ")
}
