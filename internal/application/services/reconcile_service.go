package services

import (
	"context"
	"log"
	"time"

	"github.com/leadbridge/backend/internal/domain/lead"
	"github.com/leadbridge/backend/internal/domain/ports"
)

// ReconcileService verifies ledger entries against the authoritative
// remote state to detect drift: deletion, post-transfer edits, or
// disappearance. Verification is best-effort: remote failures become an
// Error status, never a propagated error.
type ReconcileService struct {
	ledger     ports.LedgerStore
	crm        ports.CRMClient
	objectType string
}

// NewReconcileService creates a new ReconcileService
func NewReconcileService(ledger ports.LedgerStore, crm ports.CRMClient, objectType string) *ReconcileService {
	return &ReconcileService{
		ledger:     ledger,
		crm:        crm,
		objectType: objectType,
	}
}

// Verify classifies the ledger entry for (tenant, recordID) against the
// remote record's current state. The classification table:
//
//	no ledger entry                     -> NotTransferred
//	entry without a remote ID           -> Error (local failure status)
//	remote record absent                -> NotFound
//	remote deletion flag set            -> Deleted
//	remote modified after transfer      -> Modified (drift, not an error)
//	otherwise                           -> Success
//	remote query failed                 -> Error (with the remote message)
func (rs *ReconcileService) Verify(ctx context.Context, tenantID, recordID string) lead.ReconcileResult {
	entry, err := rs.ledger.GetStatus(ctx, tenantID, recordID)
	if err != nil {
		log.Printf("⚠️  Ledger lookup failed for %s/%s: %v", tenantID, recordID, err)
		return lead.NewReconcileResult(lead.ReconcileError, "", err.Error())
	}
	if entry == nil {
		return lead.NewReconcileResult(lead.ReconcileNotTransferred, "", "")
	}

	if entry.RemoteID == "" {
		// Only a local failure status was ever recorded
		detail := entry.ErrorMessage
		if detail == "" {
			detail = "no remote record ID was recorded for this transfer"
		}
		return lead.NewReconcileResult(lead.ReconcileError, "", detail)
	}

	state, err := rs.crm.GetRecordState(ctx, rs.objectType, entry.RemoteID)
	if err != nil {
		log.Printf("⚠️  Remote verification failed for %s/%s (%s): %v", tenantID, recordID, entry.RemoteID, err)
		return lead.NewReconcileResult(lead.ReconcileError, entry.RemoteID, err.Error())
	}

	result := rs.classify(entry, state)

	if markErr := rs.ledger.MarkReconciled(ctx, tenantID, recordID, time.Now().UTC()); markErr != nil {
		log.Printf("⚠️  Failed to stamp reconciliation for %s/%s: %v", tenantID, recordID, markErr)
	}
	return result
}

// VerifyBatch verifies a set of records for one tenant
func (rs *ReconcileService) VerifyBatch(ctx context.Context, tenantID string, recordIDs []string) map[string]lead.ReconcileResult {
	results := make(map[string]lead.ReconcileResult, len(recordIDs))
	for _, id := range recordIDs {
		results[id] = rs.Verify(ctx, tenantID, id)
	}
	return results
}

func (rs *ReconcileService) classify(entry *lead.LedgerEntry, state *ports.RemoteRecordState) lead.ReconcileResult {
	switch {
	case !state.Exists:
		return lead.NewReconcileResult(lead.ReconcileNotFound, entry.RemoteID, "")
	case state.IsDeleted:
		return lead.NewReconcileResult(lead.ReconcileDeleted, entry.RemoteID, "")
	case state.LastModified.After(entry.TransferredAt):
		// Edited directly in the CRM after this system wrote it.
		// Clock skew in the other direction maps to Success.
		return lead.NewReconcileResult(lead.ReconcileModified, entry.RemoteID, "")
	default:
		return lead.NewReconcileResult(lead.ReconcileSuccess, entry.RemoteID, "")
	}
}
