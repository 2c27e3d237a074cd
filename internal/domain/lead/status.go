package lead

import "time"

// TransferStatus is the outcome recorded in the ledger for a single
// transfer attempt.
type TransferStatus string

const (
	// TransferPending means no transfer attempt has been recorded yet.
	// Batch lookups synthesize this for records without a ledger entry.
	TransferPending TransferStatus = "Pending"
	// TransferSuccess means the data write reached the remote CRM
	TransferSuccess TransferStatus = "Success"
	// TransferFailed means the attempt ended with an error before or
	// during the data write
	TransferFailed TransferStatus = "Failed"
)

// LedgerEntry is the durable record of the latest transfer outcome for
// one (tenant, source record) pair. Each new attempt overwrites the
// previous entry; the ledger never holds a history.
type LedgerEntry struct {
	TenantID       string         `json:"tenant_id"`
	RecordID       string         `json:"record_id"`
	Status         TransferStatus `json:"status"`
	RemoteID       string         `json:"remote_id,omitempty"`
	ErrorMessage   string         `json:"error_message,omitempty"`
	TransferredAt  time.Time      `json:"transferred_at"`
	LastReconciled *time.Time     `json:"last_reconciled,omitempty"`
}

// ReconcileStatus classifies a ledger entry against the authoritative
// remote state.
type ReconcileStatus string

const (
	ReconcileNotTransferred ReconcileStatus = "NOT_TRANSFERRED"
	ReconcileSuccess        ReconcileStatus = "SUCCESS"
	ReconcileModified       ReconcileStatus = "MODIFIED"
	ReconcileDeleted        ReconcileStatus = "DELETED"
	ReconcileNotFound       ReconcileStatus = "NOT_FOUND"
	ReconcileError          ReconcileStatus = "ERROR"
)

// StatusDescriptor carries the UI-facing label and detail for a status code
type StatusDescriptor struct {
	Code   ReconcileStatus `json:"code"`
	Label  string          `json:"label"`
	Detail string          `json:"detail"`
}

var statusDescriptors = map[ReconcileStatus]StatusDescriptor{
	ReconcileNotTransferred: {ReconcileNotTransferred, "Not transferred", "No transfer has been recorded for this record"},
	ReconcileSuccess:        {ReconcileSuccess, "Transferred", "The remote record matches the last recorded transfer"},
	ReconcileModified:       {ReconcileModified, "Modified in CRM", "The remote record was edited after the last transfer"},
	ReconcileDeleted:        {ReconcileDeleted, "Deleted in CRM", "The remote record was deleted after the last transfer"},
	ReconcileNotFound:       {ReconcileNotFound, "Not found", "No remote record exists for the recorded remote ID"},
	ReconcileError:          {ReconcileError, "Verification error", "The remote state could not be verified"},
}

// Describe returns the descriptor for a status code. Unknown codes map
// to the error descriptor.
func Describe(status ReconcileStatus) StatusDescriptor {
	if d, ok := statusDescriptors[status]; ok {
		return d
	}
	return statusDescriptors[ReconcileError]
}

// ReconcileResult is the outcome of verifying one ledger entry.
type ReconcileResult struct {
	Status   ReconcileStatus `json:"status"`
	Label    string          `json:"label"`
	Detail   string          `json:"detail"`
	RemoteID string          `json:"remote_id,omitempty"`
}

// NewReconcileResult builds a result with the standard label for the
// status; detail overrides the default when non-empty.
func NewReconcileResult(status ReconcileStatus, remoteID, detail string) ReconcileResult {
	d := Describe(status)
	if detail == "" {
		detail = d.Detail
	}
	return ReconcileResult{
		Status:   status,
		Label:    d.Label,
		Detail:   detail,
		RemoteID: remoteID,
	}
}
