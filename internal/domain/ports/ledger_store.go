package ports

import (
	"context"
	"time"

	"github.com/leadbridge/backend/internal/domain/lead"
)

// StatusUpdate carries the fields of a ledger upsert. TransferredAt and
// LastUpdated are always refreshed by the store.
type StatusUpdate struct {
	Status       lead.TransferStatus
	RemoteID     string
	ErrorMessage string
}

// LedgerStore is the durable, tenant-partitioned transfer outcome store.
// Keys are (tenant, recordID); writes are upserts with last-write-wins
// semantics. Entries are never deleted automatically.
type LedgerStore interface {
	// SetStatus upserts the entry for (tenant, recordID) and returns it
	SetStatus(ctx context.Context, tenantID, recordID string, update StatusUpdate) (*lead.LedgerEntry, error)

	// GetStatus returns the entry, or nil if no transfer was recorded
	GetStatus(ctx context.Context, tenantID, recordID string) (*lead.LedgerEntry, error)

	// GetBatch returns an entry for every requested recordID. Records
	// without a ledger entry map to a Pending placeholder, never nil.
	GetBatch(ctx context.Context, tenantID string, recordIDs []string) (map[string]*lead.LedgerEntry, error)

	// DeleteStatus removes the entry. Operator cleanup only.
	DeleteStatus(ctx context.Context, tenantID, recordID string) error

	// MarkReconciled stamps the entry's last-reconciled timestamp
	MarkReconciled(ctx context.Context, tenantID, recordID string, at time.Time) error

	// ListNeedingReconcile returns entries with a remote ID whose
	// last-reconciled timestamp is absent or older than cutoff.
	ListNeedingReconcile(ctx context.Context, cutoff time.Time, limit int) ([]lead.LedgerEntry, error)
}
