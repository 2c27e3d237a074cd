package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/leadbridge/backend/internal/domain/lead"
	"github.com/leadbridge/backend/internal/domain/ports"
)

// MemoryLedger is an in-memory LedgerStore. It backs unit tests and
// local development without a database; semantics mirror
// LedgerRepository (last-write-wins upserts, Pending placeholders,
// strict tenant partitioning).
type MemoryLedger struct {
	mu      sync.RWMutex
	entries map[memKey]lead.LedgerEntry
	now     func() time.Time
}

type memKey struct {
	tenantID string
	recordID string
}

// NewMemoryLedger creates an empty in-memory ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		entries: make(map[memKey]lead.LedgerEntry),
		now:     time.Now,
	}
}

// SetClock overrides the clock (tests)
func (m *MemoryLedger) SetClock(now func() time.Time) {
	m.now = now
}

var _ ports.LedgerStore = (*MemoryLedger)(nil)

// SetStatus upserts the entry for (tenant, recordID)
func (m *MemoryLedger) SetStatus(_ context.Context, tenantID, recordID string, update ports.StatusUpdate) (*lead.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := lead.LedgerEntry{
		TenantID:      tenantID,
		RecordID:      recordID,
		Status:        update.Status,
		RemoteID:      update.RemoteID,
		ErrorMessage:  update.ErrorMessage,
		TransferredAt: m.now().UTC(),
	}
	m.entries[memKey{tenantID, recordID}] = entry
	return &entry, nil
}

// GetStatus returns the entry, or nil if absent
func (m *MemoryLedger) GetStatus(_ context.Context, tenantID, recordID string) (*lead.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[memKey{tenantID, recordID}]
	if !ok {
		return nil, nil
	}
	return &entry, nil
}

// GetBatch returns an entry per record ID, Pending placeholder when absent
func (m *MemoryLedger) GetBatch(_ context.Context, tenantID string, recordIDs []string) (map[string]*lead.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]*lead.LedgerEntry, len(recordIDs))
	for _, id := range recordIDs {
		if entry, ok := m.entries[memKey{tenantID, id}]; ok {
			e := entry
			result[id] = &e
			continue
		}
		result[id] = &lead.LedgerEntry{
			TenantID: tenantID,
			RecordID: id,
			Status:   lead.TransferPending,
		}
	}
	return result, nil
}

// DeleteStatus removes the entry
func (m *MemoryLedger) DeleteStatus(_ context.Context, tenantID, recordID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, memKey{tenantID, recordID})
	return nil
}

// MarkReconciled stamps the last-reconciled timestamp
func (m *MemoryLedger) MarkReconciled(_ context.Context, tenantID, recordID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := memKey{tenantID, recordID}
	entry, ok := m.entries[key]
	if !ok {
		return nil
	}
	t := at.UTC()
	entry.LastReconciled = &t
	m.entries[key] = entry
	return nil
}

// ListNeedingReconcile returns entries with a remote ID not reconciled since cutoff
func (m *MemoryLedger) ListNeedingReconcile(_ context.Context, cutoff time.Time, limit int) ([]lead.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []lead.LedgerEntry
	for _, entry := range m.entries {
		if entry.RemoteID == "" {
			continue
		}
		if entry.LastReconciled != nil && !entry.LastReconciled.Before(cutoff) {
			continue
		}
		entries = append(entries, entry)
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	return entries, nil
}
