package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/leadbridge/backend/internal/domain/lead"
	"github.com/leadbridge/backend/internal/domain/ports"
)

// LedgerRepository is the durable, tenant-partitioned transfer status
// store backed by TiDB/MySQL. Writes are true upserts (INSERT ... ON
// DUPLICATE KEY UPDATE); the ledger holds only the latest outcome per
// (tenant, record) pair.
type LedgerRepository struct {
	db *sql.DB
}

// NewLedgerRepository creates a new LedgerRepository
func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

var _ ports.LedgerStore = (*LedgerRepository)(nil)

// SetStatus upserts the transfer outcome for (tenant, recordID).
// transferred_at is always refreshed; last_reconciled is reset because a
// fresh attempt invalidates any previous reconciliation.
func (r *LedgerRepository) SetStatus(ctx context.Context, tenantID, recordID string, update ports.StatusUpdate) (*lead.LedgerEntry, error) {
	now := time.Now().UTC()

	query := fmt.Sprintf(`
		INSERT INTO %s (tenant_id, record_id, status, remote_id, error_message, transferred_at, last_reconciled)
		VALUES (?, ?, ?, ?, ?, ?, NULL)
		ON DUPLICATE KEY UPDATE
			status = VALUES(status),
			remote_id = VALUES(remote_id),
			error_message = VALUES(error_message),
			transferred_at = VALUES(transferred_at),
			last_reconciled = NULL`, TableTransferStatus)

	if _, err := r.db.ExecContext(ctx, query,
		tenantID, recordID, string(update.Status),
		nullString(update.RemoteID), nullString(update.ErrorMessage), now,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert transfer status for %s/%s: %w", tenantID, recordID, err)
	}

	return &lead.LedgerEntry{
		TenantID:      tenantID,
		RecordID:      recordID,
		Status:        update.Status,
		RemoteID:      update.RemoteID,
		ErrorMessage:  update.ErrorMessage,
		TransferredAt: now,
	}, nil
}

// GetStatus returns the entry for (tenant, recordID), or nil if absent
func (r *LedgerRepository) GetStatus(ctx context.Context, tenantID, recordID string) (*lead.LedgerEntry, error) {
	query := fmt.Sprintf(`
		SELECT tenant_id, record_id, status, remote_id, error_message, transferred_at, last_reconciled
		FROM %s
		WHERE tenant_id = ? AND record_id = ?`, TableTransferStatus)

	row := r.db.QueryRowContext(ctx, query, tenantID, recordID)
	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transfer status for %s/%s: %w", tenantID, recordID, err)
	}
	return entry, nil
}

// GetBatch returns an entry for every requested record ID. Records with
// no stored entry get a Pending placeholder so callers can render
// uniformly.
func (r *LedgerRepository) GetBatch(ctx context.Context, tenantID string, recordIDs []string) (map[string]*lead.LedgerEntry, error) {
	result := make(map[string]*lead.LedgerEntry, len(recordIDs))
	for _, id := range recordIDs {
		result[id] = &lead.LedgerEntry{
			TenantID: tenantID,
			RecordID: id,
			Status:   lead.TransferPending,
		}
	}
	if len(recordIDs) == 0 {
		return result, nil
	}

	placeholders := ""
	args := make([]interface{}, 0, len(recordIDs)+1)
	args = append(args, tenantID)
	for i, id := range recordIDs {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args = append(args, id)
	}

	query := fmt.Sprintf(`
		SELECT tenant_id, record_id, status, remote_id, error_message, transferred_at, last_reconciled
		FROM %s
		WHERE tenant_id = ? AND record_id IN (%s)`, TableTransferStatus, placeholders)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to batch-load transfer status: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result[entry.RecordID] = entry
	}
	return result, rows.Err()
}

// DeleteStatus removes the entry for (tenant, recordID)
func (r *LedgerRepository) DeleteStatus(ctx context.Context, tenantID, recordID string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE tenant_id = ? AND record_id = ?", TableTransferStatus)
	if _, err := r.db.ExecContext(ctx, query, tenantID, recordID); err != nil {
		return fmt.Errorf("failed to delete transfer status for %s/%s: %w", tenantID, recordID, err)
	}
	return nil
}

// MarkReconciled stamps the entry's last-reconciled timestamp
func (r *LedgerRepository) MarkReconciled(ctx context.Context, tenantID, recordID string, at time.Time) error {
	query := fmt.Sprintf("UPDATE %s SET last_reconciled = ? WHERE tenant_id = ? AND record_id = ?", TableTransferStatus)
	if _, err := r.db.ExecContext(ctx, query, at.UTC(), tenantID, recordID); err != nil {
		return fmt.Errorf("failed to mark %s/%s reconciled: %w", tenantID, recordID, err)
	}
	return nil
}

// ListNeedingReconcile returns entries with a remote ID whose
// last-reconciled timestamp is absent or older than cutoff.
func (r *LedgerRepository) ListNeedingReconcile(ctx context.Context, cutoff time.Time, limit int) ([]lead.LedgerEntry, error) {
	query := fmt.Sprintf(`
		SELECT tenant_id, record_id, status, remote_id, error_message, transferred_at, last_reconciled
		FROM %s
		WHERE remote_id IS NOT NULL
		  AND (last_reconciled IS NULL OR last_reconciled < ?)
		ORDER BY transferred_at
		LIMIT ?`, TableTransferStatus)

	rows, err := r.db.QueryContext(ctx, query, cutoff.UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries needing reconciliation: %w", err)
	}
	defer rows.Close()

	var entries []lead.LedgerEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// rowScanner covers both *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (*lead.LedgerEntry, error) {
	var entry lead.LedgerEntry
	var status string
	var remoteID, errorMessage sql.NullString
	var lastReconciled sql.NullTime

	if err := row.Scan(&entry.TenantID, &entry.RecordID, &status,
		&remoteID, &errorMessage, &entry.TransferredAt, &lastReconciled); err != nil {
		return nil, err
	}

	entry.Status = lead.TransferStatus(status)
	entry.RemoteID = remoteID.String
	entry.ErrorMessage = errorMessage.String
	if lastReconciled.Valid {
		t := lastReconciled.Time
		entry.LastReconciled = &t
	}
	return &entry, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
