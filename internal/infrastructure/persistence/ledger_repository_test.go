package persistence

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadbridge/backend/internal/domain/lead"
	"github.com/leadbridge/backend/internal/domain/ports"
)

var entryColumns = []string{"tenant_id", "record_id", "status", "remote_id", "error_message", "transferred_at", "last_reconciled"}

func TestLedgerRepository_SetStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLedgerRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf("INSERT INTO %s", TableTransferStatus))).
		WithArgs("tenant-a", "rec-1", "Success",
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	entry, err := repo.SetStatus(context.Background(), "tenant-a", "rec-1", ports.StatusUpdate{
		Status:   lead.TransferSuccess,
		RemoteID: "00Q1",
	})

	assert.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, lead.TransferSuccess, entry.Status)
	assert.Equal(t, "00Q1", entry.RemoteID)
	assert.Nil(t, entry.LastReconciled, "a fresh attempt resets the reconciliation stamp")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_GetStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLedgerRepository(db)
	transferredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT tenant_id, record_id, status, remote_id, error_message, transferred_at, last_reconciled")).
		WithArgs("tenant-a", "rec-1").
		WillReturnRows(sqlmock.NewRows(entryColumns).
			AddRow("tenant-a", "rec-1", "Failed", nil, "connection reset", transferredAt, nil))

	entry, err := repo.GetStatus(context.Background(), "tenant-a", "rec-1")

	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, lead.TransferFailed, entry.Status)
	assert.Empty(t, entry.RemoteID, "NULL remote_id reads as empty")
	assert.Equal(t, "connection reset", entry.ErrorMessage)
	assert.Nil(t, entry.LastReconciled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_GetStatusAbsent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLedgerRepository(db)

	mock.ExpectQuery("SELECT").
		WithArgs("tenant-a", "missing").
		WillReturnRows(sqlmock.NewRows(entryColumns))

	entry, err := repo.GetStatus(context.Background(), "tenant-a", "missing")

	assert.NoError(t, err, "an absent entry is not an error")
	assert.Nil(t, entry)
}

func TestLedgerRepository_GetBatchFillsPlaceholders(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLedgerRepository(db)
	transferredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT").
		WithArgs("tenant-a", "rec-1", "rec-2").
		WillReturnRows(sqlmock.NewRows(entryColumns).
			AddRow("tenant-a", "rec-1", "Success", "00Q1", nil, transferredAt, nil))

	batch, err := repo.GetBatch(context.Background(), "tenant-a", []string{"rec-1", "rec-2"})

	require.NoError(t, err)
	require.Len(t, batch, 2)
	assert.Equal(t, lead.TransferSuccess, batch["rec-1"].Status)
	assert.Equal(t, lead.TransferPending, batch["rec-2"].Status, "unstored records surface as Pending")
}

func TestLedgerRepository_GetBatchEmptyInput(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLedgerRepository(db)

	batch, err := repo.GetBatch(context.Background(), "tenant-a", nil)

	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.NoError(t, mock.ExpectationsWereMet(), "no query without record IDs")
}

func TestLedgerRepository_DeleteStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLedgerRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf("DELETE FROM %s", TableTransferStatus))).
		WithArgs("tenant-a", "rec-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.DeleteStatus(context.Background(), "tenant-a", "rec-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_MarkReconciled(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLedgerRepository(db)
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf("UPDATE %s SET last_reconciled", TableTransferStatus))).
		WithArgs(at, "tenant-a", "rec-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.MarkReconciled(context.Background(), "tenant-a", "rec-1", at))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRepository_ListNeedingReconcile(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewLedgerRepository(db)
	cutoff := time.Date(2026, 3, 1, 11, 0, 0, 0, time.UTC)
	transferredAt := cutoff.Add(-time.Hour)

	mock.ExpectQuery("SELECT").
		WithArgs(cutoff, 50).
		WillReturnRows(sqlmock.NewRows(entryColumns).
			AddRow("tenant-a", "rec-1", "Success", "00Q1", nil, transferredAt, nil).
			AddRow("tenant-b", "rec-9", "Success", "00Q9", nil, transferredAt, cutoff.Add(-30*time.Minute)))

	entries, err := repo.ListNeedingReconcile(context.Background(), cutoff, 50)

	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "rec-1", entries[0].RecordID)
	assert.Nil(t, entries[0].LastReconciled)
	require.NotNil(t, entries[1].LastReconciled)
	assert.Equal(t, "tenant-b", entries[1].TenantID)
}
