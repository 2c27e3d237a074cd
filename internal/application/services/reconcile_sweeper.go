package services

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/leadbridge/backend/internal/domain/lead"
	"github.com/leadbridge/backend/internal/domain/ports"
)

// ReconcileSweeper periodically re-verifies ledger entries whose
// last-reconciled timestamp is older than the staleness window, so drift
// (deletion, remote edits) surfaces without a user asking for it.
type ReconcileSweeper struct {
	ledger     ports.LedgerStore
	reconciler *ReconcileService
	cron       *cron.Cron
	schedule   string
	staleness  time.Duration
	batchSize  int
}

// NewReconcileSweeper creates a sweeper. schedule is a cron expression
// (robfig syntax, "@every 15m" works); staleness is the minimum age of
// an entry's last reconciliation before it is re-verified.
func NewReconcileSweeper(ledger ports.LedgerStore, reconciler *ReconcileService, schedule string, staleness time.Duration, batchSize int) *ReconcileSweeper {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &ReconcileSweeper{
		ledger:     ledger,
		reconciler: reconciler,
		cron:       cron.New(),
		schedule:   schedule,
		staleness:  staleness,
		batchSize:  batchSize,
	}
}

// Start registers the sweep job and starts the cron scheduler
func (s *ReconcileSweeper) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() { s.Sweep(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("🔁 Reconcile sweeper started (schedule: %s, staleness: %s)", s.schedule, s.staleness)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *ReconcileSweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// Sweep runs one verification pass over stale ledger entries
func (s *ReconcileSweeper) Sweep(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-s.staleness)
	entries, err := s.ledger.ListNeedingReconcile(ctx, cutoff, s.batchSize)
	if err != nil {
		log.Printf("⚠️  Reconcile sweep aborted, cannot list stale entries: %v", err)
		return
	}
	if len(entries) == 0 {
		return
	}

	log.Printf("🔄 Reconcile sweep: verifying %d stale entries", len(entries))
	drifted := 0
	for _, entry := range entries {
		result := s.reconciler.Verify(ctx, entry.TenantID, entry.RecordID)
		switch result.Status {
		case lead.ReconcileModified, lead.ReconcileDeleted, lead.ReconcileNotFound:
			drifted++
			log.Printf("   ⚠️  Drift detected for %s/%s: %s", entry.TenantID, entry.RecordID, result.Status)
		}
	}
	log.Printf("✅ Reconcile sweep done: %d verified, %d drifted", len(entries), drifted)
}
