package services

import (
	"time"

	"github.com/leadbridge/backend/internal/domain/ports"
	"github.com/leadbridge/backend/pkg/expression"
)

// Config carries the tunables of the transfer engine
type Config struct {
	ObjectType         string        // remote object type, e.g. "Lead"
	PicklistTTL        time.Duration // country picklist cache lifetime
	SettleDelay        time.Duration // wait after schema-mutating calls
	ReconcileCron      string        // sweep schedule (robfig cron syntax)
	ReconcileStaleness time.Duration // re-verify entries older than this
	ReconcileBatchSize int
}

// ConfigFromEnv builds the engine config from the environment
func ConfigFromEnv() Config {
	return Config{
		ObjectType:         GetEnvString("CRM_OBJECT_TYPE", "Lead"),
		PicklistTTL:        GetEnvDuration("PICKLIST_TTL", time.Hour),
		SettleDelay:        GetEnvDuration("SETTLE_DELAY", 5*time.Second),
		ReconcileCron:      GetEnvString("RECONCILE_CRON", "@every 15m"),
		ReconcileStaleness: GetEnvDuration("RECONCILE_STALENESS", time.Hour),
		ReconcileBatchSize: GetEnvInt("RECONCILE_BATCH_SIZE", 100),
	}
}

// ServiceManager orchestrates all services with dependency injection
type ServiceManager struct {
	// Core services
	Picklist    *PicklistService
	Checker     *SchemaChecker
	Provisioner *ProvisionService
	Validation  *ValidationService
	Transfer    *TransferService
	Reconciler  *ReconcileService
	Sweeper     *ReconcileSweeper

	// Shared infrastructure
	Ledger ports.LedgerStore
	CRM    ports.CRMClient
}

// NewServiceManager creates a new service manager with all dependencies wired
func NewServiceManager(crm ports.CRMClient, ledger ports.LedgerStore, cfg Config) *ServiceManager {
	sm := &ServiceManager{
		Ledger: ledger,
		CRM:    crm,
	}

	// Initialize services in dependency order
	sm.Picklist = NewPicklistService(crm, cfg.PicklistTTL)
	sm.Checker = NewSchemaChecker(crm)
	sm.Provisioner = NewProvisionService(crm, cfg.SettleDelay)
	sm.Validation = NewValidationService(expression.NewEngine())
	sm.Transfer = NewTransferService(sm.Picklist, sm.Checker, sm.Provisioner, sm.Validation, crm, ledger, cfg.ObjectType)
	sm.Reconciler = NewReconcileService(ledger, crm, cfg.ObjectType)
	sm.Sweeper = NewReconcileSweeper(ledger, sm.Reconciler, cfg.ReconcileCron, cfg.ReconcileStaleness, cfg.ReconcileBatchSize)

	return sm
}
