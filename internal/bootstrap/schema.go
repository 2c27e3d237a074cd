package bootstrap

import (
	"fmt"
	"log"

	"github.com/leadbridge/backend/internal/infrastructure/database"
	"github.com/leadbridge/backend/internal/infrastructure/persistence"
)

// InitializeSchema creates the ledger table if it does not exist.
// The ledger is the only durable state this service owns.
func InitializeSchema(db *database.TiDBConnection) error {
	log.Printf("📐 Ensuring ledger table: %s", persistence.TableTransferStatus)

	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			tenant_id       VARCHAR(64)  NOT NULL,
			record_id       VARCHAR(64)  NOT NULL,
			status          VARCHAR(16)  NOT NULL,
			remote_id       VARCHAR(64)  NULL,
			error_message   TEXT         NULL,
			transferred_at  DATETIME(3)  NOT NULL,
			last_reconciled DATETIME(3)  NULL,
			PRIMARY KEY (tenant_id, record_id),
			KEY idx_needs_reconcile (last_reconciled)
		)`, persistence.TableTransferStatus)

	if _, err := db.Exec(ddl); err != nil {
		log.Printf("❌ Failed to create ledger table: %v", err)
		return fmt.Errorf("failed to create table %s: %w", persistence.TableTransferStatus, err)
	}

	log.Printf("✅ Ledger table ready: %s", persistence.TableTransferStatus)
	return nil
}
