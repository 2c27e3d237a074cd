package persistence

// Ledger table name. Created by bootstrap.InitializeSchema at startup.
const TableTransferStatus = "lead_transfer_status"
