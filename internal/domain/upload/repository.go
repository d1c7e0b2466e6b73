package upload

import "context"

// LedgerRepository defines data access for the upload ledger.
type LedgerRepository interface {
	// GetByHash returns ErrLedgerEntryNotFound when the content was never seen
	GetByHash(ctx context.Context, contentHash string) (LedgerEntry, error)

	// CreateIfAbsent inserts the entry unless its content hash already exists, and
	// returns the stored row either way. created is false when another upload won.
	CreateIfAbsent(ctx context.Context, entry LedgerEntry) (stored LedgerEntry, created bool, err error)

	GetByID(ctx context.Context, id string) (LedgerEntry, error)

	// List returns entries newest first
	List(ctx context.Context, filter ListFilter) ([]LedgerEntry, int64, error)
}
