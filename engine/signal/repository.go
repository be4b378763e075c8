package signal

import "context"

// Repository is the karma ledger: an append-only sink for event records.
type Repository interface {
	// Insert appends a new event record. Records are never updated or
	// deleted afterwards.
	Insert(ctx context.Context, record *EventRecord) error
}
