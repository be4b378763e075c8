package signal

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/karmachain/feedback-engine/engine/infra/store"
)

// postgresRepository implements Repository on top of the karma_events table.
type postgresRepository struct {
	db store.DBInterface
}

// NewPostgresRepository creates a new PostgreSQL ledger repository.
func NewPostgresRepository(db store.DBInterface) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Insert(ctx context.Context, record *EventRecord) error {
	data, err := json.Marshal(record.Data)
	if err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}
	query := `INSERT INTO karma_events (event_id, event_type, data, timestamp, source, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err = r.db.Exec(ctx, query,
		record.EventID,
		record.EventType,
		data,
		record.Timestamp,
		record.Source,
		record.Status,
		record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert karma event: %w", err)
	}
	return nil
}
