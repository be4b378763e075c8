package signal_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/karmachain/feedback-engine/engine/signal"
)

func testEventRecord(t *testing.T) (*signal.EventRecord, []byte) {
	t.Helper()
	record := &signal.EventRecord{
		EventID:   "c2a7f3e8-0000-4000-8000-000000000001",
		EventType: signal.EventTypeNormalizedState,
		Data: signal.EventData{
			Module:          signal.ModuleGame,
			ActionType:      "quest_completed",
			RawValue:        10,
			NormalizedValue: 12,
			Weight:          1.2,
		},
		Timestamp: "2026-08-30T10:00:00Z",
		Source:    "normalization_api_game",
		Status:    signal.StatusProcessed,
		CreatedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(record.Data)
	require.NoError(t, err)
	return record, data
}

func TestPostgresRepository_Insert(t *testing.T) {
	t.Run("Should insert a karma event successfully", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := signal.NewPostgresRepository(mockPool)
		record, data := testEventRecord(t)
		mockPool.ExpectExec("INSERT INTO karma_events").
			WithArgs(
				record.EventID,
				record.EventType,
				data,
				record.Timestamp,
				record.Source,
				record.Status,
				record.CreatedAt,
			).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		err = repo.Insert(context.Background(), record)
		assert.NoError(t, err)
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})

	t.Run("Should wrap database errors on insert failure", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := signal.NewPostgresRepository(mockPool)
		record, data := testEventRecord(t)
		mockPool.ExpectExec("INSERT INTO karma_events").
			WithArgs(
				record.EventID,
				record.EventType,
				data,
				record.Timestamp,
				record.Source,
				record.Status,
				record.CreatedAt,
			).
			WillReturnError(errors.New("deadlock detected"))
		err = repo.Insert(context.Background(), record)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert karma event")
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
}
