package signal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/karmachain/feedback-engine/pkg/logger"
)

// Error taxonomy (router maps to HTTP later)
var (
	ErrBadRequest  = errors.New("bad request")
	ErrPersistence = errors.New("persistence failed")
)

// Service normalizes raw behavioral states into karmic signals and appends
// them to the karma ledger. Safe for concurrent use: it holds only immutable
// dependencies after construction.
type Service struct {
	repo    Repository
	weights WeightProvider
	metrics *Metrics
	now     func() time.Time
}

// NewService creates a normalization service. A nil metrics value disables
// instrumentation.
func NewService(repo Repository, weights WeightProvider, metrics *Metrics) *Service {
	if weights == nil {
		weights = NewStaticWeightProvider(nil)
	}
	return &Service{
		repo:    repo,
		weights: weights,
		metrics: metrics,
		now:     time.Now,
	}
}

// Normalize converts one raw state into a karmic signal and persists the
// matching ledger record. A ledger write failure is fatal to the request and
// is not retried.
func (s *Service) Normalize(ctx context.Context, req *NormalizeRequest) (*NormalizedState, error) {
	started := s.now()
	state := s.normalizeState(ctx, req)
	record := s.buildEventRecord(state, req)
	if err := s.repo.Insert(ctx, record); err != nil {
		s.metrics.ObserveNormalize(ctx, req.Module, s.now().Sub(started), false)
		return nil, fmt.Errorf("%w: %s", ErrPersistence, err)
	}
	s.metrics.ObserveNormalize(ctx, req.Module, s.now().Sub(started), true)
	logger.FromContext(ctx).Debug(
		"State normalized",
		"state_id", state.StateID,
		"module", state.Module,
		"action_type", state.ActionType,
	)
	return state, nil
}

// NormalizeBatch normalizes an ordered sequence of requests, producing
// exactly one state per request in input order. Requests and states are
// paired by position, never by content. The first ledger failure aborts the
// batch; records written before it remain in the ledger.
func (s *Service) NormalizeBatch(ctx context.Context, reqs []NormalizeRequest) ([]*NormalizedState, error) {
	states := make([]*NormalizedState, 0, len(reqs))
	for i := range reqs {
		state, err := s.Normalize(ctx, &reqs[i])
		if err != nil {
			return nil, fmt.Errorf("normalizing state %d: %w", i, err)
		}
		states = append(states, state)
	}
	return states, nil
}

// normalizeState applies the module weighting. Linear scaling is the
// documented contract; unknown modules fall back to weight 1.0.
func (s *Service) normalizeState(ctx context.Context, req *NormalizeRequest) *NormalizedState {
	weights := s.weights.Weights(ctx)
	weight, ok := weights[req.Module]
	if !ok {
		weight = 1.0
	}
	return &NormalizedState{
		StateID:       uuid.NewString(),
		Module:        req.Module,
		ActionType:    req.ActionType,
		Weight:        weight,
		FeedbackValue: req.RawValue * weight,
		Timestamp:     s.now().UTC().Format(time.RFC3339Nano),
	}
}

func (s *Service) buildEventRecord(state *NormalizedState, req *NormalizeRequest) *EventRecord {
	return &EventRecord{
		EventID:   state.StateID,
		EventType: EventTypeNormalizedState,
		Data: EventData{
			Module:          state.Module,
			ActionType:      state.ActionType,
			RawValue:        req.RawValue,
			NormalizedValue: state.FeedbackValue,
			Weight:          state.Weight,
			Context:         req.Context,
			Metadata:        req.Metadata,
		},
		Timestamp: state.Timestamp,
		Source:    fmt.Sprintf("normalization_api_%s", state.Module),
		Status:    StatusProcessed,
		CreatedAt: s.now().UTC(),
	}
}
