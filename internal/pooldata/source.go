// Package pooldata defines the pool-data collaborator consumed by the
// quote service and utilities shared by its implementations. Retry policy
// lives here, with the collaborators, never in the quoting core.
package pooldata

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"quoteScope/internal/model"
)

// ErrPoolNotFound reports that no pool exists for the pair and fee tier.
var ErrPoolNotFound = errors.New("pool not found")

// Source supplies pool snapshots. Implementations must include enough
// initialized-tick data for the simulator to cross ticks in both
// directions, or report what they have; a snapshot with no ticks simply
// quotes within the current range.
type Source interface {
	FetchPool(ctx context.Context, token0, token1 model.TokenClassKey, fee model.FeeTier) (*model.PoolState, error)
}

// RetryingSource wraps a Source with bounded exponential-backoff retries
// for transient fetch failures. Pool-not-found is final and not retried.
type RetryingSource struct {
	inner      Source
	maxRetries int
	baseDelay  time.Duration
}

func NewRetryingSource(inner Source, maxRetries int, baseDelay time.Duration) *RetryingSource {
	return &RetryingSource{inner: inner, maxRetries: maxRetries, baseDelay: baseDelay}
}

func (s *RetryingSource) FetchPool(ctx context.Context, token0, token1 model.TokenClassKey, fee model.FeeTier) (*model.PoolState, error) {
	var pool *model.PoolState
	err := withRetry(ctx, s.maxRetries, s.baseDelay, func(ctx context.Context) error {
		var fetchErr error
		pool, fetchErr = s.inner.FetchPool(ctx, token0, token1, fee)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	return pool, nil
}

// PoolSink persists pool snapshots. Implemented by the postgres store.
type PoolSink interface {
	UpsertPool(ctx context.Context, pool *model.PoolState) error
}

// RecordingSource persists every snapshot the inner source serves. Sink
// failures are logged, never surfaced; quoting must not depend on the
// history store being up.
type RecordingSource struct {
	inner  Source
	sink   PoolSink
	logger *zap.Logger
}

func NewRecordingSource(inner Source, sink PoolSink, logger *zap.Logger) *RecordingSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordingSource{inner: inner, sink: sink, logger: logger}
}

func (s *RecordingSource) FetchPool(ctx context.Context, token0, token1 model.TokenClassKey, fee model.FeeTier) (*model.PoolState, error) {
	pool, err := s.inner.FetchPool(ctx, token0, token1, fee)
	if err != nil {
		return nil, err
	}
	if err := s.sink.UpsertPool(ctx, pool); err != nil {
		s.logger.Warn("persist pool snapshot",
			zap.String("token0", token0.String()),
			zap.String("token1", token1.String()),
			zap.Error(err),
		)
	}
	return pool, nil
}
