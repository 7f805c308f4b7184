package pooldata

import (
	"context"
	"errors"
	"testing"
	"time"

	"quoteScope/internal/model"
)

type flakySource struct {
	failures int
	calls    int
	err      error
}

func (s *flakySource) FetchPool(context.Context, model.TokenClassKey, model.TokenClassKey, model.FeeTier) (*model.PoolState, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.calls <= s.failures {
		return nil, errors.New("transient")
	}
	return &model.PoolState{}, nil
}

func TestRetryingSourceRecovers(t *testing.T) {
	inner := &flakySource{failures: 2}
	source := NewRetryingSource(inner, 3, time.Millisecond)

	pool, err := source.FetchPool(context.Background(), model.TokenClassKey{}, model.TokenClassKey{}, model.FeeTier500)
	if err != nil {
		t.Fatalf("FetchPool: %v", err)
	}
	if pool == nil {
		t.Fatalf("got nil pool after recovery")
	}
	if inner.calls != 3 {
		t.Fatalf("calls = %d, want 3", inner.calls)
	}
}

func TestRetryingSourceGivesUp(t *testing.T) {
	inner := &flakySource{failures: 10}
	source := NewRetryingSource(inner, 2, time.Millisecond)

	if _, err := source.FetchPool(context.Background(), model.TokenClassKey{}, model.TokenClassKey{}, model.FeeTier500); err == nil {
		t.Fatalf("expected the transient error after exhausting retries")
	}
	if inner.calls != 3 {
		t.Fatalf("calls = %d, want 3 (initial attempt plus two retries)", inner.calls)
	}
}

func TestRetryingSourceDoesNotRetryNotFound(t *testing.T) {
	inner := &flakySource{err: ErrPoolNotFound}
	source := NewRetryingSource(inner, 5, time.Millisecond)

	_, err := source.FetchPool(context.Background(), model.TokenClassKey{}, model.TokenClassKey{}, model.FeeTier500)
	if !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("got %v, want ErrPoolNotFound", err)
	}
	if inner.calls != 1 {
		t.Fatalf("calls = %d, want exactly 1", inner.calls)
	}
}

type capturingSink struct {
	pools []*model.PoolState
	err   error
}

func (s *capturingSink) UpsertPool(_ context.Context, pool *model.PoolState) error {
	s.pools = append(s.pools, pool)
	return s.err
}

func TestRecordingSourcePersistsSnapshots(t *testing.T) {
	sink := &capturingSink{}
	source := NewRecordingSource(&flakySource{}, sink, nil)

	pool, err := source.FetchPool(context.Background(), model.TokenClassKey{}, model.TokenClassKey{}, model.FeeTier500)
	if err != nil {
		t.Fatalf("FetchPool: %v", err)
	}
	if len(sink.pools) != 1 {
		t.Fatalf("sink saw %d snapshots, want 1", len(sink.pools))
	}
	if sink.pools[0] != pool {
		t.Fatalf("sink received a different snapshot than the caller")
	}
}

func TestRecordingSourceIgnoresSinkFailure(t *testing.T) {
	sink := &capturingSink{err: errors.New("store down")}
	source := NewRecordingSource(&flakySource{}, sink, nil)

	if _, err := source.FetchPool(context.Background(), model.TokenClassKey{}, model.TokenClassKey{}, model.FeeTier500); err != nil {
		t.Fatalf("a sink failure must not fail the fetch, got %v", err)
	}
}

func TestRecordingSourceSkipsFailedFetches(t *testing.T) {
	sink := &capturingSink{}
	source := NewRecordingSource(&flakySource{err: ErrPoolNotFound}, sink, nil)

	if _, err := source.FetchPool(context.Background(), model.TokenClassKey{}, model.TokenClassKey{}, model.FeeTier500); !errors.Is(err, ErrPoolNotFound) {
		t.Fatalf("got %v, want ErrPoolNotFound", err)
	}
	if len(sink.pools) != 0 {
		t.Fatalf("failed fetches must not reach the sink, saw %d", len(sink.pools))
	}
}

func TestRetryingSourceStopsOnCancel(t *testing.T) {
	inner := &flakySource{failures: 100}
	source := NewRetryingSource(inner, 100, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := source.FetchPool(ctx, model.TokenClassKey{}, model.TokenClassKey{}, model.FeeTier500)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want context.DeadlineExceeded", err)
	}
}
