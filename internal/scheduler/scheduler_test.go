package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albapepper/fuelprice-data/internal/ingest"
)

type countingCycler struct {
	calls   atomic.Int32
	country atomic.Value
	err     error
}

func (c *countingCycler) Run(ctx context.Context, opts ingest.CycleOptions) (ingest.CycleResult, error) {
	c.calls.Add(1)
	c.country.Store(opts.Country)
	return ingest.CycleResult{}, c.err
}

func TestSchedulerRunsImmediately(t *testing.T) {
	cycler := &countingCycler{}
	s := New(cycler, Config{Interval: time.Hour, Country: "GB"}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	defer s.Stop()

	assert.Eventually(t, func() bool { return cycler.calls.Load() == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "GB", cycler.country.Load())
}

func TestSchedulerRunReturnsOnCancel(t *testing.T) {
	cycler := &countingCycler{err: errors.New("store down")}
	s := New(cycler, Config{}, nil)
	assert.Equal(t, DefaultInterval, s.cfg.Interval)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	require.Eventually(t, func() bool { return cycler.calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestDefaultIntervalBelowThrottleWindow(t *testing.T) {
	assert.Less(t, DefaultInterval, ingest.MinInterval)
}
