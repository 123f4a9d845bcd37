package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingDigest struct {
	calls atomic.Int32
	err   error
}

func (d *countingDigest) SendPendingDigest(ctx context.Context) (int, error) {
	d.calls.Add(1)
	return 1, d.err
}

func TestNewLogger(t *testing.T) {
	for _, env := range []string{"production", "development", "test"} {
		logger, err := NewLogger(env)
		require.NoError(t, err, env)
		assert.NotNil(t, logger)
	}
}

func TestSchedulerRunsDigestOnTick(t *testing.T) {
	digest := &countingDigest{}
	s := NewScheduler(digest, 5*time.Millisecond, zap.NewNop())

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return digest.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()

	after := digest.calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, digest.calls.Load())
}

func TestSchedulerKeepsRunningAfterFailure(t *testing.T) {
	digest := &countingDigest{err: errors.New("telegram down")}
	s := NewScheduler(digest, 5*time.Millisecond, zap.NewNop())

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return digest.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()
}

func TestSchedulerStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewScheduler(&countingDigest{}, time.Hour, zap.NewNop())

	s.Start(ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
