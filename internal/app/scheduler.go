package app

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DigestSender sends the pending-reservation digest and reports how many
// restaurants received one.
type DigestSender interface {
	SendPendingDigest(ctx context.Context) (int, error)
}

// Scheduler runs background jobs.
type Scheduler struct {
	digest   DigestSender
	interval time.Duration
	logger   *zap.Logger
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewScheduler(digest DigestSender, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		digest:   digest,
		interval: interval,
		logger:   logger,
		stopChan: make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting background scheduler", zap.Duration("digest_interval", s.interval))

	s.wg.Add(1)
	go s.runDigestTask(ctx)
}

// Stop signals every job to exit and waits for them.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info("Stopping background scheduler")
		close(s.stopChan)
	})
	s.wg.Wait()
}

func (s *Scheduler) runDigestTask(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sendDigest(ctx)
		case <-s.stopChan:
			s.logger.Info("Digest task stopped")
			return
		case <-ctx.Done():
			s.logger.Info("Digest task cancelled")
			return
		}
	}
}

func (s *Scheduler) sendDigest(ctx context.Context) {
	sent, err := s.digest.SendPendingDigest(ctx)
	if err != nil {
		s.logger.Error("Failed to send pending digest", zap.Error(err))
		return
	}
	s.logger.Info("Pending digest sent", zap.Int("restaurants", sent))
}
