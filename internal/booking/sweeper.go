package booking

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/iliyamo/cinema-ticket-booking/internal/logger"
	"github.com/iliyamo/cinema-ticket-booking/internal/metrics"
)

// Expirer is the part of Service the sweeper drives.
type Expirer interface {
	ExpireStaleHolds(ctx context.Context) (int, error)
}

// Sweeper periodically expires pending bookings whose hold timed out.
type Sweeper struct {
	expirer  Expirer
	interval time.Duration
	log      *slog.Logger

	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewSweeper returns a sweeper that runs every interval.
func NewSweeper(e Expirer, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Sweeper{expirer: e, interval: interval, log: logger.Get(), done: make(chan struct{})}
}

// Start runs one sweep immediately and then one per interval until Stop is
// called or ctx is cancelled.  Sweeps never overlap.
func (s *Sweeper) Start(ctx context.Context) {
	s.log.Info("starting hold expiry sweeper", "interval", s.interval.String())
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		s.RunOnce(ctx)
		for {
			select {
			case <-ticker.C:
				s.RunOnce(ctx)
			case <-s.done:
				s.log.Info("hold expiry sweeper stopped")
				return
			case <-ctx.Done():
				s.log.Info("hold expiry sweeper stopped", "reason", ctx.Err())
				return
			}
		}
	}()
}

// RunOnce performs a single sweep and returns how many bookings expired.
func (s *Sweeper) RunOnce(ctx context.Context) int {
	start := time.Now()
	n, err := s.expirer.ExpireStaleHolds(ctx)
	metrics.SweepDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.log.Error("hold expiry sweep failed", "error", err)
		return 0
	}
	if n > 0 {
		s.log.Info("expired stale holds", "count", n)
	} else {
		s.log.Debug("no stale holds")
	}
	return n
}

// Stop ends the sweeper and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}
