package scheduler

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/dashlink/internal/logger"
)

// Sweeper drops expired entries and reports how many went away.
type Sweeper interface {
	Sweep() int
}

// CounterSweeper periodically purges expired in-memory rate-limit
// counters. It is only started when no Redis backend is configured; Redis
// expires keys on its own.
type CounterSweeper struct {
	target   Sweeper
	logger   logger.Logger
	interval time.Duration
	stopCh   chan struct{}
}

func NewCounterSweeper(target Sweeper, log logger.Logger, interval time.Duration) *CounterSweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &CounterSweeper{
		target:   target,
		logger:   log,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

func (cs *CounterSweeper) Start(ctx context.Context) error {
	ticker := time.NewTicker(cs.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				cs.Sweep()
			case <-cs.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (cs *CounterSweeper) Stop() {
	close(cs.stopCh)
}

// Sweep runs one pass and returns the number of counters removed.
func (cs *CounterSweeper) Sweep() int {
	n := cs.target.Sweep()
	if n > 0 {
		cs.logger.Debug("expired rate-limit counters removed", logger.Int("removed", n))
	}
	return n
}
