package service

import (
	"context"
	"log"
	"time"

	"github.com/discount-platform/redemption-service/internal/clock"
	"github.com/discount-platform/redemption-service/internal/monitoring"
)

// Sweeper periodically marks overdue active tickets as expired.  It is
// best-effort housekeeping: correctness does not depend on it, because the
// gate performs the same check lazily at scan time.  A lagging or stopped
// sweeper only means expired tickets linger in active until someone scans
// them.
type Sweeper struct {
	store    TicketStore
	clock    clock.Clock
	interval time.Duration
}

// NewSweeper constructs a Sweeper.  interval <= 0 falls back to 30 seconds.
func NewSweeper(store TicketStore, clk clock.Clock, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Sweeper{store: store, clock: clk, interval: interval}
}

// Run sweeps on a ticker until ctx is cancelled.  Errors are logged and the
// loop keeps going; the next tick retries naturally.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SweepOnce(ctx); err != nil {
				log.Printf("sweeper: %v", err)
			}
		}
	}
}

// SweepOnce expires everything overdue right now.  Exported so an operator
// endpoint or test can trigger a sweep directly.
func (s *Sweeper) SweepOnce(ctx context.Context) error {
	n, err := s.store.ExpireOverdue(ctx, s.clock.Now())
	if err != nil {
		return err
	}
	if n > 0 {
		monitoring.TicketsSwept(n)
		log.Printf("sweeper: expired %d overdue ticket(s)", n)
	}
	return nil
}
