package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
)

// Settler settles auctions whose end time has passed.
type Settler interface {
	SettleDueAuctions(ctx context.Context, limit int) ([]*model.SettlementReceipt, error)
}

// SettlementSweeper runs the settlement sweep on a cron schedule. Runs never
// overlap within one process; concurrent sweeps in other replicas are safe
// because settlement itself happens exactly once.
type SettlementSweeper struct {
	settler  Settler
	schedule string
	batch    int

	mu      sync.Mutex
	running bool
	cron    *cron.Cron
}

func NewSettlementSweeper(settler Settler, schedule string, batch int) *SettlementSweeper {
	return &SettlementSweeper{settler: settler, schedule: schedule, batch: batch}
}

// Start schedules the sweep and blocks until ctx is cancelled.
func (s *SettlementSweeper) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() { s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("worker: invalid settlement schedule %q: %w", s.schedule, err)
	}

	s.mu.Lock()
	s.cron = c
	s.mu.Unlock()

	c.Start()
	slog.Info("Settlement sweeper is running", "schedule", s.schedule)

	<-ctx.Done()
	return nil
}

// Stop waits for a running sweep to finish.
func (s *SettlementSweeper) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Sweep performs one settlement pass. It returns the number of auctions
// settled, or 0 when a previous pass is still running.
func (s *SettlementSweeper) Sweep(ctx context.Context) int {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		slog.Warn("settlement sweep still running, skipping")
		return 0
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	receipts, err := s.settler.SettleDueAuctions(ctx, s.batch)
	if err != nil {
		slog.Error("settlement sweep finished with errors", "settled", len(receipts), "error", err)
	} else if len(receipts) > 0 {
		slog.Info("settlement sweep finished", "settled", len(receipts))
	}
	return len(receipts)
}
