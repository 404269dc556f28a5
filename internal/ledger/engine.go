// Package ledger implements the credits economy engine: every operation that
// changes a balance or an inventory runs here as an optimistic transaction
// against the repository.Store, retried on write conflicts.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/metrics"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/repository"
)

const (
	DefaultMaxAttempts     = 5
	DefaultRetryDelay      = 10 * time.Millisecond
	DefaultMaxRetryDelay   = 200 * time.Millisecond
	DefaultStartingBalance = 30
)

type Config struct {
	// MaxAttempts bounds the optimistic attempts per operation.
	MaxAttempts     int
	RetryDelay      time.Duration
	MaxRetryDelay   time.Duration
	StartingBalance int64
	// Now is the clock used for auction deadlines and timestamps.
	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.MaxRetryDelay < c.RetryDelay {
		c.MaxRetryDelay = DefaultMaxRetryDelay
		if c.MaxRetryDelay < c.RetryDelay {
			c.MaxRetryDelay = c.RetryDelay
		}
	}
	if c.StartingBalance <= 0 {
		c.StartingBalance = DefaultStartingBalance
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// BalanceCache is the display-only balance view kept next to the store.
type BalanceCache interface {
	SetBalance(ctx context.Context, userID string, balance, revision int64) error
	Balance(ctx context.Context, userID string) (int64, error)
}

type Engine struct {
	store repository.Store
	bus   repository.MessageBus
	cache BalanceCache
	cfg   Config
	log   *slog.Logger
}

// New builds an Engine. bus and cache may be nil.
func New(store repository.Store, bus repository.MessageBus, cache BalanceCache, cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store: store,
		bus:   bus,
		cache: cache,
		cfg:   cfg.withDefaults(),
		log:   logger,
	}
}

func (e *Engine) now() time.Time {
	return e.cfg.Now().UTC()
}

// effects collects what a single transaction attempt wants to announce once
// it has committed. A fresh value is used for every attempt.
type effects struct {
	now      time.Time
	events   []model.LedgerEvent
	touched  map[string]struct{}
}

func (f *effects) record(kind model.EventKind, acc *model.Account, delta int64, ref string) {
	f.events = append(f.events, model.LedgerEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		AccountID: acc.ID,
		Delta:     delta,
		Balance:   acc.Balance,
		Reference: ref,
		CreatedAt: f.now,
	})
	if f.touched == nil {
		f.touched = make(map[string]struct{})
	}
	f.touched[acc.ID] = struct{}{}
}

type txFunc func(ctx context.Context, tx repository.Tx, fx *effects) error

// run executes fn as an optimistic transaction. Conflicts are retried with
// exponential backoff up to MaxAttempts; validation errors are returned
// as-is; everything else is reported as ErrTransient.
func (e *Engine) run(ctx context.Context, op string, fn txFunc) error {
	start := time.Now()
	delay := e.cfg.RetryDelay

	for attempt := 1; ; attempt++ {
		fx := &effects{now: e.now()}
		err := e.store.RunInTx(ctx, func(ctx context.Context, tx repository.Tx) error {
			return fn(ctx, tx, fx)
		})

		switch {
		case err == nil:
			metrics.RecordOperation(op, "ok", time.Since(start))
			e.announce(ctx, fx)
			return nil

		case IsValidation(err):
			metrics.RecordOperation(op, "rejected", time.Since(start))
			return err

		case errors.Is(err, repository.ErrConflict):
			metrics.RecordConflict(op)
			if attempt >= e.cfg.MaxAttempts {
				metrics.RecordOperation(op, "transient", time.Since(start))
				e.log.Warn("ledger: retries exhausted", "operation", op, "attempts", attempt)
				return fmt.Errorf("%w: %s conflicted %d times", ErrTransient, op, attempt)
			}
			e.log.Debug("ledger: write conflict, retrying", "operation", op, "attempt", attempt)
			if err := sleepWithContext(ctx, delay); err != nil {
				metrics.RecordOperation(op, "transient", time.Since(start))
				return fmt.Errorf("%w: %w", ErrTransient, err)
			}
			delay = min(delay*2, e.cfg.MaxRetryDelay)

		default:
			metrics.RecordOperation(op, "transient", time.Since(start))
			e.log.Error("ledger: storage failure", "operation", op, "error", err)
			return fmt.Errorf("%w: %s: %w", ErrTransient, op, err)
		}
	}
}

// announce publishes committed events and refreshes the balance view. Both
// are best effort: the operation has already succeeded. Balances are re-read
// after commit so the cache receives a committed revision, never a value
// from an attempt that may since have been overtaken.
func (e *Engine) announce(ctx context.Context, fx *effects) {
	if e.bus != nil {
		for _, ev := range fx.events {
			data, err := repository.EncodeEvent(ev)
			if err != nil {
				e.log.Error("ledger: failed to encode event", "event_id", ev.ID, "error", err)
				continue
			}
			if err := e.bus.Publish(repository.EventsTopic, data); err != nil {
				e.log.Warn("ledger: failed to publish event", "event_id", ev.ID, "kind", ev.Kind, "error", err)
			}
		}
	}
	if e.cache != nil {
		for id := range fx.touched {
			acc, err := e.store.GetAccount(ctx, id)
			if err != nil {
				e.log.Warn("ledger: balance refresh read failed", "account_id", id, "error", err)
				continue
			}
			if err := e.cache.SetBalance(ctx, id, acc.Balance, acc.Revision); err != nil {
				e.log.Warn("ledger: balance cache update failed", "account_id", id, "error", err)
			}
		}
	}
}

// addAmount adds delta to a balance or counter, rejecting results that do
// not fit in an int64 before anything is mutated.
func addAmount(v, delta int64) (int64, error) {
	if (delta > 0 && v > math.MaxInt64-delta) || (delta < 0 && v < math.MinInt64-delta) {
		return 0, fmt.Errorf("%w: %d%+d overflows", ErrInvalidAmount, v, delta)
	}
	return v + delta, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func loadAccount(ctx context.Context, tx repository.Tx, id string) (*model.Account, error) {
	acc, err := tx.Account(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}
	return acc, err
}

func loadAuction(ctx context.Context, tx repository.Tx, id string) (*model.Auction, error) {
	a, err := tx.Auction(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrAuctionNotFound, id)
	}
	return a, err
}

func loadItem(ctx context.Context, tx repository.Tx, id string) (*model.CatalogItem, error) {
	item, err := tx.CatalogItem(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return item, err
}
