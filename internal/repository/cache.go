package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// setBalanceLuaScript stores balance and revision unless the key already
// holds the same or a newer revision.
// KEYS[1]: balance hash, ARGV[1]: balance, ARGV[2]: revision.
// Returns 1 when written, 0 when the cached entry is newer.
const setBalanceLuaScript = `
local current = redis.call("HGET", KEYS[1], "revision")
if current and tonumber(current) >= tonumber(ARGV[2]) then
	return 0
end
redis.call("HSET", KEYS[1], "balance", ARGV[1], "revision", ARGV[2])
return 1
`

// BalanceCache is the eventually consistent balance view used for display.
// It is written after commits and warmed from the store on a miss; ledger
// operations never read from it. Every entry carries the account revision
// it was read at so late writers cannot replace a newer balance.
type BalanceCache struct {
	redisClient *redis.Client
	store       Store
}

func NewBalanceCache(rdb *redis.Client, store Store) *BalanceCache {
	return &BalanceCache{redisClient: rdb, store: store}
}

func balanceKey(userID string) string {
	return fmt.Sprintf("balance:%s", userID)
}

// SetBalance records the balance committed at revision. Older revisions are
// ignored.
func (c *BalanceCache) SetBalance(ctx context.Context, userID string, balance, revision int64) error {
	if _, err := c.redisClient.Eval(ctx, setBalanceLuaScript, []string{balanceKey(userID)}, balance, revision).Int64(); err != nil {
		return fmt.Errorf("failed to save balance to Redis: %w", err)
	}
	return nil
}

// Balance returns the cached balance, loading it from the store on a miss.
func (c *BalanceCache) Balance(ctx context.Context, userID string) (int64, error) {
	bal, err := c.redisClient.HGet(ctx, balanceKey(userID), "balance").Int64()
	if err == nil {
		return bal, nil
	}
	if !errors.Is(err, redis.Nil) {
		slog.Warn("balance cache read failed, falling back to store", "user_id", userID, "error", err)
	}

	acc, err := c.store.GetAccount(ctx, userID)
	if err != nil {
		return 0, err
	}
	if err := c.SetBalance(ctx, userID, acc.Balance, acc.Revision); err != nil {
		slog.Warn("balance cache warm-up failed", "user_id", userID, "error", err)
	}
	return acc.Balance, nil
}
