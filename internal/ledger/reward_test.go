package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
)

func TestAwardXp_Levels(t *testing.T) {
	env := newTestEnv(t)
	env.account(t, "u1", 0)
	ctx := context.Background()

	r, err := env.engine.AwardXp(ctx, adminID, model.RewardRequest{UserID: "u1", Amount: 999})
	require.NoError(t, err)
	assert.Equal(t, int64(1), r.Level)

	r, err = env.engine.AwardXp(ctx, adminID, model.RewardRequest{UserID: "u1", Amount: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), r.Experience)
	assert.Equal(t, int64(2), r.Level)

	r, err = env.engine.AwardXp(ctx, adminID, model.RewardRequest{UserID: "u1", Amount: 0})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), r.Experience)
	assert.True(t, r.Applied)

	_, err = env.engine.AwardXp(ctx, adminID, model.RewardRequest{UserID: "u1", Amount: -5})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = env.engine.AwardXp(ctx, adminID, model.RewardRequest{UserID: "ghost", Amount: 5})
	require.ErrorIs(t, err, ErrAccountNotFound)

	assert.Equal(t, int64(1000), env.get(t, "u1").Experience)
}

func TestAwardXp_EventIDIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.account(t, "u1", 0)
	ctx := context.Background()

	req := model.RewardRequest{UserID: "u1", Amount: 250, EventID: "quest-7"}
	r, err := env.engine.AwardXp(ctx, adminID, req)
	require.NoError(t, err)
	assert.True(t, r.Applied)

	r, err = env.engine.AwardXp(ctx, adminID, req)
	require.NoError(t, err)
	assert.False(t, r.Applied)
	assert.Equal(t, int64(250), r.Experience)

	// the same event id is tracked separately for mood awards
	m, err := env.engine.AwardMood(ctx, adminID, model.RewardRequest{UserID: "u1", Amount: 10, EventID: "quest-7"})
	require.NoError(t, err)
	assert.True(t, m.Applied)
}

func TestAwardMood_SeparateCounter(t *testing.T) {
	env := newTestEnv(t)
	env.account(t, "u1", 0)
	ctx := context.Background()

	r, err := env.engine.AwardMood(ctx, adminID, model.RewardRequest{UserID: "u1", Amount: 300})
	require.NoError(t, err)
	assert.Equal(t, int64(300), r.MoodPoints)
	assert.Equal(t, int64(4), r.MoodLevel)
	assert.Zero(t, r.Experience)
	assert.Equal(t, int64(1), r.Level)

	acc := env.get(t, "u1")
	assert.Equal(t, int64(300), acc.MoodPoints)
	assert.Zero(t, acc.Experience)
	assert.Equal(t, int64(0), acc.Balance)
}

func TestAwardXp_ConcurrentAwardsAreAdditive(t *testing.T) {
	env := newTestEnv(t)
	env.account(t, "u1", 0)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.engine.AwardXp(context.Background(), adminID, model.RewardRequest{UserID: "u1", Amount: 100})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	acc := env.get(t, "u1")
	assert.Equal(t, int64(2000), acc.Experience)
	assert.Equal(t, int64(3), acc.Level())
}

func TestAwardXp_RequiresAwardCapability(t *testing.T) {
	env := newTestEnv(t)
	env.account(t, "u1", 0)
	ctx := context.Background()
	require.NoError(t, env.engine.SeedAccount(ctx, "quests", model.RoleSystem))

	_, err := env.engine.AwardXp(ctx, "u1", model.RewardRequest{UserID: "u1", Amount: 500})
	require.ErrorIs(t, err, ErrForbidden)
	_, err = env.engine.AwardMood(ctx, "u1", model.RewardRequest{UserID: "u1", Amount: 500})
	require.ErrorIs(t, err, ErrForbidden)
	_, err = env.engine.AwardXp(ctx, "", model.RewardRequest{UserID: "u1", Amount: 500})
	require.ErrorIs(t, err, ErrForbidden)

	acc := env.get(t, "u1")
	assert.Zero(t, acc.Experience)
	assert.Zero(t, acc.MoodPoints)

	r, err := env.engine.AwardXp(ctx, "quests", model.RewardRequest{UserID: "u1", Amount: 500})
	require.NoError(t, err)
	assert.Equal(t, int64(500), r.Experience)
}
