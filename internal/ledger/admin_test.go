package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
)

func TestAdminOperations_RequireCapability(t *testing.T) {
	env := newTestEnv(t)
	env.account(t, "u1", 10)
	ctx := context.Background()

	_, err := env.engine.PublishItem(ctx, "u1", model.PublishItemRequest{ID: "hat", Name: "Hat", Price: 5})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.engine.IssueCode(ctx, "u1", model.IssueCodeRequest{Code: "FREE", CreditsGrant: 1000})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.engine.GrantCredits(ctx, "u1", model.GrantCreditsRequest{UserID: "u1", Amount: 1000})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.engine.PurgeSettledAuctions(ctx, "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.engine.GrantCredits(ctx, "nobody", model.GrantCreditsRequest{UserID: "u1", Amount: 1000})
	assert.ErrorIs(t, err, ErrForbidden)

	assert.Equal(t, int64(10), env.get(t, "u1").Balance)
}

func TestPublishItem(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	item, err := env.engine.PublishItem(ctx, adminID, model.PublishItemRequest{ID: "hat", Name: "Hat", Price: 5})
	require.NoError(t, err)
	assert.Equal(t, model.ItemKindCosmetic, item.Kind)

	_, err = env.engine.PublishItem(ctx, adminID, model.PublishItemRequest{ID: "hat", Name: "Other hat", Price: 1})
	assert.ErrorIs(t, err, ErrItemExists)

	_, err = env.engine.PublishItem(ctx, adminID, model.PublishItemRequest{ID: "x", Name: "X", Kind: "weapon"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = env.engine.PublishItem(ctx, adminID, model.PublishItemRequest{ID: "y", Name: "Y", Price: -1})
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestIssueCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.engine.IssueCode(ctx, adminID, model.IssueCodeRequest{Code: "bundle", ItemGrants: []string{"ghost"}})
	assert.ErrorIs(t, err, ErrItemNotFound)

	rc, err := env.engine.IssueCode(ctx, adminID, model.IssueCodeRequest{Code: " welcome ", CreditsGrant: 25})
	require.NoError(t, err)
	assert.Equal(t, "WELCOME", rc.Code)

	_, err = env.engine.IssueCode(ctx, adminID, model.IssueCodeRequest{Code: "Welcome"})
	assert.ErrorIs(t, err, ErrCodeExists)
}

func TestGrantCredits(t *testing.T) {
	env := newTestEnv(t)
	env.account(t, "u1", 10)

	view, err := env.engine.GrantCredits(context.Background(), adminID, model.GrantCreditsRequest{UserID: "u1", Amount: 500, Reason: "credit pack"})
	require.NoError(t, err)
	assert.Equal(t, int64(510), view.Balance)

	_, err = env.engine.GrantCredits(context.Background(), adminID, model.GrantCreditsRequest{UserID: "u1", Amount: 0})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	var grants int
	for _, ev := range env.bus.Events() {
		if ev.Kind == model.EventGrant {
			grants++
			assert.Equal(t, "credit pack", ev.Reference)
			assert.Equal(t, int64(500), ev.Delta)
		}
	}
	assert.Equal(t, 1, grants)
}

func TestPurgeSettledAuctions(t *testing.T) {
	env := newTestEnv(t)
	env.account(t, "seller", 0)
	ctx := context.Background()

	done := env.auction(t, "seller", 10, "")
	env.clock.Advance(time.Hour)
	_, err := env.engine.SettleAuction(ctx, adminID, done.ID)
	require.NoError(t, err)
	live := env.auction(t, "seller", 10, "")

	n, err := env.engine.PurgeSettledAuctions(ctx, adminID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, err = env.engine.GetAuction(ctx, done.ID)
	assert.ErrorIs(t, err, ErrAuctionNotFound)
	_, err = env.engine.GetAuction(ctx, live.ID)
	assert.NoError(t, err)
}
