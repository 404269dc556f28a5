package ledger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
)

func TestEquip(t *testing.T) {
	env := newTestEnv(t)
	env.account(t, "u1", 100)
	env.item(t, "cap", 10, model.ItemKindCosmetic)
	env.item(t, "potion", 5, model.ItemKindConsumable)
	env.item(t, "scarf", 5, model.ItemKindCosmetic)
	ctx := context.Background()

	for _, id := range []string{"cap", "potion"} {
		_, err := env.engine.Purchase(ctx, model.PurchaseRequest{UserID: "u1", ItemID: id})
		require.NoError(t, err)
	}

	_, err := env.engine.Equip(ctx, model.InventoryRequest{UserID: "u1", ItemID: "scarf"})
	require.ErrorIs(t, err, ErrNotOwned)

	_, err = env.engine.Equip(ctx, model.InventoryRequest{UserID: "u1", ItemID: "potion"})
	require.ErrorIs(t, err, ErrNotEquippable)

	acc, err := env.engine.Equip(ctx, model.InventoryRequest{UserID: "u1", ItemID: "cap"})
	require.NoError(t, err)
	assert.Equal(t, "cap", acc.EquippedCosmetic)

	acc, err = env.engine.Equip(ctx, model.InventoryRequest{UserID: "u1"})
	require.NoError(t, err)
	assert.Empty(t, acc.EquippedCosmetic)
	assert.Empty(t, env.get(t, "u1").EquippedCosmetic)
}

func TestConsume(t *testing.T) {
	env := newTestEnv(t)
	env.account(t, "u1", 100)
	env.item(t, "potion", 5, model.ItemKindConsumable)
	env.item(t, "cap", 10, model.ItemKindCosmetic)
	ctx := context.Background()

	_, err := env.engine.Consume(ctx, model.InventoryRequest{UserID: "u1", ItemID: "potion"})
	require.ErrorIs(t, err, ErrNotOwned)

	for _, id := range []string{"cap", "potion"} {
		_, err := env.engine.Purchase(ctx, model.PurchaseRequest{UserID: "u1", ItemID: id})
		require.NoError(t, err)
	}

	_, err = env.engine.Consume(ctx, model.InventoryRequest{UserID: "u1", ItemID: "cap"})
	require.ErrorIs(t, err, ErrNotConsumable)

	acc, err := env.engine.Consume(ctx, model.InventoryRequest{UserID: "u1", ItemID: "potion"})
	require.NoError(t, err)
	assert.False(t, acc.OwnedItems.Has("potion"))
	assert.True(t, acc.OwnedItems.Has("cap"))

	// consumed items can be bought again
	_, err = env.engine.Purchase(ctx, model.PurchaseRequest{UserID: "u1", ItemID: "potion"})
	require.NoError(t, err)
	assert.Equal(t, int64(80), env.get(t, "u1").Balance)
}
