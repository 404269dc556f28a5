package ledger

import (
	"context"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/repository"
)

// Equip sets the equipped cosmetic. An empty ItemID unequips.
func (e *Engine) Equip(ctx context.Context, req model.InventoryRequest) (*model.Account, error) {
	if req.UserID == "" {
		return nil, ErrInvalidRequest
	}

	var out *model.Account
	err := e.run(ctx, "equip", func(ctx context.Context, tx repository.Tx, fx *effects) error {
		acc, err := loadAccount(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if req.ItemID != "" {
			if !acc.OwnedItems.Has(req.ItemID) {
				return ErrNotOwned
			}
			item, err := loadItem(ctx, tx, req.ItemID)
			if err != nil {
				return err
			}
			if item.Kind != model.ItemKindCosmetic {
				return ErrNotEquippable
			}
		}
		acc.EquippedCosmetic = req.ItemID
		acc.UpdatedAt = fx.now
		out = acc
		return tx.PutAccount(ctx, acc)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Consume uses up an owned consumable, removing it from the inventory.
func (e *Engine) Consume(ctx context.Context, req model.InventoryRequest) (*model.Account, error) {
	if req.UserID == "" || req.ItemID == "" {
		return nil, ErrInvalidRequest
	}

	var out *model.Account
	err := e.run(ctx, "consume", func(ctx context.Context, tx repository.Tx, fx *effects) error {
		acc, err := loadAccount(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if !acc.OwnedItems.Has(req.ItemID) {
			return ErrNotOwned
		}
		item, err := loadItem(ctx, tx, req.ItemID)
		if err != nil {
			return err
		}
		if item.Kind != model.ItemKindConsumable {
			return ErrNotConsumable
		}

		acc.OwnedItems.Remove(item.ID)
		if acc.EquippedCosmetic == item.ID {
			acc.EquippedCosmetic = ""
		}
		acc.UpdatedAt = fx.now
		if err := tx.PutAccount(ctx, acc); err != nil {
			return err
		}
		fx.record(model.EventConsume, acc, 0, item.ID)
		out = acc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
