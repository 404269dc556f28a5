package ledger

import (
	"context"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/repository"
)

// Purchase buys a catalog item with credits. The account is re-read inside
// the transaction; funds are checked before ownership.
func (e *Engine) Purchase(ctx context.Context, req model.PurchaseRequest) (*model.PurchaseReceipt, error) {
	if req.UserID == "" || req.ItemID == "" {
		return nil, ErrInvalidRequest
	}

	var receipt model.PurchaseReceipt
	err := e.run(ctx, "purchase", func(ctx context.Context, tx repository.Tx, fx *effects) error {
		item, err := loadItem(ctx, tx, req.ItemID)
		if err != nil {
			return err
		}
		acc, err := loadAccount(ctx, tx, req.UserID)
		if err != nil {
			return err
		}

		if item.Price > acc.Balance {
			return ErrInsufficientFunds
		}
		if acc.OwnedItems.Has(item.ID) {
			return ErrAlreadyOwned
		}

		acc.Balance -= item.Price
		acc.OwnedItems.Add(item.ID)
		acc.UpdatedAt = fx.now
		if err := tx.PutAccount(ctx, acc); err != nil {
			return err
		}

		fx.record(model.EventPurchase, acc, -item.Price, item.ID)
		receipt = model.PurchaseReceipt{ItemID: item.ID, NewBalance: acc.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}
