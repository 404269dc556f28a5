package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/repository"
)

// NormalizeCode canonicalises a redemption code as typed by a user.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Redeem claims a code for a user. The redeemed-by check and the append to
// it happen in the same transaction as the grant, so concurrent attempts by
// the same user can succeed at most once.
func (e *Engine) Redeem(ctx context.Context, req model.RedeemRequest) (*model.RedeemReceipt, error) {
	code := NormalizeCode(req.Code)
	if req.UserID == "" || code == "" {
		return nil, ErrInvalidRequest
	}

	var receipt model.RedeemReceipt
	err := e.run(ctx, "redeem", func(ctx context.Context, tx repository.Tx, fx *effects) error {
		rc, err := tx.RedemptionCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrCodeNotFound, code)
		}
		if err != nil {
			return err
		}
		acc, err := loadAccount(ctx, tx, req.UserID)
		if err != nil {
			return err
		}

		if rc.RedeemedBy.Has(acc.ID) {
			return ErrAlreadyRedeemed
		}
		rc.RedeemedBy.Add(acc.ID)

		granted := []string{}
		for _, id := range rc.ItemGrants {
			if acc.OwnedItems.Add(id) {
				granted = append(granted, id)
			}
		}
		if acc.Balance, err = addAmount(acc.Balance, rc.CreditsGrant); err != nil {
			return err
		}
		acc.UpdatedAt = fx.now

		if err := tx.PutRedemptionCode(ctx, rc); err != nil {
			return err
		}
		if err := tx.PutAccount(ctx, acc); err != nil {
			return err
		}

		fx.record(model.EventRedeem, acc, rc.CreditsGrant, rc.Code)
		receipt = model.RedeemReceipt{
			Code:           rc.Code,
			CreditsGranted: rc.CreditsGrant,
			ItemsGranted:   granted,
			NewBalance:     acc.Balance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}
