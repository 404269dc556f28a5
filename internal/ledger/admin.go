package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/auth"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/repository"
)

// PublishItem adds an item to the catalog. Items are immutable afterwards.
func (e *Engine) PublishItem(ctx context.Context, actorID string, req model.PublishItemRequest) (*model.CatalogItem, error) {
	if req.ID == "" || req.Name == "" {
		return nil, ErrInvalidRequest
	}
	if req.Price < 0 {
		return nil, ErrInvalidAmount
	}
	kind := req.Kind
	if kind == "" {
		kind = model.ItemKindCosmetic
	}
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown item kind %q", ErrInvalidRequest, kind)
	}
	if err := e.authorize(ctx, actorID, auth.CapPublishCatalog); err != nil {
		return nil, err
	}

	var item model.CatalogItem
	err := e.run(ctx, "publish_item", func(ctx context.Context, tx repository.Tx, fx *effects) error {
		item = model.CatalogItem{
			ID:        req.ID,
			Name:      req.Name,
			Price:     req.Price,
			Rarity:    req.Rarity,
			Kind:      kind,
			CreatedAt: fx.now,
		}
		err := tx.InsertCatalogItem(ctx, &item)
		if errors.Is(err, repository.ErrExists) {
			return ErrItemExists
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// IssueCode creates a redemption code. Every granted item must already be
// in the catalog.
func (e *Engine) IssueCode(ctx context.Context, actorID string, req model.IssueCodeRequest) (*model.RedemptionCode, error) {
	code := NormalizeCode(req.Code)
	if code == "" {
		return nil, ErrInvalidRequest
	}
	if req.CreditsGrant < 0 {
		return nil, ErrInvalidAmount
	}
	if err := e.authorize(ctx, actorID, auth.CapIssueCodes); err != nil {
		return nil, err
	}

	var rc model.RedemptionCode
	err := e.run(ctx, "issue_code", func(ctx context.Context, tx repository.Tx, fx *effects) error {
		grants := model.NewItemSet()
		for _, id := range req.ItemGrants {
			if _, err := loadItem(ctx, tx, id); err != nil {
				return err
			}
			grants.Add(id)
		}
		rc = model.RedemptionCode{
			Code:         code,
			CreditsGrant: req.CreditsGrant,
			ItemGrants:   grants,
			RedeemedBy:   model.NewItemSet(),
			CreatedAt:    fx.now,
		}
		err := tx.InsertRedemptionCode(ctx, &rc)
		if errors.Is(err, repository.ErrExists) {
			return ErrCodeExists
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return &rc, nil
}

// GrantCredits tops up a balance. It backs simulated credit-pack purchases
// and operator adjustments; no payment is involved.
func (e *Engine) GrantCredits(ctx context.Context, actorID string, req model.GrantCreditsRequest) (*model.BalanceView, error) {
	if req.UserID == "" {
		return nil, ErrInvalidRequest
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if err := e.authorize(ctx, actorID, auth.CapGrantCredits); err != nil {
		return nil, err
	}

	var view model.BalanceView
	err := e.run(ctx, "grant_credits", func(ctx context.Context, tx repository.Tx, fx *effects) error {
		acc, err := loadAccount(ctx, tx, req.UserID)
		if err != nil {
			return err
		}
		if acc.Balance, err = addAmount(acc.Balance, req.Amount); err != nil {
			return err
		}
		acc.UpdatedAt = fx.now
		if err := tx.PutAccount(ctx, acc); err != nil {
			return err
		}
		fx.record(model.EventGrant, acc, req.Amount, req.Reason)
		view = model.BalanceView{UserID: acc.ID, Balance: acc.Balance}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// PurgeSettledAuctions deletes settled auction records and returns how many
// were removed. Each delete re-checks the settled status in its own
// transaction.
func (e *Engine) PurgeSettledAuctions(ctx context.Context, actorID string) (int, error) {
	if err := e.authorize(ctx, actorID, auth.CapPurge); err != nil {
		return 0, err
	}
	ids, err := e.store.ListSettledAuctions(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: list settled auctions: %w", ErrTransient, err)
	}

	purged := 0
	for _, id := range ids {
		deleted := false
		err := e.run(ctx, "purge_auction", func(ctx context.Context, tx repository.Tx, fx *effects) error {
			deleted = false
			a, err := tx.Auction(ctx, id)
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if a.Status != model.AuctionStatusSettled {
				return nil
			}
			deleted = true
			return tx.DeleteAuction(ctx, id)
		})
		if err != nil {
			return purged, err
		}
		if deleted {
			purged++
		}
	}
	e.log.Info("purged settled auctions", "actor_id", actorID, "count", purged)
	return purged, nil
}
