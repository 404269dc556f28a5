package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/auth"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/metrics"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/repository"
)

// settle transfers the held winning bid to the seller and the auctioned item
// to the winner, or back to the seller when nobody bid. The settled status
// is written in the same transaction, so settlement happens exactly once.
func (e *Engine) settle(ctx context.Context, auctionID string) (*model.SettlementReceipt, error) {
	var receipt model.SettlementReceipt
	err := e.run(ctx, "settle", func(ctx context.Context, tx repository.Tx, fx *effects) error {
		auction, err := loadAuction(ctx, tx, auctionID)
		if err != nil {
			return err
		}
		switch auction.State(fx.now) {
		case model.AuctionOpen:
			return ErrAuctionOpen
		case model.AuctionSettled:
			return ErrAlreadySettled
		}

		seller, err := loadAccount(ctx, tx, auction.SellerID)
		if err != nil {
			return err
		}

		receipt = model.SettlementReceipt{AuctionID: auction.ID, SellerID: seller.ID, ItemID: auction.ItemID}

		if winnerID := auction.CurrentHighestBidderID; winnerID != "" {
			if seller.Balance, err = addAmount(seller.Balance, auction.CurrentBid); err != nil {
				return err
			}
			receipt.WinnerID = winnerID
			receipt.Amount = auction.CurrentBid

			if auction.ItemID != "" {
				winner, err := loadAccount(ctx, tx, winnerID)
				if err != nil {
					return err
				}
				winner.OwnedItems.Add(auction.ItemID)
				winner.UpdatedAt = fx.now
				if err := tx.PutAccount(ctx, winner); err != nil {
					return err
				}
				fx.record(model.EventSettlement, winner, 0, auction.ID)
			}
		} else if auction.ItemID != "" {
			seller.OwnedItems.Add(auction.ItemID)
		}

		seller.UpdatedAt = fx.now
		if err := tx.PutAccount(ctx, seller); err != nil {
			return err
		}
		fx.record(model.EventSettlement, seller, receipt.Amount, auction.ID)

		settledAt := fx.now
		auction.Status = model.AuctionStatusSettled
		auction.SettledAt = &settledAt
		return tx.PutAuction(ctx, auction)
	})
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// SettleAuction settles one closed auction on behalf of an actor holding the
// settle capability.
func (e *Engine) SettleAuction(ctx context.Context, actorID, auctionID string) (*model.SettlementReceipt, error) {
	if auctionID == "" {
		return nil, ErrInvalidRequest
	}
	if err := e.authorize(ctx, actorID, auth.CapSettleAuctions); err != nil {
		return nil, err
	}
	return e.settle(ctx, auctionID)
}

// SettleDueAuctions is the scheduled sweep: it settles up to limit auctions
// whose end time has passed. Auctions settled concurrently by another sweep
// are skipped. It returns the receipts of the settlements it performed.
func (e *Engine) SettleDueAuctions(ctx context.Context, limit int) ([]*model.SettlementReceipt, error) {
	due, err := e.store.ListDueAuctions(ctx, e.now(), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list due auctions: %w", ErrTransient, err)
	}

	var (
		receipts []*model.SettlementReceipt
		errs     []error
	)
	for _, a := range due {
		r, err := e.settle(ctx, a.ID)
		switch {
		case err == nil:
			metrics.RecordSettlement(true)
			receipts = append(receipts, r)
		case errors.Is(err, ErrAlreadySettled):
		default:
			metrics.RecordSettlement(false)
			e.log.Error("settlement failed", "auction_id", a.ID, "error", err)
			errs = append(errs, fmt.Errorf("auction %s: %w", a.ID, err))
		}
	}
	return receipts, errors.Join(errs...)
}
