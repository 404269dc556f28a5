package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/repository"
)

// PlaceBid raises the current bid on an open auction. The bid amount is held
// from the bidder's balance and the previous highest bidder is refunded in
// the same transaction. A bidder raising their own bid pays the difference.
// Bids must strictly exceed the current bid, so of two equal concurrent bids
// only the first to commit wins; the other re-runs and fails with
// ErrBidTooLow.
func (e *Engine) PlaceBid(ctx context.Context, req model.BidRequest) (*model.BidReceipt, error) {
	if req.AuctionID == "" || req.BidderID == "" {
		return nil, ErrInvalidRequest
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}

	var receipt model.BidReceipt
	err := e.run(ctx, "bid", func(ctx context.Context, tx repository.Tx, fx *effects) error {
		auction, err := loadAuction(ctx, tx, req.AuctionID)
		if err != nil {
			return err
		}
		if auction.State(fx.now) != model.AuctionOpen {
			return ErrAuctionClosed
		}
		if auction.SellerID == req.BidderID {
			return ErrSelfBid
		}
		if req.Amount <= auction.CurrentBid {
			return ErrBidTooLow
		}

		bidder, err := loadAccount(ctx, tx, req.BidderID)
		if err != nil {
			return err
		}

		prevID := auction.CurrentHighestBidderID
		var held int64
		if prevID != "" {
			held = auction.CurrentBid
		}

		receipt = model.BidReceipt{AuctionID: auction.ID}
		var delta int64
		if prevID == bidder.ID {
			available, err := addAmount(bidder.Balance, held)
			if err != nil {
				return err
			}
			if available < req.Amount {
				return ErrInsufficientFunds
			}
			delta = held - req.Amount
		} else {
			if bidder.Balance < req.Amount {
				return ErrInsufficientFunds
			}
			delta = -req.Amount

			if prevID != "" {
				prev, err := loadAccount(ctx, tx, prevID)
				if err != nil {
					return err
				}
				if prev.Balance, err = addAmount(prev.Balance, held); err != nil {
					return err
				}
				prev.UpdatedAt = fx.now
				if err := tx.PutAccount(ctx, prev); err != nil {
					return err
				}
				fx.record(model.EventBidRefund, prev, held, auction.ID)
				receipt.RefundedBidderID = prev.ID
				receipt.RefundedAmount = held
			}
		}

		if bidder.Balance, err = addAmount(bidder.Balance, delta); err != nil {
			return err
		}
		bidder.UpdatedAt = fx.now
		if err := tx.PutAccount(ctx, bidder); err != nil {
			return err
		}

		auction.CurrentBid = req.Amount
		auction.CurrentHighestBidderID = bidder.ID
		auction.BidCount++
		if err := tx.PutAuction(ctx, auction); err != nil {
			return err
		}

		fx.record(model.EventBidHold, bidder, delta, auction.ID)
		receipt.NewCurrentBid = auction.CurrentBid
		receipt.BidCount = auction.BidCount
		receipt.NewBalance = bidder.Balance
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// CreateAuction opens an auction for the seller. When ItemID is set the item
// moves out of the seller's inventory into the auction until settlement.
func (e *Engine) CreateAuction(ctx context.Context, req model.CreateAuctionRequest) (*model.Auction, error) {
	if req.SellerID == "" || req.ItemDescription == "" {
		return nil, ErrInvalidRequest
	}
	if req.StartingBid < 0 {
		return nil, ErrInvalidAmount
	}

	id := uuid.NewString()
	var created model.Auction
	err := e.run(ctx, "create_auction", func(ctx context.Context, tx repository.Tx, fx *effects) error {
		if !req.EndTime.After(fx.now) {
			return fmt.Errorf("%w: end time must be in the future", ErrInvalidRequest)
		}
		seller, err := loadAccount(ctx, tx, req.SellerID)
		if err != nil {
			return err
		}
		if req.ItemID != "" {
			if !seller.OwnedItems.Remove(req.ItemID) {
				return ErrNotOwned
			}
			if seller.EquippedCosmetic == req.ItemID {
				seller.EquippedCosmetic = ""
			}
			seller.UpdatedAt = fx.now
			if err := tx.PutAccount(ctx, seller); err != nil {
				return err
			}
		}

		created = model.Auction{
			ID:              id,
			ItemDescription: req.ItemDescription,
			ItemID:          req.ItemID,
			SellerID:        seller.ID,
			StartingBid:     req.StartingBid,
			CurrentBid:      req.StartingBid,
			EndTime:         req.EndTime.UTC(),
			Status:          model.AuctionStatusOpen,
			CreatedAt:       fx.now,
		}
		return tx.InsertAuction(ctx, &created)
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// GetAuction is a display read outside any transaction.
func (e *Engine) GetAuction(ctx context.Context, id string) (*model.Auction, error) {
	a, err := e.store.GetAuction(ctx, id)
	if err != nil {
		return nil, displayErr(err, ErrAuctionNotFound)
	}
	return a, nil
}
