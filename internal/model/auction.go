package model

import "time"

type AuctionStatus string

const (
	AuctionStatusOpen    AuctionStatus = "open"
	AuctionStatusSettled AuctionStatus = "settled"
)

// AuctionState is the lifecycle position of an auction at a given instant.
type AuctionState int

const (
	AuctionOpen AuctionState = iota
	AuctionClosed
	AuctionSettled
)

func (s AuctionState) String() string {
	switch s {
	case AuctionOpen:
		return "open"
	case AuctionClosed:
		return "closed"
	case AuctionSettled:
		return "settled"
	}
	return "unknown"
}

type Auction struct {
	ID                     string        `json:"id"`
	ItemDescription        string        `json:"item_description"`
	ItemID                 string        `json:"item_id,omitempty"`
	SellerID               string        `json:"seller_id"`
	StartingBid            int64         `json:"starting_bid"`
	CurrentBid             int64         `json:"current_bid"`
	CurrentHighestBidderID string        `json:"current_highest_bidder_id,omitempty"`
	EndTime                time.Time     `json:"end_time"`
	BidCount               int64         `json:"bid_count"`
	Status                 AuctionStatus `json:"status"`
	SettledAt              *time.Time    `json:"settled_at,omitempty"`
	CreatedAt              time.Time     `json:"created_at"`
}

// State reports Open until EndTime, Closed afterwards and Settled once the
// settlement has run.
func (a *Auction) State(now time.Time) AuctionState {
	if a.Status == AuctionStatusSettled {
		return AuctionSettled
	}
	if now.Before(a.EndTime) {
		return AuctionOpen
	}
	return AuctionClosed
}
