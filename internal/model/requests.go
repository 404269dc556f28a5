package model

import "time"

type CreateAccountRequest struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role,omitempty"`
}

type PurchaseRequest struct {
	UserID string `json:"user_id"`
	ItemID string `json:"item_id"`
}

type RedeemRequest struct {
	UserID string `json:"user_id"`
	Code   string `json:"code"`
}

type BidRequest struct {
	AuctionID string `json:"auction_id"`
	BidderID  string `json:"bidder_id"`
	Amount    int64  `json:"amount"`
}

// RewardRequest awards experience or mood points. EventID, when set, makes
// the award idempotent per account.
type RewardRequest struct {
	UserID  string `json:"user_id"`
	Amount  int64  `json:"amount"`
	EventID string `json:"event_id,omitempty"`
}

type InventoryRequest struct {
	UserID string `json:"user_id"`
	ItemID string `json:"item_id"`
}

type CreateAuctionRequest struct {
	SellerID        string    `json:"seller_id"`
	ItemDescription string    `json:"item_description"`
	ItemID          string    `json:"item_id,omitempty"`
	StartingBid     int64     `json:"starting_bid"`
	EndTime         time.Time `json:"end_time"`
}

type PublishItemRequest struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Price  int64    `json:"price"`
	Rarity string   `json:"rarity"`
	Kind   ItemKind `json:"kind"`
}

type IssueCodeRequest struct {
	Code         string   `json:"code"`
	CreditsGrant int64    `json:"credits_grant"`
	ItemGrants   []string `json:"item_grants,omitempty"`
}

type GrantCreditsRequest struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason,omitempty"`
}
