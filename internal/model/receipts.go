package model

type PurchaseReceipt struct {
	ItemID     string `json:"item_id"`
	NewBalance int64  `json:"new_balance"`
}

type RedeemReceipt struct {
	Code           string   `json:"code"`
	CreditsGranted int64    `json:"credits_granted"`
	ItemsGranted   []string `json:"items_granted"`
	NewBalance     int64    `json:"new_balance"`
}

type BidReceipt struct {
	AuctionID        string `json:"auction_id"`
	NewCurrentBid    int64  `json:"new_current_bid"`
	BidCount         int64  `json:"bid_count"`
	NewBalance       int64  `json:"new_balance"`
	RefundedBidderID string `json:"refunded_bidder_id,omitempty"`
	RefundedAmount   int64  `json:"refunded_amount,omitempty"`
}

// XpReceipt is returned by experience and mood awards. Applied is false when
// the event id was already recorded and the award was skipped.
type XpReceipt struct {
	Experience int64 `json:"experience"`
	Level      int64 `json:"level"`
	MoodPoints int64 `json:"mood_points"`
	MoodLevel  int64 `json:"mood_level"`
	Applied    bool  `json:"applied"`
}

type SettlementReceipt struct {
	AuctionID string `json:"auction_id"`
	WinnerID  string `json:"winner_id,omitempty"`
	SellerID  string `json:"seller_id"`
	Amount    int64  `json:"amount"`
	ItemID    string `json:"item_id,omitempty"`
}

type BalanceView struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}
