package model

import "time"

// EventKind identifies the ledger operation behind a LedgerEvent.
type EventKind string

const (
	EventAccountCreated EventKind = "account_created"
	EventPurchase       EventKind = "purchase"
	EventRedeem         EventKind = "redeem"
	EventBidHold        EventKind = "bid_hold"
	EventBidRefund      EventKind = "bid_refund"
	EventSettlement     EventKind = "settlement"
	EventXpAward        EventKind = "xp_award"
	EventMoodAward      EventKind = "mood_award"
	EventGrant          EventKind = "grant"
	EventConsume        EventKind = "consume"
)

// LedgerEvent is published after a ledger operation commits. Delta is the
// signed change to the account balance.
type LedgerEvent struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	AccountID string    `json:"account_id"`
	Delta     int64     `json:"delta"`
	Balance   int64     `json:"balance"`
	Reference string    `json:"reference,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
