package ledger

import (
	"errors"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/auth"
)

// Validation errors. They are deterministic, leave every record untouched
// and are safe to retry once the caller has fixed the condition.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyOwned      = errors.New("item already owned")
	ErrItemNotFound      = errors.New("item not found")
	ErrItemExists        = errors.New("item already published")
	ErrCodeNotFound      = errors.New("redemption code not found")
	ErrCodeExists        = errors.New("redemption code already issued")
	ErrAlreadyRedeemed   = errors.New("code already redeemed")
	ErrBidTooLow         = errors.New("bid too low")
	ErrAuctionClosed     = errors.New("auction closed")
	ErrAuctionNotFound   = errors.New("auction not found")
	ErrAuctionOpen       = errors.New("auction still open")
	ErrAlreadySettled    = errors.New("auction already settled")
	ErrSelfBid           = errors.New("cannot bid on own auction")
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountExists     = errors.New("account already exists")
	ErrNotOwned          = errors.New("item not owned")
	ErrNotEquippable     = errors.New("item cannot be equipped")
	ErrNotConsumable     = errors.New("item cannot be consumed")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrForbidden         = auth.ErrForbidden
)

// ErrTransient covers conflict-retry exhaustion and storage failures. The
// operation may or may not have been applied; callers retry with backoff.
var ErrTransient = errors.New("temporarily unavailable, retry later")

var validationErrors = []error{
	ErrInsufficientFunds,
	ErrAlreadyOwned,
	ErrItemNotFound,
	ErrItemExists,
	ErrCodeNotFound,
	ErrCodeExists,
	ErrAlreadyRedeemed,
	ErrBidTooLow,
	ErrAuctionClosed,
	ErrAuctionNotFound,
	ErrAuctionOpen,
	ErrAlreadySettled,
	ErrSelfBid,
	ErrAccountNotFound,
	ErrAccountExists,
	ErrNotOwned,
	ErrNotEquippable,
	ErrNotConsumable,
	ErrInvalidAmount,
	ErrInvalidRequest,
	ErrForbidden,
}

// IsValidation reports whether err is one of the validation errors.
func IsValidation(err error) bool {
	for _, v := range validationErrors {
		if errors.Is(err, v) {
			return true
		}
	}
	return false
}
