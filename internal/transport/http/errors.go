package http

import (
	"errors"
	"net/http"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/ledger"
)

// apiError is what clients see for a failed operation. Code is stable and
// machine readable; Message is meant to be shown to the user.
type apiError struct {
	status  int
	Code    string `json:"error"`
	Message string `json:"message"`
}

var errorTable = []struct {
	err error
	apiError
}{
	{ledger.ErrInsufficientFunds, apiError{http.StatusUnprocessableEntity, "insufficient_funds", "You don't have enough credits for this."}},
	{ledger.ErrAlreadyOwned, apiError{http.StatusConflict, "already_owned", "You already own this item."}},
	{ledger.ErrItemNotFound, apiError{http.StatusNotFound, "item_not_found", "This item is not in the catalog."}},
	{ledger.ErrItemExists, apiError{http.StatusConflict, "item_exists", "An item with this id is already published."}},
	{ledger.ErrCodeNotFound, apiError{http.StatusNotFound, "code_not_found", "This code does not exist."}},
	{ledger.ErrCodeExists, apiError{http.StatusConflict, "code_exists", "This code has already been issued."}},
	{ledger.ErrAlreadyRedeemed, apiError{http.StatusConflict, "already_redeemed", "You have already redeemed this code."}},
	{ledger.ErrBidTooLow, apiError{http.StatusConflict, "bid_too_low", "Your bid must be higher than the current bid."}},
	{ledger.ErrAuctionClosed, apiError{http.StatusConflict, "auction_closed", "This auction has ended."}},
	{ledger.ErrAuctionNotFound, apiError{http.StatusNotFound, "auction_not_found", "This auction does not exist."}},
	{ledger.ErrAuctionOpen, apiError{http.StatusConflict, "auction_open", "This auction has not ended yet."}},
	{ledger.ErrAlreadySettled, apiError{http.StatusConflict, "already_settled", "This auction has already been settled."}},
	{ledger.ErrSelfBid, apiError{http.StatusUnprocessableEntity, "self_bid", "You cannot bid on your own auction."}},
	{ledger.ErrAccountNotFound, apiError{http.StatusNotFound, "account_not_found", "Account not found."}},
	{ledger.ErrAccountExists, apiError{http.StatusConflict, "account_exists", "This account already exists."}},
	{ledger.ErrNotOwned, apiError{http.StatusUnprocessableEntity, "not_owned", "You don't own this item."}},
	{ledger.ErrNotEquippable, apiError{http.StatusUnprocessableEntity, "not_equippable", "This item cannot be equipped."}},
	{ledger.ErrNotConsumable, apiError{http.StatusUnprocessableEntity, "not_consumable", "This item cannot be used."}},
	{ledger.ErrInvalidAmount, apiError{http.StatusBadRequest, "invalid_amount", "The amount is not valid."}},
	{ledger.ErrInvalidRequest, apiError{http.StatusBadRequest, "invalid_request", "The request is missing or has invalid fields."}},
	{ledger.ErrForbidden, apiError{http.StatusForbidden, "forbidden", "You are not allowed to do this."}},
	{ledger.ErrTransient, apiError{http.StatusServiceUnavailable, "temporarily_unavailable", "Something went wrong on our side, please try again."}},
}

var errInternal = apiError{http.StatusInternalServerError, "internal", "Unexpected error."}

func toAPIError(err error) apiError {
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			return e.apiError
		}
	}
	return errInternal
}
