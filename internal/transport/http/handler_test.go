package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/ledger"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/repository"
)

const admin = "ops"

func newTestRouter(t *testing.T, limiter *RateLimiter) http.Handler {
	t.Helper()
	engine := ledger.New(repository.NewMemoryStore(), nil, nil, ledger.Config{}, nil)
	require.NoError(t, engine.SeedAccount(context.Background(), admin, model.RoleAdmin))
	return NewRouter(engine, limiter)
}

func do(t *testing.T, h http.Handler, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if user != "" {
		req.Header.Set(UserIDHeader, user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	h := newTestRouter(t, nil)
	rec := do(t, h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestPurchaseFlow(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, http.MethodPost, "/accounts", "alice", map[string]string{})
	require.Equal(t, http.StatusCreated, rec.Code)
	acc := decodeBody[model.Account](t, rec)
	assert.Equal(t, "alice", acc.ID)
	assert.Equal(t, int64(30), acc.Balance)

	rec = do(t, h, http.MethodPost, "/admin/items", admin, model.PublishItemRequest{ID: "hat", Name: "Hat", Price: 30})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, h, http.MethodPost, "/admin/items", admin, model.PublishItemRequest{ID: "cape", Name: "Cape", Price: 5})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/purchases", "alice", map[string]string{"item_id": "hat"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), decodeBody[model.PurchaseReceipt](t, rec).NewBalance)

	rec = do(t, h, http.MethodPost, "/purchases", "alice", map[string]string{"item_id": "cape"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	apiErr := decodeBody[apiError](t, rec)
	assert.Equal(t, "insufficient_funds", apiErr.Code)
	assert.NotEmpty(t, apiErr.Message)

	rec = do(t, h, http.MethodGet, "/accounts/alice/balance", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(0), decodeBody[model.BalanceView](t, rec).Balance)

	rec = do(t, h, http.MethodGet, "/accounts/alice", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[map[string]any](t, rec)
	assert.EqualValues(t, 1, view["level"])
}

func TestPurchase_BodyCannotActForAnotherUser(t *testing.T) {
	h := newTestRouter(t, nil)
	do(t, h, http.MethodPost, "/accounts", "alice", map[string]string{})
	do(t, h, http.MethodPost, "/accounts", "bob", map[string]string{})
	do(t, h, http.MethodPost, "/admin/items", admin, model.PublishItemRequest{ID: "hat", Name: "Hat", Price: 10})

	rec := do(t, h, http.MethodPost, "/purchases", "mallory", model.PurchaseRequest{UserID: "alice", ItemID: "hat"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "account_not_found", decodeBody[apiError](t, rec).Code)

	rec = do(t, h, http.MethodGet, "/accounts/alice/balance", "", nil)
	assert.Equal(t, int64(30), decodeBody[model.BalanceView](t, rec).Balance)
}

func TestRedeemTwice(t *testing.T) {
	h := newTestRouter(t, nil)
	do(t, h, http.MethodPost, "/accounts", "alice", map[string]string{})

	rec := do(t, h, http.MethodPost, "/admin/codes", admin, model.IssueCodeRequest{Code: "spring", CreditsGrant: 50})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodPost, "/redemptions", "alice", map[string]string{"code": "SPRING"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(80), decodeBody[model.RedeemReceipt](t, rec).NewBalance)

	rec = do(t, h, http.MethodPost, "/redemptions", "alice", map[string]string{"code": "spring"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_redeemed", decodeBody[apiError](t, rec).Code)

	rec = do(t, h, http.MethodPost, "/redemptions", "alice", map[string]string{"code": "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuctionBidding(t *testing.T) {
	h := newTestRouter(t, nil)
	for _, u := range []string{"seller", "alice", "bob"} {
		do(t, h, http.MethodPost, "/accounts", u, map[string]string{})
	}

	rec := do(t, h, http.MethodPost, "/auctions", "seller", model.CreateAuctionRequest{
		ItemDescription: "signed poster",
		StartingBid:     10,
		EndTime:         time.Now().Add(time.Hour),
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	auction := decodeBody[model.Auction](t, rec)
	assert.Equal(t, "seller", auction.SellerID)

	bidPath := fmt.Sprintf("/auctions/%s/bids", auction.ID)

	rec = do(t, h, http.MethodPost, bidPath, "alice", map[string]int64{"amount": 20})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(20), decodeBody[model.BidReceipt](t, rec).NewCurrentBid)

	rec = do(t, h, http.MethodPost, bidPath, "bob", map[string]int64{"amount": 20})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "bid_too_low", decodeBody[apiError](t, rec).Code)

	rec = do(t, h, http.MethodPost, bidPath, "bob", map[string]int64{"amount": 25})
	require.Equal(t, http.StatusOK, rec.Code)
	receipt := decodeBody[model.BidReceipt](t, rec)
	assert.Equal(t, "alice", receipt.RefundedBidderID)

	rec = do(t, h, http.MethodPost, bidPath, "seller", map[string]int64{"amount": 26})
	assert.Equal(t, "self_bid", decodeBody[apiError](t, rec).Code)

	rec = do(t, h, http.MethodPost, fmt.Sprintf("/auctions/%s/settle", auction.ID), admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "auction_open", decodeBody[apiError](t, rec).Code)

	rec = do(t, h, http.MethodGet, "/auctions/"+auction.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "bob", decodeBody[model.Auction](t, rec).CurrentHighestBidderID)
}

func TestRewards(t *testing.T) {
	h := newTestRouter(t, nil)
	do(t, h, http.MethodPost, "/accounts", "alice", map[string]string{})

	daily := model.RewardRequest{UserID: "alice", Amount: 1500, EventID: "daily"}
	rec := do(t, h, http.MethodPost, "/rewards/xp", admin, daily)
	require.Equal(t, http.StatusOK, rec.Code)
	r := decodeBody[model.XpReceipt](t, rec)
	assert.Equal(t, int64(2), r.Level)
	assert.True(t, r.Applied)

	rec = do(t, h, http.MethodPost, "/rewards/xp", admin, daily)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decodeBody[model.XpReceipt](t, rec).Applied)

	rec = do(t, h, http.MethodPost, "/rewards/mood", admin, model.RewardRequest{UserID: "alice", Amount: 50})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2), decodeBody[model.XpReceipt](t, rec).MoodLevel)
}

func TestRewards_PlayersCannotAwardThemselves(t *testing.T) {
	h := newTestRouter(t, nil)
	do(t, h, http.MethodPost, "/accounts", "alice", map[string]string{})

	for _, path := range []string{"/rewards/xp", "/rewards/mood"} {
		rec := do(t, h, http.MethodPost, path, "alice", model.RewardRequest{UserID: "alice", Amount: math.MaxInt64})
		assert.Equal(t, http.StatusForbidden, rec.Code, path)
		assert.Equal(t, "forbidden", decodeBody[apiError](t, rec).Code)

		rec = do(t, h, http.MethodPost, path, "", model.RewardRequest{UserID: "alice", Amount: 10})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := do(t, h, http.MethodGet, "/accounts/alice", "alice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	acc := decodeBody[model.Account](t, rec)
	assert.Zero(t, acc.Experience)
	assert.Zero(t, acc.MoodPoints)
}

func TestCreateAccount_OnlyForCaller(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, http.MethodPost, "/accounts", "", model.CreateAccountRequest{UserID: "bob"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPost, "/accounts", "mallory", model.CreateAccountRequest{UserID: "bob"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/accounts/bob", "", nil).Code)

	rec = do(t, h, http.MethodPost, "/accounts", "bob", map[string]string{})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "bob", decodeBody[model.Account](t, rec).ID)

	rec = do(t, h, http.MethodPost, "/accounts", admin, model.CreateAccountRequest{UserID: "carol"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "carol", decodeBody[model.Account](t, rec).ID)
}

func TestAdminRoutes_Forbidden(t *testing.T) {
	h := newTestRouter(t, nil)
	do(t, h, http.MethodPost, "/accounts", "alice", map[string]string{})

	rec := do(t, h, http.MethodPost, "/admin/grants", "alice", model.GrantCreditsRequest{UserID: "alice", Amount: 1000})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodDelete, "/admin/auctions/settled", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, h, http.MethodPost, "/admin/grants", admin, model.GrantCreditsRequest{UserID: "alice", Amount: 1000})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1030), decodeBody[model.BalanceView](t, rec).Balance)

	rec = do(t, h, http.MethodDelete, "/admin/auctions/settled", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]int{"purged": 0}, decodeBody[map[string]int](t, rec))
}

func TestBadRequests(t *testing.T) {
	h := newTestRouter(t, nil)

	rec := do(t, h, http.MethodPost, "/purchases", "", map[string]string{"item_id": "hat"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/purchases", bytes.NewBufferString("{"))
	req.Header.Set(UserIDHeader, "alice")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid_json", decodeBody[apiError](t, rr).Code)

	do(t, h, http.MethodPost, "/accounts", "alice", map[string]string{})
	rec = do(t, h, http.MethodPost, "/rewards/xp", admin, model.RewardRequest{UserID: "alice", Amount: -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_amount", decodeBody[apiError](t, rec).Code)
}

func TestRateLimit(t *testing.T) {
	h := newTestRouter(t, NewRateLimiter(0.001, 2))

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "alice", nil).Code)
	}
	rec := do(t, h, http.MethodGet, "/health", "alice", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// other callers have their own bucket
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "bob", nil).Code)
}

func TestToAPIError(t *testing.T) {
	transient := fmt.Errorf("%w: purchase conflicted 5 times", ledger.ErrTransient)
	assert.Equal(t, http.StatusServiceUnavailable, toAPIError(transient).status)
	assert.Equal(t, http.StatusInternalServerError, toAPIError(fmt.Errorf("boom")).status)

	seen := make(map[string]bool)
	for _, e := range errorTable {
		assert.False(t, seen[e.Message], "duplicate message %q", e.Message)
		seen[e.Message] = true
	}
}
