package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/service"
)

type Handler struct {
	svc service.EconomyService
}

func NewHandler(svc service.EconomyService) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.Health)

	mux.HandleFunc("POST /accounts", h.CreateAccount)
	mux.HandleFunc("GET /accounts/{id}", h.GetAccount)
	mux.HandleFunc("GET /accounts/{id}/balance", h.GetBalance)

	mux.HandleFunc("POST /purchases", h.Purchase)
	mux.HandleFunc("POST /redemptions", h.Redeem)

	mux.HandleFunc("POST /auctions", h.CreateAuction)
	mux.HandleFunc("GET /auctions/{id}", h.GetAuction)
	mux.HandleFunc("POST /auctions/{id}/bids", h.PlaceBid)
	mux.HandleFunc("POST /auctions/{id}/settle", h.SettleAuction)

	mux.HandleFunc("POST /rewards/xp", h.AwardXp)
	mux.HandleFunc("POST /rewards/mood", h.AwardMood)

	mux.HandleFunc("POST /inventory/equip", h.Equip)
	mux.HandleFunc("POST /inventory/consume", h.Consume)

	mux.HandleFunc("POST /admin/items", h.PublishItem)
	mux.HandleFunc("POST /admin/codes", h.IssueCode)
	mux.HandleFunc("POST /admin/grants", h.GrantCredits)
	mux.HandleFunc("DELETE /admin/auctions/settled", h.PurgeSettledAuctions)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// CreateAccount registers the caller. Operators holding manage_roles may
// name another user or role in the body.
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req model.CreateAccountRequest
	if !decode(w, r, &req) {
		return
	}
	if req.UserID == "" {
		req.UserID = caller
	}
	acc, err := h.svc.CreateAccount(r.Context(), caller, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, acc)
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := h.svc.GetAccount(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, accountView{Account: acc, Level: acc.Level(), MoodLevel: acc.MoodLevel()})
}

type accountView struct {
	*model.Account
	Level     int64 `json:"level"`
	MoodLevel int64 `json:"mood_level"`
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetBalance(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	var req model.PurchaseRequest
	if !h.decodeAs(w, r, &req, &req.UserID) {
		return
	}
	res, err := h.svc.Purchase(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req model.RedeemRequest
	if !h.decodeAs(w, r, &req, &req.UserID) {
		return
	}
	res, err := h.svc.Redeem(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) CreateAuction(w http.ResponseWriter, r *http.Request) {
	var req model.CreateAuctionRequest
	if !h.decodeAs(w, r, &req, &req.SellerID) {
		return
	}
	a, err := h.svc.CreateAuction(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, a)
}

func (h *Handler) GetAuction(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.GetAuction(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (h *Handler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	var req model.BidRequest
	if !h.decodeAs(w, r, &req, &req.BidderID) {
		return
	}
	req.AuctionID = r.PathValue("id")
	res, err := h.svc.PlaceBid(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) SettleAuction(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.SettleAuction(r.Context(), UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) AwardXp(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req model.RewardRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.AwardXp(r.Context(), caller, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) AwardMood(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req model.RewardRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.svc.AwardMood(r.Context(), caller, req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, res)
}

func (h *Handler) Equip(w http.ResponseWriter, r *http.Request) {
	var req model.InventoryRequest
	if !h.decodeAs(w, r, &req, &req.UserID) {
		return
	}
	acc, err := h.svc.Equip(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, acc)
}

func (h *Handler) Consume(w http.ResponseWriter, r *http.Request) {
	var req model.InventoryRequest
	if !h.decodeAs(w, r, &req, &req.UserID) {
		return
	}
	acc, err := h.svc.Consume(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, acc)
}

func (h *Handler) PublishItem(w http.ResponseWriter, r *http.Request) {
	var req model.PublishItemRequest
	if !decode(w, r, &req) {
		return
	}
	item, err := h.svc.PublishItem(r.Context(), UserID(r.Context()), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, item)
}

func (h *Handler) IssueCode(w http.ResponseWriter, r *http.Request) {
	var req model.IssueCodeRequest
	if !decode(w, r, &req) {
		return
	}
	rc, err := h.svc.IssueCode(r.Context(), UserID(r.Context()), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, rc)
}

func (h *Handler) GrantCredits(w http.ResponseWriter, r *http.Request) {
	var req model.GrantCreditsRequest
	if !decode(w, r, &req) {
		return
	}
	view, err := h.svc.GrantCredits(r.Context(), UserID(r.Context()), req)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (h *Handler) PurgeSettledAuctions(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.PurgeSettledAuctions(r.Context(), UserID(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"purged": n})
}

// decodeAs decodes the body and binds the caller identity into *owner.
// Anonymous callers are rejected, and a body naming someone else is
// overridden: users only act on their own account.
func (h *Handler) decodeAs(w http.ResponseWriter, r *http.Request, v any, owner *string) bool {
	caller, ok := requireCaller(w, r)
	if !ok {
		return false
	}
	if !decode(w, r, v) {
		return false
	}
	*owner = caller
	return true
}

func requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := UserID(r.Context())
	if caller == "" {
		respondJSON(w, http.StatusUnauthorized, apiError{Code: "unauthenticated", Message: "Please sign in first."})
		return "", false
	}
	return caller, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondJSON(w, http.StatusBadRequest, apiError{Code: "invalid_json", Message: "The request body is not valid JSON."})
		return false
	}
	return true
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := toAPIError(err)
	if apiErr.status >= http.StatusInternalServerError {
		slog.Error("http: request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	}
	if apiErr.status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "1")
	}
	respondJSON(w, apiErr.status, apiErr)
}
