package service

import (
	"context"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
)

// EconomyService defines the business operations of the credits economy.
// All transport layers (HTTP, gRPC, NATS) depend on this interface, not on the concrete engine.
type EconomyService interface {
	CreateAccount(ctx context.Context, actorID string, req model.CreateAccountRequest) (*model.Account, error)
	GetAccount(ctx context.Context, userID string) (*model.Account, error)
	GetBalance(ctx context.Context, userID string) (*model.BalanceView, error)

	Purchase(ctx context.Context, req model.PurchaseRequest) (*model.PurchaseReceipt, error)
	Redeem(ctx context.Context, req model.RedeemRequest) (*model.RedeemReceipt, error)
	PlaceBid(ctx context.Context, req model.BidRequest) (*model.BidReceipt, error)
	AwardXp(ctx context.Context, actorID string, req model.RewardRequest) (*model.XpReceipt, error)
	AwardMood(ctx context.Context, actorID string, req model.RewardRequest) (*model.XpReceipt, error)

	Equip(ctx context.Context, req model.InventoryRequest) (*model.Account, error)
	Consume(ctx context.Context, req model.InventoryRequest) (*model.Account, error)

	CreateAuction(ctx context.Context, req model.CreateAuctionRequest) (*model.Auction, error)
	GetAuction(ctx context.Context, id string) (*model.Auction, error)
	SettleAuction(ctx context.Context, actorID, auctionID string) (*model.SettlementReceipt, error)

	PublishItem(ctx context.Context, actorID string, req model.PublishItemRequest) (*model.CatalogItem, error)
	IssueCode(ctx context.Context, actorID string, req model.IssueCodeRequest) (*model.RedemptionCode, error)
	GrantCredits(ctx context.Context, actorID string, req model.GrantCreditsRequest) (*model.BalanceView, error)
	PurgeSettledAuctions(ctx context.Context, actorID string) (int, error)
}
