package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
)

// userIDKey is the metadata key naming the acting account. Reward awards
// require an actor holding the award capability.
const userIDKey = "x-user-id"

// WithCaller attaches the acting account to outgoing calls made with ctx.
func WithCaller(ctx context.Context, userID string) context.Context {
	return metadata.AppendToOutgoingContext(ctx, userIDKey, userID)
}

// Client calls a remote economy.EconomyService.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func (c *Client) Purchase(ctx context.Context, req model.PurchaseRequest) (*model.PurchaseReceipt, error) {
	return invoke[model.PurchaseReceipt](ctx, c.conn, "Purchase", req)
}

func (c *Client) Redeem(ctx context.Context, req model.RedeemRequest) (*model.RedeemReceipt, error) {
	return invoke[model.RedeemReceipt](ctx, c.conn, "Redeem", req)
}

func (c *Client) PlaceBid(ctx context.Context, req model.BidRequest) (*model.BidReceipt, error) {
	return invoke[model.BidReceipt](ctx, c.conn, "PlaceBid", req)
}

func (c *Client) AwardXp(ctx context.Context, req model.RewardRequest) (*model.XpReceipt, error) {
	return invoke[model.XpReceipt](ctx, c.conn, "AwardXp", req)
}

func (c *Client) AwardMood(ctx context.Context, req model.RewardRequest) (*model.XpReceipt, error) {
	return invoke[model.XpReceipt](ctx, c.conn, "AwardMood", req)
}

func invoke[Res any](ctx context.Context, conn grpc.ClientConnInterface, method string, req any) (*Res, error) {
	out := new(Res)
	if err := conn.Invoke(ctx, fullMethod(economyServiceName, method), req, out, grpc.CallContentSubtype(codecName)); err != nil {
		return nil, err
	}
	return out, nil
}
