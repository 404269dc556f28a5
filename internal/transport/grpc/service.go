package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
)

const (
	economyServiceName = "economy.EconomyService"
	eventServiceName   = "economy.EventService"
)

// EconomyServer is the server API of economy.EconomyService.
type EconomyServer interface {
	Purchase(context.Context, *model.PurchaseRequest) (*model.PurchaseReceipt, error)
	Redeem(context.Context, *model.RedeemRequest) (*model.RedeemReceipt, error)
	PlaceBid(context.Context, *model.BidRequest) (*model.BidReceipt, error)
	AwardXp(context.Context, *model.RewardRequest) (*model.XpReceipt, error)
	AwardMood(context.Context, *model.RewardRequest) (*model.XpReceipt, error)
}

// EventRequest carries one encoded message for a topic.
type EventRequest struct {
	Topic   string `json:"topic"`
	Payload []byte `json:"payload"`
}

type EventResponse struct {
	Success bool `json:"success"`
}

// EventServer is the server API of economy.EventService.
type EventServer interface {
	Publish(context.Context, *EventRequest) (*EventResponse, error)
}

var economyServiceDesc = grpc.ServiceDesc{
	ServiceName: economyServiceName,
	HandlerType: (*EconomyServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(economyServiceName, "Purchase", EconomyServer.Purchase),
		unary(economyServiceName, "Redeem", EconomyServer.Redeem),
		unary(economyServiceName, "PlaceBid", EconomyServer.PlaceBid),
		unary(economyServiceName, "AwardXp", EconomyServer.AwardXp),
		unary(economyServiceName, "AwardMood", EconomyServer.AwardMood),
	},
}

var eventServiceDesc = grpc.ServiceDesc{
	ServiceName: eventServiceName,
	HandlerType: (*EventServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(eventServiceName, "Publish", EventServer.Publish),
	},
}

// unary adapts a typed method to the grpc handler signature.
func unary[S, Req, Res any](service, method string, call func(S, context.Context, *Req) (*Res, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(S), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod(service, method),
			}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(S), ctx, req.(*Req))
			})
		},
	}
}

func fullMethod(service, method string) string {
	return "/" + service + "/" + method
}
