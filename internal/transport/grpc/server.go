package grpc

import (
	"context"
	"errors"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/ledger"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/repository"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/service"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/worker"
)

// Server exposes the ledger operations to trusted internal callers. When a
// recorder is given it also serves economy.EventService and acts as the
// audit worker for events published over gRPC.
type Server struct {
	svc      service.EconomyService
	recorder worker.AuditRecorder
	srv      *grpc.Server
	addr     string
}

func NewServer(addr string, svc service.EconomyService, recorder worker.AuditRecorder) *Server {
	s := &Server{svc: svc, recorder: recorder, addr: addr, srv: grpc.NewServer()}
	s.srv.RegisterService(&economyServiceDesc, s)
	if recorder != nil {
		s.srv.RegisterService(&eventServiceDesc, s)
	}
	return s
}

func (s *Server) Start(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(lis)
}

// Serve accepts connections on lis until Stop is called.
func (s *Server) Serve(lis net.Listener) error {
	if err := s.srv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	s.srv.GracefulStop()
	return nil
}

func (s *Server) Purchase(ctx context.Context, req *model.PurchaseRequest) (*model.PurchaseReceipt, error) {
	res, err := s.svc.Purchase(ctx, *req)
	return res, toStatus(err)
}

func (s *Server) Redeem(ctx context.Context, req *model.RedeemRequest) (*model.RedeemReceipt, error) {
	res, err := s.svc.Redeem(ctx, *req)
	return res, toStatus(err)
}

func (s *Server) PlaceBid(ctx context.Context, req *model.BidRequest) (*model.BidReceipt, error) {
	res, err := s.svc.PlaceBid(ctx, *req)
	return res, toStatus(err)
}

func (s *Server) AwardXp(ctx context.Context, req *model.RewardRequest) (*model.XpReceipt, error) {
	res, err := s.svc.AwardXp(ctx, callerID(ctx), *req)
	return res, toStatus(err)
}

func (s *Server) AwardMood(ctx context.Context, req *model.RewardRequest) (*model.XpReceipt, error) {
	res, err := s.svc.AwardMood(ctx, callerID(ctx), *req)
	return res, toStatus(err)
}

// callerID returns the acting account sent in the request metadata.
func callerID(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	if v := md.Get(userIDKey); len(v) > 0 {
		return v[0]
	}
	return ""
}

// Publish receives ledger events forwarded by a remote GrpcBus and records
// them in the audit trail.
func (s *Server) Publish(ctx context.Context, req *EventRequest) (*EventResponse, error) {
	if req.Topic != repository.EventsTopic {
		return nil, status.Errorf(codes.InvalidArgument, "unknown topic %q", req.Topic)
	}
	if err := worker.RecordPayload(ctx, s.recorder, req.Payload); err != nil {
		return &EventResponse{Success: false}, status.Error(codes.Internal, err.Error())
	}
	return &EventResponse{Success: true}, nil
}

var statusTable = []struct {
	err  error
	code codes.Code
}{
	{ledger.ErrInvalidRequest, codes.InvalidArgument},
	{ledger.ErrInvalidAmount, codes.InvalidArgument},
	{ledger.ErrAccountNotFound, codes.NotFound},
	{ledger.ErrItemNotFound, codes.NotFound},
	{ledger.ErrCodeNotFound, codes.NotFound},
	{ledger.ErrAuctionNotFound, codes.NotFound},
	{ledger.ErrAlreadyOwned, codes.AlreadyExists},
	{ledger.ErrAlreadyRedeemed, codes.AlreadyExists},
	{ledger.ErrAlreadySettled, codes.AlreadyExists},
	{ledger.ErrAccountExists, codes.AlreadyExists},
	{ledger.ErrItemExists, codes.AlreadyExists},
	{ledger.ErrCodeExists, codes.AlreadyExists},
	{ledger.ErrForbidden, codes.PermissionDenied},
	{ledger.ErrTransient, codes.Unavailable},
}

// toStatus maps ledger errors onto gRPC codes. Remaining validation errors
// (insufficient funds, bid too low, closed auction...) are preconditions.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	for _, e := range statusTable {
		if errors.Is(err, e.err) {
			return status.Error(e.code, err.Error())
		}
	}
	if ledger.IsValidation(err) {
		return status.Error(codes.FailedPrecondition, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
