package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/ledger"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/service"
)

const (
	SubjectPurchase = "commands.purchase"
	SubjectRedeem   = "commands.redeem"
	SubjectBid      = "commands.bid"
	SubjectXp       = "commands.xp"
	SubjectMood     = "commands.mood"

	// UserIDHeader names the acting account on command messages.
	UserIDHeader = "X-User-ID"

	queueGroup = "economy_group"

	// commandTimeout bounds one command, including those still being
	// drained after shutdown began.
	commandTimeout = 10 * time.Second
)

// Reply is sent back to requesters that set a reply subject.
type Reply struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  string          `json:"error,omitempty"`
	// Retryable marks transient failures; validation errors are final.
	Retryable bool `json:"retryable,omitempty"`
}

type command func(ctx context.Context, svc service.EconomyService, caller string, data []byte) (any, error)

// Handler subscribes to NATS command subjects and delegates to the economy service.
type Handler struct {
	svc      service.EconomyService
	nc       *nats.Conn
	subs     []*nats.Subscription
	commands map[string]command
}

func NewHandler(svc service.EconomyService, nc *nats.Conn) *Handler {
	return &Handler{
		svc: svc,
		nc:  nc,
		commands: map[string]command{
			SubjectPurchase: decodeAnd(service.EconomyService.Purchase),
			SubjectRedeem:   decodeAnd(service.EconomyService.Redeem),
			SubjectBid:      decodeAnd(service.EconomyService.PlaceBid),
			SubjectXp:       decodeAsCaller(service.EconomyService.AwardXp),
			SubjectMood:     decodeAsCaller(service.EconomyService.AwardMood),
		},
	}
}

func decodeAnd[Req, Res any](op func(service.EconomyService, context.Context, Req) (*Res, error)) command {
	return func(ctx context.Context, svc service.EconomyService, _ string, data []byte) (any, error) {
		var req Req
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("%w: %v", ledger.ErrInvalidRequest, err)
		}
		return op(svc, ctx, req)
	}
}

// decodeAsCaller is decodeAnd for operations authorized against the caller
// named in the message header.
func decodeAsCaller[Req, Res any](op func(service.EconomyService, context.Context, string, Req) (*Res, error)) command {
	return func(ctx context.Context, svc service.EconomyService, caller string, data []byte) (any, error) {
		var req Req
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("%w: %v", ledger.ErrInvalidRequest, err)
		}
		return op(svc, ctx, caller, req)
	}
}

// handle runs one delivered message. Messages delivered during Drain arrive
// after ctx is cancelled, so the command gets its own deadline instead.
func (h *Handler) handle(ctx context.Context, m *nats.Msg) Reply {
	cmdCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commandTimeout)
	defer cancel()
	return h.Dispatch(cmdCtx, m.Subject, m.Header.Get(UserIDHeader), m.Data)
}

// Start subscribes to command subjects and blocks until ctx is cancelled (graceful shutdown).
func (h *Handler) Start(ctx context.Context) error {
	for subject := range h.commands {
		sub, err := h.nc.QueueSubscribe(subject, queueGroup, func(m *nats.Msg) {
			reply := h.handle(ctx, m)
			if m.Reply == "" {
				return
			}
			data, err := json.Marshal(reply)
			if err != nil {
				slog.Error("nats: failed to encode reply", "subject", m.Subject, "error", err)
				return
			}
			if err := m.Respond(data); err != nil {
				slog.Error("nats: failed to respond", "subject", m.Subject, "error", err)
			}
		})
		if err != nil {
			return err
		}
		h.subs = append(h.subs, sub)
	}

	slog.Info("NATS command handler is running", "subjects", len(h.subs))

	<-ctx.Done()
	slog.Info("NATS command handler shutting down, draining subscriptions...")

	for _, s := range h.subs {
		_ = s.Drain()
	}
	return nil
}

func (h *Handler) Stop(ctx context.Context) error {
	for _, s := range h.subs {
		_ = s.Unsubscribe()
	}
	return nil
}

// Dispatch runs the command for subject on behalf of caller and builds its
// reply.
func (h *Handler) Dispatch(ctx context.Context, subject, caller string, data []byte) Reply {
	cmd, ok := h.commands[subject]
	if !ok {
		return Reply{Error: fmt.Sprintf("unknown command %q", subject)}
	}

	res, err := cmd(ctx, h.svc, caller, data)
	if err != nil {
		retryable := errors.Is(err, ledger.ErrTransient)
		if retryable {
			slog.Error("nats: command failed", "subject", subject, "error", err)
		} else {
			slog.Debug("nats: command rejected", "subject", subject, "error", err)
		}
		return Reply{Error: err.Error(), Retryable: retryable}
	}

	out, err := json.Marshal(res)
	if err != nil {
		return Reply{Error: err.Error()}
	}
	return Reply{OK: true, Result: out}
}
