package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/repository"
)

// AuditRecorder persists committed ledger events. Recording an event twice
// must be a no-op.
type AuditRecorder interface {
	RecordEvent(ctx context.Context, e model.LedgerEvent) error
}

// AuditWorker listens on the events topic and appends every ledger event to
// the audit trail.
type AuditWorker struct {
	recorder AuditRecorder
	natsConn *nats.Conn
}

func NewAuditWorker(recorder AuditRecorder, nc *nats.Conn) *AuditWorker {
	return &AuditWorker{
		recorder: recorder,
		natsConn: nc,
	}
}

// Run subscribes to the events topic and blocks until ctx is cancelled.
func (w *AuditWorker) Run(ctx context.Context) error {
	// Queue group: each event reaches one worker even with many replicas.
	sub, err := w.natsConn.QueueSubscribe(repository.EventsTopic, "audit_group", func(m *nats.Msg) {
		_ = recordDetached(ctx, w.recorder, m.Data)
	})
	if err != nil {
		return fmt.Errorf("worker: failed to subscribe to NATS: %w", err)
	}

	slog.Info("Audit worker is running", "topic", repository.EventsTopic)

	<-ctx.Done()

	slog.Info("Audit worker received shutdown signal, draining subscription...")
	return sub.Drain()
}

const recordTimeout = 10 * time.Second

// recordDetached records an event delivered by the subscription. Events
// delivered while draining arrive after ctx is cancelled and must still land.
func recordDetached(ctx context.Context, recorder AuditRecorder, data []byte) error {
	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	return RecordPayload(recordCtx, recorder, data)
}

// RecordPayload decodes an encoded ledger event and records it.
func RecordPayload(ctx context.Context, recorder AuditRecorder, data []byte) error {
	event, err := repository.DecodeEvent(data)
	if err != nil {
		slog.Error("worker: failed to unmarshal ledger event", "error", err)
		return fmt.Errorf("decode ledger event: %w", err)
	}
	if event.ID == "" {
		slog.Error("worker: ledger event without id", "kind", event.Kind, "account_id", event.AccountID)
		return fmt.Errorf("ledger event without id")
	}

	if err := recorder.RecordEvent(ctx, event); err != nil {
		slog.Error("worker: failed to record ledger event",
			"event_id", event.ID,
			"account_id", event.AccountID,
			"error", err,
		)
		return err
	}

	slog.Debug("worker: ledger event recorded",
		"event_id", event.ID,
		"kind", event.Kind,
		"account_id", event.AccountID,
	)
	return nil
}

// Start implements the infrastructure.Server interface.
func (w *AuditWorker) Start(ctx context.Context) error {
	return w.Run(ctx)
}

// Stop implements the infrastructure.Server interface (no-op, shutdown is via ctx).
func (w *AuditWorker) Stop(ctx context.Context) error {
	return nil
}
