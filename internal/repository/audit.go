package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
)

// AuditRepo appends committed ledger events to the ledger_entries table.
// Recording the same event twice is a no-op.
type AuditRepo struct {
	dbPool *pgxpool.Pool
}

func NewAuditRepo(db *pgxpool.Pool) *AuditRepo {
	return &AuditRepo{dbPool: db}
}

func (r *AuditRepo) RecordEvent(ctx context.Context, e model.LedgerEvent) error {
	query := `
		INSERT INTO ledger_entries (event_id, kind, account_id, delta, balance, reference, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (event_id) DO NOTHING`

	_, err := r.dbPool.Exec(ctx, query,
		e.ID,
		string(e.Kind),
		e.AccountID,
		e.Delta,
		e.Balance,
		e.Reference,
		e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save ledger entry: %w", err)
	}
	return nil
}
