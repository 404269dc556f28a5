package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
)

// PostgresStore keeps each collection in its own table as a JSONB document
// with a version column. Writes are conditional on the version read in the
// same transaction, which is what makes the transactions optimistic.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	pt := &pgTx{tx: tx, reads: make(map[docKey]int64)}
	if err := fn(ctx, &typedTx{docs: pt}); err != nil {
		return asConflict(err)
	}
	return asConflict(tx.Commit(ctx))
}

// asConflict folds serialization and deadlock failures into ErrConflict.
func asConflict(err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01") {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.Message)
	}
	return err
}

func (s *PostgresStore) getDoc(ctx context.Context, coll, id string, v any) error {
	var data []byte
	err := s.db.QueryRow(ctx, fmt.Sprintf(`SELECT doc FROM %s WHERE id = $1`, coll), id).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("database query error: %w", err)
	}
	return json.Unmarshal(data, v)
}

func (s *PostgresStore) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	var a model.Account
	if err := s.getDoc(ctx, collAccounts, id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresStore) GetAuction(ctx context.Context, id string) (*model.Auction, error) {
	var a model.Auction
	if err := s.getDoc(ctx, collAuctions, id, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *PostgresStore) ListDueAuctions(ctx context.Context, now time.Time, limit int) ([]*model.Auction, error) {
	query := `
		SELECT doc FROM auctions
		WHERE status = 'open' AND end_time <= $1
		ORDER BY end_time, id
		LIMIT $2`
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("database query error: %w", err)
	}
	defer rows.Close()

	var out []*model.Auction
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var a model.Auction
		if err := json.Unmarshal(data, &a); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListSettledAuctions(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM auctions WHERE status = 'settled' ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("database query error: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

type pgTx struct {
	tx    pgx.Tx
	reads map[docKey]int64
}

func (t *pgTx) get(ctx context.Context, coll, id string) ([]byte, error) {
	var (
		data    []byte
		version int64
	)
	err := t.tx.QueryRow(ctx,
		fmt.Sprintf(`SELECT doc, version FROM %s WHERE id = $1`, coll), id,
	).Scan(&data, &version)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	t.reads[docKey{coll, id}] = version
	return data, nil
}

func (t *pgTx) insert(ctx context.Context, coll, id string, doc []byte, meta docMeta) error {
	var (
		tag pgconn.CommandTag
		err error
	)
	if coll == collAuctions {
		tag, err = t.tx.Exec(ctx, `
			INSERT INTO auctions (id, doc, version, end_time, status)
			VALUES ($1, $2, 1, $3, $4)
			ON CONFLICT (id) DO NOTHING`, id, doc, meta.EndTime, meta.Status)
	} else {
		tag, err = t.tx.Exec(ctx, fmt.Sprintf(`
			INSERT INTO %s (id, doc, version)
			VALUES ($1, $2, 1)
			ON CONFLICT (id) DO NOTHING`, coll), id, doc)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExists
	}
	t.reads[docKey{coll, id}] = 1
	return nil
}

func (t *pgTx) put(ctx context.Context, coll, id string, doc []byte, meta docMeta) error {
	k := docKey{coll, id}
	version, ok := t.reads[k]
	if !ok {
		return errBlindWrite
	}
	var (
		tag pgconn.CommandTag
		err error
	)
	if coll == collAuctions {
		tag, err = t.tx.Exec(ctx, `
			UPDATE auctions
			SET doc = $2, version = version + 1, end_time = $4, status = $5, updated_at = now()
			WHERE id = $1 AND version = $3`, id, doc, version, meta.EndTime, meta.Status)
	} else {
		tag, err = t.tx.Exec(ctx, fmt.Sprintf(`
			UPDATE %s
			SET doc = $2, version = version + 1, updated_at = now()
			WHERE id = $1 AND version = $3`, coll), id, doc, version)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	t.reads[k] = version + 1
	return nil
}

func (t *pgTx) del(ctx context.Context, coll, id string) error {
	k := docKey{coll, id}
	version, ok := t.reads[k]
	if !ok {
		return errBlindWrite
	}
	tag, err := t.tx.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND version = $2`, coll), id, version)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrConflict
	}
	delete(t.reads, k)
	return nil
}
