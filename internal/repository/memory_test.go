package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
)

func seedAccount(t *testing.T, s *MemoryStore, id string, balance int64) {
	t.Helper()
	err := s.RunInTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.InsertAccount(ctx, &model.Account{ID: id, Balance: balance})
	})
	require.NoError(t, err)
}

func TestMemoryStore_InsertAndRead(t *testing.T) {
	s := NewMemoryStore()
	seedAccount(t, s, "u1", 30)

	acc, err := s.GetAccount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(30), acc.Balance)

	_, err = s.GetAccount(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.RunInTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.InsertAccount(ctx, &model.Account{ID: "u1"})
	})
	assert.ErrorIs(t, err, ErrExists)
}

func TestMemoryStore_ConflictOnConcurrentWrite(t *testing.T) {
	s := NewMemoryStore()
	seedAccount(t, s, "u1", 100)
	ctx := context.Background()

	err := s.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		acc, err := tx.Account(ctx, "u1")
		require.NoError(t, err)

		// another writer commits between our read and our commit
		require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, other Tx) error {
			a, err := other.Account(ctx, "u1")
			if err != nil {
				return err
			}
			a.Balance -= 10
			return other.PutAccount(ctx, a)
		}))

		acc.Balance -= 50
		return tx.PutAccount(ctx, acc)
	})
	require.ErrorIs(t, err, ErrConflict)

	acc, err := s.GetAccount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(90), acc.Balance)
}

func TestMemoryStore_FailedTxLeavesNoTrace(t *testing.T) {
	s := NewMemoryStore()
	seedAccount(t, s, "u1", 100)
	boom := errors.New("boom")

	err := s.RunInTx(context.Background(), func(ctx context.Context, tx Tx) error {
		acc, err := tx.Account(ctx, "u1")
		if err != nil {
			return err
		}
		acc.Balance = 0
		if err := tx.PutAccount(ctx, acc); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	acc, _ := s.GetAccount(context.Background(), "u1")
	assert.Equal(t, int64(100), acc.Balance)
}

func TestMemoryStore_ReadYourWrites(t *testing.T) {
	s := NewMemoryStore()
	seedAccount(t, s, "u1", 10)

	err := s.RunInTx(context.Background(), func(ctx context.Context, tx Tx) error {
		acc, err := tx.Account(ctx, "u1")
		if err != nil {
			return err
		}
		acc.Balance = 20
		if err := tx.PutAccount(ctx, acc); err != nil {
			return err
		}
		again, err := tx.Account(ctx, "u1")
		if err != nil {
			return err
		}
		assert.Equal(t, int64(20), again.Balance)
		return nil
	})
	require.NoError(t, err)
}

func TestMemoryStore_BlindWriteRejected(t *testing.T) {
	s := NewMemoryStore()
	seedAccount(t, s, "u1", 10)

	err := s.RunInTx(context.Background(), func(ctx context.Context, tx Tx) error {
		return tx.PutAccount(ctx, &model.Account{ID: "u1", Balance: 1_000_000})
	})
	require.ErrorIs(t, err, errBlindWrite)
}

func TestMemoryStore_DueAndSettledAuctions(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	auctions := []*model.Auction{
		{ID: "late", EndTime: now.Add(time.Hour), Status: model.AuctionStatusOpen},
		{ID: "due-2", EndTime: now.Add(-time.Minute), Status: model.AuctionStatusOpen},
		{ID: "due-1", EndTime: now.Add(-time.Hour), Status: model.AuctionStatusOpen},
		{ID: "done", EndTime: now.Add(-2 * time.Hour), Status: model.AuctionStatusSettled},
	}
	require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		for _, a := range auctions {
			if err := tx.InsertAuction(ctx, a); err != nil {
				return err
			}
		}
		return nil
	}))

	due, err := s.ListDueAuctions(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, "due-1", due[0].ID)
	assert.Equal(t, "due-2", due[1].ID)

	settled, err := s.ListSettledAuctions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"done"}, settled)

	require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.Auction(ctx, "done"); err != nil {
			return err
		}
		return tx.DeleteAuction(ctx, "done")
	}))
	_, err = s.GetAuction(ctx, "done")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAsConflict(t *testing.T) {
	err := asConflict(&pgconn.PgError{Code: "40001", Message: "could not serialize access"})
	assert.ErrorIs(t, err, ErrConflict)

	other := &pgconn.PgError{Code: "23505"}
	assert.Equal(t, error(other), asConflict(other))
	assert.NoError(t, asConflict(nil))
}

func TestMemoryStore_RecreatedRecordDoesNotReuseVersion(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	insert := func() {
		require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
			return tx.InsertAuction(ctx, &model.Auction{ID: "a1", SellerID: "s", Status: model.AuctionStatusSettled})
		}))
	}
	insert()

	err := s.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		a, err := tx.Auction(ctx, "a1")
		require.NoError(t, err)

		// the record is deleted and re-created before this transaction commits
		require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, other Tx) error {
			if _, err := other.Auction(ctx, "a1"); err != nil {
				return err
			}
			return other.DeleteAuction(ctx, "a1")
		}))
		insert()

		a.CurrentBid = 99
		return tx.PutAuction(ctx, a)
	})
	require.ErrorIs(t, err, ErrConflict)

	a, err := s.GetAuction(ctx, "a1")
	require.NoError(t, err)
	assert.Zero(t, a.CurrentBid)
}

func TestMemoryStore_DeletedRecordsAreInvisible(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.InsertAuction(ctx, &model.Auction{ID: "a1", SellerID: "s", Status: model.AuctionStatusSettled})
	}))
	require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		if _, err := tx.Auction(ctx, "a1"); err != nil {
			return err
		}
		return tx.DeleteAuction(ctx, "a1")
	}))

	_, err := s.GetAuction(ctx, "a1")
	assert.ErrorIs(t, err, ErrNotFound)
	ids, err := s.ListSettledAuctions(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	err = s.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.PutAuction(ctx, &model.Auction{ID: "a1"})
	})
	assert.ErrorIs(t, err, errBlindWrite)
}

func TestMemoryStore_PutAccountBumpsRevision(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	seedAccount(t, s, "u1", 0)

	for want := int64(1); want <= 3; want++ {
		require.NoError(t, s.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
			acc, err := tx.Account(ctx, "u1")
			if err != nil {
				return err
			}
			acc.Balance += 10
			return tx.PutAccount(ctx, acc)
		}))
		acc, err := s.GetAccount(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, want, acc.Revision)
	}
}
