package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/auth"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/repository"
)

// CreateAccount registers a user with the starting balance at level 1.
// Players register themselves; registering another user, or any role other
// than player, requires an actor allowed to manage roles.
func (e *Engine) CreateAccount(ctx context.Context, actorID string, req model.CreateAccountRequest) (*model.Account, error) {
	if req.UserID == "" {
		return nil, ErrInvalidRequest
	}
	role := req.Role
	if role == "" {
		role = model.RolePlayer
	}
	if !auth.ValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidRequest, role)
	}
	if role != model.RolePlayer || req.UserID != actorID {
		if err := e.authorize(ctx, actorID, auth.CapManageRoles); err != nil {
			return nil, err
		}
	}

	var created model.Account
	err := e.run(ctx, "create_account", func(ctx context.Context, tx repository.Tx, fx *effects) error {
		created = model.Account{
			ID:         req.UserID,
			Role:       role,
			Balance:    e.cfg.StartingBalance,
			Experience: 0,
			CreatedAt:  fx.now,
			UpdatedAt:  fx.now,
		}
		err := tx.InsertAccount(ctx, &created)
		if errors.Is(err, repository.ErrExists) {
			return ErrAccountExists
		}
		if err != nil {
			return err
		}
		fx.record(model.EventAccountCreated, &created, created.Balance, "registration")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// SeedAccount makes sure an account exists with the given role. It is used
// at startup to provision operator accounts from configuration and bypasses
// authorization.
func (e *Engine) SeedAccount(ctx context.Context, userID string, role model.Role) error {
	if userID == "" || !auth.ValidRole(role) {
		return ErrInvalidRequest
	}
	return e.run(ctx, "seed_account", func(ctx context.Context, tx repository.Tx, fx *effects) error {
		acc, err := tx.Account(ctx, userID)
		if errors.Is(err, repository.ErrNotFound) {
			return tx.InsertAccount(ctx, &model.Account{
				ID:        userID,
				Role:      role,
				Balance:   e.cfg.StartingBalance,
				CreatedAt: fx.now,
				UpdatedAt: fx.now,
			})
		}
		if err != nil {
			return err
		}
		if acc.Role == role {
			return nil
		}
		acc.Role = role
		acc.UpdatedAt = fx.now
		return tx.PutAccount(ctx, acc)
	})
}

// GetAccount is a display read outside any transaction.
func (e *Engine) GetAccount(ctx context.Context, userID string) (*model.Account, error) {
	acc, err := e.store.GetAccount(ctx, userID)
	if err != nil {
		return nil, displayErr(err, ErrAccountNotFound)
	}
	return acc, nil
}

// GetBalance serves the eventually consistent balance view. It must not be
// used to decide a mutation.
func (e *Engine) GetBalance(ctx context.Context, userID string) (*model.BalanceView, error) {
	if e.cache != nil {
		bal, err := e.cache.Balance(ctx, userID)
		if err != nil {
			return nil, displayErr(err, ErrAccountNotFound)
		}
		return &model.BalanceView{UserID: userID, Balance: bal}, nil
	}
	acc, err := e.GetAccount(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &model.BalanceView{UserID: userID, Balance: acc.Balance}, nil
}

func displayErr(err, notFound error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return notFound
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// authorize checks the actor's role against a capability. The actor record
// comes from a display read: roles change out of band and are not part of
// the ledger transaction.
func (e *Engine) authorize(ctx context.Context, actorID string, c auth.Capability) error {
	if actorID == "" {
		return fmt.Errorf("%w: %s", ErrForbidden, c)
	}
	actor, err := e.store.GetAccount(ctx, actorID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrForbidden, c)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransient, err)
	}
	return auth.Authorize(actor, c)
}
