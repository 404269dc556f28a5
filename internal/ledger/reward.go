package ledger

import (
	"context"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/auth"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
	"github.com/notarijp-cyber/ecomaker-sub003/internal/repository"
)

// AwardXp adds experience. It is purely additive; with a non-empty EventID
// the award is recorded on the account and replays of the same event are
// skipped (Applied=false). The actor must hold the award capability; players
// never award themselves.
func (e *Engine) AwardXp(ctx context.Context, actorID string, req model.RewardRequest) (*model.XpReceipt, error) {
	return e.award(ctx, actorID, "award_xp", "xp:", model.EventXpAward, req, func(acc *model.Account) (err error) {
		acc.Experience, err = addAmount(acc.Experience, req.Amount)
		return err
	})
}

// AwardMood adds cosmetic mood points, a counter separate from experience.
func (e *Engine) AwardMood(ctx context.Context, actorID string, req model.RewardRequest) (*model.XpReceipt, error) {
	return e.award(ctx, actorID, "award_mood", "mood:", model.EventMoodAward, req, func(acc *model.Account) (err error) {
		acc.MoodPoints, err = addAmount(acc.MoodPoints, req.Amount)
		return err
	})
}

func (e *Engine) award(ctx context.Context, actorID, op, prefix string, kind model.EventKind, req model.RewardRequest, apply func(*model.Account) error) (*model.XpReceipt, error) {
	if req.UserID == "" {
		return nil, ErrInvalidRequest
	}
	if req.Amount < 0 {
		return nil, ErrInvalidAmount
	}
	if err := e.authorize(ctx, actorID, auth.CapAwardRewards); err != nil {
		return nil, err
	}

	var receipt model.XpReceipt
	err := e.run(ctx, op, func(ctx context.Context, tx repository.Tx, fx *effects) error {
		acc, err := loadAccount(ctx, tx, req.UserID)
		if err != nil {
			return err
		}

		applied := true
		if req.EventID != "" {
			applied = acc.RewardEvents.Add(prefix + req.EventID)
		}
		if applied {
			if err := apply(acc); err != nil {
				return err
			}
			acc.UpdatedAt = fx.now
			if err := tx.PutAccount(ctx, acc); err != nil {
				return err
			}
			fx.record(kind, acc, 0, req.EventID)
		}

		receipt = model.XpReceipt{
			Experience: acc.Experience,
			Level:      acc.Level(),
			MoodPoints: acc.MoodPoints,
			MoodLevel:  acc.MoodLevel(),
			Applied:    applied,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}
