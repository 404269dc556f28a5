package model

import (
	"time"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/progression"
)

type Role string

const (
	RolePlayer Role = "player"
	RoleAdmin  Role = "admin"
	// RoleSystem is used by automated actors such as the settlement sweep.
	RoleSystem Role = "system"
)

// Account is one user's wallet and inventory. It is only ever mutated
// inside a ledger transaction.
type Account struct {
	ID               string    `json:"id"`
	Role             Role      `json:"role"`
	Balance          int64     `json:"balance"`
	Experience       int64     `json:"experience"`
	MoodPoints       int64     `json:"mood_points"`
	OwnedItems       ItemSet   `json:"owned_items"`
	EquippedCosmetic string    `json:"equipped_cosmetic,omitempty"`
	RewardEvents     ItemSet   `json:"reward_events,omitempty"`
	// Revision counts committed writes; the store bumps it on every put.
	Revision         int64     `json:"revision"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (a *Account) Level() int64 {
	return progression.AccountLevel(a.Experience)
}

func (a *Account) MoodLevel() int64 {
	return progression.MoodLevel(a.MoodPoints)
}
