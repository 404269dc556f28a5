// Package auth maps account roles to the capabilities they hold. Elevated
// behaviour is granted through these capabilities rather than by comparing
// account identities.
package auth

import (
	"errors"
	"fmt"

	"github.com/notarijp-cyber/ecomaker-sub003/internal/model"
)

type Capability string

const (
	CapPublishCatalog Capability = "publish_catalog"
	CapIssueCodes     Capability = "issue_codes"
	CapGrantCredits   Capability = "grant_credits"
	CapSettleAuctions Capability = "settle_auctions"
	CapPurge          Capability = "purge"
	CapManageRoles    Capability = "manage_roles"
	CapAwardRewards   Capability = "award_rewards"
)

var ErrForbidden = errors.New("operation not permitted")

var grants = map[model.Role][]Capability{
	model.RoleAdmin: {
		CapPublishCatalog,
		CapIssueCodes,
		CapGrantCredits,
		CapSettleAuctions,
		CapPurge,
		CapManageRoles,
		CapAwardRewards,
	},
	model.RoleSystem: {
		CapSettleAuctions,
		CapGrantCredits,
		CapAwardRewards,
	},
}

// Can reports whether role holds capability.
func Can(role model.Role, c Capability) bool {
	for _, have := range grants[role] {
		if have == c {
			return true
		}
	}
	return false
}

// Authorize returns ErrForbidden when the account's role lacks capability.
func Authorize(acc *model.Account, c Capability) error {
	if acc == nil || !Can(acc.Role, c) {
		return fmt.Errorf("%w: %s", ErrForbidden, c)
	}
	return nil
}

// ValidRole reports whether r is a role accounts may be registered with.
func ValidRole(r model.Role) bool {
	switch r {
	case model.RolePlayer, model.RoleAdmin, model.RoleSystem:
		return true
	}
	return false
}
