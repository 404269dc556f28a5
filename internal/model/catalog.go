package model

import "time"

type ItemKind string

const (
	ItemKindCosmetic    ItemKind = "cosmetic"
	ItemKindConsumable  ItemKind = "consumable"
	ItemKindCollectible ItemKind = "collectible"
)

func (k ItemKind) Valid() bool {
	switch k {
	case ItemKindCosmetic, ItemKindConsumable, ItemKindCollectible:
		return true
	}
	return false
}

// CatalogItem is immutable once published.
type CatalogItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Rarity    string    `json:"rarity"`
	Kind      ItemKind  `json:"kind"`
	CreatedAt time.Time `json:"created_at"`
}

// RedemptionCode can be claimed by many users, each at most once.
type RedemptionCode struct {
	Code         string    `json:"code"`
	CreditsGrant int64     `json:"credits_grant"`
	ItemGrants   ItemSet   `json:"item_grants,omitempty"`
	RedeemedBy   ItemSet   `json:"redeemed_by"`
	CreatedAt    time.Time `json:"created_at"`
}
