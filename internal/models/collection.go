package models

import (
	"time"
)

// Condition describes the physical state of an ungraded card.
type Condition string

const (
	ConditionRaw     Condition = "Raw"
	ConditionLP      Condition = "LP"
	ConditionMP      Condition = "MP"
	ConditionHP      Condition = "HP"
	ConditionDamaged Condition = "Damaged"
)

// AllConditions returns all valid card conditions.
func AllConditions() []Condition {
	return []Condition{
		ConditionRaw,
		ConditionLP,
		ConditionMP,
		ConditionHP,
		ConditionDamaged,
	}
}

// Valid reports whether c is a known condition.
func (c Condition) Valid() bool {
	for _, known := range AllConditions() {
		if c == known {
			return true
		}
	}
	return false
}

// WishlistPriority ranks how badly a user wants a card.
type WishlistPriority string

const (
	PriorityLow    WishlistPriority = "low"
	PriorityMedium WishlistPriority = "medium"
	PriorityHigh   WishlistPriority = "high"
)

// Valid reports whether p is a known priority.
func (p WishlistPriority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// CollectionItem is one owned card variant. LockedQuantity is the portion
// reserved by active marketplace listings; Quantity - LockedQuantity is the
// sellable remainder. Invariant: 0 <= LockedQuantity <= Quantity.
type CollectionItem struct {
	ID               uint         `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID           string       `json:"user_id" gorm:"not null;uniqueIndex:idx_user_card"`
	CardID           string       `json:"card_id" gorm:"not null;uniqueIndex:idx_user_card"`
	Card             CardSnapshot `json:"card" gorm:"embedded;embeddedPrefix:card_"`
	Quantity         int          `json:"quantity" gorm:"not null;default:1"`
	LockedQuantity   int          `json:"locked_quantity" gorm:"not null;default:0"`
	PurchasePriceUSD *float64     `json:"purchase_price_usd,omitempty"`
	Condition        Condition    `json:"condition" gorm:"default:'Raw'"`
	GradingCompany   string       `json:"grading_company,omitempty"`
	GradingGrade     string       `json:"grading_grade,omitempty"`
	AddedAt          time.Time    `json:"added_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// Available returns the sellable quantity not reserved by active listings.
func (i *CollectionItem) Available() int {
	return i.Quantity - i.LockedQuantity
}

// WishlistItem has no locking semantics; it is a want, not a holding.
type WishlistItem struct {
	ID       uint             `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID   string           `json:"user_id" gorm:"not null;uniqueIndex:idx_user_wish"`
	CardID   string           `json:"card_id" gorm:"not null;uniqueIndex:idx_user_wish"`
	Card     CardSnapshot     `json:"card" gorm:"embedded;embeddedPrefix:card_"`
	Priority WishlistPriority `json:"priority" gorm:"default:'medium'"`
	AddedAt  time.Time        `json:"added_at"`
}

type AddToCollectionRequest struct {
	CardID           string       `json:"card_id" binding:"required"`
	Card             CardSnapshot `json:"card" binding:"required"`
	Quantity         int          `json:"quantity"`
	PurchasePriceUSD *float64     `json:"purchase_price_usd"`
	Condition        Condition    `json:"condition"`
	GradingCompany   string       `json:"grading_company"`
	GradingGrade     string       `json:"grading_grade"`
}

type UpdateCollectionItemRequest struct {
	Quantity         *int       `json:"quantity"`
	PurchasePriceUSD *float64   `json:"purchase_price_usd"`
	Condition        *Condition `json:"condition"`
	GradingCompany   *string    `json:"grading_company"`
	GradingGrade     *string    `json:"grading_grade"`
}

type AddToWishlistRequest struct {
	CardID   string           `json:"card_id" binding:"required"`
	Card     CardSnapshot     `json:"card" binding:"required"`
	Priority WishlistPriority `json:"priority"`
}

// CollectionSyncRequest replaces the user's entire collection and wishlist
// in one shot. Last writer wins at the granularity of the whole payload.
type CollectionSyncRequest struct {
	Items    []CollectionItem `json:"items"`
	Wishlist []WishlistItem   `json:"wishlist"`
}

// ValuedCollectionItem decorates an item with display-currency valuation.
type ValuedCollectionItem struct {
	CollectionItem
	MarketValue       float64  `json:"market_value"`
	CostBasis         float64  `json:"cost_basis"`
	ProfitLoss        float64  `json:"profit_loss"`
	ProfitLossPercent *float64 `json:"profit_loss_percent,omitempty"`
	DisplayValue      string   `json:"display_value"`
}

// CollectionTotals sums valuation over the whole collection.
type CollectionTotals struct {
	MarketValue       float64  `json:"market_value"`
	CostBasis         float64  `json:"cost_basis"`
	ProfitLoss        float64  `json:"profit_loss"`
	ProfitLossPercent *float64 `json:"profit_loss_percent,omitempty"`
	DisplayValue      string   `json:"display_value"`
}

type CollectionResponse struct {
	Items    []ValuedCollectionItem `json:"items"`
	Wishlist []WishlistItem         `json:"wishlist"`
	Totals   CollectionTotals       `json:"totals"`
	Currency string                 `json:"currency"`
}

type CollectionStats struct {
	TotalCards    int     `json:"total_cards"`
	UniqueCards   int     `json:"unique_cards"`
	LockedCards   int     `json:"locked_cards"`
	WishlistCards int     `json:"wishlist_cards"`
	TotalValueUSD float64 `json:"total_value_usd"`
}
